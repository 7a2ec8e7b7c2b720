package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/api"
	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

var (
	servePort   int
	serveDB     string
	serveRefDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the voice catalog over a read-only JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		cfg.Paths.DB = orDefault(serveDB, cfg.Paths.DB)
		cfg.Paths.ReferenceDir = orDefault(serveRefDir, cfg.Paths.ReferenceDir)
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := catalog.OpenExisting(ctx, cfg.Paths.DB)
		if err != nil {
			return eris.Wrap(err, "open catalog")
		}
		defer st.Close() //nolint:errcheck

		refs, err := reference.Load(ctx, cfg.Paths.ReferenceDir)
		if err != nil {
			return eris.Wrap(err, "load reference data")
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.NewRouter(st, refs),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port), zap.String("db", cfg.Paths.DB))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "catalog database path (default from config)")
	serveCmd.Flags().StringVar(&serveRefDir, "reference-dir", "", "reference data directory (default from config)")
	rootCmd.AddCommand(serveCmd)
}
