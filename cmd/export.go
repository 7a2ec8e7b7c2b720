package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/export"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

var (
	exportDB     string
	exportRefDir string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the site JSON from the voice catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg.Paths.DB = orDefault(exportDB, cfg.Paths.DB)
		cfg.Paths.ReferenceDir = orDefault(exportRefDir, cfg.Paths.ReferenceDir)
		cfg.Paths.SiteJSON = orDefault(exportOut, cfg.Paths.SiteJSON)
		if err := cfg.Validate("export"); err != nil {
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

		payload, err := export.Build(ctx, st, refs, time.Now())
		if err != nil {
			return eris.Wrap(err, "build site payload")
		}
		if err := export.Write(payload, cfg.Paths.SiteJSON); err != nil {
			return eris.Wrap(err, "write site payload")
		}

		zap.L().Info("site JSON written",
			zap.String("path", cfg.Paths.SiteJSON),
			zap.Int("voices", payload.Summary.Voices),
			zap.Int("countries", payload.Summary.Countries),
			zap.Int("solutions", payload.Summary.Solutions),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "", "catalog database path (default from config)")
	exportCmd.Flags().StringVar(&exportRefDir, "reference-dir", "", "reference data directory (default from config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "site JSON output path (default from config)")
	rootCmd.AddCommand(exportCmd)
}
