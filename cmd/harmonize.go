package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/catalog"
	"github.com/voicecatalog/harmonizer/internal/harmonize"
	"github.com/voicecatalog/harmonizer/internal/reference"
)

var (
	harmonizeRawDir     string
	harmonizeRefDir     string
	harmonizeDB         string
	harmonizeSourceName string
)

var harmonizeCmd = &cobra.Command{
	Use:   "harmonize",
	Short: "Rebuild the voice catalog from raw voice files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg.Paths.RawDir = orDefault(harmonizeRawDir, cfg.Paths.RawDir)
		cfg.Paths.ReferenceDir = orDefault(harmonizeRefDir, cfg.Paths.ReferenceDir)
		cfg.Paths.DB = orDefault(harmonizeDB, cfg.Paths.DB)
		cfg.Harmonize.DefaultSourceName = orDefault(harmonizeSourceName, cfg.Harmonize.DefaultSourceName)
		if err := cfg.Validate("harmonize"); err != nil {
			return err
		}

		refs, err := reference.Load(ctx, cfg.Paths.ReferenceDir)
		if err != nil {
			return eris.Wrap(err, "load reference data")
		}

		st, err := catalog.NewSQLite(cfg.Paths.DB)
		if err != nil {
			return eris.Wrap(err, "open catalog")
		}
		defer st.Close() //nolint:errcheck

		res, err := harmonize.Run(ctx, harmonize.Options{
			RawDir:     cfg.Paths.RawDir,
			SourceName: cfg.Harmonize.DefaultSourceName,
		}, refs, st)
		if err != nil {
			return eris.Wrap(err, "harmonize")
		}

		zap.L().Info("catalog rebuilt",
			zap.String("run_id", res.RunID),
			zap.String("db", cfg.Paths.DB),
			zap.Int("files", res.Load.Files),
			zap.Int("failed_files", res.Load.FailedFiles),
			zap.Int("voices", res.Catalog.Voices),
			zap.Int("solution_matches", res.Catalog.Matches),
			zap.Duration("elapsed", res.Elapsed),
		)
		return nil
	},
}

func init() {
	harmonizeCmd.Flags().StringVar(&harmonizeRawDir, "raw-dir", "", "raw voice directory (default from config)")
	harmonizeCmd.Flags().StringVar(&harmonizeRefDir, "reference-dir", "", "reference data directory (default from config)")
	harmonizeCmd.Flags().StringVar(&harmonizeDB, "db", "", "catalog database path (default from config)")
	harmonizeCmd.Flags().StringVar(&harmonizeSourceName, "source-name", "", "provenance name for records without one (default from config)")
	rootCmd.AddCommand(harmonizeCmd)
}
