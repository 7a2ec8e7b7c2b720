package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/legacy"
)

var (
	legacySource string
	legacyRawDir string
)

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy",
	Short: "Convert legacy static voice dumps into raw voice files",
	RunE: func(cmd *cobra.Command, args []string) error {
		src := orDefault(legacySource, cfg.Paths.LegacyDir)
		dst := orDefault(legacyRawDir, cfg.Paths.RawDir)

		results, err := legacy.ConvertDir(src, dst, time.Now())
		if err != nil {
			return eris.Wrap(err, "import legacy")
		}
		total := 0
		for _, r := range results {
			zap.L().Info("converted legacy file",
				zap.String("source", r.Source),
				zap.String("output", r.Output),
				zap.Int("voices", r.Count),
			)
			total += r.Count
		}
		zap.L().Info("legacy import complete", zap.Int("files", len(results)), zap.Int("voices", total))
		return nil
	},
}

func init() {
	importLegacyCmd.Flags().StringVar(&legacySource, "source", "", "legacy dump directory (default from config)")
	importLegacyCmd.Flags().StringVar(&legacyRawDir, "raw-dir", "", "raw voice output directory (default from config)")
	rootCmd.AddCommand(importLegacyCmd)
}
