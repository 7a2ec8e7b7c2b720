package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "voicecat",
	Short: "TTS voice catalog harmonizer",
	Long:  "Merges raw TTS voice dumps into one enriched, classified SQLite catalog and exports it as site JSON.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// orDefault returns the flag value when set, else the configured value.
func orDefault(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
