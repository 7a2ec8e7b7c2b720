package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voicecatalog/harmonizer/internal/reference"
)

// DefaultAudioURLBase is where the preview clips are published.
const DefaultAudioURLBase = "https://raw.githubusercontent.com/willwade/WorldAlphabets/main/data/audio"

var (
	audioSource  string
	audioURLBase string
	audioRefDir  string
)

var importAudioCmd = &cobra.Command{
	Use:   "import-audio",
	Short: "Build the audio preview index from a directory of clips",
	RunE: func(cmd *cobra.Command, args []string) error {
		refDir := orDefault(audioRefDir, cfg.Paths.ReferenceDir)
		audioDir := filepath.Join(audioSource, "audio")

		entries, err := reference.BuildAudioIndex(audioDir, audioURLBase)
		if err != nil {
			return eris.Wrap(err, "build audio index")
		}

		out := filepath.Join(refDir, reference.AudioIndexFile)
		n, err := reference.WriteListIfNotShorter(out, entries)
		if err != nil {
			return eris.Wrap(err, "write audio index")
		}
		if n > len(entries) {
			zap.L().Info("existing audio index is larger, kept it",
				zap.String("path", out),
				zap.Int("existing", n),
				zap.Int("found", len(entries)),
			)
			return nil
		}
		zap.L().Info("audio index written", zap.String("path", out), zap.Int("entries", n))
		return nil
	},
}

func init() {
	importAudioCmd.Flags().StringVar(&audioSource, "source", "", "WorldAlphabets data directory containing audio/")
	importAudioCmd.Flags().StringVar(&audioURLBase, "url-base", DefaultAudioURLBase, "public URL prefix for clips")
	importAudioCmd.Flags().StringVar(&audioRefDir, "reference-dir", "", "reference data directory (default from config)")
	_ = importAudioCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(importAudioCmd)
}
