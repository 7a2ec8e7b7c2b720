package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/voicecatalog/harmonizer/internal/catalog"
)

var statsDB string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print headline catalog counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := catalog.OpenExisting(ctx, orDefault(statsDB, cfg.Paths.DB))
		if err != nil {
			return eris.Wrap(err, "open catalog")
		}
		defer st.Close() //nolint:errcheck

		s, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "read stats")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d voices from %d platforms, %d engines\n", s.Voices, s.Platforms, s.Engines)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsDB, "db", "", "catalog database path (default from config)")
	rootCmd.AddCommand(statsCmd)
}
