package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/packcheck/internal/report"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show pack statistics",
	Long: `Prints the pack path and size, row counts for docs, chunks, FTS and
embeddings, the stored embedding dimension and the earliest chunk.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	a, _, logger, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	stats, err := a.Info(cmd.Context())
	if err != nil {
		return err
	}
	if infoJSON {
		return report.WriteJSON(cmd.OutOrStdout(), stats)
	}
	return report.WriteInfo(cmd.OutOrStdout(), stats)
}
