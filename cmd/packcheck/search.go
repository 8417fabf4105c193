package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/packcheck/internal/config"
	"github.com/dshills/packcheck/internal/report"
	"github.com/dshills/packcheck/internal/searcher"
	"github.com/dshills/packcheck/pkg/types"
)

var (
	searchTop     int
	searchFTSOnly bool
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search the pack",
	Long: `Runs a hybrid search over the pack.
Candidates come from the FTS5 index in BM25 order; when an embedding provider
is configured and the pack stores embeddings, they are re-ranked against the
query embedding and both rankings are fused with Reciprocal Rank Fusion.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTop, "top", "n", config.DefaultTop, "number of results to return")
	searchCmd.Flags().BoolVar(&searchFTSOnly, "fts-only", false, "rank by BM25 only")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	a, cfg, logger, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	top := searchTop
	if !cmd.Flags().Changed("top") {
		top = cfg.Search.DefaultTop
	}
	if top < 1 {
		return fmt.Errorf("%w: --top must be at least 1", types.ErrInvalidArgument)
	}

	resp, err := a.Search(cmd.Context(), searcher.SearchRequest{
		Query:   query,
		Top:     top,
		FTSOnly: searchFTSOnly,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return report.WriteJSON(cmd.OutOrStdout(), struct {
			Pack string `json:"pack"`
			*searcher.SearchResponse
		}{a.PackPath(), resp})
	}
	return report.WriteSearch(cmd.OutOrStdout(), a.PackPath(), resp, cfg.Search.SnippetLength)
}
