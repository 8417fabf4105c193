package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/packcheck/internal/report"
	"github.com/dshills/packcheck/internal/storage"
)

var verifyJSON bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check pack consistency",
	Long: `Runs read-only checks against the pack: required tables, FTS row sync,
orphaned chunks and embeddings, embedding blob alignment and dimension, and
SQLite's quick_check. Exits non-zero when any error-level check fails.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	a, _, logger, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	rep, err := a.Verify(cmd.Context())
	if err != nil {
		return err
	}

	if verifyJSON {
		err = report.WriteJSON(cmd.OutOrStdout(), struct {
			OK bool `json:"ok"`
			*storage.VerifyReport
		}{rep.OK(), rep})
	} else {
		err = report.WriteVerify(cmd.OutOrStdout(), rep)
	}
	if err != nil {
		return err
	}

	if !rep.OK() {
		return fmt.Errorf("pack verification failed: %d check(s) did not pass", len(rep.Failed()))
	}
	return nil
}
