package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/packcheck/internal/embedder"
	"github.com/dshills/packcheck/internal/storage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "packcheck version %s\n", version)
		fmt.Fprintf(out, "Build Time: %s\n", buildTime)
		fmt.Fprintf(out, "Build Mode: %s\n", storage.BuildMode)
		fmt.Fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
		fmt.Fprintf(out, "ONNX Runtime: %v\n", embedder.ONNXAvailable)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
