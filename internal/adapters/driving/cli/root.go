// Package cli implements the askdoc command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdoc/internal/logger"
)

var version = "dev"

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Ask questions against your documents",
	Long: `askdoc indexes documents into a vector store and answers batches of
questions against them, citing the passages each answer came from.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.askdoc/config.toml)")
}

// Execute runs the root command. The version string is stamped at build
// time by the caller.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
