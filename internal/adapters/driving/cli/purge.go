package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeCmd = &cobra.Command{
	Use:   "purge [document-id]",
	Short: "Remove a document from every backend",
	Long: `Deletes a document's chunks and vectors from all configured vector
backends. Removal is explicit and permanent; there is no automatic
expiry.`,
	Args: cobra.ExactArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ingestor.Purge(ctx, args[0]); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	cmd.Printf("Purged document %s\n", args[0])
	return nil
}
