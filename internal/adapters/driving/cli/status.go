package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// timeRounding keeps printed durations readable.
const timeRounding = time.Millisecond

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vector store health",
	Long: `Reports the active store mode and, for each configured backend, its
availability and vector count. An unreachable backend is reported as
unavailable rather than failing the command.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.status.Stats(ctx)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if statusJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Store mode: %s\n", a.config.Settings.StoreMode.Description())
	cmd.Printf("Embedding:  %s (%d dimensions)\n", a.embedder.ModelName(), a.embedder.Dimensions())
	cmd.Printf("LLM:        %s\n", a.llm.ModelName())
	cmd.Println()
	for _, backend := range stats.Backends {
		if backend.Available {
			cmd.Printf("  %-7s available, %d vectors\n", backend.Name, backend.VectorCount)
		} else {
			cmd.Printf("  %-7s unavailable\n", backend.Name)
		}
	}
	return nil
}
