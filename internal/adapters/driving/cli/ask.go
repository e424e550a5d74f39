package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/askdoc/internal/core/domain"
)

var (
	askJSON          bool
	askQuestionsFile string
)

var askCmd = &cobra.Command{
	Use:   "ask [document-id] [question]...",
	Short: "Answer questions against an indexed document",
	Long: `Answers one or more questions against a previously ingested document.
Questions are processed concurrently; each answer cites the passages it
was synthesized from. Questions the document cannot answer receive a
fallback response instead of a guess.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the batch result as JSON")
	askCmd.Flags().StringVarP(&askQuestionsFile, "file", "f", "", "read questions from a file, one per line")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	documentID := args[0]
	questions := args[1:]

	if askQuestionsFile != "" {
		fromFile, err := readQuestions(askQuestionsFile)
		if err != nil {
			return err
		}
		questions = append(questions, fromFile...)
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions given: pass them as arguments or with --file")
	}

	ctx := cmd.Context()
	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.answerer.Answer(ctx, documentID, questions)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for i, answer := range result.Answers {
		detail := result.Details[i]
		cmd.Printf("[%d] %s\n", i+1, detail.Question)
		cmd.Printf("    %s\n", answer)
		if detail.State == domain.QuestionFailed {
			cmd.Printf("    (failed after %s)\n", detail.ProcessingTime.Round(timeRounding))
		} else {
			cmd.Printf("    (%d passages, score %.1f/10, %s)\n",
				detail.SearchResultsCount, detail.ValidationScore, detail.ProcessingTime.Round(timeRounding))
		}
		cmd.Println()
	}
	cmd.Printf("Batch %s: %d questions in %s\n", result.BatchID, len(questions), result.TotalTime.Round(timeRounding))
	return nil
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return questions, nil
}
