package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kbqa/internal/chunker"
	"kbqa/internal/rag"
)

var (
	queryModel       string
	queryTopK        int
	queryShowContext bool
	queryOutput      string
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question against the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryModel, "model", "", "chat model to use (defaults to LLM_MODEL)")
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "number of context chunks to retrieve (defaults to TOP_K)")
	queryCmd.Flags().BoolVar(&queryShowContext, "show-context", false, "show the context used for the answer")
	queryCmd.Flags().StringVar(&queryOutput, "output", "", "file to save the full result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	store, err := buildStore()
	if err != nil {
		return err
	}
	engine := buildEngine(store)

	topK := queryTopK
	if topK <= 0 {
		topK = cfg.TopK
	}

	result, err := engine.Query(context.Background(), rag.Request{
		Query: args[0],
		Model: queryModel,
		TopK:  topK,
	})
	if err != nil {
		return err
	}

	printResult(cmd, result, queryShowContext)

	if queryOutput != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		if err := os.WriteFile(queryOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write result file: %w", err)
		}
	}

	return nil
}

// printResult prints a query result in a readable format.
func printResult(cmd *cobra.Command, result rag.Result, showContext bool) {
	frame := strings.Repeat("=", 50)

	cmd.Println("\n" + frame)
	cmd.Printf("QUERY: %s\n", result.Query)
	cmd.Println(frame)
	cmd.Printf("\nANSWER:\n%s\n", result.Answer)

	if showContext {
		cmd.Println("\n" + strings.Repeat("-", 50))
		cmd.Println("CONTEXT USED:")
		for i, chunk := range result.ContextChunks {
			meta := chunker.MetadataFromPayload(chunk.Metadata)
			cmd.Printf("\n[%d] From: %s | Section: %s\n", i+1, meta.Source, meta.Section)
			if meta.Additional != "" {
				cmd.Printf("   Also covers: %s\n", meta.Additional)
			}
			cmd.Printf("Relevance: %.4f (higher is better)\n", 1-chunk.Distance)
			cmd.Println(strings.Repeat("-", 30))
			text := chunk.Text
			if len(text) > 300 {
				text = text[:300] + "..."
			}
			cmd.Println(text)
		}
	}

	cmd.Println("\n" + frame)
}
