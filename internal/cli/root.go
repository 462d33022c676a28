// Package cli wires the kbqa commands: ingest, query, and serve.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kbqa/internal/chunker"
	"kbqa/internal/config"
	"kbqa/internal/llm"
	"kbqa/internal/rag"
	"kbqa/internal/vectorstore"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kbqa",
	Short: "Knowledge base Q&A over markdown documents",
	Long: `kbqa ingests a directory of markdown documents into a vector store
and answers questions about them using retrieval-augmented generation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		opts := &slog.HandlerOptions{Level: cfg.LogLevel}
		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		} else {
			handler = slog.NewTextHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// buildStore constructs the vector store with its embedding client attached.
func buildStore() (vectorstore.Store, error) {
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingVectorSize)
	return vectorstore.NewQdrantStore(cfg.QdrantURL, embedder, cfg.EmbeddingVectorSize)
}

// buildEngine constructs the query engine on top of the vector store.
func buildEngine(store vectorstore.Store) rag.Engine {
	chat := llm.NewClient(cfg.LLMBaseURL, cfg.OpenAIAPIKey, cfg.LLMModel)
	retriever := rag.NewRetriever(store, cfg.Collection)
	return rag.NewEngine(retriever, chat, cfg.LLMModel, cfg.OpenAIAPIKey)
}

// buildChunker constructs the chunking strategy selected in the config.
func buildChunker() (chunker.Chunker, error) {
	switch cfg.ChunkStrategy {
	case config.StrategyTokens:
		return chunker.NewTokenChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	default:
		return chunker.NewHeaderChunker(), nil
	}
}
