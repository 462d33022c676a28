package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kbqa/internal/ingest"
	"kbqa/internal/storage"
)

var (
	ingestDocsDir string
	ingestDBPath  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest markdown documents into the knowledge base",
	Long: `Walks the documents directory, chunks every markdown file, and loads
the chunks into the vector store. Files unchanged since the previous run
are skipped.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocsDir, "docs-dir", "", "directory containing markdown documents (overrides DOCS_DIR)")
	ingestCmd.Flags().StringVar(&ingestDBPath, "db-path", "", "path to the ingestion registry database (overrides DB_PATH)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	docsDir := cfg.DocsDir
	if ingestDocsDir != "" {
		docsDir = ingestDocsDir
	}
	dbPath := cfg.DBPath
	if ingestDBPath != "" {
		dbPath = ingestDBPath
	}

	db, err := storage.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open registry database: %w", err)
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate registry database: %w", err)
	}

	store, err := buildStore()
	if err != nil {
		return err
	}

	ch, err := buildChunker()
	if err != nil {
		return err
	}

	pipeline := ingest.NewPipeline(
		docsDir,
		storage.NewRegistry(db),
		store,
		cfg.Collection,
		ch,
		ingest.NewProgress(ingest.DefaultProgressEnabled()),
	)

	stats, err := pipeline.Run(context.Background())
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d chunks from %d files (%d unchanged)\n",
		stats.ChunksAdded, stats.FilesFound-stats.FilesSkipped, stats.FilesSkipped)
	return nil
}
