// Package ingest walks a documentation directory, chunks every markdown file,
// and loads the chunks into the vector store and the document registry.
package ingest

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"kbqa/internal/chunker"
	"kbqa/internal/contextutil"
	"kbqa/internal/markdown"
	"kbqa/internal/storage"
	"kbqa/internal/vectorstore"
)

// Pipeline orchestrates the ingestion of markdown files into the vector
// store, with SQLite bookkeeping so unchanged files are skipped on re-runs.
type Pipeline struct {
	docsDir    string
	registry   storage.DocumentRegistry
	store      vectorstore.Store
	collection string
	chunker    chunker.Chunker
	progress   ProgressReporter
}

// Stats summarizes one ingestion run.
type Stats struct {
	FilesFound   int
	FilesSkipped int
	ChunksAdded  int
}

// NewPipeline creates a new ingestion pipeline. progress may be nil.
func NewPipeline(
	docsDir string,
	registry storage.DocumentRegistry,
	store vectorstore.Store,
	collection string,
	ch chunker.Chunker,
	progress ProgressReporter,
) *Pipeline {
	return &Pipeline{
		docsDir:    docsDir,
		registry:   registry,
		store:      store,
		collection: collection,
		chunker:    ch,
		progress:   progress,
	}
}

// pendingFile holds the chunks produced for one changed file before the
// batch upsert.
type pendingFile struct {
	relPath string
	title   string
	hash    string
	existed bool
	docs    []vectorstore.Document
	records []*storage.ChunkRecord
}

// Run ingests every markdown file under the docs directory. Chunk ids are
// assigned from a single global sequence that continues across runs, and all
// chunks of the run are upserted as one batch. An unreadable file aborts the
// whole run.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	relPaths, err := p.discover()
	if err != nil {
		return nil, err
	}

	stats := &Stats{FilesFound: len(relPaths)}
	logger.InfoContext(ctx, "found markdown files", "dir", p.docsDir, "count", len(relPaths))

	seq, err := p.registry.NextChunkSeq(ctx)
	if err != nil {
		return nil, err
	}

	if p.progress != nil {
		p.progress.Start(len(relPaths))
		defer p.progress.Finish()
	}

	var pending []*pendingFile
	var batch []vectorstore.Document

	for _, relPath := range relPaths {
		pf, err := p.prepareFile(ctx, relPath, &seq)
		if err != nil {
			return nil, err
		}
		if p.progress != nil {
			p.progress.Increment()
		}
		if pf == nil {
			stats.FilesSkipped++
			continue
		}
		pending = append(pending, pf)
		batch = append(batch, pf.docs...)
	}

	if len(batch) == 0 {
		logger.InfoContext(ctx, "no new chunks to ingest", "files_skipped", stats.FilesSkipped)
		return stats, nil
	}

	if err := p.store.EnsureCollection(ctx, p.collection); err != nil {
		return nil, err
	}

	// Drop superseded chunks for changed files before the batch upsert.
	for _, pf := range pending {
		if !pf.existed {
			continue
		}
		oldIDs, err := p.registry.ListChunkIDsByDocument(ctx, pf.relPath)
		if err != nil {
			return nil, err
		}
		if len(oldIDs) > 0 {
			if err := p.store.Delete(ctx, p.collection, oldIDs); err != nil {
				logger.WarnContext(ctx, "failed to delete old chunks", "path", pf.relPath, "count", len(oldIDs), "error", err)
			}
		}
		if err := p.registry.DeleteDocument(ctx, pf.relPath); err != nil {
			return nil, err
		}
	}

	if err := p.store.Add(ctx, p.collection, batch); err != nil {
		return nil, err
	}

	for _, pf := range pending {
		doc := &storage.DocumentRecord{
			Path:       pf.relPath,
			Title:      pf.title,
			Hash:       pf.hash,
			ChunkTotal: len(pf.records),
		}
		if err := p.registry.UpsertDocument(ctx, doc); err != nil {
			return nil, err
		}
		for _, record := range pf.records {
			if err := p.registry.InsertChunk(ctx, record); err != nil {
				return nil, err
			}
		}
		stats.ChunksAdded += len(pf.records)
	}

	logger.InfoContext(ctx, "ingestion complete",
		"files_found", stats.FilesFound,
		"files_skipped", stats.FilesSkipped,
		"chunks_added", stats.ChunksAdded,
	)
	return stats, nil
}

// discover lists markdown files under the docs directory, recursively,
// sorted for deterministic chunk id assignment.
func (p *Pipeline) discover() ([]string, error) {
	if _, err := os.Stat(p.docsDir); err != nil {
		return nil, fmt.Errorf("docs directory not accessible: %w", err)
	}

	relPaths, err := doublestar.Glob(os.DirFS(p.docsDir), "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to glob markdown files: %w", err)
	}
	sort.Strings(relPaths)
	return relPaths, nil
}

// prepareFile reads, preprocesses, and chunks one file. It returns nil when
// the file is unchanged since the last run or produced no chunks.
func (p *Pipeline) prepareFile(ctx context.Context, relPath string, seq *int) (*pendingFile, error) {
	logger := contextutil.LoggerFromContext(ctx)

	content, err := os.ReadFile(filepath.Join(p.docsDir, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", relPath, err)
	}

	hash := sha256.Sum256(content)
	hashHex := fmt.Sprintf("%x", hash)

	existing, err := p.registry.GetDocument(ctx, relPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}
	if existing != nil && existing.Hash == hashHex {
		logger.DebugContext(ctx, "skipping unchanged file", "path", relPath, "hash", hashHex)
		return nil, nil
	}

	cleaned := markdown.Preprocess(string(content))

	pieces, err := p.chunker.Chunk(cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk %s: %w", relPath, err)
	}
	if len(pieces) == 0 {
		logger.WarnContext(ctx, "no chunks generated", "path", relPath)
		return nil, nil
	}

	pf := &pendingFile{
		relPath: relPath,
		hash:    hashHex,
		existed: existing != nil,
	}

	for i, piece := range pieces {
		meta := chunker.ExtractMetadata(relPath, piece.Headers)
		meta.ChunkID = i
		meta.ChunkTotal = len(pieces)
		if pf.title == "" {
			pf.title = meta.Title
		}

		id := fmt.Sprintf("chunk_%d", *seq)
		*seq++

		pf.docs = append(pf.docs, vectorstore.Document{
			ID:   id,
			Text: piece.Text,
			Meta: meta.Payload(),
		})
		pf.records = append(pf.records, &storage.ChunkRecord{
			ID:           id,
			DocumentPath: relPath,
			Seq:          *seq - 1,
			ChunkIndex:   i,
			Section:      meta.Section,
		})
	}

	return pf, nil
}
