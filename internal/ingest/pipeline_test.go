package ingest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"kbqa/internal/chunker"
	"kbqa/internal/storage"
	"kbqa/internal/vectorstore"
	"kbqa/internal/vectorstore/mocks"
)

const testCollection = "kb_documents"

func setupRegistry(t *testing.T) (*storage.Registry, *sql.DB) {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("storage.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error: %v", err)
	}

	return storage.NewRegistry(db), db
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
}

func newTestPipeline(docsDir string, registry storage.DocumentRegistry, store vectorstore.Store) *Pipeline {
	return NewPipeline(docsDir, registry, store, testCollection, chunker.NewHeaderChunker(), nil)
}

func TestPipeline_Run_AssignsGlobalChunkIDsAcrossFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# Alpha\n\n## One\n\nfirst\n\n## Two\n\nsecond\n")
	writeDoc(t, docsDir, "b.md", "# Beta\n\nintro text\n")

	var added []vectorstore.Document
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().EnsureCollection(gomock.Any(), testCollection).Return(nil)
	mockStore.EXPECT().Add(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, docs []vectorstore.Document) error {
			added = docs
			return nil
		})

	pipeline := newTestPipeline(docsDir, registry, mockStore)
	stats, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if stats.FilesFound != 2 {
		t.Errorf("FilesFound = %d, want 2", stats.FilesFound)
	}
	if stats.ChunksAdded != 3 {
		t.Errorf("ChunksAdded = %d, want 3", stats.ChunksAdded)
	}

	wantIDs := []string{"chunk_0", "chunk_1", "chunk_2"}
	if len(added) != len(wantIDs) {
		t.Fatalf("Add() received %d docs, want %d", len(added), len(wantIDs))
	}
	for i, want := range wantIDs {
		if added[i].ID != want {
			t.Errorf("doc[%d].ID = %q, want %q", i, added[i].ID, want)
		}
	}

	// Files are processed in sorted order, so a.md's chunks come first.
	if added[0].Meta["title"] != "Alpha" {
		t.Errorf("doc[0] title = %v, want Alpha", added[0].Meta["title"])
	}
	if added[2].Meta["title"] != "Beta" {
		t.Errorf("doc[2] title = %v, want Beta", added[2].Meta["title"])
	}
}

func TestPipeline_Run_ChunkTotalPerFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# Alpha\n\n## One\n\nfirst\n\n## Two\n\nsecond\n")
	writeDoc(t, docsDir, "b.md", "# Beta\n\nintro text\n")

	var added []vectorstore.Document
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().EnsureCollection(gomock.Any(), testCollection).Return(nil)
	mockStore.EXPECT().Add(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, docs []vectorstore.Document) error {
			added = docs
			return nil
		})

	pipeline := newTestPipeline(docsDir, registry, mockStore)
	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// a.md has 2 chunks, b.md has 1
	wantTotals := []int{2, 2, 1}
	wantIndexes := []int{0, 1, 0}
	for i, doc := range added {
		if got := doc.Meta["chunk_total"]; got != wantTotals[i] {
			t.Errorf("doc[%d] chunk_total = %v, want %d", i, got, wantTotals[i])
		}
		if got := doc.Meta["chunk_id"]; got != wantIndexes[i] {
			t.Errorf("doc[%d] chunk_id = %v, want %d", i, got, wantIndexes[i])
		}
	}
}

func TestPipeline_Run_SkipsUnchangedFiles(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# Alpha\n\nsome text\n")

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().EnsureCollection(gomock.Any(), testCollection).Return(nil)
	mockStore.EXPECT().Add(gomock.Any(), testCollection, gomock.Any()).Return(nil)

	pipeline := newTestPipeline(docsDir, registry, mockStore)
	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run() first run error: %v", err)
	}

	// Second run: file unchanged, no store calls expected
	stats, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() second run error: %v", err)
	}
	if stats.FilesSkipped != 1 {
		t.Errorf("FilesSkipped = %d, want 1", stats.FilesSkipped)
	}
	if stats.ChunksAdded != 0 {
		t.Errorf("ChunksAdded = %d, want 0", stats.ChunksAdded)
	}
}

func TestPipeline_Run_ReplacesChangedFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	docsDir := t.TempDir()
	writeDoc(t, docsDir, "a.md", "# Alpha\n\nold text\n")

	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().EnsureCollection(gomock.Any(), testCollection).Return(nil).Times(2)
	mockStore.EXPECT().Add(gomock.Any(), testCollection, gomock.Any()).Return(nil)

	pipeline := newTestPipeline(docsDir, registry, mockStore)
	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run() first run error: %v", err)
	}

	writeDoc(t, docsDir, "a.md", "# Alpha\n\nnew text\n")

	// Old chunk removed from the store, new chunk continues the sequence
	mockStore.EXPECT().Delete(gomock.Any(), testCollection, []string{"chunk_0"}).Return(nil)
	mockStore.EXPECT().Add(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, docs []vectorstore.Document) error {
			if len(docs) != 1 {
				t.Errorf("Add() received %d docs, want 1", len(docs))
			} else if docs[0].ID != "chunk_1" {
				t.Errorf("replacement chunk id = %q, want chunk_1", docs[0].ID)
			}
			return nil
		})

	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run() second run error: %v", err)
	}

	ids, err := registry.ListChunkIDsByDocument(context.Background(), "a.md")
	if err != nil {
		t.Fatalf("ListChunkIDsByDocument() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "chunk_1" {
		t.Errorf("registry ids = %v, want [chunk_1]", ids)
	}
}

func TestPipeline_Run_EmptyCorpusIsNoOp(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	docsDir := t.TempDir()

	// No EXPECT calls: the store must not be touched
	mockStore := mocks.NewMockStore(ctrl)

	pipeline := newTestPipeline(docsDir, registry, mockStore)
	stats, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if stats.FilesFound != 0 {
		t.Errorf("FilesFound = %d, want 0", stats.FilesFound)
	}
	if stats.ChunksAdded != 0 {
		t.Errorf("ChunksAdded = %d, want 0", stats.ChunksAdded)
	}
}

func TestPipeline_Run_MissingDocsDir(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	mockStore := mocks.NewMockStore(ctrl)

	pipeline := newTestPipeline("/nonexistent/docs", registry, mockStore)
	if _, err := pipeline.Run(context.Background()); err == nil {
		t.Error("Run() with missing docs dir should return error")
	}
}

func TestPipeline_Run_NestedDirectories(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, _ := setupRegistry(t)

	docsDir := t.TempDir()
	writeDoc(t, docsDir, filepath.Join("guides", "setup.md"), "# Setup\n\nsteps here\n")

	var added []vectorstore.Document
	mockStore := mocks.NewMockStore(ctrl)
	mockStore.EXPECT().EnsureCollection(gomock.Any(), testCollection).Return(nil)
	mockStore.EXPECT().Add(gomock.Any(), testCollection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, docs []vectorstore.Document) error {
			added = docs
			return nil
		})

	pipeline := newTestPipeline(docsDir, registry, mockStore)
	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(added) != 1 {
		t.Fatalf("Add() received %d docs, want 1", len(added))
	}
	if added[0].Meta["source"] != "setup.md" {
		t.Errorf("source = %v, want setup.md", added[0].Meta["source"])
	}
	if added[0].Meta["path"] != "guides/setup.md" {
		t.Errorf("path = %v, want guides/setup.md", added[0].Meta["path"])
	}
}
