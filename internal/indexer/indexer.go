// Package indexer feeds the vector collection. It embeds incoming
// documents in batch, writes the chunks to the index and invalidates
// cached bundles so stale answers drop out after a reindex.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/vector/milvus"
	"github.com/svtr-ai/ragcore/pkg/logger"
)

// Embedder turns document texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Index accepts embedded chunks.
type Index interface {
	Insert(ctx context.Context, chunks []milvus.Chunk) error
}

// CacheInvalidator clears cached bundles after the index changes.
type CacheInvalidator interface {
	InvalidateBundles(ctx context.Context) error
}

// Document is one unit of knowledge submitted for indexing.
type Document struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	DocumentID string `json:"documentId"`
	Source     string `json:"source"`
}

type Indexer struct {
	embedder    Embedder
	index       Index
	invalidator CacheInvalidator
}

// New wires the sync path. The invalidator may be nil when no
// persistent cache is configured.
func New(embedder Embedder, index Index, invalidator CacheInvalidator) *Indexer {
	return &Indexer{
		embedder:    embedder,
		index:       index,
		invalidator: invalidator,
	}
}

// Sync embeds and indexes the given documents, then invalidates cached
// bundles. Documents with empty content are skipped. It returns the
// number of chunks written. Unlike the query path, sync errors are
// surfaced to the caller: a partial index is worse than a failed
// upload.
func (ix *Indexer) Sync(ctx context.Context, docs []Document) (int, error) {
	kept := make([]Document, 0, len(docs))
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			continue
		}
		kept = append(kept, doc)
		texts = append(texts, doc.Content)
	}
	if len(kept) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding documents: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embedding documents: got %d vectors for %d texts", len(vectors), len(texts))
	}
	dims := ix.embedder.Dimensions()
	for i, vec := range vectors {
		if len(vec) != dims {
			return 0, fmt.Errorf("embedding documents: vector %d has %d dimensions, want %d", i, len(vec), dims)
		}
	}

	now := time.Now()
	chunks := make([]milvus.Chunk, len(kept))
	for i, doc := range kept {
		chunks[i] = milvus.Chunk{
			ID:         uuid.New().String(),
			Embedding:  vectors[i],
			Content:    doc.Content,
			Title:      doc.Title,
			DocumentID: doc.DocumentID,
			Source:     doc.Source,
			CreatedAt:  now,
		}
	}

	if err := ix.index.Insert(ctx, chunks); err != nil {
		return 0, fmt.Errorf("inserting chunks: %w", err)
	}

	if ix.invalidator != nil {
		if err := ix.invalidator.InvalidateBundles(ctx); err != nil {
			logger.Warn("Failed to invalidate cached bundles after reindex", zap.Error(err))
		}
	}

	logger.Info("Indexed documents",
		zap.Int("chunks", len(chunks)),
		zap.Int("skipped", len(docs)-len(kept)),
	)
	return len(chunks), nil
}
