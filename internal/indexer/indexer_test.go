package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svtr-ai/ragcore/internal/vector/milvus"
)

type stubEmbedder struct {
	dims  int
	err   error
	calls [][]string
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls = append(s.calls, texts)
	if s.err != nil {
		return nil, s.err
	}
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = make([]float32, s.dims)
	}
	return vecs, nil
}

func (s *stubEmbedder) Dimensions() int { return 1536 }

type stubIndex struct {
	err    error
	chunks []milvus.Chunk
}

func (s *stubIndex) Insert(ctx context.Context, chunks []milvus.Chunk) error {
	s.chunks = append(s.chunks, chunks...)
	return s.err
}

type stubInvalidator struct {
	err   error
	calls int
}

func (s *stubInvalidator) InvalidateBundles(ctx context.Context) error {
	s.calls++
	return s.err
}

func TestSyncBuildsChunksFromDocuments(t *testing.T) {
	emb := &stubEmbedder{dims: 1536}
	idx := &stubIndex{}
	inv := &stubInvalidator{}
	ix := New(emb, idx, inv)

	docs := []Document{
		{Title: "AI周报", Content: "本周融资动态", DocumentID: "doc-1", Source: "weekly"},
		{Title: "公司画像", Content: "Anthropic融资历史", DocumentID: "doc-2", Source: "companies"},
	}

	count, err := ix.Sync(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, idx.chunks, 2)

	seen := map[string]bool{}
	for i, chunk := range idx.chunks {
		assert.NotEmpty(t, chunk.ID)
		assert.False(t, seen[chunk.ID], "chunk IDs must be unique")
		seen[chunk.ID] = true
		assert.Equal(t, docs[i].Content, chunk.Content)
		assert.Equal(t, docs[i].Title, chunk.Title)
		assert.Equal(t, docs[i].DocumentID, chunk.DocumentID)
		assert.Equal(t, docs[i].Source, chunk.Source)
		assert.Len(t, chunk.Embedding, 1536)
		assert.False(t, chunk.CreatedAt.IsZero())
	}
	assert.Equal(t, 1, inv.calls, "reindex must invalidate cached bundles")
}

func TestSyncSkipsEmptyDocuments(t *testing.T) {
	emb := &stubEmbedder{dims: 1536}
	idx := &stubIndex{}
	ix := New(emb, idx, nil)

	docs := []Document{
		{Title: "空文档", Content: "   "},
		{Title: "有内容", Content: "SVTR估值排行", DocumentID: "doc-3"},
	}

	count, err := ix.Sync(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, emb.calls, 1)
	assert.Equal(t, []string{"SVTR估值排行"}, emb.calls[0])
}

func TestSyncNoopOnAllEmptyInput(t *testing.T) {
	emb := &stubEmbedder{dims: 1536}
	idx := &stubIndex{}
	ix := New(emb, idx, nil)

	count, err := ix.Sync(context.Background(), []Document{{Content: ""}})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, emb.calls)
	assert.Empty(t, idx.chunks)
}

func TestSyncPropagatesEmbedderError(t *testing.T) {
	boom := errors.New("provider down")
	emb := &stubEmbedder{dims: 1536, err: boom}
	idx := &stubIndex{}
	ix := New(emb, idx, nil)

	_, err := ix.Sync(context.Background(), []Document{{Content: "文本"}})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, idx.chunks, "nothing may reach the index on embed failure")
}

func TestSyncRejectsDimensionMismatch(t *testing.T) {
	emb := &stubEmbedder{dims: 8}
	idx := &stubIndex{}
	ix := New(emb, idx, nil)

	_, err := ix.Sync(context.Background(), []Document{{Content: "文本"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
	assert.Empty(t, idx.chunks)
}

func TestSyncSurvivesInvalidatorFailure(t *testing.T) {
	emb := &stubEmbedder{dims: 1536}
	idx := &stubIndex{}
	inv := &stubInvalidator{err: errors.New("redis gone")}
	ix := New(emb, idx, inv)

	count, err := ix.Sync(context.Background(), []Document{{Content: "文本", DocumentID: "doc-4"}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, inv.calls)
}
