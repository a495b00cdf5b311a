package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/edtriage/backend/internal/embedding"
	"github.com/edtriage/backend/internal/literature"
	apperrors "github.com/edtriage/backend/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder scores text on fixed medical keywords so tests can predict
// nearest neighbours.
type keywordEmbedder struct {
	failOn string
	calls  int
}

var keywords = []string{"chest", "stroke", "rash"}

func (e *keywordEmbedder) Name() string { return "keyword" }

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.failOn != "" && strings.Contains(text, e.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	vector := make([]float32, len(keywords)+1)
	lower := strings.ToLower(text)
	for i, k := range keywords {
		vector[i] = float32(strings.Count(lower, k))
	}
	vector[len(keywords)] = 0.01
	return vector, nil
}

func TestIndexer_BuildContext_ReturnsTopK(t *testing.T) {
	indexer := NewIndexer(&keywordEmbedder{}, IndexerConfig{ChunkSize: 500, ChunkOverlap: 50, TopK: 2}, logrus.New())

	docs := []literature.Document{
		{ID: "1", Text: "rash rash in children"},
		{ID: "2", Text: "chest pain and chest pressure"},
		{ID: "3", Text: "stroke outcomes"},
		{ID: "4", Text: "chest imaging of stroke mimics"},
	}

	results, err := indexer.BuildContext(context.Background(), docs, "chest pain")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "2", results[0].Chunk.SourceID)
	assert.Equal(t, "4", results[1].Chunk.SourceID)
	assert.NotEmpty(t, results[0].Chunk.ID)
}

func TestIndexer_BuildIndex_SkipsFailedChunks(t *testing.T) {
	indexer := NewIndexer(&keywordEmbedder{failOn: "stroke"}, IndexerConfig{ChunkSize: 500, TopK: 3}, logrus.New())

	docs := []literature.Document{
		{ID: "1", Text: "chest pain"},
		{ID: "2", Text: "stroke"},
	}

	index, err := indexer.BuildIndex(context.Background(), docs)
	require.NoError(t, err)
	assert.Equal(t, 1, index.Len())
}

func TestIndexer_BuildContext_NoDocuments(t *testing.T) {
	embedder := &keywordEmbedder{}
	indexer := NewIndexer(embedder, IndexerConfig{}, logrus.New())

	results, err := indexer.BuildContext(context.Background(), nil, "chest pain")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, embedder.calls)
}

func TestIndexer_Query_EmbeddingFailure(t *testing.T) {
	indexer := NewIndexer(&keywordEmbedder{failOn: "query"}, IndexerConfig{}, logrus.New())

	index, err := indexer.BuildIndex(context.Background(), []literature.Document{{ID: "1", Text: "chest"}})
	require.NoError(t, err)

	_, err = indexer.Query(context.Background(), index, "query text", 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmbeddingFailure))
}

func TestIndexer_WithHashingEmbedder(t *testing.T) {
	embedder, err := embedding.NewHashingEmbedder(256)
	require.NoError(t, err)
	indexer := NewIndexer(embedder, IndexerConfig{ChunkSize: 500, ChunkOverlap: 50, TopK: 1}, logrus.New())

	docs := []literature.Document{
		{ID: "100", Text: "Pediatric eczema and atopic dermatitis treatment"},
		{ID: "200", Text: "Troponin testing in acute chest pain presentations"},
	}

	results, err := indexer.BuildContext(context.Background(), docs, "acute chest pain troponin")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "200", results[0].Chunk.SourceID)
}
