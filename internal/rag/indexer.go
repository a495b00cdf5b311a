package rag

import (
	"context"

	"github.com/edtriage/backend/internal/embedding"
	"github.com/edtriage/backend/internal/literature"
	apperrors "github.com/edtriage/backend/pkg/errors"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type IndexerConfig struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Indexer turns retrieved documents into a per-request similarity index and
// answers top-k queries against it.
type Indexer struct {
	embedder embedding.Embedder
	config   IndexerConfig
	logger   *logrus.Logger
}

func NewIndexer(embedder embedding.Embedder, config IndexerConfig, logger *logrus.Logger) *Indexer {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 500
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = 0
	}
	if config.TopK <= 0 {
		config.TopK = 3
	}
	return &Indexer{
		embedder: embedder,
		config:   config,
		logger:   logger,
	}
}

// BuildIndex chunks and embeds every document. Chunks whose embedding fails
// are left out of the index.
func (x *Indexer) BuildIndex(ctx context.Context, documents []literature.Document) (*SimilarityIndex, error) {
	log := utils.ComponentLogger(ctx, x.logger, "indexer")
	index := NewSimilarityIndex()
	failed := 0

	for _, doc := range documents {
		for _, span := range Chunk(doc.Text, x.config.ChunkSize, x.config.ChunkOverlap) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			vector, err := x.embedder.Embed(ctx, span)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				failed++
				log.WithFields(logrus.Fields{
					"pmid":  doc.ID,
					"error": apperrors.New(apperrors.ErrorTypeEmbeddingFailure, "chunk embedding failed", err).Error(),
				}).Warn("Skipping chunk")
				continue
			}

			chunk := ContextChunk{
				ID:       uuid.NewString(),
				SourceID: doc.ID,
				Text:     span,
				Vector:   vector,
			}
			if err := index.Add(chunk); err != nil {
				failed++
				log.WithError(err).Warn("Skipping chunk")
			}
		}
	}

	log.WithFields(logrus.Fields{
		"documents": len(documents),
		"chunks":    index.Len(),
		"failed":    failed,
		"embedder":  x.embedder.Name(),
	}).Debug("Similarity index built")

	return index, nil
}

// Query embeds text and returns the k closest chunks.
func (x *Indexer) Query(ctx context.Context, index *SimilarityIndex, text string, k int) ([]ScoredChunk, error) {
	if index == nil || index.Len() == 0 {
		return []ScoredChunk{}, nil
	}

	vector, err := x.embedder.Embed(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperrors.New(apperrors.ErrorTypeEmbeddingFailure, "query embedding failed", err)
	}
	return index.Search(vector, k), nil
}

// BuildContext indexes documents and returns the configured top-k chunks for
// query.
func (x *Indexer) BuildContext(ctx context.Context, documents []literature.Document, query string) ([]ScoredChunk, error) {
	if len(documents) == 0 {
		return []ScoredChunk{}, nil
	}

	index, err := x.BuildIndex(ctx, documents)
	if err != nil {
		return nil, err
	}
	return x.Query(ctx, index, query, x.config.TopK)
}
