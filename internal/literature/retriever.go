package literature

import (
	"context"
	"strings"

	apperrors "github.com/edtriage/backend/pkg/errors"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

// IDSearcher resolves a free-text query to ranked PubMed ids.
type IDSearcher interface {
	SearchIDsWithRetry(ctx context.Context, query string, maxResults int) ([]string, error)
}

// DocumentFetcher fetches the abstract for each id.
type DocumentFetcher interface {
	FetchAll(ctx context.Context, ids []string) []FetchResult
}

// Retriever runs the two-step search then fetch flow. Failures on either step
// shrink the result instead of failing the caller.
type Retriever struct {
	searcher  IDSearcher
	fetcher   DocumentFetcher
	processor *ContentProcessor
	logger    *logrus.Logger
}

func NewRetriever(searcher IDSearcher, fetcher DocumentFetcher, logger *logrus.Logger) *Retriever {
	return &Retriever{
		searcher:  searcher,
		fetcher:   fetcher,
		processor: NewContentProcessor(),
		logger:    logger,
	}
}

// NewPubMedRetriever wires a Client and a colly Fetcher together.
func NewPubMedRetriever(client *Client, fetcherConfig FetcherConfig, logger *logrus.Logger) *Retriever {
	return NewRetriever(client, NewFetcher(client, fetcherConfig, logger), logger)
}

// Search returns documents in search order. The only error it returns is the
// cancellation of ctx.
func (r *Retriever) Search(ctx context.Context, query string, maxResults int) ([]Document, error) {
	log := utils.ComponentLogger(ctx, r.logger, "literature")

	query = strings.TrimSpace(query)
	if query == "" || maxResults <= 0 {
		log.Debug("Empty literature query, skipping search")
		return []Document{}, nil
	}

	ids, err := r.searcher.SearchIDsWithRetry(ctx, query, maxResults)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithError(apperrors.New(apperrors.ErrorTypeRetrievalFailure, "pubmed search failed", err)).
			Warn("Literature search failed, continuing without literature")
		return []Document{}, nil
	}

	if len(ids) == 0 {
		log.WithField("query", query).Info("No PubMed articles found")
		return []Document{}, nil
	}

	results := r.fetcher.FetchAll(ctx, ids)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	documents := make([]Document, 0, len(results))
	skipped, chars := 0, 0
	for _, result := range results {
		if result.Err != nil {
			skipped++
			log.WithFields(logrus.Fields{
				"pmid":  result.ID,
				"error": apperrors.New(apperrors.ErrorTypeRetrievalFailure, "abstract fetch failed", result.Err).Error(),
			}).Warn("Skipping PubMed article")
			continue
		}

		text := r.processor.CleanAbstract(result.Text)
		if text == "" {
			skipped++
			log.WithField("pmid", result.ID).Debug("Skipping empty abstract")
			continue
		}

		chars += len(text)
		documents = append(documents, Document{ID: result.ID, Text: text})
	}

	log.WithFields(logrus.Fields{
		"ids":       len(ids),
		"documents": len(documents),
		"skipped":   skipped,
		"chars":     chars,
	}).Info("Literature retrieved")

	return documents, nil
}
