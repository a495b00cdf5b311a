package app

import (
	"fmt"

	"github.com/edtriage/backend/internal/config"
	"github.com/edtriage/backend/internal/embedding"
	"github.com/edtriage/backend/internal/literature"
	"github.com/edtriage/backend/internal/llm"
	"github.com/edtriage/backend/internal/rag"
	"github.com/edtriage/backend/internal/services"
	"github.com/sirupsen/logrus"
)

// Pipeline holds the request-path components built from configuration.
type Pipeline struct {
	Triage     *services.TriageService
	Literature *literature.Retriever
	Gateway    *llm.Gateway
	Embedder   embedding.Embedder
}

// NewPipeline wires retriever, indexer, gateway and orchestrator. Without an
// OpenAI key the gateway runs local-only.
func NewPipeline(cfg *config.Config, logger *logrus.Logger) (*Pipeline, error) {
	var primary llm.Provider
	if cfg.PrimaryEnabled() {
		openai, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create primary provider: %w", err)
		}
		primary = openai
	} else {
		logger.Warn("OPENAI_API_KEY not set, serving from the local model only")
	}

	secondary := llm.NewOllamaProvider(llm.OllamaConfig{
		URL:           cfg.Ollama.URL,
		Model:         cfg.Ollama.Model,
		StreamTimeout: cfg.Ollama.StreamTimeout,
	}, logger)
	gateway := llm.NewGateway(primary, secondary, logger)

	embedder, err := embedding.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	indexer := rag.NewIndexer(embedder, rag.IndexerConfig{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		TopK:         cfg.RAG.TopK,
	}, logger)

	client := literature.NewClient(literature.ClientConfig{
		BaseURL: cfg.PubMed.BaseURL,
		Email:   cfg.PubMed.Email,
		APIKey:  cfg.PubMed.APIKey,
	}, logger)
	retriever := literature.NewPubMedRetriever(client, literature.FetcherConfig{
		Parallelism: cfg.PubMed.Parallelism,
	}, logger)

	triage := services.NewTriageService(retriever, indexer, gateway, services.TriageConfig{
		MaxResults:          cfg.PubMed.MaxResults,
		Temperature:         cfg.Triage.Temperature,
		ClassifyTemperature: cfg.Triage.ClassifyTemperature,
		PrimaryTimeout:      cfg.OpenAI.Timeout,
	}, logger)

	logger.WithFields(logrus.Fields{
		"primary":   cfg.PrimaryEnabled(),
		"secondary": secondary.Name(),
		"embedder":  embedder.Name(),
	}).Info("Triage pipeline ready")

	return &Pipeline{
		Triage:     triage,
		Literature: retriever,
		Gateway:    gateway,
		Embedder:   embedder,
	}, nil
}
