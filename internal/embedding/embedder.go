package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/edtriage/backend/internal/config"
	"github.com/sirupsen/logrus"
)

// Embedder maps text to a fixed-length vector. Vectors from one Embedder are
// comparable with each other only.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

const defaultTimeout = 60 * time.Second

// New builds the embedder selected by embedding.provider.
func New(cfg *config.Config, logger *logrus.Logger) (Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.EmbeddingOllama:
		return NewOllamaEmbedder(cfg.Ollama.URL, cfg.Embedding.Model, logger), nil
	case config.EmbeddingOpenAI:
		return NewOpenAIEmbedder(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, cfg.Embedding.Model, logger), nil
	case config.EmbeddingHashing:
		return NewHashingEmbedder(cfg.Embedding.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}
