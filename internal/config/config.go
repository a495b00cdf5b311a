package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	OpenAI struct {
		APIKey  string
		BaseURL string
		Model   string
		Timeout time.Duration
	}
	Ollama struct {
		URL           string
		Model         string
		StreamTimeout time.Duration
	}
	PubMed struct {
		BaseURL     string
		Email       string
		APIKey      string
		MaxResults  int
		Parallelism int
	}
	Embedding struct {
		Provider   string
		Model      string
		Dimensions int
	}
	RAG struct {
		ChunkSize    int
		ChunkOverlap int
		TopK         int
	}
	Triage struct {
		Temperature         float64
		ClassifyTemperature float64
	}
	RateLimit struct {
		PerMinute int
	}
}

// Embedding providers accepted by embedding.provider.
const (
	EmbeddingOllama  = "ollama"
	EmbeddingOpenAI  = "openai"
	EmbeddingHashing = "hashing"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.timeout", "10s")

	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "mistral")
	v.SetDefault("ollama.stream_timeout", "120s")

	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.email", "")
	v.SetDefault("pubmed.api_key", "")
	v.SetDefault("pubmed.max_results", 10)
	v.SetDefault("pubmed.parallelism", 3)

	v.SetDefault("embedding.provider", EmbeddingOllama)
	v.SetDefault("embedding.model", "nomic-embed-text")
	v.SetDefault("embedding.dimensions", 384)

	v.SetDefault("rag.chunk_size", 500)
	v.SetDefault("rag.chunk_overlap", 50)
	v.SetDefault("rag.top_k", 3)

	v.SetDefault("triage.temperature", 0.3)
	v.SetDefault("triage.classify_temperature", 0.2)

	v.SetDefault("ratelimit.per_minute", 30)
}

func fromViper(v *viper.Viper) *Config {
	var config Config

	config.Server.Port = v.GetString("server.port")
	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")

	// Credentials come from the environment only, never from config.yaml.
	config.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	config.OpenAI.BaseURL = v.GetString("openai.base_url")
	config.OpenAI.Model = v.GetString("openai.model")
	config.OpenAI.Timeout = v.GetDuration("openai.timeout")

	config.Ollama.URL = strings.TrimRight(v.GetString("ollama.url"), "/")
	config.Ollama.Model = v.GetString("ollama.model")
	config.Ollama.StreamTimeout = v.GetDuration("ollama.stream_timeout")

	config.PubMed.BaseURL = strings.TrimRight(v.GetString("pubmed.base_url"), "/")
	config.PubMed.Email = v.GetString("pubmed.email")
	config.PubMed.APIKey = os.Getenv("PUBMED_API_KEY")
	config.PubMed.MaxResults = v.GetInt("pubmed.max_results")
	config.PubMed.Parallelism = v.GetInt("pubmed.parallelism")

	config.Embedding.Provider = strings.ToLower(v.GetString("embedding.provider"))
	config.Embedding.Model = v.GetString("embedding.model")
	config.Embedding.Dimensions = v.GetInt("embedding.dimensions")

	config.RAG.ChunkSize = v.GetInt("rag.chunk_size")
	config.RAG.ChunkOverlap = v.GetInt("rag.chunk_overlap")
	config.RAG.TopK = v.GetInt("rag.top_k")

	config.Triage.Temperature = v.GetFloat64("triage.temperature")
	config.Triage.ClassifyTemperature = v.GetFloat64("triage.classify_temperature")

	config.RateLimit.PerMinute = v.GetInt("ratelimit.per_minute")

	return &config
}

// Validate checks every tunable against its documented range.
func (c *Config) Validate() error {
	if c.OpenAI.Timeout < time.Second || c.OpenAI.Timeout > 2*time.Minute {
		return fmt.Errorf("openai.timeout must be between 1s and 2m, got %s", c.OpenAI.Timeout)
	}
	if c.Ollama.URL == "" {
		return fmt.Errorf("OLLAMA_URL is required")
	}
	if c.Ollama.Model == "" {
		return fmt.Errorf("OLLAMA_MODEL is required")
	}
	if c.Ollama.StreamTimeout < time.Second || c.Ollama.StreamTimeout > 30*time.Minute {
		return fmt.Errorf("ollama.stream_timeout must be between 1s and 30m, got %s", c.Ollama.StreamTimeout)
	}
	if c.PubMed.MaxResults < 1 || c.PubMed.MaxResults > 100 {
		return fmt.Errorf("pubmed.max_results must be between 1 and 100, got %d", c.PubMed.MaxResults)
	}
	if c.PubMed.Parallelism < 1 || c.PubMed.Parallelism > 10 {
		return fmt.Errorf("pubmed.parallelism must be between 1 and 10, got %d", c.PubMed.Parallelism)
	}
	switch c.Embedding.Provider {
	case EmbeddingOllama, EmbeddingOpenAI:
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for provider %s", c.Embedding.Provider)
		}
		if c.Embedding.Provider == EmbeddingOpenAI && c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
		}
	case EmbeddingHashing:
		if c.Embedding.Dimensions < 16 || c.Embedding.Dimensions > 4096 {
			return fmt.Errorf("embedding.dimensions must be between 16 and 4096, got %d", c.Embedding.Dimensions)
		}
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	if c.RAG.ChunkSize < 100 || c.RAG.ChunkSize > 8000 {
		return fmt.Errorf("rag.chunk_size must be between 100 and 8000, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK < 1 || c.RAG.TopK > 20 {
		return fmt.Errorf("rag.top_k must be between 1 and 20, got %d", c.RAG.TopK)
	}
	if c.Triage.Temperature < 0 || c.Triage.Temperature > 2 {
		return fmt.Errorf("triage.temperature must be between 0 and 2")
	}
	if c.Triage.ClassifyTemperature < 0 || c.Triage.ClassifyTemperature > 2 {
		return fmt.Errorf("triage.classify_temperature must be between 0 and 2")
	}
	if c.RateLimit.PerMinute < 1 {
		return fmt.Errorf("ratelimit.per_minute must be at least 1")
	}
	return nil
}

// PrimaryEnabled reports whether the remote tier has a credential. Without one
// every request goes straight to the local model.
func (c *Config) PrimaryEnabled() bool {
	return c.OpenAI.APIKey != ""
}
