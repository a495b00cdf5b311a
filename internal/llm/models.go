package llm

import (
	"context"
	"time"
)

// Tier names the backend that produced a completion.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierNone      Tier = "none"
)

// ModelRequest is one completion request. PrimaryTimeout bounds the remote
// tier only; the local tier has its own stream budget.
type ModelRequest struct {
	SystemPrompt   string
	UserPrompt     string
	Temperature    float64
	PrimaryTimeout time.Duration
}

// ModelResponse always carries non-empty Text. When BothFailed is set, Text is
// a readable diagnostic instead of a completion.
type ModelResponse struct {
	Text       string
	Tier       Tier
	BothFailed bool
}

// Provider is a single model backend.
type Provider interface {
	Complete(ctx context.Context, req ModelRequest) (string, error)
	Name() string
}
