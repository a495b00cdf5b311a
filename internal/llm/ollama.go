package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/edtriage/backend/pkg/errors"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultOllamaURL           = "http://localhost:11434"
	DefaultOllamaModel         = "mistral"
	DefaultOllamaStreamTimeout = 120 * time.Second

	maxFragmentSize = 1024 * 1024
)

type OllamaConfig struct {
	URL           string
	Model         string
	StreamTimeout time.Duration
}

// OllamaProvider is the local tier. It consumes the streaming generate
// endpoint and bounds the whole stream by StreamTimeout.
type OllamaProvider struct {
	baseURL       string
	model         string
	streamTimeout time.Duration
	httpClient    *http.Client
	logger        *logrus.Logger
}

func NewOllamaProvider(cfg OllamaConfig, logger *logrus.Logger) *OllamaProvider {
	if cfg.URL == "" {
		cfg.URL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = DefaultOllamaStreamTimeout
	}
	return &OllamaProvider{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		model:         cfg.Model,
		streamTimeout: cfg.StreamTimeout,
		httpClient:    &http.Client{},
		logger:        logger,
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// ollamaFragment is one NDJSON line of a streamed generate response.
type ollamaFragment struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error,omitempty"`
}

func (f *ollamaFragment) validate() error {
	if f.Error != "" {
		return nil
	}
	if f.Response == nil && !f.Done {
		return fmt.Errorf("fragment missing response")
	}
	return nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Complete streams a completion. Malformed lines are skipped. If the stream
// breaks after some text arrived, the partial text is returned.
func (p *OllamaProvider) Complete(ctx context.Context, req ModelRequest) (string, error) {
	log := utils.ComponentLogger(ctx, p.logger, "ollama")

	streamCtx, cancel := context.WithTimeout(ctx, p.streamTimeout)
	defer cancel()

	jsonData, err := json.Marshal(ollamaGenerateRequest{
		Model:   p.model,
		Prompt:  req.UserPrompt,
		System:  req.SystemPrompt,
		Stream:  true,
		Options: &ollamaOptions{Temperature: req.Temperature},
	})
	if err != nil {
		return "", apperrors.NewProviderError(p.Name(), fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", apperrors.NewProviderError(p.Name(), fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", p.classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.NewProviderError(p.Name(), fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var text strings.Builder
	fragments, malformed := 0, 0

	reader := bufio.NewReaderSize(resp.Body, 64*1024)
	for {
		raw, oversized, readErr := readFragment(reader, maxFragmentSize)
		line := bytes.TrimSpace(raw)

		if oversized {
			malformed++
			log.WithError(apperrors.New(apperrors.ErrorTypeMalformedFragment, "skipping stream fragment",
				fmt.Errorf("fragment exceeds %d bytes", maxFragmentSize))).
				Warn("Malformed stream fragment")
		} else if len(line) > 0 {
			var fragment ollamaFragment
			err := json.Unmarshal(line, &fragment)
			if err == nil {
				err = fragment.validate()
			}
			if err != nil {
				malformed++
				log.WithError(apperrors.New(apperrors.ErrorTypeMalformedFragment, "skipping stream fragment", err)).
					Warn("Malformed stream fragment")
			} else {
				if fragment.Error != "" {
					return p.partial(log, text.String(), apperrors.NewProviderError(p.Name(), errors.New(fragment.Error)))
				}
				if fragment.Response != nil {
					text.WriteString(*fragment.Response)
					fragments++
				}
				if fragment.Done {
					break
				}
			}
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return p.partial(log, text.String(), p.classify(readErr))
		}
	}

	log.WithFields(logrus.Fields{
		"model":     p.model,
		"fragments": fragments,
		"malformed": malformed,
	}).Debug("Ollama stream consumed")

	return strings.TrimSpace(text.String()), nil
}

// readFragment reads one newline-terminated line. A line longer than limit
// is consumed to its end and reported as oversized with no content.
func readFragment(r *bufio.Reader, limit int) ([]byte, bool, error) {
	var line []byte
	oversized := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > limit {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, oversized, err
	}
}

// partial returns accumulated text when there is any, otherwise err.
func (p *OllamaProvider) partial(log *logrus.Entry, text string, err error) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", err
	}
	log.WithError(err).Warn("Ollama stream interrupted, returning partial completion")
	return text, nil
}

func (p *OllamaProvider) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewProviderTimeout(p.Name(), err)
	}
	return apperrors.NewProviderError(p.Name(), err)
}
