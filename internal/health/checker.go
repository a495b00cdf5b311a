package health

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/edtriage/backend/internal/database"
	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusDisabled  = "disabled"

	checkTimeout = 5 * time.Second
)

// Targets lists the upstream endpoints probed by the checker. Empty
// OpenAIAPIKey marks the primary tier disabled.
type Targets struct {
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OllamaURL     string
	PubMedBaseURL string
}

// HealthChecker manages health checks for all services
type HealthChecker struct {
	dbManager  *database.Manager
	targets    Targets
	httpClient *http.Client
	logger     *logrus.Logger

	mu   sync.RWMutex
	last *OverallHealth
}

func NewHealthChecker(dbManager *database.Manager, targets Targets, logger *logrus.Logger) *HealthChecker {
	return &HealthChecker{
		dbManager:  dbManager,
		targets:    targets,
		httpClient: &http.Client{Timeout: checkTimeout},
		logger:     logger,
	}
}

// ServiceHealth represents the health status of a service
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (h *HealthChecker) CheckPostgreSQL(ctx context.Context) ServiceHealth {
	if h.dbManager == nil || !h.dbManager.HasDatabase() {
		return disabled("postgresql")
	}
	return h.measure("postgresql", func() error {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		return h.dbManager.PingDatabase(ctx)
	})
}

func (h *HealthChecker) CheckRedis(ctx context.Context) ServiceHealth {
	if h.dbManager == nil || !h.dbManager.HasRedis() {
		return disabled("redis")
	}
	return h.measure("redis", func() error {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		return h.dbManager.PingRedis(ctx)
	})
}

// CheckOpenAI lists models, which needs a valid key but no tokens.
func (h *HealthChecker) CheckOpenAI(ctx context.Context) ServiceHealth {
	if h.targets.OpenAIAPIKey == "" {
		return disabled("openai")
	}
	return h.measure("openai", func() error {
		return h.probe(ctx, h.targets.OpenAIBaseURL+"/models", map[string]string{
			"Authorization": "Bearer " + h.targets.OpenAIAPIKey,
		})
	})
}

func (h *HealthChecker) CheckOllama(ctx context.Context) ServiceHealth {
	return h.measure("ollama", func() error {
		return h.probe(ctx, h.targets.OllamaURL+"/api/tags", nil)
	})
}

func (h *HealthChecker) CheckPubMed(ctx context.Context) ServiceHealth {
	return h.measure("pubmed", func() error {
		return h.probe(ctx, h.targets.PubMedBaseURL+"/einfo.fcgi?retmode=json", nil)
	})
}

// CheckAll performs health checks on all services. The system is unhealthy
// only when neither model tier is reachable; any other failure degrades it.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(ctx),
		h.CheckRedis(ctx),
		h.CheckOpenAI(ctx),
		h.CheckOllama(ctx),
		h.CheckPubMed(ctx),
	}

	overall := OverallHealth{
		Status:   overallStatus(services),
		Services: services,
		Uptime:   h.getUptime(),
	}

	h.mu.Lock()
	h.last = &overall
	h.mu.Unlock()

	return overall
}

// CheckCached returns the result of the last CheckAll, if any.
func (h *HealthChecker) CheckCached() (*OverallHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return nil, fmt.Errorf("no health check has run yet")
	}
	cached := *h.last
	return &cached, nil
}

// PeriodicHealthCheck runs health checks periodically
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)
			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}

func overallStatus(services []ServiceHealth) string {
	status := StatusHealthy
	modelUp := false
	for _, service := range services {
		switch service.Name {
		case "openai", "ollama":
			if service.Status == StatusHealthy {
				modelUp = true
			}
		}
		if service.Status == StatusUnhealthy {
			status = StatusDegraded
		}
	}
	if !modelUp {
		return StatusUnhealthy
	}
	return status
}

func (h *HealthChecker) measure(name string, check func() error) ServiceHealth {
	start := time.Now()
	err := check()
	responseTime := int(time.Since(start).Milliseconds())

	status := StatusHealthy
	errorMsg := ""
	if err != nil {
		status = StatusUnhealthy
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Warn("Health check failed")
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}

func (h *HealthChecker) probe(ctx context.Context, url string, headers map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func disabled(name string) ServiceHealth {
	return ServiceHealth{
		Name:        name,
		Status:      StatusDisabled,
		LastChecked: time.Now().Format(time.RFC3339),
	}
}

var startTime = time.Now()

func (h *HealthChecker) getUptime() string {
	uptime := time.Since(startTime)
	return uptime.Round(time.Second).String()
}
