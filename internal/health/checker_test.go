package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edtriage/backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func findService(t *testing.T, services []ServiceHealth, name string) ServiceHealth {
	t.Helper()
	for _, s := range services {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("service %s not reported", name)
	return ServiceHealth{}
}

func TestCheckAll_LocalOnlyHealthy(t *testing.T) {
	ollama := upstream(t, http.StatusOK)
	pubmed := upstream(t, http.StatusOK)

	checker := NewHealthChecker(&database.Manager{}, Targets{
		OllamaURL:     ollama.URL,
		PubMedBaseURL: pubmed.URL,
	}, logrus.New())

	health := checker.CheckAll(context.Background())

	assert.Equal(t, StatusHealthy, health.Status)
	assert.Equal(t, StatusDisabled, findService(t, health.Services, "openai").Status)
	assert.Equal(t, StatusDisabled, findService(t, health.Services, "postgresql").Status)
	assert.Equal(t, StatusDisabled, findService(t, health.Services, "redis").Status)
	assert.Equal(t, StatusHealthy, findService(t, health.Services, "ollama").Status)
}

func TestCheckAll_PubMedDownIsDegraded(t *testing.T) {
	ollama := upstream(t, http.StatusOK)
	pubmed := upstream(t, http.StatusServiceUnavailable)

	checker := NewHealthChecker(nil, Targets{OllamaURL: ollama.URL, PubMedBaseURL: pubmed.URL}, logrus.New())

	health := checker.CheckAll(context.Background())

	assert.Equal(t, StatusDegraded, health.Status)
	assert.Equal(t, "HTTP 503", findService(t, health.Services, "pubmed").Error)
}

func TestCheckAll_NoModelTierIsUnhealthy(t *testing.T) {
	openai := upstream(t, http.StatusUnauthorized)
	ollama := upstream(t, http.StatusInternalServerError)
	pubmed := upstream(t, http.StatusOK)

	checker := NewHealthChecker(nil, Targets{
		OpenAIBaseURL: openai.URL,
		OpenAIAPIKey:  "bad",
		OllamaURL:     ollama.URL,
		PubMedBaseURL: pubmed.URL,
	}, logrus.New())

	health := checker.CheckAll(context.Background())
	assert.Equal(t, StatusUnhealthy, health.Status)
}

func TestCheckCached(t *testing.T) {
	ollama := upstream(t, http.StatusOK)
	checker := NewHealthChecker(nil, Targets{OllamaURL: ollama.URL, PubMedBaseURL: ollama.URL}, logrus.New())

	_, err := checker.CheckCached()
	require.Error(t, err)

	checker.CheckAll(context.Background())
	cached, err := checker.CheckCached()
	require.NoError(t, err)
	assert.Len(t, cached.Services, 5)
}
