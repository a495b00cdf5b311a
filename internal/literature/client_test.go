package literature

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestClient_SearchIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/esearch.fcgi", r.URL.Path)
		assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
		assert.Equal(t, "chest pain hypertension", r.URL.Query().Get("term"))
		assert.Equal(t, "10", r.URL.Query().Get("retmax"))
		assert.Equal(t, "json", r.URL.Query().Get("retmode"))
		assert.Equal(t, "edtriage", r.URL.Query().Get("tool"))
		assert.Equal(t, "ops@example.org", r.URL.Query().Get("email"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"header":{},"esearchresult":{"count":"3","retmax":"3","idlist":["111","222","333"]}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL, Email: "ops@example.org"}, logrus.New())

	ids, err := client.SearchIDs(context.Background(), "chest pain hypertension", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222", "333"}, ids)
}

func TestClient_SearchIDs_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"count":"0","retmax":"0","idlist":[]}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, logrus.New())

	ids, err := client.SearchIDs(context.Background(), "zzzz", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClient_SearchIDs_MissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"header":{}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, logrus.New())

	_, err := client.SearchIDs(context.Background(), "fever", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "esearchresult")
}

func TestClient_SearchIDsWithRetry_RecoversFrom429(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"API rate limit exceeded"}`))
			return
		}
		w.Write([]byte(`{"esearchresult":{"idlist":["42"]}}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, logrus.New()).WithRetry(fastRetry())

	ids, err := client.SearchIDsWithRetry(context.Background(), "syncope", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, ids)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_SearchIDsWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Invalid request"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, logrus.New()).WithRetry(fastRetry())

	_, err := client.SearchIDsWithRetry(context.Background(), "syncope", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_SearchIDsWithRetry_GivesUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{BaseURL: server.URL}, logrus.New()).WithRetry(fastRetry())

	_, err := client.SearchIDsWithRetry(context.Background(), "syncope", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_FetchURL(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://eutils.example/eutils", APIKey: "k"}, logrus.New())

	u := client.FetchURL("12345")
	assert.Contains(t, u, "https://eutils.example/eutils/efetch.fcgi?")
	assert.Contains(t, u, "id=12345")
	assert.Contains(t, u, "rettype=abstract")
	assert.Contains(t, u, "retmode=text")
	assert.Contains(t, u, "api_key=k")
}
