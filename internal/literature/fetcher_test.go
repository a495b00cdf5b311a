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

func newAbstractServer(t *testing.T, handler func(id string, w http.ResponseWriter)) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/efetch.fcgi", r.URL.Path)
		handler(r.URL.Query().Get("id"), w)
	}))
	t.Cleanup(server.Close)
	return server, NewClient(ClientConfig{BaseURL: server.URL}, logrus.New())
}

func TestFetcher_FetchAll_PreservesOrder(t *testing.T) {
	_, client := newAbstractServer(t, func(id string, w http.ResponseWriter) {
		if id == "1" {
			time.Sleep(30 * time.Millisecond)
		}
		w.Write([]byte("abstract " + id))
	})

	fetcher := NewFetcher(client, FetcherConfig{Parallelism: 3}, logrus.New())
	results := fetcher.FetchAll(context.Background(), []string{"1", "2", "3"})

	require.Len(t, results, 3)
	for i, id := range []string{"1", "2", "3"} {
		assert.Equal(t, i, results[i].Index)
		assert.Equal(t, id, results[i].ID)
		assert.NoError(t, results[i].Err)
		assert.Equal(t, "abstract "+id, results[i].Text)
	}
}

func TestFetcher_FetchAll_FailedFetchIsReported(t *testing.T) {
	_, client := newAbstractServer(t, func(id string, w http.ResponseWriter) {
		if id == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("abstract " + id))
	})

	fetcher := NewFetcher(client, FetcherConfig{Parallelism: 2}, logrus.New())
	results := fetcher.FetchAll(context.Background(), []string{"1", "2", "3"})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Text)
	assert.NoError(t, results[2].Err)
}

func TestFetcher_FetchAll_BoundsParallelism(t *testing.T) {
	var inFlight, peak int32
	_, client := newAbstractServer(t, func(id string, w http.ResponseWriter) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Write([]byte("ok"))
	})

	fetcher := NewFetcher(client, FetcherConfig{Parallelism: 2}, logrus.New())
	results := fetcher.FetchAll(context.Background(), []string{"1", "2", "3", "4", "5", "6"})

	require.Len(t, results, 6)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestFetcher_FetchAll_CancelledContext(t *testing.T) {
	_, client := newAbstractServer(t, func(id string, w http.ResponseWriter) {
		w.Write([]byte("abstract"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(client, FetcherConfig{Parallelism: 1}, logrus.New())
	results := fetcher.FetchAll(ctx, []string{"1", "2"})

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Error(t, r.Err)
		assert.Empty(t, r.Text)
	}
}

func TestFetcher_FetchAll_NoIDs(t *testing.T) {
	fetcher := NewFetcher(NewClient(ClientConfig{BaseURL: "http://unused"}, logrus.New()), FetcherConfig{}, logrus.New())
	assert.Empty(t, fetcher.FetchAll(context.Background(), nil))
}
