package literature

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	ids   []string
	err   error
	calls int
	query string
}

func (f *fakeSearcher) SearchIDsWithRetry(ctx context.Context, query string, maxResults int) ([]string, error) {
	f.calls++
	f.query = query
	if len(f.ids) > maxResults {
		return f.ids[:maxResults], f.err
	}
	return f.ids, f.err
}

type fakeFetcher struct {
	texts map[string]string
	fail  map[string]bool
	calls int
}

func (f *fakeFetcher) FetchAll(ctx context.Context, ids []string) []FetchResult {
	f.calls++
	results := make([]FetchResult, len(ids))
	for i, id := range ids {
		results[i] = FetchResult{Index: i, ID: id, Text: f.texts[id]}
		if f.fail[id] {
			results[i].Err = errors.New("connection reset")
			results[i].Text = ""
		}
	}
	return results
}

func TestRetriever_Search_OrderAndSkips(t *testing.T) {
	searcher := &fakeSearcher{ids: []string{"3", "1", "2"}}
	fetcher := &fakeFetcher{
		texts: map[string]string{"3": "third  abstract", "1": "first", "2": "second"},
		fail:  map[string]bool{"1": true},
	}
	retriever := NewRetriever(searcher, fetcher, logrus.New())

	docs, err := retriever.Search(context.Background(), "  chest pain  ", 10)
	require.NoError(t, err)
	assert.Equal(t, "chest pain", searcher.query)
	assert.Equal(t, []Document{
		{ID: "3", Text: "third abstract"},
		{ID: "2", Text: "second"},
	}, docs)
}

func TestRetriever_Search_NoResults(t *testing.T) {
	fetcher := &fakeFetcher{}
	retriever := NewRetriever(&fakeSearcher{ids: []string{}}, fetcher, logrus.New())

	docs, err := retriever.Search(context.Background(), "rare", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, fetcher.calls)
}

func TestRetriever_Search_SearchFailureIsNotFatal(t *testing.T) {
	retriever := NewRetriever(&fakeSearcher{err: errors.New("503")}, &fakeFetcher{}, logrus.New())

	docs, err := retriever.Search(context.Background(), "fever", 10)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestRetriever_Search_EmptyQuerySkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{ids: []string{"1"}}
	retriever := NewRetriever(searcher, &fakeFetcher{}, logrus.New())

	docs, err := retriever.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, searcher.calls)
}

func TestRetriever_Search_RespectsMaxResults(t *testing.T) {
	searcher := &fakeSearcher{ids: []string{"1", "2", "3"}}
	fetcher := &fakeFetcher{texts: map[string]string{"1": "a", "2": "b", "3": "c"}}
	retriever := NewRetriever(searcher, fetcher, logrus.New())

	docs, err := retriever.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestRetriever_Search_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retriever := NewRetriever(&fakeSearcher{err: context.Canceled}, &fakeFetcher{}, logrus.New())

	_, err := retriever.Search(ctx, "fever", 10)
	assert.ErrorIs(t, err, context.Canceled)
}
