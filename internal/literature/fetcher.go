package literature

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const indexKey = "index"

// URLBuilder maps a PubMed id to the URL serving its abstract.
type URLBuilder interface {
	FetchURL(id string) string
}

type FetcherConfig struct {
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
	UserAgent   string
}

// Fetcher downloads abstracts concurrently with a bounded number of
// in-flight requests.
type Fetcher struct {
	urls   URLBuilder
	config FetcherConfig
	logger *logrus.Logger
}

func NewFetcher(urls URLBuilder, config FetcherConfig, logger *logrus.Logger) *Fetcher {
	if config.Parallelism < 1 {
		config.Parallelism = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "edtriage/1.0"
	}
	return &Fetcher{
		urls:   urls,
		config: config,
		logger: logger,
	}
}

// FetchAll fetches every id and returns one result per id in input order.
// Failed fetches carry Err and are never retried.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) []FetchResult {
	results := make([]FetchResult, len(ids))
	for i, id := range ids {
		results[i] = FetchResult{Index: i, ID: id}
	}
	if len(ids) == 0 {
		return results
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(f.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.config.Timeout)
	c.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})

	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: f.config.Parallelism,
		Delay:       f.config.Delay,
	}); err != nil {
		f.logger.WithError(err).Warn("Failed to apply fetch limit rule")
	}

	var mu sync.Mutex
	resultFor := func(cctx *colly.Context) *FetchResult {
		i, err := strconv.Atoi(cctx.Get(indexKey))
		if err != nil || i < 0 || i >= len(results) {
			return nil
		}
		return &results[i]
	}

	c.OnResponse(func(r *colly.Response) {
		mu.Lock()
		defer mu.Unlock()
		if res := resultFor(r.Ctx); res != nil {
			res.Text = string(r.Body)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		if res := resultFor(r.Ctx); res != nil {
			res.Err = err
		}
		f.logger.WithFields(logrus.Fields{
			"status_code": r.StatusCode,
			"error":       err.Error(),
		}).Debug("Abstract fetch failed")
	})

	for i, id := range ids {
		cctx := colly.NewContext()
		cctx.Put(indexKey, strconv.Itoa(i))
		if err := c.Request(http.MethodGet, f.urls.FetchURL(id), nil, cctx, nil); err != nil {
			mu.Lock()
			results[i].Err = err
			mu.Unlock()
		}
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if results[i].Text == "" && results[i].Err == nil {
				results[i].Err = err
			}
		}
	}
	return results
}

// contextTransport ties every request to ctx so cancelling the caller
// aborts in-flight and queued fetches.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.ctx.Err(); err != nil {
		return nil, err
	}
	rctx, cancel := context.WithCancel(req.Context())
	stop := context.AfterFunc(t.ctx, cancel)
	release := func() {
		stop()
		cancel()
	}

	resp, err := t.base.RoundTrip(req.WithContext(rctx))
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

type releasingBody struct {
	io.ReadCloser
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
