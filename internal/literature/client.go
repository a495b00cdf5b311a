package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTool = "edtriage"

type ClientConfig struct {
	BaseURL string
	Email   string
	APIKey  string
	Tool    string
	Timeout time.Duration
}

// Client talks to the NCBI E-utilities endpoints.
type Client struct {
	baseURL    string
	email      string
	apiKey     string
	tool       string
	httpClient *http.Client
	retry      RetryConfig
	logger     *logrus.Logger
}

func NewClient(cfg ClientConfig, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	tool := cfg.Tool
	if tool == "" {
		tool = defaultTool
	}
	return &Client{
		baseURL: cfg.BaseURL,
		email:   cfg.Email,
		apiKey:  cfg.APIKey,
		tool:    tool,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry:  DefaultRetryConfig(),
		logger: logger,
	}
}

// WithRetry replaces the retry policy used for searches.
func (c *Client) WithRetry(cfg RetryConfig) *Client {
	c.retry = cfg
	return c
}

// SearchIDs returns up to maxResults PubMed ids for query, most relevant first.
func (c *Client) SearchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	params := c.commonParams()
	params.Set("term", query)
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("retmode", "json")

	var response ESearchResponse
	if err := c.makeRequest(ctx, "/esearch.fcgi", params, &response); err != nil {
		return nil, err
	}
	if err := response.Validate(); err != nil {
		return nil, err
	}

	ids := response.Result.IDList
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// SearchIDsWithRetry is SearchIDs wrapped in the client's retry policy.
func (c *Client) SearchIDsWithRetry(ctx context.Context, query string, maxResults int) ([]string, error) {
	var ids []string
	err := c.retryOperation(ctx, func() error {
		var err error
		ids, err = c.SearchIDs(ctx, query, maxResults)
		return err
	})
	return ids, err
}

// FetchURL builds the efetch URL returning the plain-text abstract for id.
func (c *Client) FetchURL(id string) string {
	params := c.commonParams()
	params.Set("id", id)
	params.Set("rettype", "abstract")
	params.Set("retmode", "text")
	return c.baseURL + "/efetch.fcgi?" + params.Encode()
}

func (c *Client) commonParams() url.Values {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("tool", c.tool)
	if c.email != "" {
		params.Set("email", c.email)
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return params
}

func (c *Client) makeRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	requestURL := c.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"term":     params.Get("term"),
	}).Debug("Making PubMed request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"endpoint":      endpoint,
		"response_size": len(responseBody),
	}).Debug("PubMed response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(responseBody), 200)}
	}

	if err := json.Unmarshal(responseBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx E-utilities responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("PubMed request failed with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
