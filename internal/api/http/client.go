package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps resty.Client with retry logic and timeout handling
type Client struct {
	resty      *resty.Client
	maxRetries int
	timeout    time.Duration
	debug      bool
	logger     *slog.Logger
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
	Debug      bool
	Logger     *slog.Logger
}

// DefaultClientConfig returns sensible defaults for the HTTP client
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		UserAgent:  "cinehome/1.0",
	}
}

// NewClient creates a new HTTP client with the given configuration
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.UserAgent == "" {
		config.UserAgent = "cinehome/1.0"
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetRetryCount(config.MaxRetries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("User-Agent", config.UserAgent).
		SetHeader("Accept", "application/json, */*")

	restyClient.AddRetryCondition(func(r *resty.Response, err error) bool {
		// Retry on network errors, 5xx server errors, and 429 rate limiting
		if err != nil {
			return true
		}
		return r.StatusCode() >= 500 || r.StatusCode() == 429
	})

	client := &Client{
		resty:      restyClient,
		maxRetries: config.MaxRetries,
		timeout:    config.Timeout,
		debug:      config.Debug,
		logger:     config.Logger,
	}

	if config.Debug && config.Logger != nil {
		restyClient.OnBeforeRequest(func(c *resty.Client, r *resty.Request) error {
			client.logRequest(r)
			return nil
		})
		restyClient.OnAfterResponse(func(c *resty.Client, r *resty.Response) error {
			client.logResponse(r)
			return nil
		})
	}

	return client
}

// Get performs a GET request with context support
func (c *Client) Get(ctx context.Context, url string) (*resty.Response, error) {
	resp, err := c.resty.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET request failed for %s: %w", url, err)
	}
	return resp, nil
}

// Post performs a POST request with a JSON body
func (c *Client) Post(ctx context.Context, url string, body interface{}) (*resty.Response, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("POST request failed for %s: %w", url, err)
	}
	return resp, nil
}

// Delete performs a DELETE request with an optional JSON body. The CineHome
// API carries the target id in the DELETE body for user collections.
func (c *Client) Delete(ctx context.Context, url string, body interface{}) (*resty.Response, error) {
	req := c.resty.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Delete(url)
	if err != nil {
		return nil, fmt.Errorf("DELETE request failed for %s: %w", url, err)
	}
	return resp, nil
}

// PostFile performs a multipart POST with a single file field read from r.
// Extra form fields may be supplied alongside the file.
func (c *Client) PostFile(ctx context.Context, url, field, filename string, r io.Reader, fields map[string]string) (*resty.Response, error) {
	req := c.resty.R().
		SetContext(ctx).
		SetFileReader(field, filename, r)
	for k, v := range fields {
		req.SetFormData(map[string]string{k: v})
	}
	resp, err := req.Post(url)
	if err != nil {
		return nil, fmt.Errorf("multipart POST failed for %s: %w", url, err)
	}
	return resp, nil
}

// GetTimeout returns the configured timeout
func (c *Client) GetTimeout() time.Duration {
	return c.timeout
}

// GetMaxRetries returns the configured max retries
func (c *Client) GetMaxRetries() int {
	return c.maxRetries
}

// logRequest logs HTTP request details
func (c *Client) logRequest(r *resty.Request) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("HTTP request", "method", r.Method, "url", r.URL)
}

// logResponse logs HTTP response details
func (c *Client) logResponse(r *resty.Response) {
	if c.logger == nil {
		return
	}

	body := r.String()
	if len(body) > 1000 {
		body = body[:1000] + "... (truncated)"
	}
	c.logger.Debug("HTTP response",
		"status", r.StatusCode(),
		"url", r.Request.URL,
		"time", r.Time(),
		"body", body,
	)
}
