package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gallery-streamer/internal/asset"
	"gallery-streamer/internal/filesystem"
	"gallery-streamer/internal/logging"
)

// DefaultMaxBodyBytes caps a single response body.
const DefaultMaxBodyBytes = 512 << 20

// RetryConfig configures retry behavior for transient fetch failures
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for flaky networks
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     1 * time.Second,
	}
}

// Client fetches asset bytes over HTTP(S) or from the local filesystem.
// It is safe for concurrent use.
type Client struct {
	http         *http.Client
	retry        RetryConfig
	maxBodyBytes int64
	log          *logging.Logger
}

// NewClient creates a client. A nil httpClient uses a client with a 30s
// timeout.
func NewClient(httpClient *http.Client, retry RetryConfig) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if retry.MaxRetries < 0 {
		retry.MaxRetries = 0
	}
	return &Client{
		http:         httpClient,
		retry:        retry,
		maxBodyBytes: DefaultMaxBodyBytes,
		log:          logging.For("fetch"),
	}
}

// Fetch returns the bytes at rawURL. http(s) URLs are requested with GET;
// file:// URLs and bare paths are read from disk. Failures are returned as
// *asset.FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()
	scheme := "http"
	var data []byte
	var err error

	if path, ok := localPath(rawURL); ok {
		scheme = "file"
		data, err = c.readFile(ctx, rawURL, path)
	} else {
		data, err = c.getWithRetry(ctx, rawURL)
	}

	observeFetch(scheme, time.Since(start).Seconds(), err)
	return data, err
}

func (c *Client) readFile(ctx context.Context, rawURL, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &asset.FetchError{URL: rawURL, Err: err}
	}
	data, err := filesystem.ReadFile(ctx, path, filesystem.DefaultRetryConfig())
	if err != nil {
		status := 0
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		return nil, &asset.FetchError{URL: rawURL, StatusCode: status, Err: err}
	}
	return data, nil
}

func (c *Client) getWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr *asset.FetchError
	backoff := c.retry.InitialBackoff

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		data, err := c.get(ctx, rawURL)
		if err == nil {
			if attempt > 0 {
				c.log.Debug("GET %s succeeded on retry %d", rawURL, attempt)
			}
			return data, nil
		}

		lastErr = err
		if !err.Temporary() || ctx.Err() != nil {
			return nil, err
		}

		// Don't sleep after the last attempt
		if attempt < c.retry.MaxRetries {
			observeRetry()
			c.log.Debug("GET %s failed (%v), retrying in %v (attempt %d/%d)",
				rawURL, err, backoff, attempt+1, c.retry.MaxRetries)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, &asset.FetchError{URL: rawURL, Err: ctx.Err()}
			}

			// Exponential backoff with cap
			backoff *= 2
			if backoff > c.retry.MaxBackoff {
				backoff = c.retry.MaxBackoff
			}
		}
	}

	c.log.Debug("GET %s failed after %d retries: %v", rawURL, c.retry.MaxRetries, lastErr)
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, *asset.FetchError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		// A malformed URL will not improve on retry.
		return nil, &asset.FetchError{URL: rawURL, StatusCode: http.StatusBadRequest, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &asset.FetchError{URL: rawURL, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug("close body for %s: %v", rawURL, err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &asset.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, &asset.FetchError{URL: rawURL, Err: err}
	}
	if int64(len(data)) > c.maxBodyBytes {
		return nil, &asset.FetchError{
			URL:        rawURL,
			StatusCode: http.StatusRequestEntityTooLarge,
			Err:        fmt.Errorf("body exceeds %d bytes", c.maxBodyBytes),
		}
	}
	return data, nil
}

// localPath reports whether rawURL refers to the local filesystem and
// returns the path.
func localPath(rawURL string) (string, bool) {
	if strings.HasPrefix(rawURL, "file://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return strings.TrimPrefix(rawURL, "file://"), true
		}
		return u.Path, true
	}
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return "", false
	}
	return rawURL, true
}
