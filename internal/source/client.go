// Package source pulls bulk datasets from the dataset export service.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"google.golang.org/api/idtoken"
)

var (
	// ErrInvalidPath is returned for empty, absolute or escaping dataset paths.
	ErrInvalidPath = errors.New("invalid dataset path")
	// ErrTooLarge is returned when a dataset exceeds the configured size limit.
	ErrTooLarge = errors.New("dataset exceeds size limit")
)

// StatusError reports a non-2xx answer from the dataset service.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dataset service returned %d", e.Code)
	}
	return fmt.Sprintf("dataset service returned %d: %s", e.Code, e.Message)
}

// Fetcher downloads a dataset by its path relative to the service root.
type Fetcher interface {
	Fetch(ctx context.Context, datasetPath, requestID string) (Dataset, error)
}

// Dataset is a downloaded upload body plus the name used for format detection.
type Dataset struct {
	Name string
	Data []byte
}

// Client fetches datasets over HTTP.
type Client struct {
	client   *http.Client
	baseURL  string
	maxBytes int64
}

// NewClient builds a dataset client. When client is nil an ID token client is
// configured for baseURL, falling back to a plain client when no credentials
// are available.
func NewClient(client *http.Client, baseURL string, maxBytes int64) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("dataset base url must not be empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse dataset base url: %w", err)
	}
	if client == nil {
		idc, err := idtoken.NewClient(context.Background(), baseURL)
		if err != nil {
			client = &http.Client{Timeout: 60 * time.Second}
		} else {
			client = idc
		}
	}
	return &Client{client: client, baseURL: baseURL, maxBytes: maxBytes}, nil
}

// Fetch downloads datasetPath and returns its body.
func (c *Client) Fetch(ctx context.Context, datasetPath, requestID string) (Dataset, error) {
	clean, err := cleanPath(datasetPath)
	if err != nil {
		return Dataset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+clean, nil)
	if err != nil {
		return Dataset{}, fmt.Errorf("create dataset request: %w", err)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Dataset{}, &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	body := io.Reader(resp.Body)
	if c.maxBytes > 0 {
		body = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset: %w", err)
	}
	if c.maxBytes > 0 && int64(len(data)) > c.maxBytes {
		return Dataset{}, ErrTooLarge
	}

	return Dataset{Name: path.Base(clean), Data: data}, nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, "://") {
		return "", ErrInvalidPath
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

var _ Fetcher = (*Client)(nil)
