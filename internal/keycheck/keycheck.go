// Package keycheck verifies an API key against the OpenAI models endpoint.
package keycheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/"
	defaultTimeout = 15 * time.Second
	sampleSize     = 5
)

// Result describes what a verified key can see.
type Result struct {
	Models int      `json:"models"`
	Sample []string `json:"sample,omitempty"`
}

// RejectedError means the API answered but refused the key.
type RejectedError struct {
	StatusCode int
	Err        error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("api key rejected (status %d)", e.StatusCode)
}

func (e *RejectedError) Unwrap() error { return e.Err }

// Checker lists models to prove a key works.
type Checker struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewChecker creates a checker. Empty baseURL and zero timeout use defaults.
func NewChecker(baseURL string, timeout time.Duration, httpClient *http.Client) *Checker {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Checker{baseURL: baseURL, timeout: timeout, httpClient: httpClient}
}

// Verify lists the models visible to apiKey. Requests are not retried.
func (c *Checker) Verify(ctx context.Context, apiKey string) (Result, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithRequestTimeout(c.timeout),
		option.WithMaxRetries(0),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	client := openai.NewClient(opts...)

	page, err := client.Models.List(ctx)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Result{}, &RejectedError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return Result{}, fmt.Errorf("list models: %w", err)
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	sort.Strings(ids)
	if len(ids) > sampleSize {
		ids = ids[:sampleSize]
	}
	return Result{Models: len(page.Data), Sample: ids}, nil
}
