// Package completion sends prompts to the text-completion endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client issues completion requests authenticated with a single API key.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the API root the completion path is resolved against.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			if !strings.HasSuffix(baseURL, "/") {
				baseURL += "/"
			}
			c.baseURL = baseURL
		}
	}
}

// WithTimeout bounds a single Generate call. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient constructs a client for apiKey. The key is not validated; an
// empty key is sent as-is and left for the remote service to reject.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: BaseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate completes prompt with a fresh client for apiKey.
func Generate(ctx context.Context, apiKey, prompt string, opts ...Option) (string, error) {
	return NewClient(apiKey, opts...).Generate(ctx, prompt)
}

// Generate sends one completion request and returns the text of the first choice.
// Failures are reported as *NetworkError, *RemoteError, *MalformedResponseError
// or *EmptyCompletionError. The request is never retried.
//
// The prompt travels as a JSON string, so invalid UTF-8 bytes in it are sent
// as U+FFFD.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		raw  []byte
		seen capturedResponse
	)
	client := openai.NewClient(c.requestOptions(&seen)...)
	err := client.Post(ctx, enginePath, completionRequest{Prompt: prompt, MaxTokens: MaxTokens}, &raw)

	switch {
	case seen.status != 0 && (seen.status < 200 || seen.status > 299):
		return "", remoteError(seen, err)
	case err != nil:
		return "", &NetworkError{Err: err}
	}
	return parseCompletion(raw)
}

func (c *Client) requestOptions(seen *capturedResponse) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(c.apiKey),
		option.WithBaseURL(c.baseURL),
		option.WithRequestTimeout(c.timeout),
		option.WithMaxRetries(0),
		option.WithMiddleware(seen.capture),
	}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	return opts
}

// capturedResponse keeps the status and body of the single attempt, since the
// SDK only surfaces them for error bodies it can decode.
type capturedResponse struct {
	status int
	body   []byte
}

func (r *capturedResponse) capture(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil {
		return resp, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	r.status = resp.StatusCode
	r.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

func remoteError(seen capturedResponse, err error) *RemoteError {
	remote := &RemoteError{
		StatusCode: seen.status,
		Body:       string(seen.body),
		Message:    remoteMessage(seen.body),
	}
	var apiErr *openai.Error
	if remote.Message == "" && errors.As(err, &apiErr) {
		remote.Message = apiErr.Message
	}
	return remote
}

func parseCompletion(body []byte) (string, error) {
	var envelope struct {
		Choices *json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", &MalformedResponseError{Reason: "body is not a JSON object", Body: string(body), Err: err}
	}
	if envelope.Choices == nil {
		return "", &MalformedResponseError{Reason: "choices is missing", Body: string(body)}
	}

	var choices []json.RawMessage
	if err := json.Unmarshal(*envelope.Choices, &choices); err != nil || choices == nil {
		return "", &MalformedResponseError{Reason: "choices is not an array", Body: string(body), Err: err}
	}
	if len(choices) == 0 {
		return "", &EmptyCompletionError{}
	}

	var first struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(choices[0], &first); err != nil {
		return "", &MalformedResponseError{Reason: "choices[0] is not an object with a string text", Body: string(body), Err: err}
	}
	if first.Text == nil {
		return "", &MalformedResponseError{Reason: "choices[0].text is missing", Body: string(body)}
	}
	return *first.Text, nil
}

func remoteMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error.Message
}
