package completion

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Error kinds reported by Kind.
const (
	KindNetwork           = "network"
	KindRemote            = "remote"
	KindMalformedResponse = "malformed_response"
	KindEmptyCompletion   = "empty_completion"
	KindUnknown           = "unknown"
)

// NetworkError means the request could not be sent or its response could not be read.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	if e.Timeout() {
		return fmt.Sprintf("completion: request timed out: %v", e.Err)
	}
	return fmt.Sprintf("completion: request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request hit its deadline.
func (e *NetworkError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// RemoteError is a non-2xx response from the completion endpoint.
type RemoteError struct {
	StatusCode int
	Body       string
	// Message is error.message from the response body, when present.
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("completion: remote error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("completion: remote error (status %d)", e.StatusCode)
}

// MalformedResponseError means the response body did not have the expected shape.
type MalformedResponseError struct {
	Reason string
	Body   string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion: malformed response: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("completion: malformed response: %s", e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// EmptyCompletionError means the response carried an empty choices array.
type EmptyCompletionError struct{}

func (e *EmptyCompletionError) Error() string {
	return "completion: response contained no choices"
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var (
		netErr       *NetworkError
		remoteErr    *RemoteError
		malformedErr *MalformedResponseError
		emptyErr     *EmptyCompletionError
	)
	switch {
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &remoteErr):
		return KindRemote
	case errors.As(err, &malformedErr):
		return KindMalformedResponse
	case errors.As(err, &emptyErr):
		return KindEmptyCompletion
	default:
		return KindUnknown
	}
}
