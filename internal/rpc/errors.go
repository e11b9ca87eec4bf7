package rpc

import (
	"errors"
	"fmt"
)

// TransientNetworkError covers dial failures, resets and attempt timeouts.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// UpstreamStatusError is a response outside the 2xx range.
type UpstreamStatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// MalformedResponseError is a 2xx response that is not usable JSON.
type MalformedResponseError struct {
	Op          string
	ContentType string
	Reason      string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response (content-type %q): %s", e.Op, e.ContentType, e.Reason)
}

func resultOf(err error) string {
	var (
		netErr       *TransientNetworkError
		statusErr    *UpstreamStatusError
		malformedErr *MalformedResponseError
	)
	switch {
	case err == nil:
		return resultOK
	case errors.As(err, &statusErr):
		return resultStatus
	case errors.As(err, &malformedErr):
		return resultMalformed
	case errors.As(err, &netErr):
		return resultNetwork
	default:
		return resultNetwork
	}
}
