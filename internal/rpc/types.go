package rpc

import (
	"net/http"
)

// Request is one logical call against the remote API.
type Request struct {
	// Op names the call in logs and metrics.
	Op     string
	Method string
	Path   string
	// Body is JSON-encoded when non-nil.
	Body any
}

func (r Request) name() string {
	if r.Op != "" {
		return r.Op
	}
	return r.Method + " " + r.Path
}

// Attempt results used as metric labels.
const (
	resultOK        = "ok"
	resultNetwork   = "network"
	resultStatus    = "upstream_status"
	resultMalformed = "malformed"
)

const (
	maxBodySize    = 1 << 20
	maxErrBodySize = 256
)

func isSuccess(code int) bool {
	return code >= http.StatusOK && code < http.StatusMultipleChoices
}
