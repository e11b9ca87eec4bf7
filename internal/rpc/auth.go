package rpc

import (
	"net/http"

	"github.com/fystack/depined-agent/pkg/common/constant"
)

// Headers is the fixed header set sent with every request. It is built once at
// startup and copied into each client; nothing mutates it afterwards.
type Headers struct {
	UserAgent string
	Origin    string
}

func DefaultHeaders() Headers {
	return Headers{
		UserAgent: constant.DefaultUserAgent,
		Origin:    constant.DefaultOrigin,
	}
}

// build returns the per-client header template including the bearer token.
func (h Headers) build(token string) http.Header {
	hdr := make(http.Header, 6)
	hdr.Set("Accept", "application/json")
	hdr.Set("User-Agent", h.UserAgent)
	hdr.Set("Content-Type", "application/json")
	hdr.Set("Origin", h.Origin)
	hdr.Set("X-Requested-With", "XMLHttpRequest")
	if token != "" {
		hdr.Set("Authorization", "Bearer "+token)
	}
	return hdr
}
