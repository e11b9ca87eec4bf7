package account

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var supportedSchemes = map[string]bool{
	"http":    true,
	"https":   true,
	"socks5":  true,
	"socks5h": true,
}

// NormalizeProxy accepts a full proxy URL, "host:port" or "host:port:user:pass".
// Bare forms are treated as plain HTTP proxies.
func NormalizeProxy(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty proxy")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", raw, err)
		}
		if !supportedSchemes[strings.ToLower(u.Scheme)] {
			return nil, fmt.Errorf("proxy %q: unsupported scheme %q", raw, u.Scheme)
		}
		if u.Hostname() == "" || u.Port() == "" {
			return nil, fmt.Errorf("proxy %q: host and port are required", raw)
		}
		return u, nil
	}

	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 2:
		return hostPort(raw, parts[0], parts[1], nil)
	case 4:
		return hostPort(raw, parts[0], parts[1], url.UserPassword(parts[2], parts[3]))
	default:
		return nil, fmt.Errorf("proxy %q: expected host:port or host:port:user:pass", raw)
	}
}

func hostPort(raw, host, port string, user *url.Userinfo) (*url.URL, error) {
	if host == "" || port == "" {
		return nil, fmt.Errorf("proxy %q: host and port are required", raw)
	}
	return &url.URL{Scheme: "http", User: user, Host: net.JoinHostPort(host, port)}, nil
}

// NormalizeProxies keeps every valid proxy and reports the rest as one joined error.
func NormalizeProxies(raws []string) ([]*url.URL, error) {
	var (
		out  []*url.URL
		errs []error
	)
	for _, raw := range raws {
		u, err := NormalizeProxy(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, u)
	}
	return out, errors.Join(errs...)
}

// Redacted renders a proxy without its password, "direct" when nil.
func Redacted(u *url.URL) string {
	if u == nil {
		return "direct"
	}
	return u.Redacted()
}
