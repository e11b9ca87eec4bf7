package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fystack/depined-agent/internal/metrics"
	"github.com/fystack/depined-agent/pkg/common/logger"
	"github.com/fystack/depined-agent/pkg/ratelimiter"
	"github.com/fystack/depined-agent/pkg/retry"
)

type ClientConfig struct {
	BaseURL string
	Token   string
	Headers Headers
	Policy  retry.Policy
	// Proxy routes every request through the given endpoint; nil connects directly.
	Proxy       *url.URL
	RateLimiter *ratelimiter.RateLimiter
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	// Transport overrides the default transport. The proxy is ignored when set.
	Transport http.RoundTripper
}

// Client issues retried JSON requests for a single account/proxy pairing.
type Client struct {
	baseURL     string
	header      http.Header
	policy      retry.Policy
	httpClient  *http.Client
	rateLimiter *ratelimiter.RateLimiter
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("retry policy: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.L()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = newTransport(cfg.Proxy)
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		header:      cfg.Headers.build(cfg.Token),
		policy:      cfg.Policy,
		httpClient:  &http.Client{Transport: transport},
		rateLimiter: cfg.RateLimiter,
		metrics:     cfg.Metrics,
		logger:      log,
	}, nil
}

func newTransport(proxy *url.URL) *http.Transport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxy != nil {
		tr.Proxy = http.ProxyURL(proxy)
	}
	return tr
}

// Invoke performs req under the client's retry policy and returns the raw JSON body
// of the first successful attempt. Once the policy is exhausted the returned error
// matches retry.ErrRetryExhausted and wraps the last attempt's failure.
func (c *Client) Invoke(ctx context.Context, req Request) (json.RawMessage, error) {
	var payload []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal body: %w", req.name(), err)
		}
		payload = b
	}

	var body json.RawMessage
	err := retry.Do(ctx, c.policy, func(actx context.Context) error {
		var err error
		body, err = c.attempt(actx, req, payload)
		return err
	}, func(err error, attempt int, next time.Duration) {
		c.logger.Debug("Retrying request",
			"op", req.name(),
			"attempt", attempt,
			"next_retry_in", next,
			"err", err,
		)
	})
	c.metrics.ObserveCall(req.name(), err == nil)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) attempt(ctx context.Context, req Request, payload []byte) (body json.RawMessage, err error) {
	op := req.name()
	start := time.Now()
	defer func() {
		c.metrics.ObserveAttempt(op, resultOf(err), time.Since(start))
	}()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, &TransientNetworkError{Op: op, Err: fmt.Errorf("rate limit: %w", err)}
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, reqBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("%s: create request: %w", op, err))
	}
	httpReq.Header = c.header.Clone()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransientNetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransientNetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("HTTP request completed",
		"op", op,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	if !isSuccess(resp.StatusCode) {
		return nil, &UpstreamStatusError{Op: op, StatusCode: resp.StatusCode, Body: truncate(data, maxErrBodySize)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !isJSONContentType(contentType) {
		return nil, &MalformedResponseError{Op: op, ContentType: contentType, Reason: "not a JSON content type"}
	}
	if !json.Valid(data) {
		return nil, &MalformedResponseError{Op: op, ContentType: contentType, Reason: "invalid JSON body"}
	}
	return json.RawMessage(data), nil
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func isJSONContentType(v string) bool {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// IsExhausted reports whether err is the terminal failure of a retried call.
func IsExhausted(err error) bool {
	return errors.Is(err, retry.ErrRetryExhausted)
}
