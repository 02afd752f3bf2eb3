package telegram

import (
	"io"
	"net"
	"net/http"
	"time"

	"github.com/d4n3436/fergun/core/clock"
	tgsender "github.com/d4n3436/fergun/core/telegram/sender"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// BuildHTTPClient returns an HTTP client tuned for Bot API calls. Transient
// network failures and gateway errors are retried with linear backoff.
func BuildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: defaultResponseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Timeout:   defaultClientTimeout,
		Transport: newRetryTransport(transport, defaultRetryAttempts, defaultRetryBackoff, clock.Real()),
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
	clock      clock.Clock
}

func newRetryTransport(base http.RoundTripper, retries int, backoff time.Duration, clk clock.Clock) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &retryTransport{base: base, maxRetries: max(retries, 0), backoff: backoff, clock: clk}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	replayable := req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
	for attempt := 0; ; attempt++ {
		current := req
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			current = req.Clone(req.Context())
			current.Body = body
		}

		resp, err := t.base.RoundTrip(current)
		last := attempt >= t.maxRetries || !replayable
		switch {
		case err != nil:
			if last || !tgsender.Transient(err) {
				return nil, err
			}
		case retryableStatus(resp.StatusCode):
			if last {
				return resp, nil
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		default:
			return resp, nil
		}

		delay := t.backoff * time.Duration(attempt+1)
		if delay <= 0 {
			continue
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-t.clock.After(delay):
		}
	}
}

// retryableStatus reports gateway failures in front of the Bot API. A 429
// carries a retry_after the caller must honour, so it is not retried here.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
