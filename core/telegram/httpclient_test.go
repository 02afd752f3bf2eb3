package telegram

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d4n3436/fergun/core/clock"
)

type scriptedTransport struct {
	mu     sync.Mutex
	steps  []func() (*http.Response, error)
	bodies []string
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		s.bodies = append(s.bodies, string(b))
	}
	step := s.steps[0]
	if len(s.steps) > 1 {
		s.steps = s.steps[1:]
	}
	return step()
}

func (s *scriptedTransport) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func status(code int) func() (*http.Response, error) {
	return func() (*http.Response, error) {
		return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader("{}"))}, nil
	}
}

func fail(err error) func() (*http.Response, error) {
	return func() (*http.Response, error) { return nil, err }
}

func newPost(t *testing.T, ctx context.Context) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.telegram.org/botX/sendMessage", strings.NewReader("chat_id=1"))
	require.NoError(t, err)
	return req
}

func TestRetryTransportRetriesTransientFailures(t *testing.T) {
	base := &scriptedTransport{steps: []func() (*http.Response, error){
		fail(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}),
		status(http.StatusBadGateway),
		status(http.StatusOK),
	}}
	rt := newRetryTransport(base, 3, 0, nil)

	resp, err := rt.RoundTrip(newPost(t, context.Background()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"chat_id=1", "chat_id=1", "chat_id=1"}, base.bodies)
}

func TestRetryTransportGivesUp(t *testing.T) {
	base := &scriptedTransport{steps: []func() (*http.Response, error){status(http.StatusServiceUnavailable)}}
	rt := newRetryTransport(base, 2, 0, nil)

	resp, err := rt.RoundTrip(newPost(t, context.Background()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 3, base.calls())
}

func TestRetryTransportDoesNotRetryPermanentErrors(t *testing.T) {
	boom := errors.New("tls: bad certificate")
	base := &scriptedTransport{steps: []func() (*http.Response, error){fail(boom)}}
	rt := newRetryTransport(base, 3, 0, nil)

	_, err := rt.RoundTrip(newPost(t, context.Background()))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, base.calls())

	base = &scriptedTransport{steps: []func() (*http.Response, error){status(http.StatusTooManyRequests)}}
	rt = newRetryTransport(base, 3, 0, nil)
	resp, err := rt.RoundTrip(newPost(t, context.Background()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, 1, base.calls())
}

func TestRetryTransportBacksOffOnClock(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	base := &scriptedTransport{steps: []func() (*http.Response, error){
		fail(io.ErrUnexpectedEOF),
		status(http.StatusOK),
	}}
	rt := newRetryTransport(base, 1, time.Second, clk)

	done := make(chan *http.Response, 1)
	go func() {
		resp, _ := rt.RoundTrip(newPost(t, context.Background()))
		done <- resp
	}()

	clk.WaitForTimers(1)
	assert.Equal(t, 1, base.calls())
	clk.Advance(time.Second)

	select {
	case resp := <-done:
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not resume after backoff")
	}
}

func TestRetryTransportStopsOnCancel(t *testing.T) {
	clk := clock.Fake(time.Unix(0, 0))
	base := &scriptedTransport{steps: []func() (*http.Response, error){fail(syscall.ECONNRESET)}}
	rt := newRetryTransport(base, 5, time.Minute, clk)

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, err := rt.RoundTrip(newPost(t, ctx))
		errs <- err
	}()
	clk.WaitForTimers(1)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("round trip ignored cancellation")
	}
}
