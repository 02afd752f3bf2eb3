// Package sender runs outbound Bot API calls and asynchronous session work
// on a bounded worker pool.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/d4n3436/fergun/core/clock"
	"github.com/d4n3436/fergun/core/interactive"
	"github.com/d4n3436/fergun/core/logger"
)

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job was not accepted.
	ErrQueueFull = errors.New("telegram sender: queue full")

	errNilRun = errors.New("telegram sender: nil run function")
)

const component = "tg.sender"

// Options controls the dispatcher. Zero values select defaults.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on one job including retries.
	MaxDuration time.Duration
	Clock       clock.Clock
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

func (j job) attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	return attrs
}

// Dispatcher executes queued jobs on a fixed worker pool. A job whose run
// fails with a transient error is retried with linear backoff; a flood
// error waits out the retry_after Telegram asked for.
type Dispatcher struct {
	opts Options
	jobs chan job

	// mu guards closed so Enqueue never sends on a closed channel.
	mu     sync.RWMutex
	closed bool
	once   sync.Once
	wg     sync.WaitGroup

	failed atomic.Uint64
}

var _ interactive.Enqueuer = (*Dispatcher)(nil)

// NewDispatcher starts the workers.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run. It never blocks: a saturated queue yields
// ErrQueueFull. run must be safe to call again when retries are enabled.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errNilRun
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that failed for good.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.failed.Load()
}

// Close stops accepting jobs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := d.opts.Clock.Now()
	elapsed := func() time.Duration { return d.opts.Clock.Now().Sub(start) }
	attempts := d.opts.MaxRetries + 1

	var (
		err     error
		attempt int
	)
	for attempt = 1; ; attempt++ {
		if err = j.run(); err == nil {
			logger.Debug(j.ctx, component, "send.success", append(j.attrs(),
				slog.Int("attempt", attempt),
				slog.Duration("elapsed", elapsed()),
			)...)
			return
		}
		delay, retry := d.backoff(err, attempt)
		if !retry || attempt == attempts {
			break
		}
		logger.Debug(j.ctx, component, "send.retry", append(j.attrs(),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error_kind", Classify(err)),
		)...)
		select {
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
		case <-d.opts.Clock.After(delay):
			continue
		}
		break
	}

	d.failed.Add(1)
	logger.Error(j.ctx, component, "send.fail", append(j.attrs(),
		slog.String("error", Redact(err)),
		slog.String("error_kind", Classify(err)),
		slog.Int("attempts", attempt),
		slog.Duration("elapsed", elapsed()),
	)...)
}

// backoff reports whether err deserves another attempt and how long to
// wait before it.
func (d *Dispatcher) backoff(err error, attempt int) (time.Duration, bool) {
	if wait, ok := floodWait(err); ok {
		return wait, true
	}
	if !Transient(err) {
		return 0, false
	}
	return d.opts.RetryBackoff * time.Duration(attempt), true
}
