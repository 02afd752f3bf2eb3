package interactive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/d4n3436/fergun/core/clock"
	"github.com/d4n3436/fergun/core/logger"
	"github.com/google/uuid"
)

const logComponent = "interactive"

const (
	defaultJumpTimeout = 15 * time.Second
	defaultInfoDelay   = 10 * time.Second
)

// Enqueuer runs work in the background. The telegram sender dispatcher
// satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, action, endpoint string, run func() error) error
}

// RegistryOptions controls a Registry. Zero values select defaults.
type RegistryOptions struct {
	RunMode RunMode
	Clock   clock.Clock
	// Async runs handlers in RunAsync mode; nil falls back to a goroutine.
	Async Enqueuer
	// DefaultTimeout applies to sessions without their own timeout. Zero
	// means sessions without a timeout never expire.
	DefaultTimeout time.Duration
	JumpTimeout    time.Duration
	InfoDelay      time.Duration
}

// Registry routes platform events to displayed sessions. It is the single
// subscriber to its Source for session dispatch.
type Registry struct {
	platform Platform
	source   Source
	opts     RegistryOptions
	clock    clock.Clock

	// sessions maps MessageRef to *SessionCallback.
	sessions sync.Map

	unsubscribe func()
	closed      atomic.Bool
	closing     chan struct{}
	closeOnce   sync.Once
}

// NewRegistry subscribes a new Registry to source.
func NewRegistry(platform Platform, source Source, opts RegistryOptions) *Registry {
	if opts.RunMode == RunDefault {
		opts.RunMode = RunSync
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.JumpTimeout <= 0 {
		opts.JumpTimeout = defaultJumpTimeout
	}
	if opts.InfoDelay <= 0 {
		opts.InfoDelay = defaultInfoDelay
	}
	r := &Registry{
		platform: platform,
		source:   source,
		opts:     opts,
		clock:    opts.Clock,
		closing:  make(chan struct{}),
	}
	r.unsubscribe = source.Subscribe(r.Dispatch)
	return r
}

// Platform returns the outbound platform the registry renders through.
func (r *Registry) Platform() Platform { return r.platform }

// Display sends the session's first rendering to ic.ChannelID and, when the
// session has more than one state, registers it under the sent message.
// A registration for a message id that is already registered replaces the
// previous one; the replaced session is not notified. When a reaction
// cannot be attached the session is concluded as canceled and unregistered.
func (r *Registry) Display(ctx context.Context, ic InvocationContext, s Session) (MessageRef, error) {
	if s == nil {
		return MessageRef{}, ErrNilSession
	}
	if r.closed.Load() {
		return MessageRef{}, ErrRegistryClosed
	}
	b := s.base()
	if !b.claimed.CompareAndSwap(false, true) {
		return MessageRef{}, fmt.Errorf("interactive: session already displayed")
	}

	msg, err := s.initial(ctx)
	if err != nil {
		return MessageRef{}, err
	}
	ref, err := r.platform.Send(ctx, ic.ChannelID, msg)
	if err != nil {
		return MessageRef{}, fmt.Errorf("interactive: send: %w", err)
	}
	if !s.multiState() {
		s.conclude(StatusSuccess)
		return ref, nil
	}

	mode := b.runMode
	if mode == RunDefault {
		mode = r.opts.RunMode
	}
	cb := &SessionCallback{
		id:       uuid.NewString(),
		ref:      ref,
		ic:       ic,
		session:  s,
		mode:     mode,
		registry: r,
		last:     msg,
	}
	if prev, loaded := r.sessions.Swap(ref, cb); loaded {
		old := prev.(*SessionCallback)
		old.finish()
		logger.Debug(ctx, logComponent, "session.superseded",
			append(old.logAttrs(), slog.String("by", cb.id))...,
		)
	}
	logger.Debug(ctx, logComponent, "session.registered",
		append(cb.logAttrs(),
			slog.String("input", b.input.String()),
			slog.String("run_mode", mode.String()),
		)...,
	)

	timeout := b.timeout
	if timeout <= 0 {
		timeout = r.opts.DefaultTimeout
	}
	if timeout > 0 {
		cb.setTimer(r.clock.AfterFunc(timeout, func() { r.expire(cb) }))
	}

	if b.input == InputReactions {
		if err := r.addReactions(ctx, ref, s.emotes()); err != nil {
			if cb.finish() {
				r.remove(cb)
				s.conclude(StatusCanceled)
			}
			return ref, err
		}
	}
	return ref, nil
}

// addReactions attaches emotes to ref in order, stopping at the platform's
// reaction limit.
func (r *Registry) addReactions(ctx context.Context, ref MessageRef, emotes []string) error {
	if l, ok := r.platform.(ReactionLimiter); ok {
		if n := l.MaxReactions(); n > 0 && n < len(emotes) {
			emotes = emotes[:n]
		}
	}
	for _, emote := range emotes {
		if err := r.platform.AddReaction(ctx, ref, emote); err != nil {
			return fmt.Errorf("interactive: add reaction %q: %w", emote, err)
		}
	}
	return nil
}

// Dispatch routes one platform event. It is subscribed to the Source by
// NewRegistry and exported for transports that deliver events directly.
func (r *Registry) Dispatch(ctx context.Context, ev Event) error {
	if r.closed.Load() {
		return nil
	}
	if ev.ActorID == r.platform.SelfID() {
		return nil
	}
	switch ev.Kind {
	case EventReaction, EventComponent:
		v, ok := r.sessions.Load(ev.Message)
		if !ok {
			return nil
		}
		return r.deliver(ctx, v.(*SessionCallback), ev)
	case EventMessage:
		var targets []*SessionCallback
		r.sessions.Range(func(_, v any) bool {
			cb := v.(*SessionCallback)
			if cb.session.base().input == InputMessages && cb.ic.ChannelID == ev.ChannelID {
				targets = append(targets, cb)
			}
			return true
		})
		var errs []error
		for _, cb := range targets {
			if err := r.deliver(ctx, cb, ev); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

func (r *Registry) deliver(ctx context.Context, cb *SessionCallback, ev Event) error {
	ctx = logger.WithMessage(logger.WithSession(ctx, cb.id), cb.ref.String())
	ok, err := cb.session.base().criterion.Match(ctx, cb.ic, ev)
	if err != nil {
		return err
	}
	if !ok {
		if logger.ShouldSample(logComponent) {
			logger.Debug(ctx, logComponent, "event.rejected",
				append(cb.logAttrs(), slog.String("kind", ev.Kind.String()))...,
			)
		}
		return nil
	}

	if cb.mode == RunAsync {
		run := func() error {
			_, err := r.invoke(ctx, cb, ev)
			return err
		}
		if r.opts.Async != nil {
			err := r.opts.Async.Enqueue(ctx, "interactive.handle", ev.Kind.String(), run)
			if err == nil {
				return nil
			}
			logger.Warn(ctx, logComponent, "async.fallback",
				append(cb.logAttrs(), slog.String("err", err.Error()))...,
			)
		}
		go func() {
			if err := run(); err != nil {
				logger.Error(ctx, logComponent, "handle.fail",
					append(cb.logAttrs(), slog.String("err", err.Error()))...,
				)
			}
		}()
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	_, err = r.invoke(ctx, cb, ev)
	return err
}

func (r *Registry) invoke(ctx context.Context, cb *SessionCallback, ev Event) (Transition, error) {
	if cb.Done() {
		return Terminate, nil
	}
	t, err := cb.session.handle(ctx, cb, ev)
	if t == Terminate {
		cb.finish()
		r.remove(cb)
		logger.Debug(ctx, logComponent, "session.completed",
			append(cb.logAttrs(), slog.String("kind", ev.Kind.String()))...,
		)
	}
	return t, err
}

// remove deletes cb only if it is still the registration for its message.
func (r *Registry) remove(cb *SessionCallback) {
	r.sessions.CompareAndDelete(cb.ref, cb)
}

func (r *Registry) expire(cb *SessionCallback) {
	ctx := logger.WithLogger(context.Background(), logger.Component(logComponent))
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if _, err := cb.terminate(ctx, StatusTimedOut); err != nil {
		logger.Warn(ctx, logComponent, "timeout.cleanup.fail",
			append(cb.logAttrs(), slog.String("err", err.Error()))...,
		)
	}
}

// Cancel terminates the session attached to ref as canceled, applying its
// cancel policy. It reports whether a live session was canceled.
func (r *Registry) Cancel(ctx context.Context, ref MessageRef) (bool, error) {
	v, ok := r.sessions.Load(ref)
	if !ok {
		return false, nil
	}
	cb := v.(*SessionCallback)
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.terminate(ctx, StatusCanceled)
}

// Lookup returns the live registration for ref.
func (r *Registry) Lookup(ref MessageRef) (*SessionCallback, bool) {
	v, ok := r.sessions.Load(ref)
	if !ok {
		return nil, false
	}
	return v.(*SessionCallback), true
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// NextMessage waits for the next text event accepted by criterion, using a
// temporary subscription that is always removed before returning. ok is
// false when timeout elapses first.
func (r *Registry) NextMessage(ctx context.Context, ic InvocationContext, criterion Criterion, timeout time.Duration) (Event, bool, error) {
	if r.closed.Load() {
		return Event{}, false, ErrRegistryClosed
	}
	if timeout <= 0 {
		timeout = r.opts.JumpTimeout
	}
	if criterion == nil {
		criterion = Always
	}
	self := r.platform.SelfID()
	found := make(chan Event, 1)
	unsubscribe := r.source.Subscribe(func(ctx context.Context, ev Event) error {
		if ev.Kind != EventMessage || ev.ActorID == self {
			return nil
		}
		ok, err := criterion.Match(ctx, ic, ev)
		if err != nil || !ok {
			return err
		}
		select {
		case found <- ev:
		default:
		}
		return nil
	})
	defer unsubscribe()

	expired := r.clock.After(timeout)
	select {
	case ev := <-found:
		return ev, true, nil
	case <-expired:
		return Event{}, false, nil
	case <-ctx.Done():
		return Event{}, false, ctx.Err()
	case <-r.closing:
		return Event{}, false, ErrRegistryClosed
	}
}

// Close unsubscribes from the event source and resolves every outstanding
// session as canceled. Timers are stopped and no outbound calls are made,
// so messages keep their last rendering.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.closing)
		if r.unsubscribe != nil {
			r.unsubscribe()
		}
		dropped := 0
		r.sessions.Range(func(k, v any) bool {
			cb := v.(*SessionCallback)
			if cb.finish() {
				cb.session.conclude(StatusCanceled)
				dropped++
			}
			r.sessions.Delete(k)
			return true
		})
		logger.Info(context.Background(), logComponent, "registry.closed",
			slog.Int("count", dropped),
		)
	})
}
