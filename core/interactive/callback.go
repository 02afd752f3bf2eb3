package interactive

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/d4n3436/fergun/core/clock"
	"github.com/d4n3436/fergun/core/logger"
)

// SessionCallback binds a displayed session to its message, owning context
// and criterion. Its handle surface is only reachable through the Registry.
type SessionCallback struct {
	id       string
	ref      MessageRef
	ic       InvocationContext
	session  Session
	mode     RunMode
	registry *Registry

	// mu serializes synchronous handling, timeouts and cancellation.
	mu   sync.Mutex
	last OutgoingMessage

	// done is the complete-once guard shared by every terminal path.
	done atomic.Bool

	timerMu sync.Mutex
	timer   *clock.Timer
}

// ID returns the session id used in logs.
func (c *SessionCallback) ID() string { return c.id }

// Message returns the message the session is attached to.
func (c *SessionCallback) Message() MessageRef { return c.ref }

// Context returns the owning invocation context.
func (c *SessionCallback) Context() InvocationContext { return c.ic }

// Session returns the attached session.
func (c *SessionCallback) Session() Session { return c.session }

// Done reports whether the session reached a terminal state.
func (c *SessionCallback) Done() bool { return c.done.Load() }

// finish claims the terminal transition. Only the first caller gets true.
func (c *SessionCallback) finish() bool {
	if !c.done.CompareAndSwap(false, true) {
		return false
	}
	c.stopTimer()
	return true
}

func (c *SessionCallback) setTimer(t *clock.Timer) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.done.Load() {
		t.Stop()
		return
	}
	c.timer = t
}

func (c *SessionCallback) stopTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *SessionCallback) logAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("session_id", c.id),
		slog.String("message", c.ref.String()),
		slog.Int64("chat_id", c.ic.ChannelID),
		slog.Int64("user_id", c.ic.UserID),
	}
}

// edit re-renders the message and remembers the rendering.
func (c *SessionCallback) edit(ctx context.Context, msg OutgoingMessage) error {
	if err := c.registry.platform.Edit(ctx, c.ref, msg); err != nil {
		return err
	}
	c.last = msg
	return nil
}

// finalize applies the cleanup policy of a terminal transition.
func (c *SessionCallback) finalize(ctx context.Context, policy ActionOnStop, page *Page) error {
	p := c.registry.platform
	if policy.Has(ActionDeleteMessage) {
		return ignoreNotFound(p.Delete(ctx, c.ref))
	}

	msg := c.last
	changed := false
	if policy.Has(ActionModifyMessage) && page != nil {
		msg.Text = page.Text
		changed = true
	}
	switch {
	case policy.Has(ActionDeleteInput):
		if c.session.base().input == InputReactions {
			if err := ignoreNotFound(p.ClearReactions(ctx, c.ref)); err != nil {
				return err
			}
		}
		if len(msg.Buttons) > 0 {
			msg.Buttons = nil
			changed = true
		}
	case policy.Has(ActionDisableInput):
		if len(msg.Buttons) > 0 {
			msg.Buttons = disableButtons(msg.Buttons)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return ignoreNotFound(c.edit(ctx, msg))
}

// terminate concludes the session with status from outside the event path
// (timeout, cancellation). The caller holds c.mu.
func (c *SessionCallback) terminate(ctx context.Context, status Status) (bool, error) {
	if !c.finish() {
		return false, nil
	}
	c.registry.remove(c)
	policy, page := c.session.conclude(status)
	logger.Debug(ctx, logComponent, "session.terminated",
		append(c.logAttrs(), slog.String("outcome_status", status.String()))...,
	)
	return true, c.finalize(ctx, policy, page)
}
