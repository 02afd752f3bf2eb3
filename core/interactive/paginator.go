package interactive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/d4n3436/fergun/core/logger"
)

const defaultInfoText = "This is a paginator. Use the controls to move between pages:\n" +
	"⏮ first page, ◀ previous page, ▶ next page, ⏭ last page,\n" +
	"🔢 jump to a page (reply with its number), ⏹ stop."

// PaginatorOptions configures a Paginator.
type PaginatorOptions struct {
	// Pages is required.
	Pages PageSource
	// Affordances defaults to DefaultPaginatorAffordances.
	Affordances []Affordance
	// Users restricts who may interact; empty allows everyone.
	Users []int64
	// Input is InputButtons or InputReactions.
	Input    InputType
	Criteria []Criterion
	RunMode  RunMode
	// Timeout of zero uses the registry default.
	Timeout    time.Duration
	StartIndex int

	// Footer defaults to PageNumberFooter unless HideFooter is set.
	Footer        Footer
	HideFooter    bool
	ButtonsPerRow int

	ActionOnCancel  ActionOnStop
	ActionOnTimeout ActionOnStop
	CanceledPage    *Page
	TimeoutPage     *Page

	// JumpTimeout of zero uses the registry default.
	JumpTimeout time.Duration
	// JumpPrompt, when set, is sent while waiting for the page number and
	// deleted afterwards.
	JumpPrompt string
	InfoText   string
	// InfoDelay of zero uses the registry default.
	InfoDelay time.Duration
}

// Paginator moves among an ordered, 0-indexed page sequence.
// The current index is only written from its own session callback.
type Paginator struct {
	*sessionBase
	opts      PaginatorOptions
	max       int
	current   atomic.Int64
	infoShown atomic.Bool
	res       *resolution[int]
}

// ErrInvalidStartIndex reports a start index outside the page range.
var ErrInvalidStartIndex = errors.New("interactive: start index out of range")

// ErrUnsupportedInput reports an input type a session variant cannot use.
var ErrUnsupportedInput = errors.New("interactive: unsupported input type")

// NewPaginator validates opts and builds a Paginator.
func NewPaginator(opts PaginatorOptions) (*Paginator, error) {
	if opts.Pages == nil || opts.Pages.MaxPageIndex() < 0 {
		return nil, ErrNoPages
	}
	if opts.Input == InputMessages {
		return nil, fmt.Errorf("%w: paginator with %s", ErrUnsupportedInput, opts.Input)
	}
	if opts.Affordances == nil {
		opts.Affordances = DefaultPaginatorAffordances()
	}
	if len(opts.Affordances) == 0 {
		return nil, ErrNoAffordances
	}
	opts.Affordances = append([]Affordance(nil), opts.Affordances...)
	max := opts.Pages.MaxPageIndex()
	if opts.StartIndex < 0 || opts.StartIndex > max {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidStartIndex, opts.StartIndex, max)
	}
	if opts.Footer == nil {
		opts.Footer = PageNumberFooter
	}
	if opts.InfoText == "" {
		opts.InfoText = defaultInfoText
	}

	p := &Paginator{
		sessionBase: newSessionBase(opts.Users, opts.Input, opts.Criteria, opts.Timeout, opts.RunMode, opts.ButtonsPerRow),
		opts:        opts,
		max:         max,
		res:         newResolution[int](),
	}
	p.current.Store(int64(opts.StartIndex))
	return p, nil
}

// CurrentPageIndex returns the 0-based current index.
func (p *Paginator) CurrentPageIndex() int { return int(p.current.Load()) }

// MaxPageIndex returns the last valid index.
func (p *Paginator) MaxPageIndex() int { return p.max }

// GetOrLoadPage returns the page at index without changing state.
func (p *Paginator) GetOrLoadPage(ctx context.Context, index int) (Page, bool, error) {
	return p.opts.Pages.Page(ctx, index)
}

// SetPage moves to index. It returns false without changing anything when
// index is out of range, equal to the current index, or has no content.
func (p *Paginator) SetPage(ctx context.Context, index int) (bool, error) {
	_, ok, err := p.setPage(ctx, index)
	return ok, err
}

func (p *Paginator) setPage(ctx context.Context, index int) (Page, bool, error) {
	if index < 0 || index > p.max || index == p.CurrentPageIndex() {
		return Page{}, false, nil
	}
	page, ok, err := p.GetOrLoadPage(ctx, index)
	if err != nil || !ok {
		return Page{}, false, err
	}
	p.current.Store(int64(index))
	return page, true, nil
}

// ApplyAction applies a navigation action. Actions other than SkipToStart,
// Backward, Forward and SkipToEnd are no-ops.
func (p *Paginator) ApplyAction(ctx context.Context, a Action) (bool, error) {
	_, ok, err := p.applyAction(ctx, a)
	return ok, err
}

func (p *Paginator) applyAction(ctx context.Context, a Action) (Page, bool, error) {
	cur := p.CurrentPageIndex()
	switch a.Kind {
	case ActionSkipToStart:
		return p.setPage(ctx, 0)
	case ActionBackward:
		return p.setPage(ctx, cur-1)
	case ActionForward:
		return p.setPage(ctx, cur+1)
	case ActionSkipToEnd:
		return p.setPage(ctx, p.max)
	}
	return Page{}, false, nil
}

// Wait blocks until the paginator stops or times out. Value is the page
// index at that moment.
func (p *Paginator) Wait(ctx context.Context) (Result[int], error) {
	return p.res.wait(ctx)
}

// Result returns the outcome if the paginator already concluded.
func (p *Paginator) Result() (Result[int], bool) {
	return p.res.peek()
}

func (p *Paginator) enabled(kind ActionKind) bool {
	cur := p.CurrentPageIndex()
	switch kind {
	case ActionSkipToStart, ActionBackward:
		return cur > 0
	case ActionForward, ActionSkipToEnd:
		return cur < p.max
	case ActionJump:
		return p.max > 0
	}
	return true
}

func (p *Paginator) render(page Page) OutgoingMessage {
	text := page.Text
	if !p.opts.HideFooter {
		footer := p.opts.Footer(p.CurrentPageIndex(), p.max)
		if text == "" {
			text = footer
		} else if footer != "" {
			text += "\n\n" + footer
		}
	}
	msg := OutgoingMessage{Text: text}
	if p.input == InputButtons && p.multiState() {
		buttons := make([]Button, 0, len(p.opts.Affordances))
		for _, a := range p.opts.Affordances {
			if a.CustomID == "" {
				continue
			}
			buttons = append(buttons, Button{
				Label:    a.Label,
				CustomID: a.CustomID,
				Disabled: !p.enabled(a.Action.Kind),
			})
		}
		msg.Buttons = chunkButtons(buttons, p.buttonRow)
	}
	return msg
}

func (p *Paginator) base() *sessionBase { return p.sessionBase }

func (p *Paginator) multiState() bool { return p.max > 0 }

func (p *Paginator) initial(ctx context.Context) (OutgoingMessage, error) {
	page, ok, err := p.GetOrLoadPage(ctx, p.CurrentPageIndex())
	if err != nil {
		return OutgoingMessage{}, err
	}
	if !ok {
		return OutgoingMessage{}, fmt.Errorf("%w: page %d has no content", ErrNoPages, p.CurrentPageIndex())
	}
	return p.render(page), nil
}

func (p *Paginator) emotes() []string {
	out := make([]string, 0, len(p.opts.Affordances))
	for _, a := range p.opts.Affordances {
		if a.Emote != "" {
			out = append(out, a.Emote)
		}
	}
	return out
}

func (p *Paginator) conclude(status Status) (ActionOnStop, *Page) {
	p.res.resolve(Result[int]{Value: p.CurrentPageIndex(), Status: status})
	switch status {
	case StatusCanceled:
		return p.opts.ActionOnCancel, p.opts.CanceledPage
	case StatusTimedOut:
		return p.opts.ActionOnTimeout, p.opts.TimeoutPage
	}
	return ActionNone, nil
}

func (p *Paginator) handle(ctx context.Context, cb *SessionCallback, ev Event) (Transition, error) {
	if !p.allowed(ev.ActorID) {
		return Continue, nil
	}
	aff, ok := resolveAffordance(p.opts.Affordances, ev)
	if !ok {
		return Continue, nil
	}

	switch aff.Action.Kind {
	case ActionStop:
		if !cb.finish() {
			return Terminate, nil
		}
		policy, page := p.conclude(StatusCanceled)
		return Terminate, cb.finalize(ctx, policy, page)
	case ActionJump:
		return Continue, p.jump(ctx, cb)
	case ActionInfo:
		return Continue, p.info(ctx, cb)
	}

	page, changed, err := p.applyAction(ctx, aff.Action)
	if err != nil || !changed {
		return Continue, err
	}
	return Continue, cb.edit(ctx, p.render(page))
}

func (p *Paginator) jump(ctx context.Context, cb *SessionCallback) error {
	if !p.enabled(ActionJump) {
		return nil
	}
	reg := cb.registry
	if p.opts.JumpPrompt != "" {
		prompt, err := reg.platform.Send(ctx, cb.ic.ChannelID, OutgoingMessage{Text: p.opts.JumpPrompt})
		if err != nil {
			return err
		}
		defer func() {
			if err := ignoreNotFound(reg.platform.Delete(ctx, prompt)); err != nil {
				logger.Warn(ctx, logComponent, "jump.prompt.delete.fail",
					append(cb.logAttrs(), slog.String("err", err.Error()))...,
				)
			}
		}()
	}

	timeout := p.opts.JumpTimeout
	if timeout <= 0 {
		timeout = reg.opts.JumpTimeout
	}
	ev, ok, err := reg.NextMessage(ctx, cb.ic, All(ActorIsUser, SameChannel, IntegerPayload), timeout)
	if errors.Is(err, ErrRegistryClosed) {
		return nil
	}
	if err != nil || !ok || cb.Done() {
		return err
	}
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil {
		return nil
	}
	page, changed, err := p.setPage(ctx, n-1)
	if err != nil || !changed {
		return err
	}
	return cb.edit(ctx, p.render(page))
}

func (p *Paginator) info(ctx context.Context, cb *SessionCallback) error {
	if !p.infoShown.CompareAndSwap(false, true) {
		return nil
	}
	reg := cb.registry
	ref, err := reg.platform.Send(ctx, cb.ic.ChannelID, OutgoingMessage{Text: p.opts.InfoText})
	if err != nil {
		p.infoShown.Store(false)
		return err
	}
	delay := p.opts.InfoDelay
	if delay <= 0 {
		delay = reg.opts.InfoDelay
	}
	reg.clock.AfterFunc(delay, func() {
		defer p.infoShown.Store(false)
		dctx := logger.WithLogger(context.Background(), logger.Component(logComponent))
		if err := ignoreNotFound(reg.platform.Delete(dctx, ref)); err != nil {
			logger.Warn(dctx, logComponent, "info.delete.fail",
				append(cb.logAttrs(), slog.String("err", err.Error()))...,
			)
		}
	})
	return nil
}
