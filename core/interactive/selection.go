package interactive

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultCancelLabel = "Cancel"
	defaultCancelEmote = "❌"
)

// SelectionOptions configures a Selection over candidates of type T.
type SelectionOptions[T any] struct {
	Candidates []T
	// Stringify renders a candidate as a button label and as the text a user
	// types in InputMessages mode. Required.
	Stringify func(T) string
	// Equal defaults to comparing Stringify output.
	Equal func(a, b T) bool
	// Emote is required for InputReactions.
	Emote func(T) string

	Prompt Page
	Users  []int64

	AllowCancel bool
	CancelLabel string
	CancelEmote string

	Input         InputType
	Criteria      []Criterion
	RunMode       RunMode
	Timeout       time.Duration
	ButtonsPerRow int

	// SuccessPage renders the chosen candidate for ActionModifyMessage.
	SuccessPage     func(T) Page
	CanceledPage    *Page
	TimeoutPage     *Page
	ActionOnSuccess ActionOnStop
	ActionOnCancel  ActionOnStop
	ActionOnTimeout ActionOnStop
}

// Selection asks the user to pick exactly one candidate.
type Selection[T any] struct {
	*sessionBase
	opts   SelectionOptions[T]
	labels []string
	res    *resolution[T]
}

// NewSelection validates opts and builds a Selection.
func NewSelection[T any](opts SelectionOptions[T]) (*Selection[T], error) {
	if len(opts.Candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if opts.Stringify == nil {
		return nil, ErrMissingStringifier
	}
	if opts.Equal == nil {
		str := opts.Stringify
		opts.Equal = func(a, b T) bool { return str(a) == str(b) }
	}
	opts.Candidates = append([]T(nil), opts.Candidates...)
	for i := range opts.Candidates {
		for j := i + 1; j < len(opts.Candidates); j++ {
			if opts.Equal(opts.Candidates[i], opts.Candidates[j]) {
				return nil, fmt.Errorf("%w: %q at %d and %d", ErrDuplicateCandidate,
					opts.Stringify(opts.Candidates[i]), i, j)
			}
		}
	}
	if opts.CancelLabel == "" {
		opts.CancelLabel = defaultCancelLabel
	}
	if opts.CancelEmote == "" {
		opts.CancelEmote = defaultCancelEmote
	}
	if opts.Input == InputReactions {
		if opts.Emote == nil {
			return nil, ErrMissingEmote
		}
		for i, c := range opts.Candidates {
			if opts.Emote(c) == "" {
				return nil, fmt.Errorf("%w: candidate %d", ErrMissingEmote, i)
			}
		}
	}

	criteria := opts.Criteria
	if opts.Input == InputMessages {
		criteria = append([]Criterion{SameChannel}, criteria...)
	}
	labels := make([]string, len(opts.Candidates))
	for i, c := range opts.Candidates {
		labels[i] = opts.Stringify(c)
	}
	return &Selection[T]{
		sessionBase: newSessionBase(opts.Users, opts.Input, criteria, opts.Timeout, opts.RunMode, opts.ButtonsPerRow),
		opts:        opts,
		labels:      labels,
		res:         newResolution[T](),
	}, nil
}

// Candidates returns a copy of the candidate list.
func (s *Selection[T]) Candidates() []T {
	return append([]T(nil), s.opts.Candidates...)
}

// Wait blocks until the selection resolves.
func (s *Selection[T]) Wait(ctx context.Context) (Result[T], error) {
	return s.res.wait(ctx)
}

// Result returns the outcome if the selection already resolved.
func (s *Selection[T]) Result() (Result[T], bool) {
	return s.res.peek()
}

func selectID(i int) string { return ComponentID("select:" + strconv.Itoa(i)) }

func cancelID() string { return ComponentID("cancel") }

// resolve maps an event onto a candidate index, -1 for cancel. ok is false
// when the event matches nothing.
func (s *Selection[T]) resolve(ev Event) (int, bool) {
	switch ev.Kind {
	case EventComponent:
		if s.opts.AllowCancel && ev.CustomID == cancelID() {
			return -1, true
		}
		for i := range s.opts.Candidates {
			if ev.CustomID == selectID(i) {
				return i, true
			}
		}
	case EventReaction:
		if s.opts.AllowCancel && ev.Emote == s.opts.CancelEmote {
			return -1, true
		}
		for i, c := range s.opts.Candidates {
			if ev.Emote == s.opts.Emote(c) {
				return i, true
			}
		}
	case EventMessage:
		text := strings.TrimSpace(ev.Text)
		if s.opts.AllowCancel && strings.EqualFold(text, s.opts.CancelLabel) {
			return -1, true
		}
		for i, label := range s.labels {
			if strings.EqualFold(text, label) {
				return i, true
			}
		}
	}
	return 0, false
}

func (s *Selection[T]) base() *sessionBase { return s.sessionBase }

func (s *Selection[T]) multiState() bool { return true }

func (s *Selection[T]) initial(context.Context) (OutgoingMessage, error) {
	msg := OutgoingMessage{Text: s.opts.Prompt.Text}
	switch s.input {
	case InputButtons:
		buttons := make([]Button, 0, len(s.labels)+1)
		for i, label := range s.labels {
			buttons = append(buttons, Button{Label: label, CustomID: selectID(i)})
		}
		if s.opts.AllowCancel {
			buttons = append(buttons, Button{Label: s.opts.CancelLabel, CustomID: cancelID()})
		}
		msg.Buttons = chunkButtons(buttons, s.buttonRow)
	case InputMessages:
		var b strings.Builder
		b.WriteString(msg.Text)
		for _, label := range s.labels {
			b.WriteString("\n• ")
			b.WriteString(label)
		}
		if s.opts.AllowCancel {
			b.WriteString("\n• ")
			b.WriteString(s.opts.CancelLabel)
		}
		msg.Text = strings.TrimPrefix(b.String(), "\n")
	}
	return msg, nil
}

func (s *Selection[T]) emotes() []string {
	if s.opts.Emote == nil {
		return nil
	}
	out := make([]string, 0, len(s.opts.Candidates)+1)
	for _, c := range s.opts.Candidates {
		out = append(out, s.opts.Emote(c))
	}
	if s.opts.AllowCancel {
		out = append(out, s.opts.CancelEmote)
	}
	return out
}

func (s *Selection[T]) conclude(status Status) (ActionOnStop, *Page) {
	s.res.resolve(Result[T]{Status: status})
	switch status {
	case StatusCanceled:
		return s.opts.ActionOnCancel, s.opts.CanceledPage
	case StatusTimedOut:
		return s.opts.ActionOnTimeout, s.opts.TimeoutPage
	}
	return ActionNone, nil
}

func (s *Selection[T]) handle(ctx context.Context, cb *SessionCallback, ev Event) (Transition, error) {
	if !s.allowed(ev.ActorID) {
		return Continue, nil
	}
	idx, ok := s.resolve(ev)
	if !ok {
		return Continue, nil
	}
	if !cb.finish() {
		return Terminate, nil
	}
	if idx < 0 {
		policy, page := s.conclude(StatusCanceled)
		return Terminate, cb.finalize(ctx, policy, page)
	}

	chosen := s.opts.Candidates[idx]
	s.res.resolve(Result[T]{Value: chosen, Status: StatusSuccess})
	var page *Page
	if s.opts.SuccessPage != nil {
		p := s.opts.SuccessPage(chosen)
		page = &p
	}
	return Terminate, cb.finalize(ctx, s.opts.ActionOnSuccess, page)
}
