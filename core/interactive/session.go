package interactive

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Session is a displayable interactive element. The set of implementations
// is closed: *Paginator and *Selection[T].
type Session interface {
	base() *sessionBase
	initial(ctx context.Context) (OutgoingMessage, error)
	// multiState reports whether the session can change after it is sent.
	multiState() bool
	// emotes lists the reactions to add after the first send.
	emotes() []string
	handle(ctx context.Context, cb *SessionCallback, ev Event) (Transition, error)
	// conclude records a terminal status and returns the cleanup for it.
	conclude(status Status) (ActionOnStop, *Page)
}

// sessionBase holds the configuration shared by every session variant.
type sessionBase struct {
	users     map[int64]struct{}
	input     InputType
	criterion Criterion
	timeout   time.Duration
	runMode   RunMode
	buttonRow int
	claimed   atomic.Bool
}

func newSessionBase(users []int64, input InputType, criteria []Criterion, timeout time.Duration, mode RunMode, perRow int) *sessionBase {
	set := make(map[int64]struct{}, len(users))
	for _, u := range users {
		set[u] = struct{}{}
	}
	if perRow <= 0 {
		perRow = 5
	}
	return &sessionBase{
		users:     set,
		input:     input,
		criterion: All(criteria...),
		timeout:   timeout,
		runMode:   mode,
		buttonRow: perRow,
	}
}

// allowed reports whether userID may interact. An empty set allows everyone.
func (b *sessionBase) allowed(userID int64) bool {
	if len(b.users) == 0 {
		return true
	}
	_, ok := b.users[userID]
	return ok
}

func chunkButtons(buttons []Button, n int) [][]Button {
	var rows [][]Button
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}

// Result is the terminal outcome of a session.
type Result[T any] struct {
	Value  T
	Status Status
}

// IsSuccess reports whether the session resolved with a value.
func (r Result[T]) IsSuccess() bool { return r.Status == StatusSuccess }

// resolution is a write-once result with a completion channel.
type resolution[T any] struct {
	once   sync.Once
	done   chan struct{}
	result Result[T]
}

func newResolution[T any]() *resolution[T] {
	return &resolution[T]{done: make(chan struct{})}
}

func (r *resolution[T]) resolve(res Result[T]) bool {
	won := false
	r.once.Do(func() {
		r.result = res
		close(r.done)
		won = true
	})
	return won
}

func (r *resolution[T]) peek() (Result[T], bool) {
	select {
	case <-r.done:
		return r.result, true
	default:
		return Result[T]{}, false
	}
}

func (r *resolution[T]) wait(ctx context.Context) (Result[T], error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return Result[T]{}, ctx.Err()
	}
}
