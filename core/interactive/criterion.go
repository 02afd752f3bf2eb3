package interactive

import (
	"context"
	"strconv"
	"strings"
)

// Criterion decides whether an event is eligible for a session. Criteria are
// evaluated for every platform event that reaches a session, so they must be
// side-effect free and cheap.
type Criterion interface {
	Match(ctx context.Context, ic InvocationContext, ev Event) (bool, error)
}

// CriterionFunc adapts a function to Criterion.
type CriterionFunc func(ctx context.Context, ic InvocationContext, ev Event) (bool, error)

// Match calls f.
func (f CriterionFunc) Match(ctx context.Context, ic InvocationContext, ev Event) (bool, error) {
	return f(ctx, ic, ev)
}

var (
	// Always accepts every event.
	Always Criterion = CriterionFunc(func(context.Context, InvocationContext, Event) (bool, error) {
		return true, nil
	})

	// ActorIsUser accepts events produced by the invoking user.
	ActorIsUser Criterion = CriterionFunc(func(_ context.Context, ic InvocationContext, ev Event) (bool, error) {
		return ev.ActorID == ic.UserID, nil
	})

	// SameChannel accepts events from the channel the session was created in.
	SameChannel Criterion = CriterionFunc(func(_ context.Context, ic InvocationContext, ev Event) (bool, error) {
		return ev.ChannelID == ic.ChannelID, nil
	})

	// IntegerPayload accepts text events whose content parses as an integer.
	IntegerPayload Criterion = CriterionFunc(func(_ context.Context, _ InvocationContext, ev Event) (bool, error) {
		_, err := strconv.Atoi(strings.TrimSpace(ev.Text))
		return err == nil, nil
	})
)

// All combines criteria with logical AND, evaluated in order and
// short-circuiting on the first rejection or error. All() accepts everything.
func All(criteria ...Criterion) Criterion {
	list := make([]Criterion, 0, len(criteria))
	for _, c := range criteria {
		if c != nil {
			list = append(list, c)
		}
	}
	if len(list) == 0 {
		return Always
	}
	if len(list) == 1 {
		return list[0]
	}
	return CriterionFunc(func(ctx context.Context, ic InvocationContext, ev Event) (bool, error) {
		for _, c := range list {
			ok, err := c.Match(ctx, ic, ev)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	})
}
