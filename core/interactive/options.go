package interactive

import "strings"

// InputType selects how users interact with a session.
type InputType int

const (
	// InputButtons renders affordances as message components.
	InputButtons InputType = iota
	// InputReactions adds one reaction per affordance after the first send.
	InputReactions
	// InputMessages matches follow-up text against the candidates (selections only).
	InputMessages
)

// ParseInputType maps a config value onto an InputType; unknown values fall
// back to buttons.
func ParseInputType(s string) InputType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reactions", "reaction":
		return InputReactions
	case "messages", "message", "text":
		return InputMessages
	}
	return InputButtons
}

func (t InputType) String() string {
	switch t {
	case InputReactions:
		return "reactions"
	case InputMessages:
		return "messages"
	}
	return "buttons"
}

// ActionOnStop is the cleanup applied to the message on a terminal transition.
type ActionOnStop uint8

const (
	ActionNone ActionOnStop = 0
	// ActionModifyMessage replaces the content with the outcome's terminal page.
	ActionModifyMessage ActionOnStop = 1 << iota
	// ActionDeleteInput removes reactions or components.
	ActionDeleteInput
	// ActionDisableInput keeps components but disables them.
	ActionDisableInput
	// ActionDeleteMessage deletes the whole message; it wins over everything else.
	ActionDeleteMessage
)

// Has reports whether flag is set.
func (a ActionOnStop) Has(flag ActionOnStop) bool {
	return a&flag != 0
}

// RunMode controls whether handlers block dispatch.
type RunMode int

const (
	// RunDefault inherits the registry's mode.
	RunDefault RunMode = iota
	// RunSync blocks dispatch until the handler returns and serializes
	// handling per session.
	RunSync
	// RunAsync hands the handler off and returns immediately. Handlers lose
	// per-session ordering and must be idempotent.
	RunAsync
)

// ParseRunMode maps a config value onto a RunMode.
func ParseRunMode(s string) RunMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "async":
		return RunAsync
	case "sync", "":
		return RunSync
	}
	return RunSync
}

func (m RunMode) String() string {
	switch m {
	case RunSync:
		return "sync"
	case RunAsync:
		return "async"
	}
	return "default"
}

// Status is the terminal outcome of a session.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusCanceled
	StatusTimedOut
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCanceled:
		return "canceled"
	case StatusTimedOut:
		return "timed_out"
	}
	return "pending"
}

// Transition is what handling one event did to a session.
type Transition int

const (
	// Continue keeps the session registered.
	Continue Transition = iota
	// Terminate removes the session from the registry.
	Terminate
)
