package interactive

import "strings"

// ActionKind is the input-modality independent vocabulary of session actions.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionSkipToStart
	ActionBackward
	ActionForward
	ActionSkipToEnd
	ActionJump
	ActionStop
	ActionInfo
	ActionSelect
)

var actionTokens = map[ActionKind]string{
	ActionSkipToStart: "first",
	ActionBackward:    "prev",
	ActionForward:     "next",
	ActionSkipToEnd:   "last",
	ActionJump:        "jump",
	ActionStop:        "stop",
	ActionInfo:        "info",
	ActionSelect:      "select",
}

func (k ActionKind) String() string {
	if s, ok := actionTokens[k]; ok {
		return s
	}
	return "unknown"
}

// Action is a resolved user intent. Index is only meaningful for ActionSelect.
type Action struct {
	Kind  ActionKind
	Index int
}

// Affordance binds an action to the concrete things a user can activate:
// a reaction emote and/or a component custom id.
type Affordance struct {
	Emote    string
	CustomID string
	Label    string
	Action   Action
}

// ComponentNamespace prefixes every component custom id minted by this package.
const ComponentNamespace = "ia"

// ComponentID builds a namespaced component id from a token.
func ComponentID(token string) string {
	return ComponentNamespace + ":" + token
}

// IsComponentID reports whether id was minted by ComponentID.
func IsComponentID(id string) bool {
	return strings.HasPrefix(id, ComponentNamespace+":")
}

// DefaultPaginatorAffordances returns the standard paginator controls.
func DefaultPaginatorAffordances() []Affordance {
	return []Affordance{
		{Emote: "⏮", CustomID: ComponentID("first"), Label: "⏮", Action: Action{Kind: ActionSkipToStart}},
		{Emote: "◀", CustomID: ComponentID("prev"), Label: "◀", Action: Action{Kind: ActionBackward}},
		{Emote: "▶", CustomID: ComponentID("next"), Label: "▶", Action: Action{Kind: ActionForward}},
		{Emote: "⏭", CustomID: ComponentID("last"), Label: "⏭", Action: Action{Kind: ActionSkipToEnd}},
		{Emote: "🔢", CustomID: ComponentID("jump"), Label: "🔢", Action: Action{Kind: ActionJump}},
		{Emote: "⏹", CustomID: ComponentID("stop"), Label: "⏹", Action: Action{Kind: ActionStop}},
		{Emote: "ℹ", CustomID: ComponentID("info"), Label: "ℹ", Action: Action{Kind: ActionInfo}},
	}
}

// resolveAffordance maps a reaction or component event onto one of the
// affordances. Text events never resolve here.
func resolveAffordance(affordances []Affordance, ev Event) (Affordance, bool) {
	for _, a := range affordances {
		switch ev.Kind {
		case EventReaction:
			if a.Emote != "" && a.Emote == ev.Emote {
				return a, true
			}
		case EventComponent:
			if a.CustomID != "" && a.CustomID == ev.CustomID {
				return a, true
			}
		}
	}
	return Affordance{}, false
}
