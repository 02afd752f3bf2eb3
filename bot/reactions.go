package bot

import "github.com/d4n3436/fergun/core/interactive"

// Telegram only accepts reactions from a fixed emoji set, so the reaction
// controls use emoji from that set instead of the media-control symbols.
var (
	paginatorEmotes = map[interactive.ActionKind]string{
		interactive.ActionSkipToStart: "🙈",
		interactive.ActionBackward:    "👎",
		interactive.ActionForward:     "👍",
		interactive.ActionSkipToEnd:   "⚡",
		interactive.ActionJump:        "🤔",
		interactive.ActionStop:        "💔",
		interactive.ActionInfo:        "🤓",
	}

	candidateEmotes = []string{"❤", "🔥", "🎉", "🤩", "😁", "👏", "💯", "🏆", "🍓", "🐳"}
)

const cancelEmote = "💔"

// paginatorAffordances returns the default controls with reaction emotes
// Telegram accepts.
func paginatorAffordances() []interactive.Affordance {
	affs := interactive.DefaultPaginatorAffordances()
	for i := range affs {
		if e, ok := paginatorEmotes[affs[i].Action.Kind]; ok {
			affs[i].Emote = e
		}
	}
	return affs
}

// candidateEmote maps the i-th candidate onto a reaction, or "" when there
// are more candidates than emotes.
func candidateEmote(i int) string {
	if i < 0 || i >= len(candidateEmotes) {
		return ""
	}
	return candidateEmotes[i]
}

const paginatorReactionHelp = "This is a paginator. React to move between pages:\n" +
	"🙈 first page, 👎 previous page, 👍 next page, ⚡ last page,\n" +
	"🤔 jump to a page (reply with its number), 💔 stop."
