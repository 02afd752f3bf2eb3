package interactive

import "errors"

// Configuration errors, returned at build time.
var (
	ErrNoPages            = errors.New("interactive: paginator has no pages")
	ErrNoAffordances      = errors.New("interactive: paginator has no affordances")
	ErrNoCandidates       = errors.New("interactive: selection has no candidates")
	ErrDuplicateCandidate = errors.New("interactive: selection candidates are not unique")
	ErrMissingStringifier = errors.New("interactive: selection requires a stringifier")
	ErrMissingEmote       = errors.New("interactive: reaction input requires an emote for every candidate")
)

// Runtime errors.
var (
	ErrRegistryClosed = errors.New("interactive: registry closed")
	ErrNilSession     = errors.New("interactive: nil session")
)
