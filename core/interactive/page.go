package interactive

import (
	"context"
	"fmt"
)

// Page is one renderable unit of paginated content.
type Page struct {
	Text string
}

// PageSource supplies pages by index. MaxPageIndex must be answerable without
// I/O; Page may load lazily and reports ok=false when there is no content.
type PageSource interface {
	MaxPageIndex() int
	Page(ctx context.Context, index int) (page Page, ok bool, err error)
}

type staticPages []Page

// StaticPages returns a source over an already materialized page list.
func StaticPages(pages ...Page) PageSource {
	return staticPages(append([]Page(nil), pages...))
}

func (s staticPages) MaxPageIndex() int { return len(s) - 1 }

func (s staticPages) Page(_ context.Context, index int) (Page, bool, error) {
	if index < 0 || index >= len(s) {
		return Page{}, false, nil
	}
	return s[index], true, nil
}

// PageLoader produces the page at index. It must be pure for a given index.
type PageLoader func(ctx context.Context, index int) (Page, bool, error)

type lazyPages struct {
	max  int
	load PageLoader
}

// LazyPages returns a source loading pages on demand; maxIndex is the last
// valid 0-based index.
func LazyPages(maxIndex int, load PageLoader) PageSource {
	return lazyPages{max: maxIndex, load: load}
}

func (l lazyPages) MaxPageIndex() int { return l.max }

func (l lazyPages) Page(ctx context.Context, index int) (Page, bool, error) {
	if l.load == nil || index < 0 || index > l.max {
		return Page{}, false, nil
	}
	return l.load(ctx, index)
}

// Footer renders the trailing page indicator.
type Footer func(current, max int) string

// PageNumberFooter renders "Page x/y" with 1-based numbers.
func PageNumberFooter(current, max int) string {
	return fmt.Sprintf("Page %d/%d", current+1, max+1)
}
