package logger

import (
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ratio lets num out of every den events through. A zero ratio lets
// everything through.
type ratio struct {
	num, den uint64
	n        atomic.Uint64
}

func (r *ratio) allow() bool {
	if r.num == 0 || r.den == 0 {
		return true
	}
	return (r.n.Add(1)-1)%r.den < r.num
}

// debugSampler thins high-volume debug events per component. Components
// without their own ratio share the default one.
type debugSampler struct {
	mu          sync.RWMutex
	def         *ratio
	byComponent map[string]*ratio
}

func newDebugSampler(raw string) *debugSampler {
	s := &debugSampler{}
	s.Set(raw)
	return s
}

// Set replaces the ratios. raw is a comma-separated list of "N/M", "M"
// (meaning 1/M) or "component=N/M" entries; "off" or "0" disables sampling
// for that entry. An empty value keeps 1/50 for everything.
func (s *debugSampler) Set(raw string) {
	def := &ratio{num: 1, den: 50}
	by := map[string]*ratio{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		component, value, scoped := strings.Cut(entry, "=")
		if !scoped {
			value, component = component, ""
		}
		num, den, ok := parseRatio(value)
		if !ok {
			continue
		}
		r := &ratio{num: num, den: den}
		if component = strings.TrimSpace(component); component == "" {
			def = r
		} else {
			by[component] = r
		}
	}
	s.mu.Lock()
	s.def, s.byComponent = def, by
	s.mu.Unlock()
}

// Allow reports whether the next debug event of component passes.
func (s *debugSampler) Allow(component string) bool {
	s.mu.RLock()
	r, ok := s.byComponent[component]
	if !ok {
		r = s.def
	}
	s.mu.RUnlock()
	return r.allow()
}

// parseRatio accepts "N/M", "M" and "off". A ratio of 0 means unsampled.
func parseRatio(raw string) (num, den uint64, ok bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "off" {
		return 0, 0, true
	}
	numStr, denStr, hasSlash := strings.Cut(raw, "/")
	if !hasSlash {
		numStr, denStr = "1", raw
	}
	n, err1 := strconv.ParseUint(strings.TrimSpace(numStr), 10, 64)
	d, err2 := strconv.ParseUint(strings.TrimSpace(denStr), 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	if n == 0 || d == 0 {
		return 0, 0, true
	}
	return min(n, d), d, true
}
