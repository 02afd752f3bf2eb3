package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func countAllowed(s *debugSampler, component string, n int) int {
	allowed := 0
	for i := 0; i < n; i++ {
		if s.Allow(component) {
			allowed++
		}
	}
	return allowed
}

func TestDebugSamplerDefault(t *testing.T) {
	s := newDebugSampler("")
	assert.Equal(t, 2, countAllowed(s, "tg", 100))
}

func TestDebugSamplerPerComponent(t *testing.T) {
	s := newDebugSampler("1/10, interactive=2/4, db=off")

	assert.Equal(t, 10, countAllowed(s, "tg", 100))
	assert.Equal(t, 50, countAllowed(s, "interactive", 100))
	assert.Equal(t, 100, countAllowed(s, "db", 100))
}

func TestDebugSamplerFirstEventPasses(t *testing.T) {
	s := newDebugSampler("5")
	assert.True(t, s.Allow("tg"))
	for i := 0; i < 4; i++ {
		assert.False(t, s.Allow("tg"))
	}
	assert.True(t, s.Allow("tg"))
}

func TestParseRatio(t *testing.T) {
	cases := []struct {
		in       string
		num, den uint64
		ok       bool
	}{
		{"1/50", 1, 50, true},
		{"20", 1, 20, true},
		{"7/3", 3, 3, true},
		{"off", 0, 0, true},
		{"0", 0, 0, true},
		{"x/2", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		num, den, ok := parseRatio(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.num, num, tc.in)
		assert.Equal(t, tc.den, den, tc.in)
	}
}

func TestDebugSamplerIgnoresBadEntries(t *testing.T) {
	s := newDebugSampler("tg=bogus")
	assert.Equal(t, 2, countAllowed(s, "tg", 100))
}
