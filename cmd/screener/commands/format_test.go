package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAge(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-time.Second, "0s"},
		{42 * time.Second, "42s"},
		{5*time.Minute + 10*time.Second, "5m"},
		{3*time.Hour + 12*time.Minute, "3h12m"},
		{time.Hour + 5*time.Minute, "1h05m"},
		{50 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAge(tt.in), tt.in.String())
	}
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
	assert.Equal(t, "abc", shortHash("abc"))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"post_open", "ranges", "sectors"}, sortedKeys(map[string]int{"sectors": 3, "post_open": 1, "ranges": 2}))
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "validate", "enrich", "score", "watchlist", "watch", "scheduler", "api", "cleanup", "status"} {
		assert.True(t, names[want], want)
	}
}
