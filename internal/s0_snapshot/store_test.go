package s0_snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/pkg/logger"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, mustLocation("America/New_York"))

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), testNow.Location(), logger.Nop()).
		WithClock(func() time.Time { return testNow })
}

// writeSnapshot writes name into the store dir with mtime at testNow
func writeSnapshot(t *testing.T, s *Store, name, content string) string {
	t.Helper()
	path := filepath.Join(s.Dir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, testNow, testNow))
	return path
}

func TestKind_FileName(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUniverse, "universe_2026-03-10.json"},
		{KindPostOpen, "post_open_signals_2026-03-10.json"},
		{KindIntradayRange, "945_signals_2026-03-10.json"},
		{KindMultiDayLevels, "multi_day_levels.json"},
		{KindShortInterest, "short_interest.json"},
		{KindWatchlist, "autowatchlist_2026-03-10.json"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.FileName("2026-03-10"))
		})
	}
}

func TestStore_Today(t *testing.T) {
	// 01:30 UTC is still the previous day in New York
	s := NewStore(t.TempDir(), testNow.Location(), logger.Nop()).
		WithClock(func() time.Time { return time.Date(2026, 3, 11, 1, 30, 0, 0, time.UTC) })

	assert.Equal(t, "2026-03-10", s.Today())
}

func TestStore_Latest(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "universe_2026-03-06.json", `{"AAPL":{}}`)
	writeSnapshot(t, s, "universe_2026-03-09.json", `{"AAPL":{}}`)
	writeSnapshot(t, s, "universe_notadate.json", `{}`)
	writeSnapshot(t, s, "enriched_2026-03-10.json", `{}`)

	fi, err := s.Latest(KindUniverse)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", fi.Date)
	assert.Equal(t, KindUniverse, fi.Kind)

	files, err := s.List(KindUniverse)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestStore_Current(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "post_open_signals_2026-03-09.json", `{}`)

	_, err := s.Current(KindPostOpen)
	assert.ErrorIs(t, err, ErrSnapshotMissing)

	writeSnapshot(t, s, "post_open_signals_2026-03-10.json", `{}`)
	fi, err := s.Current(KindPostOpen)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", fi.Date)
}

func TestStore_CurrentUndatedUsesModTime(t *testing.T) {
	s := newTestStore(t)
	path := writeSnapshot(t, s, "short_interest.json", `{"AAPL":0.01}`)

	fi, err := s.Current(KindShortInterest)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", fi.Date)

	yesterday := testNow.Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(path, yesterday, yesterday))

	_, err = s.Current(KindShortInterest)
	assert.ErrorIs(t, err, ErrSnapshotMissing)
}

func TestStore_ReadJSON(t *testing.T) {
	s := newTestStore(t)
	empty := writeSnapshot(t, s, "empty.json", "  \n")
	broken := writeSnapshot(t, s, "broken.json", `{"AAPL":`)

	var v map[string]interface{}
	assert.ErrorIs(t, s.ReadJSON(empty, &v), ErrSnapshotMalformed)
	assert.ErrorIs(t, s.ReadJSON(broken, &v), ErrSnapshotMalformed)
	assert.ErrorIs(t, s.ReadJSON(filepath.Join(s.Dir(), "absent.json"), &v), ErrSnapshotMissing)
}

func TestStore_WriteJSONIsAtomicReplace(t *testing.T) {
	s := newTestStore(t)

	path, err := s.WriteJSON(KindScored, map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "scored_2026-03-10.json"), path)

	_, err = s.WriteJSON(KindScored, map[string]int{"a": 2})
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, s.ReadJSON(path, &got))
	assert.Equal(t, 2, got["a"])

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), TempPrefix), "temp file left behind: %s", e.Name())
	}
	assert.Len(t, entries, 1)
}

func TestStore_Timestamps(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "universe_2026-03-10.json", `{"AAPL":{}}`)
	writeSnapshot(t, s, "multi_day_levels.json", `{}`)

	ts, err := s.Timestamps()
	require.NoError(t, err)
	assert.Len(t, ts, 2)
	assert.Contains(t, ts, KindUniverse)
	assert.Contains(t, ts, KindMultiDayLevels)
}
