package s0_snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/pkg/logger"
)

func TestJanitor_Sweep(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "universe_2026-03-01.json", `{}`)
	writeSnapshot(t, s, "enriched_2026-03-02.json", `{}`)
	writeSnapshot(t, s, "universe_2026-03-09.json", `{}`)
	writeSnapshot(t, s, "scored_2026-03-10.json", `{}`)
	writeSnapshot(t, s, "short_interest.json", `{}`)
	writeSnapshot(t, s, "notes.txt", `keep`)

	stale := filepath.Join(s.Dir(), TempPrefix+"scored_2026-03-10.json-123")
	require.NoError(t, os.WriteFile(stale, []byte("{"), 0o644))
	old := testNow.Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	janitor := NewJanitor(s, logger.Nop())

	dry, err := janitor.Sweep(context.Background(), 5*24*time.Hour, true)
	require.NoError(t, err)
	assert.Len(t, dry.Deleted, 3)
	_, statErr := os.Stat(filepath.Join(s.Dir(), "universe_2026-03-01.json"))
	assert.NoError(t, statErr, "dry run must not delete")

	result, err := janitor.Sweep(context.Background(), 5*24*time.Hour, false)
	require.NoError(t, err)
	assert.Len(t, result.Deleted, 3)
	assert.Equal(t, 2, result.Kept)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{
		"universe_2026-03-09.json",
		"scored_2026-03-10.json",
		"short_interest.json",
		"notes.txt",
	}, names)

	_, err = janitor.Sweep(context.Background(), 0, false)
	assert.Error(t, err)
}
