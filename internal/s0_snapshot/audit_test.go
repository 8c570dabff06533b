package s0_snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/pkg/logger"
)

func TestAuditor_StrictListsEveryProblem(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "universe_2026-03-10.json", `{"AAPL":{}}`)
	writeSnapshot(t, s, "post_open_signals_2026-03-10.json", `{"tickers":{}}`)
	writeSnapshot(t, s, "945_signals_2026-03-09.json", `{"candles":{"AAPL":{"high":1,"low":1}}}`)

	auditor := NewAuditor(s, DefaultAuditConfig(nil), logger.Nop())
	report, err := auditor.Audit(context.Background(), true)
	require.Error(t, err)
	require.NotNil(t, report)

	assert.True(t, errors.Is(err, ErrValidationFailed))
	var auditErr *AuditError
	require.True(t, errors.As(err, &auditErr))

	assert.Equal(t, []string{"multi_day_levels.json", "short_interest.json"}, auditErr.Missing)
	assert.Equal(t, []string{"post_open_signals_2026-03-10.json"}, auditErr.Empty)
	assert.Equal(t, []string{"945_signals_2026-03-09.json"}, auditErr.Stale)

	for _, name := range []string{"multi_day_levels.json", "short_interest.json", "post_open_signals_2026-03-10.json"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestAuditor_LenientReportsAndContinues(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "universe_2026-03-10.json", `{"AAPL":{}}`)

	auditor := NewAuditor(s, DefaultAuditConfig(nil), logger.Nop())
	report, err := auditor.Audit(context.Background(), false)
	require.NoError(t, err)

	assert.False(t, report.OK())
	assert.Len(t, report.Missing, 4)
	assert.Len(t, report.Files, 5)
	assert.True(t, report.Files[0].Required)
	assert.Equal(t, 1, report.Files[0].Entries)
}

func TestAuditor_Warnings(t *testing.T) {
	s := newTestStore(t)
	writeSnapshot(t, s, "universe_2026-03-10.json", `{"AAPL":{}}`)
	writeSnapshot(t, s, "post_open_signals_2026-03-10.json", `{"tickers":{"AAPL":{}},"sectors":{"XLK":{"pct_change":1}}}`)
	writeSnapshot(t, s, "945_signals_2026-03-10.json", `{"candles":{"AAPL":{"high":1,"low":1}}}`)
	writeSnapshot(t, s, "multi_day_levels.json", `{"AAPL":{"high":1,"low":1}}`)
	writeSnapshot(t, s, "short_interest.json", `{"AAPL":{"shortPercentOfFloat":0.2}}`)

	auditor := NewAuditor(s, DefaultAuditConfig([]string{"XLF", "XLK"}), logger.Nop())
	report, err := auditor.Audit(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, report.OK())

	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "XLF")
	assert.Contains(t, report.Warnings[1], "short interest has 1 entries")
}

func TestAuditError_Message(t *testing.T) {
	err := &AuditError{Missing: []string{"a.json", "b.json"}, Empty: []string{"c.json"}}
	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, ErrValidationFailed.Error()))
	assert.Contains(t, msg, fmt.Sprintf("missing=[%s]", "a.json, b.json"))
	assert.Contains(t, msg, "empty=[c.json]")
	assert.NotContains(t, msg, "stale")
}
