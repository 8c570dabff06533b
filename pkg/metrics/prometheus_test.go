package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordStage(t *testing.T) {
	r := New()

	r.RecordStage("S1_ENRICH", 0.2, nil)
	r.RecordStage("S1_ENRICH", 0.3, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageRuns.WithLabelValues("S1_ENRICH", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stageRuns.WithLabelValues("S1_ENRICH", "failure")))
}

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.RecordStepFailure("sector_merge")
	r.RecordStepSkipped("short_interest")
	r.RecordStepSkipped("short_interest")
	r.RecordTickers("S2_SCORING", 12)
	r.RecordWatchTrigger("post_open_signals_", "fired")
	r.RecordCache("hit")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.stepFailures.WithLabelValues("sector_merge")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.stepSkipped.WithLabelValues("short_interest")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.tickers.WithLabelValues("S2_SCORING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.watchTriggers.WithLabelValues("post_open_signals_", "fired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheRequests.WithLabelValues("hit")))
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordStage("S3_WATCHLIST", 1, nil)
		r.RecordStepFailure("x")
		r.RecordTickers("x", 1)
	})
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.RecordTickers("S3_WATCHLIST", 4)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `screener_tickers{stage="S3_WATCHLIST"} 4`))
}
