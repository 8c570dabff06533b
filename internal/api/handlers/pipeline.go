package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wonny/screener/backend/internal/brain"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/pkg/logger"
)

// PipelineRunner runs the full pipeline
type PipelineRunner interface {
	Run(ctx context.Context, config brain.RunConfig) (*brain.RunResult, error)
}

// PipelineHandler triggers pipeline runs over HTTP
// ⭐ SSOT: 파이프라인 API 핸들러는 여기서만
type PipelineHandler struct {
	runner PipelineRunner
	strict bool
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(runner PipelineRunner, strict bool, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		runner: runner,
		strict: strict,
		logger: log,
	}
}

// RunRequest represents a pipeline run request
type RunRequest struct {
	Strict *bool `json:"strict"` // Optional: overrides STRICT_VALIDATION
}

// RunResponse represents a pipeline run response
type RunResponse struct {
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Result *brain.RunResult `json:"result,omitempty"`
}

// Run executes one pipeline run synchronously
// POST /api/pipeline/run
func (h *PipelineHandler) Run(w http.ResponseWriter, r *http.Request) {
	// Parse request (body optional)
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	strict := h.strict
	if req.Strict != nil {
		strict = *req.Strict
	}

	runID := fmt.Sprintf("api-%s", time.Now().Format("20060102-150405"))
	h.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"strict": strict,
	}).Info("Pipeline run triggered")

	// 클라이언트 연결이 끊겨도 실행은 끝까지 진행
	ctx := context.WithoutCancel(r.Context())
	result, err := h.runner.Run(ctx, brain.RunConfig{
		RunID:   runID,
		Trigger: "api",
		Strict:  strict,
	})

	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, RunResponse{Status: "success", Result: result})
	case errors.Is(err, brain.ErrRunInFlight):
		respondJSON(w, http.StatusConflict, RunResponse{Status: "busy", Error: err.Error()})
	case errors.Is(err, s0_snapshot.ErrMissingUniverse), errors.Is(err, s0_snapshot.ErrValidationFailed):
		respondJSON(w, http.StatusServiceUnavailable, RunResponse{Status: "failed", Error: err.Error(), Result: result})
	default:
		h.logger.WithError(err).WithField("run_id", runID).Error("Pipeline run failed")
		respondJSON(w, http.StatusInternalServerError, RunResponse{Status: "failed", Error: err.Error(), Result: result})
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
