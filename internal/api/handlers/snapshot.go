package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
	"github.com/wonny/screener/backend/pkg/redis"
)

// SnapshotHandler serves snapshot documents from the cache directory
// ⭐ SSOT: 스냅샷 조회 API 핸들러는 여기서만
type SnapshotHandler struct {
	store   *s0_snapshot.Store
	cache   *redis.Cache
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(store *s0_snapshot.Store, cache *redis.Cache, rec *metrics.Recorder, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		store:   store,
		cache:   cache,
		metrics: rec,
		logger:  log,
	}
}

// GetDocument returns the handler for one snapshot kind
// GET /api/{kind}?date=YYYY-MM-DD (기본: 가장 최신 파일)
func (h *SnapshotHandler) GetDocument(kind s0_snapshot.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date != "" {
			if _, err := time.Parse(s0_snapshot.DateLayout, date); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
				return
			}
		}

		fi, err := h.locate(kind, date)
		if errors.Is(err, s0_snapshot.ErrSnapshotMissing) {
			respondError(w, http.StatusNotFound, string(kind)+" snapshot not found")
			return
		}
		if err != nil {
			h.logger.WithError(err).WithField("kind", string(kind)).Error("Failed to locate snapshot")
			respondError(w, http.StatusInternalServerError, "Failed to locate snapshot")
			return
		}

		// 파일 mtime이 키에 포함되어 재기록 시 자동 무효화
		key := redis.DocumentKey(string(kind), fi.Date, fi.ModTime.UnixNano())
		ttl := redis.TTLShort
		if fi.Date != h.store.Today() {
			ttl = redis.TTLDaily
		}

		var doc json.RawMessage
		hit, err := h.cache.GetOrSet(r.Context(), key, &doc, ttl, func() (interface{}, error) {
			data, err := os.ReadFile(fi.Path)
			if err != nil {
				return nil, err
			}
			if !json.Valid(data) {
				return nil, s0_snapshot.ErrSnapshotMalformed
			}
			return json.RawMessage(data), nil
		})
		if err != nil {
			h.logger.WithError(err).WithField("path", fi.Path).Error("Failed to read snapshot")
			respondError(w, http.StatusInternalServerError, "Failed to read snapshot")
			return
		}

		if hit {
			h.metrics.RecordCache("hit")
		} else {
			h.metrics.RecordCache("miss")
		}

		w.Header().Set("X-Snapshot-Date", fi.Date)
		w.Header().Set("Last-Modified", fi.ModTime.UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
	}
}

func (h *SnapshotHandler) locate(kind s0_snapshot.Kind, date string) (s0_snapshot.FileInfo, error) {
	if date == "" {
		return h.store.Latest(kind)
	}

	files, err := h.store.List(kind)
	if err != nil {
		return s0_snapshot.FileInfo{}, err
	}
	for _, fi := range files {
		if fi.Date == date {
			return fi, nil
		}
	}
	return s0_snapshot.FileInfo{}, s0_snapshot.ErrSnapshotMissing
}

// TimestampItem describes the latest file of one kind
type TimestampItem struct {
	File       string    `json:"file"`
	Date       string    `json:"date"`
	Modified   time.Time `json:"modified"`
	AgeSeconds int64     `json:"age_seconds"`
	Size       int64     `json:"size"`
	Current    bool      `json:"current"`
}

// GetTimestamps lists the latest file and mtime of every snapshot kind
// GET /api/cache-timestamps
func (h *SnapshotHandler) GetTimestamps(w http.ResponseWriter, r *http.Request) {
	stamps, err := h.store.Timestamps()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshot timestamps")
		respondError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	now := h.store.Now()
	today := h.store.Today()

	items := make(map[string]TimestampItem, len(stamps))
	for kind, fi := range stamps {
		items[string(kind)] = TimestampItem{
			File:       filepath.Base(fi.Path),
			Date:       fi.Date,
			Modified:   fi.ModTime.In(h.store.Location()),
			AgeSeconds: int64(now.Sub(fi.ModTime).Seconds()),
			Size:       fi.Size,
			Current:    fi.Date == today,
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dir":   h.store.Dir(),
		"today": today,
		"files": items,
	})
}
