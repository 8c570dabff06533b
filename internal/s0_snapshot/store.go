package s0_snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/wonny/screener/backend/pkg/logger"
)

// DateLayout is the date suffix of dated snapshot files
const DateLayout = "2006-01-02"

// Kind identifies a snapshot document by filename prefix
type Kind string

const (
	KindUniverse       Kind = "universe"
	KindPostOpen       Kind = "post_open"
	KindIntradayRange  Kind = "intraday_range"
	KindMultiDayLevels Kind = "multi_day_levels"
	KindShortInterest  Kind = "short_interest"
	KindSector         Kind = "sector"
	KindEnriched       Kind = "enriched"
	KindScored         Kind = "scored"
	KindWatchlist      Kind = "watchlist"
)

type kindSpec struct {
	prefix string
	dated  bool // <prefix><YYYY-MM-DD>.json, otherwise <prefix>.json rewritten in place
}

var kinds = map[Kind]kindSpec{
	KindUniverse:       {"universe_", true},
	KindPostOpen:       {"post_open_signals_", true},
	KindIntradayRange:  {"945_signals_", true},
	KindMultiDayLevels: {"multi_day_levels", false},
	KindShortInterest:  {"short_interest", false},
	KindSector:         {"sector_signals_", true},
	KindEnriched:       {"enriched_", true},
	KindScored:         {"scored_", true},
	KindWatchlist:      {"autowatchlist_", true},
}

// AllKinds returns every known kind in pipeline order
func AllKinds() []Kind {
	return []Kind{
		KindUniverse, KindPostOpen, KindIntradayRange, KindMultiDayLevels,
		KindShortInterest, KindSector, KindEnriched, KindScored, KindWatchlist,
	}
}

// Prefix returns the filename prefix
func (k Kind) Prefix() string {
	return kinds[k].prefix
}

// Dated reports whether the kind carries a date suffix
func (k Kind) Dated() bool {
	return kinds[k].dated
}

// FileName returns the file name for date (ignored for undated kinds)
func (k Kind) FileName(date string) string {
	spec := kinds[k]
	if !spec.dated {
		return spec.prefix + ".json"
	}
	return spec.prefix + date + ".json"
}

// FileInfo describes one snapshot file on disk
type FileInfo struct {
	Kind    Kind      `json:"kind"`
	Path    string    `json:"path"`
	Date    string    `json:"date"` // from the name, or mtime date for undated kinds
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Store reads and writes snapshot documents in one cache directory
// ⭐ SSOT: 스냅샷 파일 접근은 여기서만
type Store struct {
	dir    string
	loc    *time.Location
	now    func() time.Time
	logger *logger.Logger
}

// NewStore creates a store rooted at dir; dates are exchange-local in loc
func NewStore(dir string, loc *time.Location, log *logger.Logger) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		dir:    dir,
		loc:    loc,
		now:    time.Now,
		logger: log,
	}
}

// WithClock replaces the wall clock (tests, backfills)
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Dir returns the cache directory
func (s *Store) Dir() string {
	return s.dir
}

// Location returns the exchange-local time zone
func (s *Store) Location() *time.Location {
	return s.loc
}

// Now returns the current exchange-local time
func (s *Store) Now() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current trading date (YYYY-MM-DD, exchange-local)
func (s *Store) Today() string {
	return s.Now().Format(DateLayout)
}

// Path returns the path of kind for date
func (s *Store) Path(kind Kind, date string) string {
	return filepath.Join(s.dir, kind.FileName(date))
}

// List returns all files of kind, newest first (date, then mtime)
func (s *Store) List(kind Kind) ([]FileInfo, error) {
	spec, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot kind %q", kind)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	files := make([]FileInfo, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, spec.prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		fi := FileInfo{
			Kind:    kind,
			Path:    filepath.Join(s.dir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		}

		if spec.dated {
			date := strings.TrimSuffix(strings.TrimPrefix(name, spec.prefix), ".json")
			if _, err := time.Parse(DateLayout, date); err != nil {
				continue
			}
			fi.Date = date
		} else {
			if name != spec.prefix+".json" {
				continue
			}
			fi.Date = info.ModTime().In(s.loc).Format(DateLayout)
		}

		files = append(files, fi)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Date != files[j].Date {
			return files[i].Date > files[j].Date
		}
		return files[i].ModTime.After(files[j].ModTime)
	})

	return files, nil
}

// Latest returns the newest file of kind regardless of date
func (s *Store) Latest(kind Kind) (FileInfo, error) {
	files, err := s.List(kind)
	if err != nil {
		return FileInfo{}, err
	}
	if len(files) == 0 {
		return FileInfo{}, fmt.Errorf("%s: %w", kind, ErrSnapshotMissing)
	}
	return files[0], nil
}

// Current returns today's file of kind; older files count as missing
func (s *Store) Current(kind Kind) (FileInfo, error) {
	fi, err := s.Latest(kind)
	if err != nil {
		return FileInfo{}, err
	}
	if fi.Date != s.Today() {
		return FileInfo{}, fmt.Errorf("%s: latest is %s, not %s: %w", kind, fi.Date, s.Today(), ErrSnapshotMissing)
	}
	return fi, nil
}

// ReadJSON decodes path into v; decode failures wrap ErrSnapshotMalformed
func (s *Store) ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrSnapshotMissing)
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("%s is empty: %w", filepath.Base(path), ErrSnapshotMalformed)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s: %v: %w", filepath.Base(path), err, ErrSnapshotMalformed)
	}
	return nil
}

// WriteJSON atomically replaces today's document of kind
func (s *Store) WriteJSON(kind Kind, v interface{}) (string, error) {
	return s.WriteJSONFor(kind, s.Today(), v)
}

// WriteJSONFor atomically replaces the document of kind for date
// 임시 파일 → fsync → rename: 동시 reader는 이전 또는 완성본만 봄
func (s *Store) WriteJSONFor(kind Kind, date string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", kind, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	path := s.Path(kind, date)
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	s.logger.WithFields(map[string]interface{}{
		"kind":  string(kind),
		"path":  path,
		"bytes": len(data),
	}).Debug("Snapshot written")

	return path, nil
}

// TempPrefix marks in-flight atomic writes
const TempPrefix = ".tmp-"

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, TempPrefix+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

// Timestamps returns the latest file of every kind present (API, status)
func (s *Store) Timestamps() (map[Kind]FileInfo, error) {
	out := make(map[Kind]FileInfo)
	for _, kind := range AllKinds() {
		fi, err := s.Latest(kind)
		if errors.Is(err, ErrSnapshotMissing) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out[kind] = fi
	}
	return out, nil
}
