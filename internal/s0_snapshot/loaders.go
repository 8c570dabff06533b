package s0_snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wonny/screener/backend/internal/contracts"
)

// NormalizeSymbol strips an exchange/share-class suffix and upper-cases
// 주의: "BRK.B" → "BRK" 로 잘려 클래스가 다른 종목이 같은 키로 합쳐질 수 있음
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	if i := strings.Index(symbol, "."); i >= 0 {
		symbol = symbol[:i]
	}
	return strings.ToUpper(symbol)
}

// PostOpenTicker is one ticker of the post-open snapshot after alias normalization
type PostOpenTicker struct {
	LastPrice           *float64
	VolLatest           *float64
	PctChange           *float64
	RelVol              *float64
	AvgVol10D           *float64
	OpenPrice           *float64
	PrevClose           *float64
	Hi10D               *float64
	Lo10D               *float64
	PdHi                *float64
	PdLo                *float64
	ShortPercentOfFloat *float64
	EarlyPercentMove    *float64
	Spread              *float64

	SqueezeWatch     *bool
	TopVolumeGainer  *bool
	NearMultiDayHigh *bool
	NearMultiDayLow  *bool
}

// SectorQuote is one sector ETF price
type SectorQuote struct {
	LastPrice *float64
	PrevClose *float64
	PctChange *float64
}

// ChangePct computes percent change from price vs previous close, falling back to pct_change
func (q SectorQuote) ChangePct() *float64 {
	if q.LastPrice != nil && q.PrevClose != nil && *q.PrevClose != 0 {
		v := (*q.LastPrice - *q.PrevClose) / *q.PrevClose * 100
		return &v
	}
	return q.PctChange
}

// PostOpenSnapshot is the normalized post-open document
type PostOpenSnapshot struct {
	Timestamp string
	Tickers   map[string]PostOpenTicker // normalized symbol
	Sectors   map[string]SectorQuote    // ETF symbol
	// Collisions lists raw symbols folded onto an existing normalized key
	Collisions []string
}

// Field aliases: canonical key first
var (
	aliasLastPrice = []string{"last_price", "price"}
	aliasVolLatest = []string{"vol_latest", "volume"}
	aliasPctChange = []string{"pct_change", "changePercent"}
	aliasOpenPrice = []string{"open_price", "open"}
	aliasPrevClose = []string{"prev_close", "prevClose"}
	aliasAvgVol10D = []string{"avg_vol_10d", "avg_volume_10d"}
)

// IntradayShape tags which form the first-10-minute range arrived in
type IntradayShape int

const (
	ShapeUnknown IntradayShape = iota
	ShapeRangeObject
	ShapeCandleList
)

func (s IntradayShape) String() string {
	switch s {
	case ShapeRangeObject:
		return "range_object"
	case ShapeCandleList:
		return "candle_list"
	default:
		return "unknown"
	}
}

// IntradayRange is the normalized first-10-minute high/low of one ticker
type IntradayRange struct {
	Shape IntradayShape
	High  *float64
	Low   *float64
}

// Levels is a ticker's 10-day high/low
type Levels struct {
	High *float64
	Low  *float64
}

// LoadUniverse loads the latest universe snapshot
// 필수 입력: 없거나 읽을 수 없으면 ErrMissingUniverse
func (s *Store) LoadUniverse() (*contracts.Universe, FileInfo, error) {
	fi, err := s.Latest(KindUniverse)
	if err != nil {
		return nil, FileInfo{}, fmt.Errorf("%w: %v", ErrMissingUniverse, err)
	}

	u := contracts.NewUniverse()
	if err := s.ReadJSON(fi.Path, u); err != nil {
		return nil, fi, fmt.Errorf("%w: %v", ErrMissingUniverse, err)
	}
	if u.Len() == 0 {
		return nil, fi, fmt.Errorf("%w: %s has no tickers", ErrMissingUniverse, fi.Path)
	}

	return u, fi, nil
}

// LoadEnrichedToday loads today's enriched universe (incremental re-run base)
func (s *Store) LoadEnrichedToday() (*contracts.Universe, FileInfo, error) {
	fi, err := s.Current(KindEnriched)
	if err != nil {
		return nil, FileInfo{}, err
	}

	u := contracts.NewUniverse()
	if err := s.ReadJSON(fi.Path, u); err != nil {
		return nil, fi, err
	}
	return u, fi, nil
}

// LoadPostOpen loads and normalizes today's post-open snapshot
func (s *Store) LoadPostOpen() (*PostOpenSnapshot, error) {
	fi, err := s.Current(KindPostOpen)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := s.ReadJSON(fi.Path, &raw); err != nil {
		return nil, err
	}
	return ParsePostOpen(raw)
}

// ParsePostOpen normalizes a decoded post-open document
// {timestamp, tickers: {...}, sectors: {...}} 또는 최상위가 곧 tickers인 구버전 형식
func ParsePostOpen(raw map[string]json.RawMessage) (*PostOpenSnapshot, error) {
	snap := &PostOpenSnapshot{
		Tickers: make(map[string]PostOpenTicker),
		Sectors: make(map[string]SectorQuote),
	}

	if ts, ok := raw["timestamp"]; ok {
		_ = json.Unmarshal(ts, &snap.Timestamp)
	}

	tickerRaw := raw
	if t, ok := raw["tickers"]; ok {
		tickerRaw = nil
		if err := json.Unmarshal(t, &tickerRaw); err != nil {
			return nil, fmt.Errorf("post-open tickers: %v: %w", err, ErrSnapshotMalformed)
		}
	}

	// 정렬된 키 순서로 병합: 심볼 충돌 시 결과가 결정적
	symbols := make([]string, 0, len(tickerRaw))
	for k := range tickerRaw {
		symbols = append(symbols, k)
	}
	sort.Strings(symbols)

	for _, rawSym := range symbols {
		if rawSym == "timestamp" || rawSym == "sectors" {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(tickerRaw[rawSym], &fields); err != nil {
			// one bad entry does not spoil the document
			continue
		}

		sym := NormalizeSymbol(rawSym)
		if sym == "" {
			continue
		}
		if _, exists := snap.Tickers[sym]; exists {
			snap.Collisions = append(snap.Collisions, rawSym)
		}
		snap.Tickers[sym] = parsePostOpenTicker(fields)
	}

	if sec, ok := raw["sectors"]; ok {
		sectors, err := ParseSectors(sec)
		if err != nil {
			return nil, err
		}
		snap.Sectors = sectors
	}

	return snap, nil
}

func parsePostOpenTicker(f map[string]json.RawMessage) PostOpenTicker {
	return PostOpenTicker{
		LastPrice:           pickFloat(f, aliasLastPrice...),
		VolLatest:           pickFloat(f, aliasVolLatest...),
		PctChange:           pickFloat(f, aliasPctChange...),
		RelVol:              pickFloat(f, "rel_vol"),
		AvgVol10D:           pickFloat(f, aliasAvgVol10D...),
		OpenPrice:           pickFloat(f, aliasOpenPrice...),
		PrevClose:           pickFloat(f, aliasPrevClose...),
		Hi10D:               pickFloat(f, "hi_10d"),
		Lo10D:               pickFloat(f, "lo_10d"),
		PdHi:                pickFloat(f, "pd_hi"),
		PdLo:                pickFloat(f, "pd_lo"),
		ShortPercentOfFloat: pickFloat(f, "shortPercentOfFloat"),
		EarlyPercentMove:    pickFloat(f, "early_percent_move"),
		Spread:              pickFloat(f, "spread"),
		SqueezeWatch:        pickBool(f, contracts.SignalSqueezeWatch),
		TopVolumeGainer:     pickBool(f, contracts.SignalTopVolumeGainer),
		NearMultiDayHigh:    pickBool(f, contracts.SignalNearMultiDayHigh),
		NearMultiDayLow:     pickBool(f, contracts.SignalNearMultiDayLow),
	}
}

// LoadSectors loads today's dedicated sector snapshot
func (s *Store) LoadSectors() (map[string]SectorQuote, error) {
	fi, err := s.Current(KindSector)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := s.ReadJSON(fi.Path, &raw); err != nil {
		return nil, err
	}
	return ParseSectors(raw)
}

// ParseSectors reads {etf: {last_price, prev_close, pct_change}}
// "_" 로 시작하는 메타 키와 error 필드가 있는 항목은 제외
func ParseSectors(data json.RawMessage) (map[string]SectorQuote, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("sectors: %v: %w", err, ErrSnapshotMalformed)
	}

	out := make(map[string]SectorQuote, len(raw))
	for etf, entry := range raw {
		if strings.HasPrefix(etf, "_") {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err != nil {
			continue
		}
		if _, failed := fields["error"]; failed {
			continue
		}
		out[strings.ToUpper(etf)] = SectorQuote{
			LastPrice: pickFloat(fields, aliasLastPrice...),
			PrevClose: pickFloat(fields, aliasPrevClose...),
			PctChange: pickFloat(fields, aliasPctChange...),
		}
	}
	return out, nil
}

// LoadIntradayRange loads today's first-10-minute range snapshot
func (s *Store) LoadIntradayRange() (map[string]IntradayRange, error) {
	fi, err := s.Current(KindIntradayRange)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := s.ReadJSON(fi.Path, &raw); err != nil {
		return nil, err
	}
	return ParseIntradayRange(raw)
}

// ParseIntradayRange normalizes {candles: {symbol: object | [candles]}}
func ParseIntradayRange(raw map[string]json.RawMessage) (map[string]IntradayRange, error) {
	candles := raw
	if c, ok := raw["candles"]; ok {
		candles = nil
		if err := json.Unmarshal(c, &candles); err != nil {
			return nil, fmt.Errorf("intraday candles: %v: %w", err, ErrSnapshotMalformed)
		}
	}

	out := make(map[string]IntradayRange, len(candles))
	for rawSym, entry := range candles {
		if rawSym == "timestamp" {
			continue
		}
		r := parseRangeEntry(entry)
		if r.Shape == ShapeUnknown {
			continue
		}
		out[NormalizeSymbol(rawSym)] = r
	}
	return out, nil
}

func parseRangeEntry(entry json.RawMessage) IntradayRange {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 {
		return IntradayRange{}
	}

	switch trimmed[0] {
	case '[':
		var list []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return IntradayRange{}
		}
		var hi, lo *float64
		for _, candle := range list {
			if h := pickFloat(candle, "high", "h"); h != nil && (hi == nil || *h > *hi) {
				hi = h
			}
			if l := pickFloat(candle, "low", "l"); l != nil && (lo == nil || *l < *lo) {
				lo = l
			}
		}
		return IntradayRange{Shape: ShapeCandleList, High: hi, Low: lo}

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return IntradayRange{}
		}
		// "940_high"/"940_low" 처럼 창 이름이 붙은 키, 또는 high/low
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var hi, lo *float64
		for _, k := range keys {
			switch {
			case hi == nil && (k == "high" || strings.HasSuffix(k, "_high")):
				hi = pickFloat(obj, k)
			case lo == nil && (k == "low" || strings.HasSuffix(k, "_low")):
				lo = pickFloat(obj, k)
			}
		}
		return IntradayRange{Shape: ShapeRangeObject, High: hi, Low: lo}
	}

	return IntradayRange{}
}

// LoadMultiDayLevels loads today's 10-day high/low snapshot
func (s *Store) LoadMultiDayLevels() (map[string]Levels, error) {
	fi, err := s.Current(KindMultiDayLevels)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]json.RawMessage
	if err := s.ReadJSON(fi.Path, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]Levels, len(raw))
	for rawSym, fields := range raw {
		lv := Levels{
			High: pickFloat(fields, "high", "hi_10d"),
			Low:  pickFloat(fields, "low", "lo_10d"),
		}
		if lv.High == nil && lv.Low == nil {
			continue
		}
		out[NormalizeSymbol(rawSym)] = lv
	}
	return out, nil
}

// LoadShortInterest loads today's short-interest snapshot
func (s *Store) LoadShortInterest() (map[string]*float64, error) {
	fi, err := s.Current(KindShortInterest)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := s.ReadJSON(fi.Path, &raw); err != nil {
		return nil, err
	}
	return ParseShortInterest(raw), nil
}

// ParseShortInterest reads {symbol: {shortPercentOfFloat}} or {symbol: number}
func ParseShortInterest(raw map[string]json.RawMessage) map[string]*float64 {
	out := make(map[string]*float64, len(raw))
	for rawSym, entry := range raw {
		var v *float64
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(entry, &fields); err == nil {
			v = pickFloat(fields, "shortPercentOfFloat", "short_percent_of_float")
		} else {
			v = parseFloat(entry)
		}
		if v == nil {
			continue
		}
		out[NormalizeSymbol(rawSym)] = v
	}
	return out
}

// IsMissing reports whether err means "optional input unavailable"
func IsMissing(err error) bool {
	return errors.Is(err, ErrSnapshotMissing) || errors.Is(err, ErrSnapshotMalformed)
}

// === Helper Functions ===

// pickFloat returns the first present, numeric key
func pickFloat(fields map[string]json.RawMessage, keys ...string) *float64 {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if v := parseFloat(raw); v != nil {
			return v
		}
	}
	return nil
}

// parseFloat accepts numbers and numeric strings; null, NaN and text are nil
func parseFloat(raw json.RawMessage) *float64 {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}

	switch val := v.(type) {
	case json.Number:
		n = val
	case string:
		n = json.Number(strings.TrimSpace(val))
	default:
		return nil
	}

	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// pickBool reads a bool, treating non-zero numbers as true
func pickBool(fields map[string]json.RawMessage, key string) *bool {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	if f := parseFloat(raw); f != nil {
		b = *f != 0
		return &b
	}
	return nil
}
