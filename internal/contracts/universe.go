package contracts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Universe is the day's ticker set, keyed by upper-case symbol
// JSON 키 순서를 보존 (top_volume_gainer 동률 처리, 재실행 시 바이트 동일 출력)
// ⭐ SSOT: S0 → S1 → S2 유니버스 데이터 전달
type Universe struct {
	order   []string
	records map[string]*TickerRecord
}

// NewUniverse creates an empty universe
func NewUniverse() *Universe {
	return &Universe{records: make(map[string]*TickerRecord)}
}

// Len returns the number of tickers
func (u *Universe) Len() int {
	return len(u.order)
}

// Symbols returns symbols in insertion order
func (u *Universe) Symbols() []string {
	out := make([]string, len(u.order))
	copy(out, u.order)
	return out
}

// Get returns the record for symbol
func (u *Universe) Get(symbol string) (*TickerRecord, bool) {
	rec, ok := u.records[symbol]
	return rec, ok
}

// Put inserts or replaces a record, keeping the original position on replace
func (u *Universe) Put(rec *TickerRecord) {
	if _, exists := u.records[rec.Symbol]; !exists {
		u.order = append(u.order, rec.Symbol)
	}
	u.records[rec.Symbol] = rec
}

// Each calls fn for every record in order
func (u *Universe) Each(fn func(rec *TickerRecord)) {
	for _, sym := range u.order {
		fn(u.records[sym])
	}
}

// Clone returns a deep copy
func (u *Universe) Clone() *Universe {
	out := NewUniverse()
	u.Each(func(rec *TickerRecord) {
		out.Put(rec.Clone())
	})
	return out
}

// MarshalJSON writes the symbol → record object in insertion order
func (u *Universe) MarshalJSON() ([]byte, error) {
	return encodeOrdered(u.order, func(i int) interface{} {
		return u.records[u.order[i]]
	})
}

// UnmarshalJSON reads a symbol → record object preserving key order
func (u *Universe) UnmarshalJSON(data []byte) error {
	u.order = nil
	u.records = make(map[string]*TickerRecord)

	return decodeOrdered(data, func(key string, dec *json.Decoder) error {
		rec := &TickerRecord{}
		if err := dec.Decode(rec); err != nil {
			return fmt.Errorf("ticker %s: %w", key, err)
		}
		rec.Symbol = strings.ToUpper(key)
		u.Put(rec)
		return nil
	})
}

// TickerRecord is one ticker's universe entry plus everything merged onto it
// 수치 필드는 nil = 데이터 없음 (임계값 비교 시 항상 "불충족")
type TickerRecord struct {
	Symbol string `json:"-"`

	// Identity
	Sources   []string `json:"sources,omitempty"`
	Level     string   `json:"level,omitempty"`
	Sector    string   `json:"sector,omitempty"`
	Industry  string   `json:"industry,omitempty"`
	SectorETF string   `json:"sector_etf,omitempty"`

	// Market snapshot
	LastPrice           *float64 `json:"last_price,omitempty"`
	OpenPrice           *float64 `json:"open_price,omitempty"`
	PrevClose           *float64 `json:"prev_close,omitempty"`
	PctChange           *float64 `json:"pct_change,omitempty"`
	VolLatest           *float64 `json:"vol_latest,omitempty"`
	AvgVol10D           *float64 `json:"avg_vol_10d,omitempty"`
	AvgVolume           *float64 `json:"avg_volume,omitempty"`
	RelVol              *float64 `json:"rel_vol,omitempty"`
	Hi10D               *float64 `json:"hi_10d,omitempty"`
	Lo10D               *float64 `json:"lo_10d,omitempty"`
	PdHi                *float64 `json:"pd_hi,omitempty"`
	PdLo                *float64 `json:"pd_lo,omitempty"`
	RangeHigh           *float64 `json:"range_930_940_high,omitempty"`
	RangeLow            *float64 `json:"range_930_940_low,omitempty"`
	ShortPercentOfFloat *float64 `json:"shortPercentOfFloat,omitempty"`
	EarlyPercentMove    *float64 `json:"early_percent_move,omitempty"`
	Spread              *float64 `json:"spread,omitempty"`

	// Derived
	Signals           Signals  `json:"signals"`
	TierHits          TierHits `json:"tierHits"`
	Reasons           []string `json:"reasons"`
	Score             int      `json:"score"`
	Tags              []string `json:"tags,omitempty"`
	IsBlocked         bool     `json:"isBlocked,omitempty"`
	EnrichedTimestamp string   `json:"enriched_timestamp,omitempty"`

	// Keys this struct does not model, carried through untouched
	Extra map[string]json.RawMessage `json:"-"`
}

// TierHits maps tier id ("T1".."T3") to triggered signal names in tier-table order
type TierHits map[string][]string

// tickerFields is the set of JSON keys modelled by TickerRecord
var tickerFields = func() map[string]bool {
	fields := make(map[string]bool)
	t := reflect.TypeOf(TickerRecord{})
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name != "" && name != "-" {
			fields[name] = true
		}
	}
	return fields
}()

// tickerAlias drops the methods so encoding/json uses default struct handling
type tickerAlias TickerRecord

// UnmarshalJSON decodes known fields and stashes the rest in Extra
func (r *TickerRecord) UnmarshalJSON(data []byte) error {
	var alias tickerAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = TickerRecord(alias)
	for k, v := range raw {
		if tickerFields[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}
	if r.Signals == nil {
		r.Signals = Signals{}
	}

	return nil
}

// MarshalJSON encodes modelled fields in declaration order, then Extra keys sorted
func (r *TickerRecord) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*tickerAlias)(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if !tickerFields[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(base[:len(base)-1])
	for _, k := range keys {
		kb, _ := json.Marshal(k)
		buf.WriteByte(',')
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Clone returns a deep copy
func (r *TickerRecord) Clone() *TickerRecord {
	out := *r

	out.Sources = cloneStrings(r.Sources)
	out.Reasons = cloneStrings(r.Reasons)
	out.Tags = cloneStrings(r.Tags)

	for _, p := range []**float64{
		&out.LastPrice, &out.OpenPrice, &out.PrevClose, &out.PctChange,
		&out.VolLatest, &out.AvgVol10D, &out.AvgVolume, &out.RelVol,
		&out.Hi10D, &out.Lo10D, &out.PdHi, &out.PdLo,
		&out.RangeHigh, &out.RangeLow, &out.ShortPercentOfFloat,
		&out.EarlyPercentMove, &out.Spread,
	} {
		*p = CloneFloat(*p)
	}

	out.Signals = r.Signals.Clone()
	out.TierHits = r.TierHits.Clone()

	if r.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}

	return &out
}

// ExtraFloat reads a numeric key from Extra
func (r *TickerRecord) ExtraFloat(key string) *float64 {
	raw, ok := r.Extra[key]
	if !ok {
		return nil
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

// Clone returns a deep copy
func (t TierHits) Clone() TierHits {
	if t == nil {
		return nil
	}
	out := make(TierHits, len(t))
	for k, v := range t {
		out[k] = cloneStrings(v)
	}
	return out
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// CloneFloat copies the pointed-to value
func CloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
