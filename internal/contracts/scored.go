package contracts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Screener is one triggered signal as shown to users
type Screener struct {
	Name    string `json:"name"`
	Tier    string `json:"tier"`
	Tooltip string `json:"tooltip"`
}

// ScoredTicker is a retained ticker after scoring (S2) or watchlist selection (S3)
// ⭐ SSOT: S2 → S3 → API 전달
type ScoredTicker struct {
	Symbol    string     `json:"-"`
	Score     int        `json:"score"`
	TierHits  TierHits   `json:"tierHits"`
	Reasons   []string   `json:"reasons"`
	Screeners []Screener `json:"screeners"`
	Level     string     `json:"level,omitempty"`
	Sector    string     `json:"sector,omitempty"`
	Tags      []string   `json:"tags"`
	Signals   Signals    `json:"signals"`
	IsBlocked bool       `json:"isBlocked,omitempty"`
}

// Clone returns a deep copy
func (t *ScoredTicker) Clone() *ScoredTicker {
	out := *t
	out.TierHits = t.TierHits.Clone()
	out.Reasons = cloneStrings(t.Reasons)
	out.Tags = cloneStrings(t.Tags)
	out.Signals = t.Signals.Clone()
	if t.Screeners != nil {
		out.Screeners = make([]Screener, len(t.Screeners))
		copy(out.Screeners, t.Screeners)
	}
	return &out
}

// HasTag reports whether tag is attached
func (t *ScoredTicker) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// ScoredUniverse is the ordered output of the scoring stage
type ScoredUniverse struct {
	Tickers []*ScoredTicker
}

// Get finds a ticker by symbol
func (s *ScoredUniverse) Get(symbol string) (*ScoredTicker, bool) {
	return findTicker(s.Tickers, symbol)
}

// MarshalJSON writes the symbol → ticker object in rank order
func (s *ScoredUniverse) MarshalJSON() ([]byte, error) {
	return marshalTickers(s.Tickers)
}

// UnmarshalJSON reads a symbol → ticker object preserving order
func (s *ScoredUniverse) UnmarshalJSON(data []byte) error {
	tickers, err := unmarshalTickers(data)
	if err != nil {
		return err
	}
	s.Tickers = tickers
	return nil
}

// Watchlist is the final, risk-gated and tagged output (S3)
type Watchlist struct {
	Entries []*ScoredTicker
}

// Get finds an entry by symbol
func (w *Watchlist) Get(symbol string) (*ScoredTicker, bool) {
	return findTicker(w.Entries, symbol)
}

// MarshalJSON writes the symbol → entry object in rank order
func (w *Watchlist) MarshalJSON() ([]byte, error) {
	return marshalTickers(w.Entries)
}

// UnmarshalJSON reads a symbol → entry object preserving order
func (w *Watchlist) UnmarshalJSON(data []byte) error {
	entries, err := unmarshalTickers(data)
	if err != nil {
		return err
	}
	w.Entries = entries
	return nil
}

func findTicker(tickers []*ScoredTicker, symbol string) (*ScoredTicker, bool) {
	for _, t := range tickers {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return nil, false
}

func marshalTickers(tickers []*ScoredTicker) ([]byte, error) {
	keys := make([]string, len(tickers))
	for i, t := range tickers {
		keys[i] = t.Symbol
	}
	return encodeOrdered(keys, func(i int) interface{} {
		return tickers[i]
	})
}

func unmarshalTickers(data []byte) ([]*ScoredTicker, error) {
	tickers := make([]*ScoredTicker, 0)
	err := decodeOrdered(data, func(key string, dec *json.Decoder) error {
		t := &ScoredTicker{}
		if err := dec.Decode(t); err != nil {
			return fmt.Errorf("ticker %s: %w", key, err)
		}
		t.Symbol = strings.ToUpper(key)
		if t.Signals == nil {
			t.Signals = Signals{}
		}
		tickers = append(tickers, t)
		return nil
	})
	return tickers, err
}
