package contracts

import "time"

// FileStatus is the audit verdict for one expected snapshot
type FileStatus struct {
	Kind     string    `json:"kind"`
	Path     string    `json:"path,omitempty"`
	Required bool      `json:"required"`
	Exists   bool      `json:"exists"`
	Empty    bool      `json:"empty"`
	Stale    bool      `json:"stale"`
	Entries  int       `json:"entries"`
	ModTime  time.Time `json:"mod_time,omitempty"`
}

// AuditReport is the S0 cache validation result
type AuditReport struct {
	Strict   bool         `json:"strict"`
	Files    []FileStatus `json:"files"`
	Missing  []string     `json:"missing"`
	Empty    []string     `json:"empty"`
	Stale    []string     `json:"stale"`
	Warnings []string     `json:"warnings"`
}

// OK reports whether nothing is missing or empty
func (r *AuditReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Empty) == 0
}

// EnrichReport summarizes one S1 run
type EnrichReport struct {
	Date     string         `json:"date"`
	Base     string         `json:"base"` // "enriched" or "universe"
	Tickers  int            `json:"tickers"`
	Merged   map[string]int `json:"merged"`  // step → records touched
	Skipped  []string       `json:"skipped"` // optional input unavailable
	Failed   []string       `json:"failed"`  // step raised, run continued
	Output   string         `json:"output,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// StageReport summarizes one S2/S3 run
type StageReport struct {
	Stage    Stage         `json:"stage"`
	Date     string        `json:"date"`
	Input    int           `json:"input"`
	Output   int           `json:"output"`
	Path     string        `json:"path,omitempty"`
	Duration time.Duration `json:"duration"`
}
