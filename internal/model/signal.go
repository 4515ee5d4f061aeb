package model

import "time"

// SignalResult is the outcome of one pattern scan. It is never persisted.
type SignalResult struct {
	Symbol      string    `json:"symbol"`
	Matched     bool      `json:"matched"`
	LastBarTime time.Time `json:"last_bar_time"`
}

// SymbolResult holds either a signal or the failure for one symbol of a batch.
type SymbolResult struct {
	Symbol  string       `json:"symbol"`
	Signal  SignalResult `json:"signal"`
	Bars    int          `json:"bars"`
	Err     string       `json:"error,omitempty"`
	ErrKind ErrorKind    `json:"error_kind,omitempty"`
}

// OK reports whether the symbol was scanned without error.
func (r SymbolResult) OK() bool { return r.ErrKind == KindNone }

// Batch is the result of scanning a universe of symbols.
type Batch struct {
	ID         string         `json:"id"`
	Source     string         `json:"source"`
	Period     string         `json:"period"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []SymbolResult `json:"results"`
}

// Detected returns the symbols whose pattern matched, in scan order.
func (b *Batch) Detected() []SymbolResult {
	var out []SymbolResult
	for _, r := range b.Results {
		if r.OK() && r.Signal.Matched {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the symbols that produced an error, in scan order.
func (b *Batch) Failed() []SymbolResult {
	var out []SymbolResult
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Duration is the wall time the batch took.
func (b *Batch) Duration() time.Duration { return b.FinishedAt.Sub(b.StartedAt) }
