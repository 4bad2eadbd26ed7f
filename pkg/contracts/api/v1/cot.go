// Package api contains the versioned response contracts served to the
// trading dashboard. Version v1 is the current stable shape.
//
// The envelope invariant consumers rely on: ok=false still carries a
// well-formed, neutral data payload, never null. The UI branches on
// meta.source and ok, never on transport exceptions.
package api

import (
	"time"

	"cotpulse/internal/cot"
	"cotpulse/internal/percentile"
)

// SingleQueryRequest binds and validates the single-symbol query
// parameters.
type SingleQueryRequest struct {
	Symbol      string `json:"symbol" validate:"required,min=3,max=10"`
	TraderClass string `json:"trader_class" validate:"required,oneof=nonCommercial commercial retail all"`
	Window      int    `json:"window" validate:"required,oneof=52 156"`
}

// BatchQueryRequest binds and validates the batch query parameters.
type BatchQueryRequest struct {
	TraderClass string `json:"trader_class" validate:"required,oneof=nonCommercial commercial retail all"`
	Window      int    `json:"window" validate:"required,oneof=52 156"`
}

// Meta describes the provenance of an envelope.
type Meta struct {
	Symbol      string `json:"symbol,omitempty"`
	FuturesCode string `json:"futures_code,omitempty"`
	MarketName  string `json:"market_name,omitempty"`
	TraderType  string `json:"trader_type,omitempty"`
	Window      int    `json:"window,omitempty"`
	ReportDate  string `json:"report_date,omitempty"`

	Source      cot.Source `json:"source"`
	FetchedAt   time.Time  `json:"fetched_at"`
	CachedUntil time.Time  `json:"cached_until,omitempty"`

	// Batch-only fields.
	TotalSymbols  int      `json:"total_symbols,omitempty"`
	SuccessCount  int      `json:"success_count,omitempty"`
	FailedSymbols []string `json:"failed_symbols,omitempty"`
}

// Envelope is the uniform response wrapper for every gateway query.
type Envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
	Data  any    `json:"data"`
}

// Percentile is a percentile result enriched with its narrative reading.
type Percentile struct {
	percentile.Result
	Interpretation string `json:"interpretation"`
}

// SingleData is the payload of a single-symbol envelope.
type SingleData struct {
	Latest     cot.LatestSnapshot `json:"latest"`
	Percentile Percentile         `json:"percentile"`
	History    []cot.WeeklyRow    `json:"history"`
}

// EmptySingleData returns the neutral payload used when a single query
// fails: zeroed numerics, a 50th-percentile fallback, and an empty (not
// nil) history.
func EmptySingleData(window percentile.Window) SingleData {
	return SingleData{
		Percentile: Percentile{Result: percentile.Neutral(window)},
		History:    []cot.WeeklyRow{},
	}
}

// BatchItem is one symbol's entry in a batch envelope.
type BatchItem struct {
	Symbol      string             `json:"symbol"`
	FuturesCode string             `json:"futures_code"`
	MarketName  string             `json:"market_name"`
	Latest      cot.LatestSnapshot `json:"latest"`
	Percentile  Percentile         `json:"percentile"`
}

// RefreshResult reports how many entries each cache domain dropped.
type RefreshResult struct {
	DataCleared int       `json:"data_cleared"`
	APICleared  int       `json:"api_cleared"`
	RefreshedAt time.Time `json:"refreshed_at"`
}
