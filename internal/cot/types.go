// Package cot fetches Commitments-of-Traders positioning data from the
// CFTC public reporting API, normalizes it per trader class, and serves it
// through a cache-first orchestrator that tolerates partial upstream
// failure per symbol.
package cot

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TraderClass is a closed enumeration of the COT reporting categories.
// ClassAll is a derived aggregate (the sum of the other three) computed at
// read time, never stored separately.
type TraderClass string

const (
	ClassNonCommercial TraderClass = "nonCommercial"
	ClassCommercial    TraderClass = "commercial"
	ClassRetail        TraderClass = "retail"
	ClassAll           TraderClass = "all"
)

// Classes lists every supported trader class in presentation order.
func Classes() []TraderClass {
	return []TraderClass{ClassNonCommercial, ClassCommercial, ClassRetail, ClassAll}
}

// ParseTraderClass validates a request string against the closed set.
func ParseTraderClass(s string) (TraderClass, error) {
	switch TraderClass(strings.TrimSpace(s)) {
	case ClassNonCommercial:
		return ClassNonCommercial, nil
	case ClassCommercial:
		return ClassCommercial, nil
	case ClassRetail:
		return ClassRetail, nil
	case ClassAll:
		return ClassAll, nil
	}
	return "", fmt.Errorf("unsupported trader class %q", s)
}

// Display returns the human-readable form used in response metadata.
func (c TraderClass) Display() string {
	switch c {
	case ClassNonCommercial:
		return "Non-Commercial (Large Speculators)"
	case ClassCommercial:
		return "Commercial (Hedgers)"
	case ClassRetail:
		return "Retail (Non-Reportable)"
	case ClassAll:
		return "All Participants"
	}
	return string(c)
}

// Source describes the provenance of a fetch or response.
type Source string

const (
	SourceLive    Source = "live"
	SourcePartial Source = "partial"
	SourceMock    Source = "mock"
	SourceError   Source = "error"
)

// RawRow is one weekly snapshot exactly as reported upstream: per-class
// long/short contract counts, their week-over-week changes, and open
// interest. Immutable once fetched; on staleness it is re-fetched
// wholesale, never patched.
type RawRow struct {
	ReportDate time.Time

	OpenInterest       float64
	OpenInterestChange float64

	NonCommLong        float64
	NonCommShort       float64
	NonCommLongChange  float64
	NonCommShortChange float64

	CommLong        float64
	CommShort       float64
	CommLongChange  float64
	CommShortChange float64

	RetailLong        float64
	RetailShort       float64
	RetailLongChange  float64
	RetailShortChange float64
}

// classPositions extracts the long/short totals and deltas for one trader
// class, summing the three reported sub-classes for ClassAll.
func (r RawRow) classPositions(class TraderClass) (long, short, dLong, dShort float64) {
	switch class {
	case ClassNonCommercial:
		return r.NonCommLong, r.NonCommShort, r.NonCommLongChange, r.NonCommShortChange
	case ClassCommercial:
		return r.CommLong, r.CommShort, r.CommLongChange, r.CommShortChange
	case ClassRetail:
		return r.RetailLong, r.RetailShort, r.RetailLongChange, r.RetailShortChange
	case ClassAll:
		return r.NonCommLong + r.CommLong + r.RetailLong,
			r.NonCommShort + r.CommShort + r.RetailShort,
			r.NonCommLongChange + r.CommLongChange + r.RetailLongChange,
			r.NonCommShortChange + r.CommShortChange + r.RetailShortChange
	}
	return 0, 0, 0, 0
}

// WeeklyRow is a RawRow normalized for one trader class.
type WeeklyRow struct {
	Date         string  `json:"date"`
	Long         float64 `json:"long_contracts"`
	Short        float64 `json:"short_contracts"`
	NetPosition  float64 `json:"net_position"`
	LongPct      float64 `json:"long_pct"`
	ShortPct     float64 `json:"short_pct"`
	NetChangePct float64 `json:"net_change_pct"`
	DeltaLong    float64 `json:"delta_long"`
	DeltaShort   float64 `json:"delta_short"`
}

// LatestSnapshot is the most recent normalized row for a symbol plus open
// interest and its compact display form.
type LatestSnapshot struct {
	Symbol              string    `json:"symbol"`
	Row                 WeeklyRow `json:"row"`
	OpenInterest        float64   `json:"open_interest"`
	OpenInterestChange  float64   `json:"open_interest_change"`
	OpenInterestDisplay string    `json:"open_interest_display"`
	ReportDate          time.Time `json:"report_date"`
}

// Normalize derives the per-class weekly rows from raw rows ordered
// newest-first. NetChangePct for each row compares against the adjacent
// older row in the same slice; a zero prior net reports 0 rather than
// dividing by zero. The oldest row has no prior and also reports 0.
func Normalize(raw []RawRow, class TraderClass) []WeeklyRow {
	rows := make([]WeeklyRow, 0, len(raw))
	for i, r := range raw {
		long, short, dLong, dShort := r.classPositions(class)
		row := WeeklyRow{
			Date:        r.ReportDate.Format("2006-01-02"),
			Long:        long,
			Short:       short,
			NetPosition: long - short,
			DeltaLong:   dLong,
			DeltaShort:  dShort,
		}
		if total := long + short; total > 0 {
			row.LongPct = round1(100 * long / total)
			row.ShortPct = round1(100 * short / total)
		}
		if i+1 < len(raw) {
			prevLong, prevShort, _, _ := raw[i+1].classPositions(class)
			prevNet := prevLong - prevShort
			if prevNet != 0 {
				row.NetChangePct = round1(100 * (row.NetPosition - prevNet) / math.Abs(prevNet))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// NetSeries projects normalized rows onto their net-position values,
// preserving newest-first order for percentile math.
func NetSeries(rows []WeeklyRow) []float64 {
	series := make([]float64, len(rows))
	for i, r := range rows {
		series[i] = r.NetPosition
	}
	return series
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
