package cot

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"
)

// mockRows generates deterministic synthetic weekly reports for offline
// development, newest first. The series is seeded by symbol so repeated
// calls and restarts produce identical data.
func mockRows(symbol string, weeks int) []RawRow {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	base := 50_000 + rng.Float64()*400_000
	latest := mostRecentTuesday(time.Now().UTC())

	rows := make([]RawRow, weeks)
	// Build oldest-first so week-over-week changes are consistent, then
	// the slice is reversed into the newest-first contract.
	prev := RawRow{}
	for i := weeks - 1; i >= 0; i-- {
		cycle := math.Sin(float64(weeks-i) / 9.0)
		ncLong := base * (1.0 + 0.25*cycle + 0.05*rng.Float64())
		ncShort := base * (0.85 - 0.20*cycle + 0.05*rng.Float64())
		cLong := base * (0.90 - 0.22*cycle + 0.05*rng.Float64())
		cShort := base * (1.05 + 0.18*cycle + 0.05*rng.Float64())
		rLong := base * 0.12 * (1.0 + 0.3*rng.Float64())
		rShort := base * 0.10 * (1.0 + 0.3*rng.Float64())
		oi := ncLong + cLong + rLong

		row := RawRow{
			ReportDate:   latest.AddDate(0, 0, -7*i),
			OpenInterest: round0(oi),
			NonCommLong:  round0(ncLong),
			NonCommShort: round0(ncShort),
			CommLong:     round0(cLong),
			CommShort:    round0(cShort),
			RetailLong:   round0(rLong),
			RetailShort:  round0(rShort),
		}
		if i < weeks-1 {
			row.OpenInterestChange = row.OpenInterest - prev.OpenInterest
			row.NonCommLongChange = row.NonCommLong - prev.NonCommLong
			row.NonCommShortChange = row.NonCommShort - prev.NonCommShort
			row.CommLongChange = row.CommLong - prev.CommLong
			row.CommShortChange = row.CommShort - prev.CommShort
			row.RetailLongChange = row.RetailLong - prev.RetailLong
			row.RetailShortChange = row.RetailShort - prev.RetailShort
		}
		prev = row
		rows[i] = row
	}
	return rows
}

// mostRecentTuesday returns the as-of date of the latest published report;
// COT reports are stamped on Tuesdays.
func mostRecentTuesday(now time.Time) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Tuesday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func round0(v float64) float64 { return math.Round(v) }
