// Package percentile ranks a current positioning value against a rolling
// historical population and classifies the result into crowding tiers.
//
// The rank is a population-relative empirical percentile: the share of the
// window strictly below the current value. It makes no distributional
// assumption, which matters because futures positioning data is routinely
// skewed or bimodal.
package percentile

import "math"

// Window is a rolling history length in weekly reports.
type Window int

const (
	Window52W  Window = 52
	Window156W Window = 156
)

// Valid reports whether w is one of the supported windows.
func (w Window) Valid() bool { return w == Window52W || w == Window156W }

// Tier is a five-level crowding classification.
type Tier string

const (
	TierExtremeLong  Tier = "Extreme Long"
	TierCrowdedLong  Tier = "Crowded Long"
	TierNeutral      Tier = "Neutral"
	TierCrowdedShort Tier = "Crowded Short"
	TierExtremeShort Tier = "Extreme Short"
)

// Classification thresholds. Symmetric around the midpoint; these five
// bands are the entire labeling contract, so they live here as named
// constants rather than inline literals.
const (
	ExtremeLongMin  = 85
	CrowdedLongMin  = 70
	NeutralMin      = 30
	CrowdedShortMin = 15
)

// Percentile values are clamped into [MinValue, MaxValue]. Exactly 0 or
// 100 would claim "most extreme ever" from a finite sample, which the
// engine treats as overclaiming precision.
const (
	MinValue     = 1
	MaxValue     = 99
	NeutralValue = 50
)

// Result is a computed percentile with its classification and provenance.
// IsLive=false marks the neutral fallback used when history is too short
// to rank against; it is never a fabricated statistic.
type Result struct {
	Value        int    `json:"value"`
	Label        Tier   `json:"label"`
	Window       Window `json:"window"`
	HistoryDepth int    `json:"history_depth"`
	IsLive       bool   `json:"is_live"`
}

// Neutral returns the no-history fallback result for a window.
func Neutral(window Window) Result {
	return Result{
		Value:  NeutralValue,
		Label:  Label(NeutralValue),
		Window: window,
		IsLive: false,
	}
}

// Rank computes 100 * (count of population values strictly below current)
// / (len(population) - 1). The population is expected to include the
// current observation. Returns NaN when the population has fewer than two
// values, since a rank against nothing is undefined.
//
// Rank is monotonic non-decreasing in current for a fixed population.
func Rank(current float64, population []float64) float64 {
	if len(population) < 2 {
		return math.NaN()
	}
	below := 0
	for _, v := range population {
		if v < current {
			below++
		}
	}
	return 100 * float64(below) / float64(len(population)-1)
}

// FromHistory slices a newest-first history down to the requested window,
// ranks the current (newest) value within it, and clamps the rounded
// result into [1,99]. Fewer than two usable points yields the neutral
// fallback with IsLive=false.
func FromHistory(current float64, history []float64, window Window) Result {
	n := int(window)
	if len(history) < n {
		n = len(history)
	}
	windowed := history[:n]

	if len(windowed) < 2 {
		r := Neutral(window)
		r.HistoryDepth = len(windowed)
		return r
	}

	rank := Rank(current, windowed)
	value := int(math.Round(rank))
	if value < MinValue {
		value = MinValue
	}
	if value > MaxValue {
		value = MaxValue
	}

	return Result{
		Value:        value,
		Label:        Label(value),
		Window:       window,
		HistoryDepth: len(windowed),
		IsLive:       true,
	}
}

// Label maps a percentile to its crowding tier. The five bands are
// contiguous and cover every integer in [1,99] with no gaps.
func Label(p int) Tier {
	switch {
	case p >= ExtremeLongMin:
		return TierExtremeLong
	case p >= CrowdedLongMin:
		return TierCrowdedLong
	case p >= NeutralMin:
		return TierNeutral
	case p >= CrowdedShortMin:
		return TierCrowdedShort
	default:
		return TierExtremeShort
	}
}
