package percentile

import (
	"fmt"

	"cotpulse/internal/cot"
)

// Interpret renders a trader-class-specific reading of a percentile. The
// percentile math is identical for every class; only the narrative
// differs. Non-Commercials are trend followers, so an extreme long is
// momentum. Commercials are structural hedgers, so the same extreme is
// often a contrarian top signal. Retail is read as a late-crowd
// indicator.
func Interpret(p int, class cot.TraderClass, window Window) string {
	tier := Label(p)
	scope := fmt.Sprintf("%d-week", int(window))

	switch class {
	case cot.ClassCommercial:
		switch tier {
		case TierExtremeLong:
			return fmt.Sprintf("Commercial hedgers are at a %s extreme long (%dth percentile): for the hedging cohort this is often a contrarian top signal rather than conviction.", scope, p)
		case TierCrowdedLong:
			return fmt.Sprintf("Commercial longs are elevated (%dth percentile, %s): hedgers are leaning against the prevailing move.", p, scope)
		case TierCrowdedShort:
			return fmt.Sprintf("Commercial shorts are elevated (%dth percentile, %s), consistent with producers hedging into strength.", p, scope)
		case TierExtremeShort:
			return fmt.Sprintf("Commercial hedgers are at a %s extreme short (%dth percentile): in hedger terms this often marks a contrarian bottom.", scope, p)
		default:
			return fmt.Sprintf("Commercial positioning is mid-range (%dth percentile, %s); hedging flows carry no directional message here.", p, scope)
		}

	case cot.ClassRetail:
		switch tier {
		case TierExtremeLong:
			return fmt.Sprintf("Retail traders are extremely long (%dth percentile, %s). The small-trader crowd tends to be late; extremes here lean contrarian.", p, scope)
		case TierCrowdedLong:
			return fmt.Sprintf("Retail longs are building (%dth percentile, %s): the crowd is arriving, a caution flag for trend maturity.", p, scope)
		case TierCrowdedShort:
			return fmt.Sprintf("Retail shorts are building (%dth percentile, %s); crowd pessimism often marks the later stage of a decline.", p, scope)
		case TierExtremeShort:
			return fmt.Sprintf("Retail traders are extremely short (%dth percentile, %s): historically a contrarian bullish reading.", p, scope)
		default:
			return fmt.Sprintf("Retail positioning is unremarkable (%dth percentile, %s).", p, scope)
		}

	case cot.ClassAll:
		return fmt.Sprintf("Aggregate open positioning sits at the %dth percentile of its %s range (%s).", p, scope, tier)

	default: // non-commercial
		switch tier {
		case TierExtremeLong:
			return fmt.Sprintf("Large speculators are at a %s extreme long (%dth percentile): momentum is firmly bullish-aligned, but the trade is crowded.", scope, p)
		case TierCrowdedLong:
			return fmt.Sprintf("Speculative longs are crowded (%dth percentile, %s); the trend-following cohort is committed to the upside.", p, scope)
		case TierCrowdedShort:
			return fmt.Sprintf("Speculative shorts are crowded (%dth percentile, %s); trend followers are pressing the downside.", p, scope)
		case TierExtremeShort:
			return fmt.Sprintf("Large speculators are at a %s extreme short (%dth percentile): bearish momentum is stretched.", scope, p)
		default:
			return fmt.Sprintf("Speculative positioning is balanced (%dth percentile, %s); no positioning edge either way.", p, scope)
		}
	}
}

// AlignmentCategory classifies how positioning crowding relates to an
// externally supplied macro bias.
type AlignmentCategory string

const (
	CrowdedJustified      AlignmentCategory = "crowded_but_justified"
	CrowdedRisky          AlignmentCategory = "crowded_and_risky"
	ContrarianOpportunity AlignmentCategory = "contrarian_opportunity"
	NeutralNoEdge         AlignmentCategory = "neutral_no_edge"
)

// Alignment pairs the category with a short description for the UI.
type Alignment struct {
	State       AlignmentCategory `json:"state"`
	Description string            `json:"description"`
}

// AlignmentState combines the percentile tier with a directional macro
// bias ("bullish", "bearish", or anything else meaning neutral). Pure and
// deterministic given its three inputs.
//
// Commercial positioning is read inverted: hedger extremes lean against
// the prevailing move, so a crowded commercial long carries a bearish
// (contrarian-top) signal and a crowded commercial short a bullish one.
func AlignmentState(p int, macroBias string, class cot.TraderClass) Alignment {
	tier := Label(p)
	if tier == TierNeutral {
		return Alignment{
			State:       NeutralNoEdge,
			Description: "Positioning is mid-range; macro bias stands alone without a crowding edge.",
		}
	}

	long := tier == TierExtremeLong || tier == TierCrowdedLong
	signalBullish := long
	if class == cot.ClassCommercial {
		signalBullish = !long
	}
	extreme := tier == TierExtremeLong || tier == TierExtremeShort

	switch macroBias {
	case "bullish", "bearish":
		biasBullish := macroBias == "bullish"
		if signalBullish == biasBullish {
			return Alignment{
				State:       CrowdedJustified,
				Description: fmt.Sprintf("Positioning (%s) agrees with the %s macro bias: crowded, but the crowd has a reason.", tier, macroBias),
			}
		}
		if extreme {
			return Alignment{
				State:       ContrarianOpportunity,
				Description: fmt.Sprintf("Positioning (%s) is stretched against the %s macro bias: a contrarian setup if macro holds.", tier, macroBias),
			}
		}
		return Alignment{
			State:       CrowdedRisky,
			Description: fmt.Sprintf("Positioning (%s) opposes the %s macro bias; the crowd is exposed to a squeeze.", tier, macroBias),
		}
	default:
		return Alignment{
			State:       CrowdedRisky,
			Description: fmt.Sprintf("Positioning is crowded (%s) with no supporting macro bias; the position is exposed.", tier),
		}
	}
}
