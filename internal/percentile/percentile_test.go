package percentile

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotpulse/internal/cot"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name       string
		current    float64
		population []float64
		want       float64
	}{
		{
			name:       "all below",
			current:    10,
			population: []float64{10, 1, 2, 3},
			want:       100,
		},
		{
			name:       "none below",
			current:    0,
			population: []float64{0, 1, 2, 3},
			want:       0,
		},
		{
			name:       "half below",
			current:    5,
			population: []float64{5, 1, 9},
			want:       50,
		},
		{
			name:       "ties are not below",
			current:    5,
			population: []float64{5, 5, 5},
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Rank(tt.current, tt.population), 1e-9)
		})
	}
}

func TestRankUndefinedForTinyPopulation(t *testing.T) {
	assert.True(t, math.IsNaN(Rank(1, nil)))
	assert.True(t, math.IsNaN(Rank(1, []float64{1})))
}

func TestRankMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	population := make([]float64, 120)
	for i := range population {
		population[i] = rng.NormFloat64() * 100_000
	}

	prev := math.Inf(-1)
	for current := -400_000.0; current <= 400_000; current += 12_500 {
		r := Rank(current, population)
		require.GreaterOrEqual(t, r, prev, "rank must be non-decreasing in current")
		prev = r
	}
}

func TestFromHistoryWorkedExample(t *testing.T) {
	// 52-week window: the current value plus 51 others, of which exactly
	// 40 are below. 100*40/51 = 78.43 -> 78 -> Crowded Long.
	current := 165604.0
	history := []float64{current}
	for i := 0; i < 40; i++ {
		history = append(history, current-float64(1000+i))
	}
	for i := 0; i < 11; i++ {
		history = append(history, current+float64(1000+i))
	}
	require.Len(t, history, 52)

	res := FromHistory(current, history, Window52W)
	assert.Equal(t, 78, res.Value)
	assert.Equal(t, TierCrowdedLong, res.Label)
	assert.Equal(t, 52, res.HistoryDepth)
	assert.True(t, res.IsLive)
}

func TestFromHistoryClampsToBounds(t *testing.T) {
	history := make([]float64, 52)
	for i := range history {
		history[i] = float64(i)
	}

	top := FromHistory(1e9, history, Window52W)
	assert.Equal(t, MaxValue, top.Value, "exactly 100 must be suppressed")

	bottom := FromHistory(-1e9, history, Window52W)
	assert.Equal(t, MinValue, bottom.Value, "exactly 0 must be suppressed")
}

func TestFromHistoryRangeInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(200)
		history := make([]float64, n)
		for i := range history {
			history[i] = rng.Float64()*2e6 - 1e6
		}
		res := FromHistory(history[0], history, Window156W)
		require.GreaterOrEqual(t, res.Value, MinValue)
		require.LessOrEqual(t, res.Value, MaxValue)
		require.True(t, res.IsLive)
	}
}

func TestFromHistoryShortHistoryFallback(t *testing.T) {
	for _, history := range [][]float64{nil, {}, {42}} {
		res := FromHistory(42, history, Window52W)
		assert.Equal(t, NeutralValue, res.Value)
		assert.Equal(t, TierNeutral, res.Label)
		assert.False(t, res.IsLive)
	}
}

func TestFromHistorySlicesToWindow(t *testing.T) {
	// 156 points: the newest 52 all below current, the older 104 all above.
	history := make([]float64, 156)
	current := 500.0
	history[0] = current
	for i := 1; i < 52; i++ {
		history[i] = 100
	}
	for i := 52; i < 156; i++ {
		history[i] = 1e6
	}

	res52 := FromHistory(current, history, Window52W)
	assert.Equal(t, MaxValue, res52.Value, "inside the 52w window everything is below")
	assert.Equal(t, 52, res52.HistoryDepth)

	res156 := FromHistory(current, history, Window156W)
	assert.Less(t, res156.Value, 50, "the longer window sees the higher regime")
	assert.Equal(t, 156, res156.HistoryDepth)
}

func TestLabelPartitionsRange(t *testing.T) {
	counts := map[Tier]int{}
	var prev Tier
	transitions := 0
	for p := MinValue; p <= MaxValue; p++ {
		tier := Label(p)
		counts[tier]++
		if tier != prev {
			transitions++
			prev = tier
		}
	}

	// Five contiguous bands covering every integer with no gaps.
	assert.Len(t, counts, 5)
	assert.Equal(t, 5, transitions)
	assert.Equal(t, MaxValue-MinValue+1,
		counts[TierExtremeShort]+counts[TierCrowdedShort]+counts[TierNeutral]+counts[TierCrowdedLong]+counts[TierExtremeLong])

	// Boundary spot checks.
	assert.Equal(t, TierExtremeLong, Label(85))
	assert.Equal(t, TierCrowdedLong, Label(84))
	assert.Equal(t, TierCrowdedLong, Label(70))
	assert.Equal(t, TierNeutral, Label(69))
	assert.Equal(t, TierNeutral, Label(30))
	assert.Equal(t, TierCrowdedShort, Label(29))
	assert.Equal(t, TierCrowdedShort, Label(15))
	assert.Equal(t, TierExtremeShort, Label(14))
}

func TestInterpretVariesByClassNotMath(t *testing.T) {
	p := 90
	texts := map[string]bool{}
	for _, class := range cot.Classes() {
		texts[Interpret(p, class, Window52W)] = true
	}
	assert.Len(t, texts, 4, "each trader class gets its own narrative")
}

func TestAlignmentState(t *testing.T) {
	tests := []struct {
		name  string
		p     int
		bias  string
		class cot.TraderClass
		want  AlignmentCategory
	}{
		{"neutral tier", 50, "bullish", cot.ClassNonCommercial, NeutralNoEdge},
		{"speculative long with bullish bias", 90, "bullish", cot.ClassNonCommercial, CrowdedJustified},
		{"speculative extreme long against bearish bias", 90, "bearish", cot.ClassNonCommercial, ContrarianOpportunity},
		{"speculative crowded long against bearish bias", 75, "bearish", cot.ClassNonCommercial, CrowdedRisky},
		{"commercial extreme long opposes bullish bias", 90, "bullish", cot.ClassCommercial, ContrarianOpportunity},
		{"commercial extreme short agrees with bullish bias", 10, "bullish", cot.ClassCommercial, CrowdedJustified},
		{"no bias leaves crowding exposed", 90, "neutral", cot.ClassRetail, CrowdedRisky},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AlignmentState(tt.p, tt.bias, tt.class)
			assert.Equal(t, tt.want, got.State)
			assert.NotEmpty(t, got.Description)
		})
	}
}

func TestAlignmentDeterministic(t *testing.T) {
	a := AlignmentState(88, "bearish", cot.ClassCommercial)
	b := AlignmentState(88, "bearish", cot.ClassCommercial)
	assert.Equal(t, a, b)
}
