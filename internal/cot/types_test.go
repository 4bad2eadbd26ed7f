package cot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTraderClass(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TraderClass
		wantErr bool
	}{
		{name: "non-commercial", input: "nonCommercial", want: ClassNonCommercial},
		{name: "commercial", input: "commercial", want: ClassCommercial},
		{name: "retail", input: "retail", want: ClassRetail},
		{name: "all", input: "all", want: ClassAll},
		{name: "surrounding whitespace trimmed", input: " commercial ", want: ClassCommercial},
		{name: "wrong case rejected", input: "Commercial", wantErr: true},
		{name: "unknown class rejected", input: "speculator", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTraderClass(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassesCoversClosedSet(t *testing.T) {
	classes := Classes()
	assert.Len(t, classes, 4)
	for _, c := range classes {
		assert.NotEmpty(t, c.Display())
	}
}

func testRaw(date string, ncLong, ncShort, cLong, cShort, rLong, rShort float64) RawRow {
	d, _ := time.Parse("2006-01-02", date)
	return RawRow{
		ReportDate:   d,
		OpenInterest: ncLong + cLong + rLong,
		NonCommLong:  ncLong, NonCommShort: ncShort,
		CommLong: cLong, CommShort: cShort,
		RetailLong: rLong, RetailShort: rShort,
	}
}

func TestNormalizePerClass(t *testing.T) {
	raw := []RawRow{
		testRaw("2026-08-25", 300, 100, 150, 250, 40, 30),
		testRaw("2026-08-18", 250, 150, 180, 220, 45, 25),
	}

	t.Run("non-commercial", func(t *testing.T) {
		rows := Normalize(raw, ClassNonCommercial)
		require.Len(t, rows, 2)
		assert.Equal(t, "2026-08-25", rows[0].Date)
		assert.Equal(t, 300.0, rows[0].Long)
		assert.Equal(t, 100.0, rows[0].Short)
		assert.Equal(t, 200.0, rows[0].NetPosition)
		assert.Equal(t, 75.0, rows[0].LongPct)
		assert.Equal(t, 25.0, rows[0].ShortPct)
		// prior net 100, current 200: +100%
		assert.Equal(t, 100.0, rows[0].NetChangePct)
		// oldest row has no prior
		assert.Equal(t, 0.0, rows[1].NetChangePct)
	})

	t.Run("all sums sub-classes", func(t *testing.T) {
		rows := Normalize(raw, ClassAll)
		require.Len(t, rows, 2)
		assert.Equal(t, 300.0+150+40, rows[0].Long)
		assert.Equal(t, 100.0+250+30, rows[0].Short)
		assert.Equal(t, 110.0, rows[0].NetPosition)
	})

	t.Run("commercial net is negative here", func(t *testing.T) {
		rows := Normalize(raw, ClassCommercial)
		assert.Equal(t, -100.0, rows[0].NetPosition)
	})
}

func TestNormalizeZeroPriorNetReportsZeroChange(t *testing.T) {
	raw := []RawRow{
		testRaw("2026-08-25", 120, 80, 0, 0, 0, 0),
		testRaw("2026-08-18", 100, 100, 0, 0, 0, 0), // net exactly zero
	}
	rows := Normalize(raw, ClassNonCommercial)
	require.Len(t, rows, 2)
	assert.Equal(t, 0.0, rows[0].NetChangePct)
}

func TestNormalizeZeroTotalSkipsPercentages(t *testing.T) {
	raw := []RawRow{testRaw("2026-08-25", 0, 0, 50, 50, 0, 0)}
	rows := Normalize(raw, ClassNonCommercial)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].LongPct)
	assert.Equal(t, 0.0, rows[0].ShortPct)
}

func TestNetChangePctSignAgainstNegativePrior(t *testing.T) {
	// prior net -100, current -50: moved up by 50% of |prior|
	raw := []RawRow{
		testRaw("2026-08-25", 50, 100, 0, 0, 0, 0),
		testRaw("2026-08-18", 0, 100, 0, 0, 0, 0),
	}
	rows := Normalize(raw, ClassNonCommercial)
	assert.Equal(t, 50.0, rows[0].NetChangePct)
}

func TestNetSeriesPreservesOrder(t *testing.T) {
	raw := []RawRow{
		testRaw("2026-08-25", 300, 100, 0, 0, 0, 0),
		testRaw("2026-08-18", 200, 100, 0, 0, 0, 0),
		testRaw("2026-08-11", 100, 100, 0, 0, 0, 0),
	}
	series := NetSeries(Normalize(raw, ClassNonCommercial))
	assert.Equal(t, []float64{200, 100, 0}, series)
}
