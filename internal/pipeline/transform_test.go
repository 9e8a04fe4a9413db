package pipeline

import (
	"testing"
	"time"

	"cordis-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePreservesRowCount(t *testing.T) {
	table := rawTable(
		[]string{"id", "startdate", "enddate", "ecmaxcontribution", "geolocation"},
		[]string{"1", "2020-01-01", "2022-12-31", "1.000,50", "48.85,2.35"},
		[]string{"2", "garbage", "", "n/a", "not-a-coord"},
		[]string{"", "", "", "", ""},
	)

	ds, stats := Normalize(table)

	require.Len(t, ds.Records, len(table.Rows))
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 2, stats.MissingCells[model.ColStartDate])
	assert.Equal(t, 2, stats.MissingCells[model.ColEndDate])
	assert.Equal(t, 2, stats.MissingCells[model.ColECMaxContribution])
	assert.Equal(t, 2, stats.MissingCells[model.ColLat])

	first := ds.Records[0]
	assert.Equal(t, model.Year{Value: 2020, Valid: true}, first.StartYear)
	assert.InDelta(t, 1000.5, first.ECMaxContribution.Value, 1e-9)
	assert.False(t, ds.Records[1].StartYear.Valid)
}

func TestNormalizeLeavesRawTableUntouched(t *testing.T) {
	table := rawTable([]string{"id", "ecmaxcontribution"}, []string{"1", "1.234,5"})

	ds, _ := Normalize(table)
	ds.Headers[0] = "changed"

	assert.Equal(t, "1.234,5", table.Rows[0]["ecmaxcontribution"])
	assert.Equal(t, []string{"id", "ecmaxcontribution"}, table.Headers)
	assert.InDelta(t, 1234.5, ds.Records[0].ECMaxContribution.Value, 1e-9)
}

func TestNormalizeCapabilities(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "startdate", "status", "city"}))

	assert.True(t, ds.Capabilities.Has(model.CapStartDate, model.CapStartYear))
	assert.True(t, ds.Capabilities.HasDimension(model.DimStatus))
	assert.True(t, ds.Capabilities.HasDimension(model.DimYear))
	assert.True(t, ds.Capabilities.HasDimension(model.DimCity))
	assert.False(t, ds.Capabilities.Has(model.CapGeolocation))
	assert.False(t, ds.Capabilities.Has(model.CapDuration))
	assert.False(t, ds.Capabilities.HasDimension(model.DimRole))
}

func TestParseEuropeanDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want model.Decimal
	}{
		{"1.234.567,89", model.Some(1234567.89)},
		{"500", model.Some(500)},
		{" 12,5 ", model.Some(12.5)},
		{"-3,25", model.Some(-3.25)},
		{"", model.Decimal{}},
		{"   ", model.Decimal{}},
		{"abc", model.Decimal{}},
		{"NaN", model.Decimal{}},
		{"1,2,3", model.Decimal{}},
		{"0x1p4", model.Decimal{}},
		{"1_000", model.Decimal{}},
		{"Inf", model.Decimal{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseEuropeanDecimal(tt.in)
			assert.Equal(t, tt.want.Valid, got.Valid)
			assert.InDelta(t, tt.want.Value, got.Value, 1e-6)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2020-01-01", "2020-01-01"},
		{"2019-03-15 00:00:00", "2019-03-15"},
		{"2019-03-15T10:30:00", "2019-03-15"},
		{"2018/7/4", "2018-07-04"},
		{"7/4/2018", "2018-07-04"},
		{"15/06/2021", "2021-06-15"},
		{"31/12/19", "2019-12-31"},
		{"0x1p4", ""},
		{"43831", "2020-01-01"},
		{"", ""},
		{"garbage", ""},
		{"2020-13-45", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDate(tt.in)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.want != "", got.Valid)
		})
	}
}

func TestParseDateYearMatchesLiteral(t *testing.T) {
	for _, s := range []string{"1999-12-31", "2014-01-01", "2027-06-30"} {
		d := ParseDate(s)
		require.True(t, d.Valid, s)
		assert.Equal(t, s[:4], model.YearOf(d).String())
		assert.Equal(t, time.UTC, d.Time.Location())
	}
}

func TestSplitGeolocation(t *testing.T) {
	lat, lon := SplitGeolocation("48.85,2.35")
	assert.Equal(t, model.Some(48.85), lat)
	assert.Equal(t, model.Some(2.35), lon)

	lat, lon = SplitGeolocation("not-a-coord")
	assert.False(t, lat.Valid)
	assert.False(t, lon.Valid)

	lat, lon = SplitGeolocation(" 45.76 , x")
	assert.Equal(t, model.Some(45.76), lat)
	assert.False(t, lon.Valid)

	lat, lon = SplitGeolocation("")
	assert.False(t, lat.Valid)
	assert.False(t, lon.Valid)

	lat, lon = SplitGeolocation("0x1p4,2.35")
	assert.False(t, lat.Valid)
	assert.Equal(t, model.Some(2.35), lon)
}
