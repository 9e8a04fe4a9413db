package pipeline

import (
	"testing"

	"cordis-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFiltersEmptyIsNoop(t *testing.T) {
	ds := scenario()

	for _, fs := range []model.FilterSet{
		{},
		filterSet(t, nil),
		filterSet(t, map[model.Dimension][]string{model.DimStatus: {}, model.DimRole: nil}),
	} {
		rows := ApplyFilters(ds.Records, fs)
		assert.Equal(t, ds.Records, rows)
	}
}

func TestApplyFiltersAbsentValueMatchesNothing(t *testing.T) {
	ds := scenario()
	fs := filterSet(t, map[model.Dimension][]string{model.DimStatus: {"suspended"}})

	assert.Empty(t, ApplyFilters(ds.Records, fs))
}

func TestApplyFiltersCombination(t *testing.T) {
	ds := scenario()

	// OR within a dimension
	fs := filterSet(t, map[model.Dimension][]string{model.DimStatus: {"ongoing", "closed"}})
	assert.Len(t, ApplyFilters(ds.Records, fs), 3)

	// AND across dimensions
	fs = filterSet(t, map[model.Dimension][]string{
		model.DimStatus: {"ongoing", "closed"},
		model.DimRole:   {"coordinator"},
	})
	rows := ApplyFilters(ds.Records, fs)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].Raw["id"])
	assert.Equal(t, "2", rows[1].Raw["id"])
}

func TestApplyFiltersYearUsesStartYear(t *testing.T) {
	ds := scenario()
	fs := filterSet(t, map[model.Dimension][]string{model.DimYear: {"2021"}})

	rows := ApplyFilters(ds.Records, fs)
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].Raw["id"])
}

func TestApplyFiltersRejectsMissingValues(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "status", "startdate"},
		[]string{"1", "", ""},
		[]string{"2", "closed", "2019-01-01"},
	))

	rows := ApplyFilters(ds.Records, filterSet(t, map[model.Dimension][]string{model.DimStatus: {"closed", ""}}))
	require.Len(t, rows, 1)
	assert.Equal(t, "2", rows[0].Raw["id"])

	rows = ApplyFilters(ds.Records, filterSet(t, map[model.Dimension][]string{model.DimYear: {"2019"}}))
	require.Len(t, rows, 1)
}

func TestApplyFiltersDoesNotModifyInput(t *testing.T) {
	ds := scenario()
	before := append([]model.NormalizedRecord(nil), ds.Records...)

	out := ApplyFilters(ds.Records, model.FilterSet{})
	out[0] = model.NormalizedRecord{}
	ApplyFilters(ds.Records, filterSet(t, map[model.Dimension][]string{model.DimRole: {"partner"}}))

	assert.Equal(t, before, ds.Records)
}

func TestApplyFiltersTrimsCellValues(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "city"}, []string{"1", "  Paris "}))
	fs := filterSet(t, map[model.Dimension][]string{model.DimCity: {"Paris"}})

	assert.Len(t, ApplyFilters(ds.Records, fs), 1)
}
