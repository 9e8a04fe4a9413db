package pipeline

import (
	"testing"

	"cordis-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusDistributionCountsProjectsOnce(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "status"},
		[]string{"1", "ongoing"},
		[]string{"1", "closed"},
		[]string{"2", "closed"},
		[]string{"3", ""},
		[]string{"3", "ongoing"},
		[]string{"", "ongoing"},
	))

	assert.Equal(t, []model.ValueCount{
		{Value: "ongoing", Count: 1},
		{Value: "closed", Count: 1},
	}, StatusDistribution(ds.Records))
}

func TestRoleDistributionBoundedByDistinctPairs(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "role", "name"},
		[]string{"1", "participant", "Org A"},
		[]string{"1", "participant", "Org A"},
		[]string{"1", "participant", "Org B"},
		[]string{"1", "coordinator", "Org C"},
		[]string{"2", "participant", "Org A"},
	))

	roles := RoleDistribution(ds.Records)

	pairs := make(map[[2]string]struct{})
	for _, r := range ds.Records {
		pairs[[2]string{r.Raw["id"], r.Raw["role"]}] = struct{}{}
	}
	total := 0
	for _, r := range roles {
		total += r.Count
	}
	assert.LessOrEqual(t, total, len(pairs))
	assert.Equal(t, []model.ValueCount{
		{Value: "participant", Count: 2},
		{Value: "coordinator", Count: 1},
	}, roles)
}

func TestKeywordFrequency(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "keywords"},
		[]string{"1", "energy; solar, storage"},
		[]string{"2", "Solar;energy;;"},
		[]string{"3", ""},
		[]string{"4", "energy"},
	))

	assert.Equal(t, []model.ValueCount{
		{Value: "energy", Count: 3},
		{Value: "solar", Count: 1},
		{Value: "storage", Count: 1},
		{Value: "Solar", Count: 1},
	}, KeywordFrequency(ds.Records))
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{"a", "b c", "d"}, SplitKeywords(" a ;b c,, d;"))
	assert.Empty(t, SplitKeywords(" ; , "))
}

func TestYearlyFundingUsesProjects(t *testing.T) {
	projects := AggregateProjects(scenario().Records)

	assert.Equal(t, []model.YearAmount{
		{Year: 2020, Amount: 100},
		{Year: 2021, Amount: 50},
	}, YearlyFunding(projects))
}

func TestYearlyFundingKeepsUnfundedYear(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "startdate", "ecmaxcontribution"},
		[]string{"1", "2018-01-01", ""},
		[]string{"2", "", "10,00"},
	))

	assert.Equal(t, []model.YearAmount{{Year: 2018, Amount: 0}}, YearlyFunding(AggregateProjects(ds.Records)))
}

func TestOrganizationTotals(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "name", "city", "ecmaxcontribution"},
		[]string{"1", "CNRS", "Paris", "10,00"},
		[]string{"2", "INRIA", "Rennes", "5,00"},
		[]string{"3", "CNRS", "Paris", "2,50"},
		[]string{"4", "CNRS", "Lyon", ""},
		[]string{"5", "", "Paris", "100,00"},
	))

	assert.Equal(t, []model.OrganizationTotal{
		{Name: "CNRS", City: "Paris", Total: 12.5},
		{Name: "INRIA", City: "Rennes", Total: 5},
		{Name: "CNRS", City: "Lyon", Total: 0},
	}, OrganizationTotals(ds.Records))
}

func TestGeoRollupAndExtent(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "city", "geolocation"},
		[]string{"1", "Paris", "48.85,2.35"},
		[]string{"2", "Paris", "48.90,2.40"},
		[]string{"2", "Paris", "48.85,2.35"},
		[]string{"3", "Lyon", "45.76,4.83"},
		[]string{"4", "Nowhere", "unknown"},
		[]string{"5", "", "40.00,1.00"},
	))

	cities := GeoRollup(ds.Records)
	assert.Equal(t, []model.CityLocation{
		{City: "Paris", Projects: 2, Lat: model.Some(48.85), Lon: model.Some(2.35)},
		{City: "Lyon", Projects: 1, Lat: model.Some(45.76), Lon: model.Some(4.83)},
	}, cities)

	extent := Extent(cities)
	require.NotNil(t, extent)
	assert.InDelta(t, 45.76, extent.MinLat, 1e-9)
	assert.InDelta(t, 48.85, extent.MaxLat, 1e-9)
	assert.InDelta(t, 2.35, extent.MinLon, 1e-9)
	assert.InDelta(t, 4.83, extent.MaxLon, 1e-9)
	assert.InDelta(t, (45.76+48.85)/2, extent.CenterLat, 1e-9)

	assert.Nil(t, Extent(nil))
}

func TestSummarizeRespectsCapabilities(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "status"}, []string{"1", "closed"}))
	s := Summarize(ds.Records, AggregateProjects(ds.Records), ds.Capabilities)

	assert.Len(t, s.Status, 1)
	assert.Nil(t, s.Roles)
	assert.Nil(t, s.Keywords)
	assert.Nil(t, s.YearlyFunding)
	assert.Nil(t, s.Organizations)
	assert.Nil(t, s.Cities)
	assert.Nil(t, s.Extent)
}
