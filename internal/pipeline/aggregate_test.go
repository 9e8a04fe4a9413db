package pipeline

import (
	"testing"

	"cordis-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateProjectsIdempotent(t *testing.T) {
	headers := []string{"id", "title", "startdate", "enddate", "totalcost_project", "ecmaxcontribution", "eccontribution"}
	ds, _ := Normalize(rawTable(headers,
		[]string{"10", "Alpha", "2020-01-01", "2021-01-01", "1.000,00", "800,00", "400,00"},
		[]string{"20", "Beta", "2019-05-01", "", "", "300,00", ""},
	))

	once := AggregateProjects(ds.Records)
	require.Len(t, once, 2)

	// A project-level table fed back as rows aggregates to itself.
	var rows []model.NormalizedRecord
	for _, p := range once {
		rows = append(rows, model.NormalizedRecord{
			Raw:               model.RawRecord{"id": p.ID, "title": p.Title},
			StartDate:         p.StartDate,
			EndDate:           p.EndDate,
			TotalCost:         p.TotalCost,
			ECMaxContribution: p.ECMaxContribution,
			ECContribution:    p.ECContribution,
			NetECContribution: p.NetECContribution,
		})
	}
	assert.Equal(t, once, AggregateProjects(rows))
}

func TestAggregateProjectsReductions(t *testing.T) {
	headers := []string{"id", "title", "startdate", "enddate", "ecmaxcontribution", "eccontribution", "neteccontribution"}
	ds, _ := Normalize(rawTable(headers,
		[]string{"1", "", "2020-03-01", "2021-03-01", "", "100,00", ""},
		[]string{"1", "Gamma", "2020-01-01", "2022-01-01", "900,00", "50,50", ""},
		[]string{"1", "Other", "2020-02-01", "2021-06-01", "1,00", "", ""},
		[]string{"", "orphan", "2010-01-01", "", "5,00", "5,00", "5,00"},
	))

	projects := AggregateProjects(ds.Records)
	require.Len(t, projects, 1)
	p := projects[0]

	assert.Equal(t, "1", p.ID)
	assert.Equal(t, "Gamma", p.Title)
	assert.Equal(t, 3, p.Participants)
	assert.Equal(t, model.Some(900), p.ECMaxContribution)
	assert.InDelta(t, 150.5, p.ECContribution.Value, 1e-9)
	assert.False(t, p.NetECContribution.Valid)
	assert.Equal(t, "2020-01-01", p.StartDate.String())
	assert.Equal(t, "2022-01-01", p.EndDate.String())
	assert.Equal(t, model.Year{Value: 2020, Valid: true}, p.StartYear)
	assert.Equal(t, model.Days{Value: 731, Valid: true}, p.DurationDays)
}

func TestAggregateProjectsFirstAppearanceOrder(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id"}, []string{"b"}, []string{"a"}, []string{"b"}, []string{"c"}))

	var ids []string
	for _, p := range AggregateProjects(ds.Records) {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)
}

func TestAggregateProjectsMissingDates(t *testing.T) {
	ds, _ := Normalize(rawTable([]string{"id", "startdate", "enddate"}, []string{"1", "", "2020-01-01"}))

	p := AggregateProjects(ds.Records)[0]
	assert.False(t, p.StartYear.Valid)
	assert.False(t, p.DurationDays.Valid)
}

func TestAggregateProjectsEmpty(t *testing.T) {
	projects := AggregateProjects(nil)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}
