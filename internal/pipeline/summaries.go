package pipeline

import (
	"cmp"
	"strings"

	"cordis-pipeline/internal/model"

	"github.com/twpayne/go-geom"
	"golang.org/x/exp/slices"
)

// counter tallies values and remembers first-encounter order so that equal
// counts keep a stable order.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

// sorted returns the buckets by descending count, ties by first encounter.
func (c *counter) sorted() []model.ValueCount {
	out := make([]model.ValueCount, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, model.ValueCount{Value: v, Count: c.counts[v]})
	}
	slices.SortStableFunc(out, func(a, b model.ValueCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}

// StatusDistribution counts projects per status. Each project is counted once,
// using the status of its first row.
func StatusDistribution(rows []model.NormalizedRecord) []model.ValueCount {
	seen := make(map[string]struct{})
	c := newCounter()
	for _, row := range rows {
		id, ok := row.ID()
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if status, ok := row.Text(model.ColStatus); ok {
			c.add(status)
		}
	}
	return c.sorted()
}

// RoleDistribution counts distinct (project, role) pairs per role.
func RoleDistribution(rows []model.NormalizedRecord) []model.ValueCount {
	seen := make(map[[2]string]struct{})
	c := newCounter()
	for _, row := range rows {
		id, ok := row.ID()
		if !ok {
			continue
		}
		role, ok := row.Text(model.ColRole)
		if !ok {
			continue
		}
		key := [2]string{id, role}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.add(role)
	}
	return c.sorted()
}

// KeywordFrequency splits keyword cells on ';' and ',' and counts every
// trimmed, non-empty fragment.
func KeywordFrequency(rows []model.NormalizedRecord) []model.ValueCount {
	c := newCounter()
	for _, row := range rows {
		text, ok := row.Text(model.ColKeywords)
		if !ok {
			continue
		}
		for _, kw := range SplitKeywords(text) {
			c.add(kw)
		}
	}
	return c.sorted()
}

// SplitKeywords returns the trimmed, non-empty fragments of a keyword cell.
func SplitKeywords(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == ';' || r == ',' })
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValueFrequency counts the non-missing values of a text column.
func ValueFrequency(rows []model.NormalizedRecord, col string) []model.ValueCount {
	c := newCounter()
	for _, row := range rows {
		if v, ok := row.Text(col); ok {
			c.add(v)
		}
	}
	return c.sorted()
}

// YearlyFunding sums the EC max contribution of projects per start year,
// ascending. Projects without a start year are excluded.
func YearlyFunding(projects []model.ProjectAggregate) []model.YearAmount {
	totals := make(map[int]float64)
	for _, p := range projects {
		if !p.StartYear.Valid {
			continue
		}
		totals[p.StartYear.Value] += valueOrZero(p.ECMaxContribution)
	}

	out := make([]model.YearAmount, 0, len(totals))
	for year, amount := range totals {
		out = append(out, model.YearAmount{Year: year, Amount: amount})
	}
	slices.SortFunc(out, func(a, b model.YearAmount) int { return cmp.Compare(a.Year, b.Year) })
	return out
}

// OrganizationTotals sums the EC max contribution per (name, city). Rows
// missing either key are excluded. Buckets keep first-appearance order.
func OrganizationTotals(rows []model.NormalizedRecord) []model.OrganizationTotal {
	index := make(map[[2]string]int)
	var out []model.OrganizationTotal
	for _, row := range rows {
		name, ok := row.Text(model.ColName)
		if !ok {
			continue
		}
		city, ok := row.Text(model.ColCity)
		if !ok {
			continue
		}
		key := [2]string{name, city}
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			out = append(out, model.OrganizationTotal{Name: name, City: city})
		}
		out[i].Total += valueOrZero(row.ECMaxContribution)
	}
	return out
}

// GeoRollup groups located rows by city: the number of distinct projects and
// the coordinates of the city's first located row. Rows missing either
// coordinate are left out, so a city without any located row is absent.
func GeoRollup(rows []model.NormalizedRecord) []model.CityLocation {
	index := make(map[string]int)
	projects := make(map[string]map[string]struct{})
	var out []model.CityLocation
	for _, row := range rows {
		if !row.Lat.Valid || !row.Lon.Valid {
			continue
		}
		city, ok := row.Text(model.ColCity)
		if !ok {
			continue
		}
		if _, seen := index[city]; !seen {
			index[city] = len(out)
			out = append(out, model.CityLocation{City: city, Lat: row.Lat, Lon: row.Lon})
			projects[city] = make(map[string]struct{})
		}
		if id, ok := row.ID(); ok {
			projects[city][id] = struct{}{}
		}
	}
	for i := range out {
		out[i].Projects = len(projects[out[i].City])
	}
	return out
}

// Extent returns the bounding box of every city with both coordinates, or
// nil when none is located.
func Extent(cities []model.CityLocation) *model.GeoExtent {
	bounds := geom.NewBounds(geom.XY)
	located := 0
	for _, c := range cities {
		if !c.Lat.Valid || !c.Lon.Valid {
			continue
		}
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{c.Lon.Value, c.Lat.Value}))
		located++
	}
	if located == 0 {
		return nil
	}
	return &model.GeoExtent{
		MinLon:    bounds.Min(0),
		MinLat:    bounds.Min(1),
		MaxLon:    bounds.Max(0),
		MaxLat:    bounds.Max(1),
		CenterLon: (bounds.Min(0) + bounds.Max(0)) / 2,
		CenterLat: (bounds.Min(1) + bounds.Max(1)) / 2,
	}
}

// Summarize computes every dimension summary the dataset's capabilities allow.
func Summarize(rows []model.NormalizedRecord, projects []model.ProjectAggregate, caps model.Capabilities) model.Summaries {
	var s model.Summaries
	if caps.HasDimension(model.DimStatus) {
		s.Status = StatusDistribution(rows)
	}
	if caps.HasDimension(model.DimRole) {
		s.Roles = RoleDistribution(rows)
	}
	if caps.Has(model.CapKeywords) {
		s.Keywords = KeywordFrequency(rows)
	}
	if caps.Has(model.CapStartYear, model.CapECMax) {
		s.YearlyFunding = YearlyFunding(projects)
	}
	if caps.HasDimension(model.DimName) && caps.HasDimension(model.DimCity) && caps.Has(model.CapECMax) {
		s.Organizations = OrganizationTotals(rows)
	}
	if caps.HasDimension(model.DimCity) && caps.Has(model.CapGeolocation) {
		s.Cities = GeoRollup(rows)
		s.Extent = Extent(s.Cities)
	}
	return s
}

func valueOrZero(d model.Decimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Value
}
