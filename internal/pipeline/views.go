package pipeline

import (
	"cmp"
	"math"
	"strconv"

	"cordis-pipeline/internal/model"

	"golang.org/x/exp/slices"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultTopN is the truncation length of every ranked view.
const DefaultTopN = 10

// TopN returns the n items with the highest value, highest first. Items with
// equal values keep their input order. The input is not modified.
func TopN[T any](items []T, n int, value func(T) float64) []T {
	out := append([]T(nil), items...)
	slices.SortStableFunc(out, func(a, b T) int {
		return cmp.Compare(value(b), value(a))
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// YearlyCategoryFunding sums row level EC max contribution per (start year,
// main category) and gives each category its percentage of the year total.
// Results are ordered by year, then category.
func YearlyCategoryFunding(rows []model.NormalizedRecord) []model.CategoryYearAmount {
	return categoryFunding(rows, false)
}

// SubCategoryFunding is YearlyCategoryFunding split further by sub-category.
// Rows without a sub-category are left out.
func SubCategoryFunding(rows []model.NormalizedRecord) []model.CategoryYearAmount {
	return categoryFunding(rows, true)
}

func categoryFunding(rows []model.NormalizedRecord, bySub bool) []model.CategoryYearAmount {
	type key struct {
		year     int
		cat, sub string
	}
	totals := make(map[key]float64)
	for _, row := range rows {
		if !row.StartYear.Valid {
			continue
		}
		cat, ok := row.Text(model.ColCategory)
		if !ok {
			continue
		}
		k := key{year: row.StartYear.Value, cat: cat}
		if bySub {
			sub, ok := row.Text(model.ColSubCategory)
			if !ok {
				continue
			}
			k.sub = sub
		}
		totals[k] += valueOrZero(row.ECMaxContribution)
	}

	yearTotals := make(map[int]float64)
	out := make([]model.CategoryYearAmount, 0, len(totals))
	for k, amount := range totals {
		yearTotals[k.year] += amount
		out = append(out, model.CategoryYearAmount{Year: k.year, Category: k.cat, SubCategory: k.sub, Amount: amount})
	}
	for i := range out {
		if t := yearTotals[out[i].Year]; t != 0 {
			out[i].Share = out[i].Amount / t * 100
		}
	}
	slices.SortFunc(out, func(a, b model.CategoryYearAmount) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		return cmp.Compare(a.SubCategory, b.SubCategory)
	})
	return out
}

// FundingYears returns the first and last year present in a funding table.
func FundingYears(funding []model.CategoryYearAmount) (from, to model.Year) {
	for _, f := range funding {
		if !from.Valid || f.Year < from.Value {
			from = model.Year{Value: f.Year, Valid: true}
		}
		if !to.Valid || f.Year > to.Value {
			to = model.Year{Value: f.Year, Valid: true}
		}
	}
	return from, to
}

// CategoryGrowth ranks categories by the change of their funding between two
// years, both inclusive. A category without funding in an endpoint year
// counts as zero there. With bySub the ranking is per sub-category.
func CategoryGrowth(funding []model.CategoryYearAmount, from, to, n int, bySub bool) []model.Growth {
	index := make(map[string]int)
	var growth []model.Growth
	for _, f := range funding {
		if f.Year < from || f.Year > to {
			continue
		}
		name := f.Category
		if bySub {
			name = f.SubCategory
		}
		i, seen := index[name]
		if !seen {
			i = len(growth)
			index[name] = i
			growth = append(growth, model.Growth{Category: name})
		}
		if f.Year == from {
			growth[i].From += f.Amount
		}
		if f.Year == to {
			growth[i].To += f.Amount
		}
	}
	slices.SortStableFunc(growth, func(a, b model.Growth) int { return cmp.Compare(a.Category, b.Category) })
	for i := range growth {
		growth[i].Change = growth[i].To - growth[i].From
	}
	return TopN(growth, n, func(g model.Growth) float64 { return g.Change })
}

// ProjectsPerYear counts projects per start year, ascending.
func ProjectsPerYear(projects []model.ProjectAggregate) []model.YearCount {
	counts := make(map[int]int)
	for _, p := range projects {
		if p.StartYear.Valid {
			counts[p.StartYear.Value]++
		}
	}
	out := make([]model.YearCount, 0, len(counts))
	for year, n := range counts {
		out = append(out, model.YearCount{Year: year, Projects: n})
	}
	slices.SortFunc(out, func(a, b model.YearCount) int { return cmp.Compare(a.Year, b.Year) })
	return out
}

// ComputeKPIs returns the headline indicators of a selection.
func ComputeKPIs(rows []model.NormalizedRecord, projects []model.ProjectAggregate, caps model.Capabilities) model.KPIs {
	k := model.KPIs{Projects: len(projects), Participations: len(rows)}
	titles := make(map[string]struct{})
	for _, p := range projects {
		if p.Title != "" {
			titles[p.Title] = struct{}{}
		}
		k.TotalECMax += valueOrZero(p.ECMaxContribution)
		k.TotalCost += valueOrZero(p.TotalCost)
	}
	k.DistinctTitles = len(titles)

	if caps.Has(model.CapKeywords) && len(rows) > 0 {
		without := 0
		for _, row := range rows {
			if _, ok := row.Text(model.ColKeywords); !ok {
				without++
			}
		}
		k.KeywordlessShare = model.Some(float64(without) / float64(len(rows)) * 100)
	}
	return k
}

// CAGR is the compound annual growth rate in percent between two amounts
// that are years apart. It is missing unless both are positive and years > 0.
func CAGR(start, end float64, years int) model.Decimal {
	if start <= 0 || end <= 0 || years <= 0 {
		return model.Decimal{}
	}
	return model.Some((math.Pow(end/start, 1/float64(years)) - 1) * 100)
}

// FundingCAGR applies CAGR to the yearly funding between two years.
func FundingCAGR(yearly []model.YearAmount, from, to model.Year) model.Decimal {
	if !from.Valid || !to.Valid {
		return model.Decimal{}
	}
	var start, end float64
	for _, y := range yearly {
		switch y.Year {
		case from.Value:
			start = y.Amount
		case to.Value:
			end = y.Amount
		}
	}
	return CAGR(start, end, to.Value-from.Value)
}

// describeColumns are the numeric columns of a normalized row.
var describeColumns = []struct {
	name string
	cap  model.Capability
}{
	{model.ColTotalCost, model.CapTotalCost},
	{model.ColECMaxContribution, model.CapECMax},
	{model.ColECContribution, model.CapECContrib},
	{model.ColNetECContribution, model.CapNetECContrib},
	{model.ColStartYear, model.CapStartYear},
	{model.ColLat, model.CapGeolocation},
	{model.ColLon, model.CapGeolocation},
}

func numericValue(r model.NormalizedRecord, col string) (float64, bool) {
	switch col {
	case model.ColStartYear:
		return float64(r.StartYear.Value), r.StartYear.Valid
	case model.ColLat:
		return r.Lat.Value, r.Lat.Valid
	case model.ColLon:
		return r.Lon.Value, r.Lon.Valid
	}
	d := r.Money(col)
	return d.Value, d.Valid
}

// Describe summarizes every numeric column the dataset carries: count, mean,
// sample standard deviation, min, quartiles and max over present values.
func Describe(rows []model.NormalizedRecord, caps model.Capabilities) []model.ColumnStats {
	var out []model.ColumnStats
	for _, col := range describeColumns {
		if !caps.Has(col.cap) {
			continue
		}
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			if v, ok := numericValue(row, col.name); ok {
				values = append(values, v)
			}
		}
		out = append(out, describe(col.name, values))
	}
	return out
}

func describe(name string, values []float64) model.ColumnStats {
	st := model.ColumnStats{Column: name, Count: len(values)}
	if len(values) == 0 {
		return st
	}
	slices.Sort(values)

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	st.Mean = model.Some(mean)

	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}
		st.Std = model.Some(math.Sqrt(sq / float64(len(values)-1)))
	}

	st.Min = model.Some(values[0])
	st.Q25 = model.Some(quantile(values, 0.25))
	st.Median = model.Some(quantile(values, 0.5))
	st.Q75 = model.Some(quantile(values, 0.75))
	st.Max = model.Some(values[len(values)-1])
	return st
}

// quantile interpolates linearly between the closest ranks of sorted values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// FilterOptions lists the selectable values of every dimension the dataset
// supports: years in numeric order, text values in French collation order.
func FilterOptions(ds *model.Dataset) []model.FilterOption {
	coll := collate.New(language.French)
	var out []model.FilterOption
	for _, dim := range model.Dimensions {
		if !ds.Capabilities.HasDimension(dim) {
			continue
		}
		seen := make(map[string]struct{})
		var values []string
		for _, row := range ds.Records {
			v, ok := DimensionValue(row, dim)
			if !ok {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
		if dim == model.DimYear {
			slices.SortFunc(values, func(a, b string) int {
				x, _ := strconv.Atoi(a)
				y, _ := strconv.Atoi(b)
				return cmp.Compare(x, y)
			})
		} else {
			coll.SortStrings(values)
		}
		out = append(out, model.FilterOption{Dimension: dim, Label: dim.Label(), Values: values})
	}
	return out
}
