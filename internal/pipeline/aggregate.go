package pipeline

import (
	"math"

	"cordis-pipeline/internal/model"
)

// AggregateProjects collapses participation rows into one aggregate per
// project id, in order of first appearance. Rows without an id cannot be
// attributed to a project and are skipped.
//
// Per field: title, total cost and EC max contribution keep the first
// non-missing value; EC and net EC contributions are summed over present
// values; start date is the earliest and end date the latest.
func AggregateProjects(rows []model.NormalizedRecord) []model.ProjectAggregate {
	index := make(map[string]int)
	projects := make([]model.ProjectAggregate, 0)

	for _, row := range rows {
		id, ok := row.ID()
		if !ok {
			continue
		}
		i, seen := index[id]
		if !seen {
			i = len(projects)
			index[id] = i
			projects = append(projects, model.ProjectAggregate{ID: id})
		}
		p := &projects[i]
		p.Participants++

		if p.Title == "" {
			if title, ok := row.Text(model.ColTitle); ok {
				p.Title = title
			}
		}
		firstDecimal(&p.TotalCost, row.TotalCost)
		firstDecimal(&p.ECMaxContribution, row.ECMaxContribution)
		sumDecimal(&p.ECContribution, row.ECContribution)
		sumDecimal(&p.NetECContribution, row.NetECContribution)
		minDate(&p.StartDate, row.StartDate)
		maxDate(&p.EndDate, row.EndDate)
	}

	for i := range projects {
		p := &projects[i]
		p.StartYear = model.YearOf(p.StartDate)
		p.DurationDays = durationDays(p.StartDate, p.EndDate)
	}
	return projects
}

func firstDecimal(dst *model.Decimal, v model.Decimal) {
	if !dst.Valid && v.Valid {
		*dst = v
	}
}

// sumDecimal adds v to dst. The sum stays missing until a present value is seen.
func sumDecimal(dst *model.Decimal, v model.Decimal) {
	if !v.Valid {
		return
	}
	if !dst.Valid {
		*dst = v
		return
	}
	dst.Value += v.Value
}

func minDate(dst *model.Date, d model.Date) {
	if d.Valid && (!dst.Valid || d.Time.Before(dst.Time)) {
		*dst = d
	}
}

func maxDate(dst *model.Date, d model.Date) {
	if d.Valid && (!dst.Valid || d.Time.After(dst.Time)) {
		*dst = d
	}
}

// durationDays is the whole number of days between start and end, missing
// when either end is missing.
func durationDays(start, end model.Date) model.Days {
	if !start.Valid || !end.Valid {
		return model.Days{}
	}
	days := math.Floor(end.Time.Sub(start.Time).Hours() / 24)
	return model.Days{Value: int(days), Valid: true}
}
