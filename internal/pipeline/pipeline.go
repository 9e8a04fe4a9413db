package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"cordis-pipeline/internal/model"
	"cordis-pipeline/internal/store"
)

// ReportOptions tune the derived views of a report.
type ReportOptions struct {
	// TopN truncates ranked views. Zero means DefaultTopN.
	TopN int
	// GrowthFrom and GrowthTo bound category growth and CAGR. Missing
	// endpoints default to the first and last funded year.
	GrowthFrom model.Year
	GrowthTo   model.Year
}

func (o ReportOptions) topN() int {
	if o.TopN <= 0 {
		return DefaultTopN
	}
	return o.TopN
}

// Job describes one report request against a configured dataset.
type Job struct {
	Dataset string
	Source  string
	Filters model.FilterSet
	Options ReportOptions
}

// ------------------- Report Builder -------------------

// BuildReport filters a dataset and derives the project table, dimension
// summaries and views from the filtered rows. The dataset is not modified;
// every call returns independent tables. Views whose source columns are
// absent are named in Report.Unavailable.
func BuildReport(ds *model.Dataset, fs model.FilterSet, opts ReportOptions, tr *Tracker) *model.Report {
	if tr == nil {
		tr = NewTracker("report")
	}
	caps := ds.Capabilities

	for _, dim := range fs.Active() {
		if !caps.HasDimension(dim) {
			log.Printf("⚠️ Filter on %q but %s has no such column, no row can match", dim, ds.Source)
		}
	}

	tr.StartStage(model.StageFilter, ds.Len())
	rows := ApplyFilters(ds.Records, fs)
	tr.EndStage(len(rows))

	tr.StartStage(model.StageAggregate, len(rows))
	projects := AggregateProjects(rows)
	tr.EndStage(len(projects))

	tr.StartStage(model.StageSummarize, len(rows))
	summaries := Summarize(rows, projects, caps)
	views := buildViews(rows, projects, summaries, caps, opts)
	kpis := ComputeKPIs(rows, projects, caps)
	tr.EndStage(len(projects))

	return &model.Report{
		Dataset:     ds.Source,
		Filters:     fs,
		TotalRows:   ds.Len(),
		MatchedRows: len(rows),
		Rows:        rows,
		Projects:    projects,
		Summaries:   summaries,
		Views:       views,
		KPIs:        kpis,
		Unavailable: unavailable(caps),
		Stages:      tr.Stages(),
		CreatedAt:   time.Now(),
	}
}

func buildViews(rows []model.NormalizedRecord, projects []model.ProjectAggregate, s model.Summaries, caps model.Capabilities, opts ReportOptions) model.Views {
	n := opts.topN()
	var v model.Views

	v.TopOrganizations = TopN(s.Organizations, n, func(o model.OrganizationTotal) float64 { return o.Total })
	v.TopCities = TopN(s.Cities, n, func(c model.CityLocation) float64 { return float64(c.Projects) })
	v.TopKeywords = TopN(s.Keywords, n, func(c model.ValueCount) float64 { return float64(c.Count) })

	if caps.HasDimension(model.DimCategory) {
		v.TopCategories = TopN(ValueFrequency(rows, model.ColCategory), n, func(c model.ValueCount) float64 { return float64(c.Count) })
	}
	if caps.Has(model.CapStartYear) {
		v.ProjectsPerYear = ProjectsPerYear(projects)
	}

	if caps.Has(model.CapStartYear, model.CapECMax) && caps.HasDimension(model.DimCategory) {
		v.CategoryFunding = YearlyCategoryFunding(rows)
		from, to := FundingYears(v.CategoryFunding)
		if opts.GrowthFrom.Valid {
			from = opts.GrowthFrom
		}
		if opts.GrowthTo.Valid {
			to = opts.GrowthTo
		}
		v.GrowthFrom, v.GrowthTo = from, to

		if from.Valid && to.Valid {
			v.CategoryGrowth = CategoryGrowth(v.CategoryFunding, from.Value, to.Value, n, false)
			if caps.HasDimension(model.DimSubCategory) {
				v.SubCategoryFunding = SubCategoryFunding(rows)
				v.SubCategoryGrowth = CategoryGrowth(v.SubCategoryFunding, from.Value, to.Value, n, true)
			}
			v.FundingCAGR = FundingCAGR(s.YearlyFunding, from, to)
		}
	}

	v.Describe = Describe(rows, caps)
	return v
}

// viewRequirements lists each view with the capabilities it needs.
var viewRequirements = []struct {
	name string
	caps []model.Capability
}{
	{"status", []model.Capability{model.DimensionCapability(model.DimStatus)}},
	{"roles", []model.Capability{model.DimensionCapability(model.DimRole)}},
	{"keywords", []model.Capability{model.CapKeywords}},
	{"yearly_funding", []model.Capability{model.CapStartYear, model.CapECMax}},
	{"organizations", []model.Capability{model.DimensionCapability(model.DimName), model.DimensionCapability(model.DimCity), model.CapECMax}},
	{"cities", []model.Capability{model.DimensionCapability(model.DimCity), model.CapGeolocation}},
	{"category_funding", []model.Capability{model.CapStartYear, model.CapECMax, model.DimensionCapability(model.DimCategory)}},
	{"sub_category_funding", []model.Capability{model.CapStartYear, model.CapECMax, model.DimensionCapability(model.DimSubCategory)}},
	{"duration_days", []model.Capability{model.CapDuration}},
}

func unavailable(caps model.Capabilities) []string {
	var out []string
	for _, v := range viewRequirements {
		if !caps.Has(v.caps...) {
			out = append(out, v.name)
		}
	}
	return out
}

// ------------------- Pipeline Runner -------------------

// Run loads the job's dataset through loader, builds the report and persists
// it with its stage metrics under reportID.
func Run(ctx context.Context, loader *Loader, reportID string, job Job) (report *model.Report, err error) {
	start := time.Now()
	fmt.Printf("🚀 Starting report %s on dataset %s\n", reportID, job.Dataset)

	updateStatus(reportID, "running")
	defer func() {
		if err != nil {
			updateStatus(reportID, "failed")
			if saveErr := store.SaveReportError(reportID, err); saveErr != nil {
				log.Printf("❌ Failed to save error of report %s: %v", reportID, saveErr)
			}
		}
	}()

	tr := NewTracker(reportID)
	ds, err := loader.Get(ctx, job.Source, tr)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", job.Dataset, err)
	}

	report = BuildReport(ds, job.Filters, job.Options, tr)
	report.ID = reportID
	report.Dataset = job.Dataset

	if err := store.SaveStageMetrics(reportID, report.Stages); err != nil {
		log.Printf("❌ Failed to save stages of report %s: %v", reportID, err)
	}
	if err := store.SaveReport(report, "completed"); err != nil {
		return report, fmt.Errorf("save report: %w", err)
	}

	fmt.Printf("🏁 Report %s completed in %v: %d of %d rows, %d projects\n",
		reportID, time.Since(start), report.MatchedRows, report.TotalRows, len(report.Projects))
	return report, nil
}

func updateStatus(reportID, status string) {
	if err := store.UpdateReportStatus(reportID, status); err != nil {
		log.Printf("❌ Failed to set report %s to %s: %v", reportID, status, err)
	}
}
