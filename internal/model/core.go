package model

import "time"

// ProjectAggregate is one row per project id built from participation rows.
type ProjectAggregate struct {
	ID                string  `json:"id" csv:"id"`
	Title             string  `json:"title" csv:"title"`
	TotalCost         Decimal `json:"total_cost" csv:"totalcost_project"`
	ECMaxContribution Decimal `json:"ec_max_contribution" csv:"ecmaxcontribution"`
	ECContribution    Decimal `json:"ec_contribution" csv:"eccontribution"`
	NetECContribution Decimal `json:"net_ec_contribution" csv:"neteccontribution"`
	StartDate         Date    `json:"start_date" csv:"startdate"`
	EndDate           Date    `json:"end_date" csv:"enddate"`
	StartYear         Year    `json:"start_year" csv:"startyear"`
	DurationDays      Days    `json:"duration_days" csv:"duration_days"`
	Participants      int     `json:"participants" csv:"participants"`
}

// ValueCount is one bucket of a counting distribution.
type ValueCount struct {
	Value string `json:"value" csv:"value"`
	Count int    `json:"count" csv:"count"`
}

// YearAmount is the funding total of one start year.
type YearAmount struct {
	Year   int     `json:"year" csv:"year"`
	Amount float64 `json:"amount" csv:"amount"`
}

// YearCount is the number of projects starting in a year.
type YearCount struct {
	Year     int `json:"year" csv:"year"`
	Projects int `json:"projects" csv:"projects"`
}

// OrganizationTotal is the summed EC max contribution of one (name, city) pair.
type OrganizationTotal struct {
	Name  string  `json:"name" csv:"name"`
	City  string  `json:"city" csv:"city"`
	Total float64 `json:"total" csv:"total"`
}

// CityLocation is the geographic rollup of one city.
type CityLocation struct {
	City     string  `json:"city" csv:"city"`
	Projects int     `json:"projects" csv:"projects"`
	Lat      Decimal `json:"lat" csv:"lat"`
	Lon      Decimal `json:"lon" csv:"lon"`
}

// GeoExtent frames every located city.
type GeoExtent struct {
	MinLat    float64 `json:"min_lat"`
	MinLon    float64 `json:"min_lon"`
	MaxLat    float64 `json:"max_lat"`
	MaxLon    float64 `json:"max_lon"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
}

// CategoryYearAmount is the funding of a (start year, category) cell.
// SubCategory is empty for main-category rollups.
type CategoryYearAmount struct {
	Year        int     `json:"year" csv:"year"`
	Category    string  `json:"category" csv:"category"`
	SubCategory string  `json:"sub_category,omitempty" csv:"sub_category"`
	Amount      float64 `json:"amount" csv:"amount"`
	Share       float64 `json:"share" csv:"share"`
}

// Growth is the change of a category's funding between two years.
type Growth struct {
	Category string  `json:"category" csv:"category"`
	From     float64 `json:"from" csv:"from"`
	To       float64 `json:"to" csv:"to"`
	Change   float64 `json:"change" csv:"change"`
}

// KPIs are headline indicators of a filtered selection.
type KPIs struct {
	Projects         int     `json:"projects"`
	DistinctTitles   int     `json:"distinct_titles"`
	Participations   int     `json:"participations"`
	TotalECMax       float64 `json:"total_ec_max_contribution"`
	TotalCost        float64 `json:"total_cost"`
	KeywordlessShare Decimal `json:"keywordless_share"`
}

// ColumnStats describes one numeric column.
type ColumnStats struct {
	Column string  `json:"column" csv:"column"`
	Count  int     `json:"count" csv:"count"`
	Mean   Decimal `json:"mean" csv:"mean"`
	Std    Decimal `json:"std" csv:"std"`
	Min    Decimal `json:"min" csv:"min"`
	Q25    Decimal `json:"q25" csv:"25%"`
	Median Decimal `json:"median" csv:"50%"`
	Q75    Decimal `json:"q75" csv:"75%"`
	Max    Decimal `json:"max" csv:"max"`
}

// FilterOption is the selectable values of one filter dimension.
type FilterOption struct {
	Dimension Dimension `json:"dimension"`
	Label     string    `json:"label"`
	Values    []string  `json:"values"`
}

// Summaries gathers every dimension summary of a filtered selection.
type Summaries struct {
	Status        []ValueCount        `json:"status,omitempty"`
	Roles         []ValueCount        `json:"roles,omitempty"`
	Keywords      []ValueCount        `json:"keywords,omitempty"`
	YearlyFunding []YearAmount        `json:"yearly_funding,omitempty"`
	Organizations []OrganizationTotal `json:"organizations,omitempty"`
	Cities        []CityLocation      `json:"cities,omitempty"`
	Extent        *GeoExtent          `json:"extent,omitempty"`
}

// Views are top-N and growth derivations of the summaries.
type Views struct {
	TopOrganizations   []OrganizationTotal  `json:"top_organizations,omitempty"`
	TopCities          []CityLocation       `json:"top_cities,omitempty"`
	TopKeywords        []ValueCount         `json:"top_keywords,omitempty"`
	TopCategories      []ValueCount         `json:"top_categories,omitempty"`
	ProjectsPerYear    []YearCount          `json:"projects_per_year,omitempty"`
	CategoryFunding    []CategoryYearAmount `json:"category_funding,omitempty"`
	SubCategoryFunding []CategoryYearAmount `json:"sub_category_funding,omitempty"`
	CategoryGrowth     []Growth             `json:"category_growth,omitempty"`
	SubCategoryGrowth  []Growth             `json:"sub_category_growth,omitempty"`
	GrowthFrom         Year                 `json:"growth_from"`
	GrowthTo           Year                 `json:"growth_to"`
	FundingCAGR        Decimal              `json:"funding_cagr"`
	Describe           []ColumnStats        `json:"describe,omitempty"`
}

// Report is the full output of one filter application.
type Report struct {
	ID          string             `json:"id,omitempty"`
	Dataset     string             `json:"dataset"`
	Filters     FilterSet          `json:"filters"`
	TotalRows   int                `json:"total_rows"`
	MatchedRows int                `json:"matched_rows"`
	Rows        []NormalizedRecord `json:"-"`
	Projects    []ProjectAggregate `json:"projects"`
	Summaries   Summaries          `json:"summaries"`
	Views       Views              `json:"views"`
	KPIs        KPIs               `json:"kpis"`
	Unavailable []string           `json:"unavailable,omitempty"`
	Stages      []StageMetrics     `json:"stages,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
