package model

import (
	"strconv"
	"strings"
	"time"
)

// Canonical source columns of a CORDIS participation sheet.
const (
	ColID                = "id"
	ColTitle             = "title"
	ColStartDate         = "startdate"
	ColEndDate           = "enddate"
	ColTotalCost         = "totalcost_project"
	ColECMaxContribution = "ecmaxcontribution"
	ColECContribution    = "eccontribution"
	ColNetECContribution = "neteccontribution"
	ColStatus            = "status"
	ColRole              = "role"
	ColLegalBasis        = "legalbasis"
	ColName              = "name"
	ColCity              = "city"
	ColAcronym           = "acronym"
	ColCategory          = "categorie_principale"
	ColSubCategory       = "sous_categorie"
	ColKeywords          = "keywords"
	ColGeolocation       = "geolocation"
	ColStartYear         = "startyear"
	ColLat               = "lat"
	ColLon               = "lon"
)

// MonetaryColumns lists the columns stored in European number format.
var MonetaryColumns = []string{ColTotalCost, ColECMaxContribution, ColECContribution, ColNetECContribution}

// Decimal is a number that may be missing. The zero value is missing.
type Decimal struct {
	Value float64
	Valid bool
}

// Some returns a present Decimal.
func Some(v float64) Decimal { return Decimal{Value: v, Valid: true} }

// String renders the value, or "" when missing.
func (d Decimal) String() string {
	if !d.Valid {
		return ""
	}
	return strconv.FormatFloat(d.Value, 'f', -1, 64)
}

// MarshalJSON renders missing as null.
func (d Decimal) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(d.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number or null.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Decimal{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*d = Some(v)
	return nil
}

// MarshalCSV is used by gocsv.
func (d Decimal) MarshalCSV() (string, error) { return d.String(), nil }

// Date is a calendar date that may be missing.
type Date struct {
	Time  time.Time
	Valid bool
}

// DateOf returns a present Date truncated to midnight UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// String renders the date as ISO 8601, or "" when missing.
func (d Date) String() string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// MarshalJSON renders missing as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts an ISO date string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse("2006-01-02", strings.Trim(s, `"`))
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

// MarshalCSV is used by gocsv.
func (d Date) MarshalCSV() (string, error) { return d.String(), nil }

// Year is a calendar year that may be missing.
type Year struct {
	Value int
	Valid bool
}

// YearOf returns the year of d, missing if d is missing.
func YearOf(d Date) Year {
	if !d.Valid {
		return Year{}
	}
	return Year{Value: d.Time.Year(), Valid: true}
}

// String renders the year, or "" when missing.
func (y Year) String() string {
	if !y.Valid {
		return ""
	}
	return strconv.Itoa(y.Value)
}

// MarshalJSON renders missing as null.
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

// UnmarshalJSON accepts an integer or null.
func (y *Year) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*y = Year{}
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*y = Year{Value: v, Valid: true}
	return nil
}

// MarshalCSV is used by gocsv.
func (y Year) MarshalCSV() (string, error) { return y.String(), nil }

// Days is a whole number of days that may be missing.
type Days struct {
	Value int
	Valid bool
}

// MarshalJSON renders missing as null.
func (d Days) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.Value)), nil
}

// UnmarshalJSON accepts an integer or null.
func (d *Days) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		*d = Days{}
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*d = Days{Value: v, Valid: true}
	return nil
}

// MarshalCSV is used by gocsv.
func (d Days) MarshalCSV() (string, error) {
	if !d.Valid {
		return "", nil
	}
	return strconv.Itoa(d.Value), nil
}

// RawRecord is one participation row keyed by canonical header.
type RawRecord map[string]string

// Text returns the trimmed cell for col and whether it is present.
// Empty cells are missing.
func (r RawRecord) Text(col string) (string, bool) {
	v, ok := r[col]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// RawTable is a parsed sheet: canonical headers in source order plus rows.
type RawTable struct {
	Source  string      `json:"source"`
	Headers []string    `json:"headers"`
	Rows    []RawRecord `json:"-"`
}

// HasColumn reports whether col is part of the header row.
func (t RawTable) HasColumn(col string) bool {
	for _, h := range t.Headers {
		if h == col {
			return true
		}
	}
	return false
}

// NormalizedRecord is a RawRecord with typed, derived columns.
type NormalizedRecord struct {
	Raw               RawRecord `json:"raw"`
	StartDate         Date      `json:"startdate"`
	EndDate           Date      `json:"enddate"`
	StartYear         Year      `json:"startyear"`
	TotalCost         Decimal   `json:"totalcost_project"`
	ECMaxContribution Decimal   `json:"ecmaxcontribution"`
	ECContribution    Decimal   `json:"eccontribution"`
	NetECContribution Decimal   `json:"neteccontribution"`
	Lat               Decimal   `json:"lat"`
	Lon               Decimal   `json:"lon"`
}

// ID returns the project identifier of the row.
func (r NormalizedRecord) ID() (string, bool) { return r.Raw.Text(ColID) }

// Text returns the trimmed text cell for col.
func (r NormalizedRecord) Text(col string) (string, bool) { return r.Raw.Text(col) }

// Money returns the coerced monetary column by source name.
func (r NormalizedRecord) Money(col string) Decimal {
	switch col {
	case ColTotalCost:
		return r.TotalCost
	case ColECMaxContribution:
		return r.ECMaxContribution
	case ColECContribution:
		return r.ECContribution
	case ColNetECContribution:
		return r.NetECContribution
	}
	return Decimal{}
}

// Dataset is a normalized sheet ready for filtering.
type Dataset struct {
	Source       string             `json:"source"`
	Headers      []string           `json:"headers"`
	Records      []NormalizedRecord `json:"-"`
	Capabilities Capabilities       `json:"capabilities"`
	LoadedAt     time.Time          `json:"loaded_at"`
}

// Len returns the number of participation rows.
func (d *Dataset) Len() int { return len(d.Records) }
