package pipeline

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"cordis-pipeline/internal/model"

	"github.com/xuri/excelize/v2"
)

// NormalizeStats counts the cells the normalizer could not coerce.
type NormalizeStats struct {
	Rows         int
	MissingCells map[string]int
}

// Total returns the number of missing cells across every coerced column.
func (s NormalizeStats) Total() int {
	n := 0
	for _, c := range s.MissingCells {
		n += c
	}
	return n
}

// Normalize coerces monetary, date and geolocation columns of every row and
// derives the start year. Unparseable cells become missing; no row is ever
// dropped. The raw table is left untouched.
func Normalize(table *model.RawTable) (*model.Dataset, NormalizeStats) {
	caps := capabilitiesOf(table)
	stats := NormalizeStats{Rows: len(table.Rows), MissingCells: make(map[string]int)}

	records := make([]model.NormalizedRecord, len(table.Rows))
	for i, raw := range table.Rows {
		rec := model.NormalizedRecord{Raw: raw}

		if caps.Has(model.CapStartDate) {
			rec.StartDate = ParseDate(raw[model.ColStartDate])
			rec.StartYear = model.YearOf(rec.StartDate)
			countMissing(stats, model.ColStartDate, rec.StartDate.Valid)
		}
		if caps.Has(model.CapEndDate) {
			rec.EndDate = ParseDate(raw[model.ColEndDate])
			countMissing(stats, model.ColEndDate, rec.EndDate.Valid)
		}

		for _, col := range model.MonetaryColumns {
			if !table.HasColumn(col) {
				continue
			}
			v := ParseEuropeanDecimal(raw[col])
			countMissing(stats, col, v.Valid)
			switch col {
			case model.ColTotalCost:
				rec.TotalCost = v
			case model.ColECMaxContribution:
				rec.ECMaxContribution = v
			case model.ColECContribution:
				rec.ECContribution = v
			case model.ColNetECContribution:
				rec.NetECContribution = v
			}
		}

		if caps.Has(model.CapGeolocation) {
			rec.Lat, rec.Lon = SplitGeolocation(raw[model.ColGeolocation])
			countMissing(stats, model.ColLat, rec.Lat.Valid)
			countMissing(stats, model.ColLon, rec.Lon.Valid)
		}

		records[i] = rec
	}

	if missing := stats.Total(); missing > 0 {
		log.Printf("🔄 Normalization of %s: %d rows, %d cells coerced to missing", table.Source, stats.Rows, missing)
	}

	return &model.Dataset{
		Source:       table.Source,
		Headers:      append([]string(nil), table.Headers...),
		Records:      records,
		Capabilities: caps,
		LoadedAt:     time.Now(),
	}, stats
}

func countMissing(stats NormalizeStats, col string, valid bool) {
	if !valid {
		stats.MissingCells[col]++
	}
}

// capabilitiesOf derives what the dataset can answer from its header row.
func capabilitiesOf(table *model.RawTable) model.Capabilities {
	caps := make(model.Capabilities)
	has := table.HasColumn

	caps[model.CapStartDate] = has(model.ColStartDate)
	caps[model.CapStartYear] = has(model.ColStartDate)
	caps[model.CapEndDate] = has(model.ColEndDate)
	caps[model.CapDuration] = has(model.ColStartDate) && has(model.ColEndDate)
	caps[model.CapTotalCost] = has(model.ColTotalCost)
	caps[model.CapECMax] = has(model.ColECMaxContribution)
	caps[model.CapECContrib] = has(model.ColECContribution)
	caps[model.CapNetECContrib] = has(model.ColNetECContribution)
	caps[model.CapGeolocation] = has(model.ColGeolocation)
	caps[model.CapKeywords] = has(model.ColKeywords)
	caps[model.CapTitle] = has(model.ColTitle)

	for _, d := range model.Dimensions {
		if d == model.DimYear {
			continue
		}
		caps[model.DimensionCapability(d)] = has(d.Column())
	}

	for cp, ok := range caps {
		if !ok {
			delete(caps, cp)
		}
	}
	return caps
}

// ParseEuropeanDecimal parses amounts written with '.' as thousands separator
// and ',' as decimal separator, e.g. "1.234.567,89".
func ParseEuropeanDecimal(s string) model.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Decimal{}
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return parseFloat(s)
}

// parseFloat accepts plain decimal notation only. strconv would also take
// hexadecimal floats, underscores and infinities.
func parseFloat(s string) model.Decimal {
	if strings.ContainsAny(s, "xX_") {
		return model.Decimal{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return model.Decimal{}
	}
	return model.Some(v)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/1/2",
	"1/2/2006",
	"1/2/06",
	"1-2-06",
	// day-first, reached only when the first field cannot be a month
	"2/1/2006",
	"2/1/06",
	"2006",
}

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// ParseDate accepts ISO dates, a few common sheet layouts and spreadsheet
// serial day numbers. Anything else is missing.
func ParseDate(s string) model.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Date{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t)
		}
	}
	if serial := parseFloat(s); serial.Valid && serial.Value >= 1 && serial.Value <= maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial.Value, false); err == nil {
			return model.DateOf(t)
		}
	}
	return model.Date{}
}

// SplitGeolocation splits "lat,lon" on the first comma. Each half is parsed
// on its own, so a malformed longitude does not discard a valid latitude.
func SplitGeolocation(s string) (lat, lon model.Decimal) {
	latText, lonText, found := strings.Cut(s, ",")
	lat = parseCoordinate(latText)
	if found {
		lon = parseCoordinate(lonText)
	}
	return lat, lon
}

func parseCoordinate(s string) model.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Decimal{}
	}
	return parseFloat(s)
}
