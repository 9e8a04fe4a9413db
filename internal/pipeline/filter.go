package pipeline

import (
	"strconv"

	"cordis-pipeline/internal/model"
)

// ApplyFilters returns the rows accepted by every active dimension of fs, in
// source order. A row whose value for a restricted dimension is missing is
// rejected. The input slice is never modified.
func ApplyFilters(rows []model.NormalizedRecord, fs model.FilterSet) []model.NormalizedRecord {
	if fs.IsEmpty() {
		return append([]model.NormalizedRecord(nil), rows...)
	}

	active := fs.Active()
	out := make([]model.NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		if matches(row, fs, active) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row model.NormalizedRecord, fs model.FilterSet, active []model.Dimension) bool {
	for _, dim := range active {
		value, ok := DimensionValue(row, dim)
		if !ok || !fs.Accepts(dim, value) {
			return false
		}
	}
	return true
}

// DimensionValue returns the value a row carries for a filter dimension.
// Year is read from the derived start year, never from raw text.
func DimensionValue(row model.NormalizedRecord, dim model.Dimension) (string, bool) {
	if dim == model.DimYear {
		if !row.StartYear.Valid {
			return "", false
		}
		return strconv.Itoa(row.StartYear.Value), true
	}
	return row.Text(dim.Column())
}
