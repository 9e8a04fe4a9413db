package pipeline

import (
	"fmt"
	"log"

	"cordis-pipeline/internal/model"
)

// ValidateHeaders checks the schema of an ingested table. A missing id column
// is fatal because every aggregate is keyed by it. Other absent columns only
// shrink the dataset's capabilities.
func ValidateHeaders(table *model.RawTable) error {
	if !table.HasColumn(model.ColID) {
		return &model.ConfigError{Source: table.Source, Column: model.ColID, Err: model.ErrMissingID}
	}

	seen := make(map[string]struct{}, len(table.Headers))
	for _, h := range table.Headers {
		if _, dup := seen[h]; dup {
			return &model.ConfigError{
				Source: table.Source,
				Column: h,
				Err:    fmt.Errorf("%w: %q", model.ErrDuplicateHeader, h),
			}
		}
		seen[h] = struct{}{}
	}

	for _, col := range expectedColumns {
		if !table.HasColumn(col) {
			log.Printf("⚠️ Column %q absent from %s, dependent views disabled", col, table.Source)
		}
	}
	return nil
}

// expectedColumns are reported when missing but never block a run.
var expectedColumns = []string{
	model.ColTitle,
	model.ColStartDate,
	model.ColEndDate,
	model.ColTotalCost,
	model.ColECMaxContribution,
	model.ColECContribution,
	model.ColStatus,
	model.ColRole,
	model.ColName,
	model.ColCity,
	model.ColCategory,
	model.ColKeywords,
	model.ColGeolocation,
}
