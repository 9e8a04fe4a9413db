package model

import "time"

// Stage names of a report run.
const (
	StageIngest    = "ingestion"
	StageNormalize = "normalization"
	StageFilter    = "filtering"
	StageAggregate = "aggregation"
	StageSummarize = "summaries"
	StageExport    = "export"
)

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName    string        `json:"stage_name"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Duration     time.Duration `json:"duration"`
	RecordsIn    int           `json:"records_in"`
	RecordsOut   int           `json:"records_out"`
	MissingCells int           `json:"missing_cells,omitempty"`
	Status       string        `json:"status"` // "completed", "skipped", "failed"
	Detail       string        `json:"detail,omitempty"`
}
