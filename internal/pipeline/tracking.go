package pipeline

import (
	"log"
	"time"

	"cordis-pipeline/internal/model"
)

// Tracker records stage durations and record counts of one report run.
// A run is synchronous, so stages never overlap.
type Tracker struct {
	ReportID  string
	StartTime time.Time
	stages    []model.StageMetrics
	current   *model.StageMetrics
}

// NewTracker creates a tracker for a report.
func NewTracker(reportID string) *Tracker {
	return &Tracker{ReportID: reportID, StartTime: time.Now()}
}

// StartStage opens a stage. An unfinished previous stage is closed as completed.
func (t *Tracker) StartStage(stage string, recordsIn int) {
	if t.current != nil {
		t.EndStage(t.current.RecordsIn)
	}
	t.current = &model.StageMetrics{
		StageName: stage,
		StartTime: time.Now(),
		RecordsIn: recordsIn,
		Status:    "running",
	}
}

// AddMissing adds coerced-to-missing cells to the open stage.
func (t *Tracker) AddMissing(n int) {
	if t.current != nil {
		t.current.MissingCells += n
	}
}

// EndStage closes the open stage as completed.
func (t *Tracker) EndStage(recordsOut int) {
	t.finish("completed", recordsOut, "")
}

// FailStage closes the open stage as failed.
func (t *Tracker) FailStage(err error) {
	t.finish("failed", 0, err.Error())
}

// SkipStage records a stage that could not run.
func (t *Tracker) SkipStage(stage, reason string) {
	now := time.Now()
	t.stages = append(t.stages, model.StageMetrics{
		StageName: stage,
		StartTime: now,
		EndTime:   now,
		Status:    "skipped",
		Detail:    reason,
	})
	log.Printf("⏭️ [%s] Stage %s skipped: %s", t.ReportID, stage, reason)
}

func (t *Tracker) finish(status string, recordsOut int, detail string) {
	if t.current == nil {
		return
	}
	s := t.current
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
	s.RecordsOut = recordsOut
	s.Status = status
	s.Detail = detail
	t.stages = append(t.stages, *s)
	t.current = nil

	if status == "failed" {
		log.Printf("❌ [%s] Stage %s failed after %v: %s", t.ReportID, s.StageName, s.Duration, detail)
		return
	}
	log.Printf("✅ [%s] Stage %s completed in %v (%d → %d records)", t.ReportID, s.StageName, s.Duration, s.RecordsIn, s.RecordsOut)
}

// record appends stages closed by another tracker, e.g. a shared load.
func (t *Tracker) record(stages []model.StageMetrics) {
	t.stages = append(t.stages, stages...)
}

// Stages returns a copy of the closed stages in execution order.
func (t *Tracker) Stages() []model.StageMetrics {
	return append([]model.StageMetrics(nil), t.stages...)
}

// Elapsed is the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.StartTime)
}
