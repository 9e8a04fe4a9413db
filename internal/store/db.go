package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cordis-pipeline/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// ErrNotInitialized is returned when a store function runs before InitDB.
var ErrNotInitialized = errors.New("store: database not initialized")

// ErrReportNotFound is returned for unknown report ids.
var ErrReportNotFound = errors.New("report not found")

// ReportInfo is the listing view of a stored report.
type ReportInfo struct {
	ID        string          `json:"id"`
	Dataset   string          `json:"dataset"`
	Filters   model.FilterSet `json:"filters"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StoredReport is a report row with its body, when it completed.
type StoredReport struct {
	ReportInfo
	Report *model.Report `json:"report,omitempty"`
}

// Initialize DB connection
func InitDB(dbPath string) error {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	// Create tables if not exists
	reportTable := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		dataset TEXT,
		filters TEXT,
		status TEXT,
		body TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	errorTable := `
	CREATE TABLE IF NOT EXISTS report_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`
	stageTable := `
	CREATE TABLE IF NOT EXISTS report_stages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		report_id TEXT,
		stage TEXT,
		status TEXT,
		records_in INTEGER,
		records_out INTEGER,
		missing_cells INTEGER,
		duration_ms INTEGER,
		detail TEXT,
		started_at DATETIME,
		ended_at DATETIME
	);
	`

	for _, stmt := range []string{reportTable, errorTable, stageTable} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return err
		}
	}

	if db != nil {
		db.Close()
	}
	db = conn
	return nil
}

// Close closes the database connection.
func Close() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// CreateReport stores a pending report request
func CreateReport(reportID, dataset string, filters model.FilterSet) error {
	if db == nil {
		return ErrNotInitialized
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`INSERT INTO reports (id, dataset, filters, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		reportID, dataset, string(filtersJSON), "pending", now, now)
	return err
}

// SaveReport stores the report body and its final status
func SaveReport(report *model.Report, status string) error {
	if db == nil {
		return ErrNotInitialized
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	filtersJSON, err := json.Marshal(report.Filters)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = db.Exec(`
		INSERT INTO reports (id, dataset, filters, status, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET status = excluded.status, body = excluded.body, updated_at = excluded.updated_at`,
		report.ID, report.Dataset, string(filtersJSON), status, string(body), now, now)
	return err
}

// SaveReportError records an error for a report
func SaveReportError(reportID string, err error) error {
	if err == nil {
		return nil
	}
	if db == nil {
		return ErrNotInitialized
	}
	now := time.Now().UTC()
	_, e := db.Exec(`INSERT INTO report_errors (report_id, error_message, created_at) VALUES (?, ?, ?)`,
		reportID, err.Error(), now)
	return e
}

// GetReportErrors returns the error messages of a report, oldest first
func GetReportErrors(reportID string) ([]string, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(`SELECT error_message FROM report_errors WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// SaveStageMetrics stores the stage metrics of a report run
func SaveStageMetrics(reportID string, stages []model.StageMetrics) error {
	if db == nil {
		return ErrNotInitialized
	}
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO report_stages
		(report_id, stage, status, records_in, records_out, missing_cells, duration_ms, detail, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, s := range stages {
		if _, err := stmt.Exec(reportID, s.StageName, s.Status, s.RecordsIn, s.RecordsOut, s.MissingCells,
			s.Duration.Milliseconds(), s.Detail, s.StartTime.UTC(), s.EndTime.UTC()); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// GetStageMetrics returns the stored stages of a report in execution order
func GetStageMetrics(reportID string) ([]model.StageMetrics, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(`SELECT stage, status, records_in, records_out, missing_cells, duration_ms, detail, started_at, ended_at
		FROM report_stages WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []model.StageMetrics
	for rows.Next() {
		var s model.StageMetrics
		var durationMS int64
		if err := rows.Scan(&s.StageName, &s.Status, &s.RecordsIn, &s.RecordsOut, &s.MissingCells,
			&durationMS, &s.Detail, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		s.Duration = time.Duration(durationMS) * time.Millisecond
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

// ListReports returns all reports with basic info, newest first
func ListReports() ([]ReportInfo, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := db.Query(`SELECT id, dataset, filters, status, created_at, updated_at FROM reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]ReportInfo, 0)
	for rows.Next() {
		info, err := scanInfo(rows.Scan)
		if err != nil {
			return nil, err
		}
		reports = append(reports, info)
	}
	return reports, rows.Err()
}

// GetReport fetches a report with its body
func GetReport(reportID string) (*StoredReport, error) {
	if db == nil {
		return nil, ErrNotInitialized
	}
	var body sql.NullString
	row := db.QueryRow(`SELECT id, dataset, filters, status, created_at, updated_at, body FROM reports WHERE id = ?`, reportID)
	info, err := scanInfo(func(dest ...any) error {
		return row.Scan(append(dest, &body)...)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	stored := &StoredReport{ReportInfo: info}
	if body.Valid && body.String != "" {
		var report model.Report
		if err := json.Unmarshal([]byte(body.String), &report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		stored.Report = &report
	}
	return stored, nil
}

// UpdateReportStatus updates report status
func UpdateReportStatus(reportID string, status string) error {
	if db == nil {
		return ErrNotInitialized
	}
	now := time.Now().UTC()
	_, err := db.Exec(`UPDATE reports SET status = ?, updated_at = ? WHERE id = ?`, status, now, reportID)
	return err
}

func scanInfo(scan func(dest ...any) error) (ReportInfo, error) {
	var info ReportInfo
	var filtersJSON sql.NullString
	if err := scan(&info.ID, &info.Dataset, &filtersJSON, &info.Status, &info.CreatedAt, &info.UpdatedAt); err != nil {
		return ReportInfo{}, err
	}
	if filtersJSON.Valid && filtersJSON.String != "" {
		if err := json.Unmarshal([]byte(filtersJSON.String), &info.Filters); err != nil {
			return ReportInfo{}, fmt.Errorf("failed to decode filters: %w", err)
		}
	}
	return info, nil
}
