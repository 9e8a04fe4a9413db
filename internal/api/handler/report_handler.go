package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"cordis-pipeline/internal/model"
	"cordis-pipeline/internal/pipeline"
	"cordis-pipeline/internal/store"
	"cordis-pipeline/pkg/utils"

	"github.com/google/uuid"
)

// Handler serves reports over the configured datasets.
type Handler struct {
	Datasets    map[string]string
	Loader      *pipeline.Loader
	Output      *utils.OutputManager
	TopN        int
	LoadTimeout time.Duration
}

// ReportRequest is the payload of POST /reports.
type ReportRequest struct {
	Dataset    string          `json:"dataset"`
	Filters    model.FilterSet `json:"filters"`
	TopN       int             `json:"top_n,omitempty"`
	GrowthFrom *int            `json:"growth_from,omitempty"`
	GrowthTo   *int            `json:"growth_to,omitempty"`
	Export     bool            `json:"export,omitempty"`
	Timeout    string          `json:"timeout,omitempty"`
}

// DatasetInfo describes one configured dataset.
type DatasetInfo struct {
	Name         string    `json:"name"`
	Source       string    `json:"source"`
	Rows         int       `json:"rows"`
	Headers      []string  `json:"headers,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// ListDatasets lists the configured datasets
// @Summary List datasets
// @Description List configured datasets with their row count and capabilities
// @Tags datasets
// @Produce json
// @Success 200 {array} DatasetInfo "Datasets"
// @Router /datasets [get]
func (h *Handler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.Datasets))
	for name := range h.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]DatasetInfo, 0, len(names))
	for _, name := range names {
		info := DatasetInfo{Name: name, Source: h.Datasets[name]}
		ds, err := h.load(r.Context(), name, nil)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Rows = ds.Len()
			info.Headers = ds.Headers
			info.Capabilities = ds.Capabilities.List()
			info.LoadedAt = ds.LoadedAt
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

// GetDatasetOptions returns the selectable filter values of a dataset
// @Summary Get filter options
// @Description Sorted distinct values per filter dimension available in the dataset
// @Tags datasets
// @Produce json
// @Param name path string true "Dataset name"
// @Success 200 {array} model.FilterOption "Filter options"
// @Failure 404 {object} map[string]interface{} "Dataset not found"
// @Failure 422 {object} map[string]interface{} "Dataset schema error"
// @Router /datasets/{name}/options [get]
func (h *Handler) GetDatasetOptions(w http.ResponseWriter, r *http.Request) {
	name := pathPart(r, 3)
	ds, err := h.load(r.Context(), name, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pipeline.FilterOptions(ds))
}

// InvalidateDataset drops a dataset from the cache
// @Summary Invalidate dataset cache
// @Description Forces the next request to reload the dataset from its source
// @Tags datasets
// @Param name path string true "Dataset name"
// @Success 204 "Cache entry dropped"
// @Failure 404 {object} map[string]interface{} "Dataset not found"
// @Router /datasets/{name}/cache [delete]
func (h *Handler) InvalidateDataset(w http.ResponseWriter, r *http.Request) {
	name := pathPart(r, 3)
	source, ok := h.Datasets[name]
	if !ok {
		writeError(w, fmt.Errorf("%w: %q", model.ErrUnknownDataset, name))
		return
	}
	h.Loader.Invalidate(source)
	w.WriteHeader(http.StatusNoContent)
}

// CreateReport builds a filtered report
// @Summary Create a report
// @Description Filter a dataset and compute projects, summaries and views
// @Tags reports
// @Accept json
// @Produce json
// @Param report body ReportRequest true "Report request"
// @Success 201 {object} model.Report "Report"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 404 {object} map[string]interface{} "Dataset not found"
// @Failure 422 {object} map[string]interface{} "Dataset schema error"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /reports [post]
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest(fmt.Errorf("invalid JSON payload: %w", err)))
		return
	}
	source, ok := h.Datasets[req.Dataset]
	if !ok {
		writeError(w, fmt.Errorf("%w: %q", model.ErrUnknownDataset, req.Dataset))
		return
	}

	reportID := uuid.New().String()
	if err := store.CreateReport(reportID, req.Dataset, req.Filters); err != nil {
		log.Printf("❌ Failed to save report %s: %v", reportID, err)
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), utils.ParseDuration(req.Timeout, h.LoadTimeout))
	defer cancel()

	report, err := pipeline.Run(ctx, h.Loader, reportID, pipeline.Job{
		Dataset: req.Dataset,
		Source:  source,
		Filters: req.Filters,
		Options: h.options(req),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"report_id": reportID,
		"status":    "completed",
		"report":    report,
	}
	if req.Export {
		ds, err := h.load(ctx, req.Dataset, nil)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["exports"] = pipeline.NewExportManager(reportID, h.Output).ExportAll(report, ds.Headers)
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListReports retrieves all reports
// @Summary List reports
// @Description List stored reports, newest first
// @Tags reports
// @Produce json
// @Success 200 {array} store.ReportInfo "Reports"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /reports [get]
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := store.ListReports()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// GetReport retrieves a stored report
// @Summary Get a report
// @Description Get a stored report with its status and body
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} store.StoredReport "Report"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id} [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	// the route's trailing wildcard also catches unknown sub-resources
	if len(pathParts(r)) != 4 {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "not found"})
		return
	}
	stored, err := store.GetReport(pathPart(r, 3))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

// GetReportStages retrieves the stage metrics of a report
// @Summary Get report stages
// @Description Per-stage durations and record counts of a report run
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {array} model.StageMetrics "Stages"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id}/stages [get]
func (h *Handler) GetReportStages(w http.ResponseWriter, r *http.Request) {
	reportID := pathPart(r, 3)
	if _, err := store.GetReport(reportID); err != nil {
		writeError(w, err)
		return
	}
	stages, err := store.GetStageMetrics(reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": reportID,
		"stages":    stages,
		"count":     len(stages),
	})
}

// GetReportErrors retrieves the errors of a report
// @Summary Get report errors
// @Description Errors recorded while building a report
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Errors"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id}/errors [get]
func (h *Handler) GetReportErrors(w http.ResponseWriter, r *http.Request) {
	reportID := pathPart(r, 3)
	if _, err := store.GetReport(reportID); err != nil {
		writeError(w, err)
		return
	}
	messages, err := store.GetReportErrors(reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": reportID,
		"errors":    messages,
		"count":     len(messages),
	})
}

// ExportReportRows streams the filtered rows of a report as CSV
// @Summary Export filtered rows
// @Description Re-applies the report's filters to its dataset and streams the matching rows as CSV
// @Tags reports
// @Produce text/csv
// @Param id path string true "Report ID"
// @Success 200 {file} file "CSV download"
// @Failure 404 {object} map[string]interface{} "Report not found"
// @Router /reports/{id}/export [get]
func (h *Handler) ExportReportRows(w http.ResponseWriter, r *http.Request) {
	stored, err := store.GetReport(pathPart(r, 3))
	if err != nil {
		writeError(w, err)
		return
	}
	ds, err := h.load(r.Context(), stored.Dataset, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	rows := pipeline.ApplyFilters(ds.Records, stored.Filters)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", pipeline.FilteredRowsFile))
	if _, err := pipeline.WriteRowsCSV(w, ds.Headers, rows); err != nil {
		log.Printf("❌ Failed to stream export of report %s: %v", stored.ID, err)
	}
}

// GetReportFiles lists the exported files of a report
// @Summary List report files
// @Description Files written by the report export
// @Tags files
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{} "Files"
// @Router /reports/{id}/files [get]
func (h *Handler) GetReportFiles(w http.ResponseWriter, r *http.Request) {
	reportID := pathPart(r, 3)
	files, err := h.Output.ListFiles(reportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"report_id": reportID,
		"files":     files,
		"count":     len(files),
	})
}

// DownloadFile serves an exported file
// @Summary Download file
// @Description Download a specific exported file of a report
// @Tags files
// @Produce application/octet-stream
// @Param id path string true "Report ID"
// @Param filename path string true "File name"
// @Success 200 {file} file "File download"
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /reports/{id}/files/{filename} [get]
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	reportID := pathPart(r, 3)
	fileName := pathPart(r, 5)

	filePath, err := h.Output.ExistingFilePath(reportID, fileName)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", fileName))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeFile(w, r, filePath)
}

func (h *Handler) load(ctx context.Context, name string, tr *pipeline.Tracker) (*model.Dataset, error) {
	source, ok := h.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownDataset, name)
	}
	if h.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.LoadTimeout)
		defer cancel()
	}
	return h.Loader.Get(ctx, source, tr)
}

func (h *Handler) options(req ReportRequest) pipeline.ReportOptions {
	opts := pipeline.ReportOptions{TopN: h.TopN}
	if req.TopN > 0 {
		opts.TopN = req.TopN
	}
	if req.GrowthFrom != nil {
		opts.GrowthFrom = model.Year{Value: *req.GrowthFrom, Valid: true}
	}
	if req.GrowthTo != nil {
		opts.GrowthTo = model.Year{Value: *req.GrowthTo, Valid: true}
	}
	return opts
}

// ------------------- helpers -------------------

type requestError struct{ err error }

func (e requestError) Error() string { return e.err.Error() }
func (e requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return requestError{err: err} }

// statusFor maps pipeline and store errors to HTTP status codes.
func statusFor(err error) int {
	var reqErr requestError
	var cfgErr *model.ConfigError
	switch {
	case errors.As(err, &reqErr), errors.Is(err, model.ErrUnknownDimension):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnknownDataset), errors.Is(err, store.ErrReportNotFound):
		return http.StatusNotFound
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

// pathPart returns the i-th segment of the request path, e.g. the id in
// /api/v1/reports/{id} is segment 3.
func pathPart(r *http.Request, i int) string {
	parts := pathParts(r)
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

func pathParts(r *http.Request) []string {
	return strings.Split(strings.Trim(r.URL.Path, "/"), "/")
}
