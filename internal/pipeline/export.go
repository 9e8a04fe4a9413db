package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cordis-pipeline/internal/model"
	"cordis-pipeline/pkg/utils"

	"github.com/gocarina/gocsv"
)

// FilteredRowsFile is the name of the filtered participation export.
const FilteredRowsFile = "cordis_filtered.csv"

// ExportManager writes the tables of one report into the report's output
// directory and keeps the outcome of every file.
type ExportManager struct {
	ReportID string
	Output   *utils.OutputManager
	Results  []model.ExportResult
}

// NewExportManager creates an export manager for a report.
func NewExportManager(reportID string, output *utils.OutputManager) *ExportManager {
	return &ExportManager{ReportID: reportID, Output: output}
}

// ExportAll writes the filtered rows, the project table, every non-empty
// summary and the full report as JSON. Headers are the dataset's source
// headers, used to lay out the filtered rows.
func (em *ExportManager) ExportAll(report *model.Report, headers []string) []model.ExportResult {
	fmt.Printf("💾 Export: Starting export of report %s\n", em.ReportID)

	em.export(FilteredRowsFile, func(w io.Writer) (int, error) {
		return WriteRowsCSV(w, headers, report.Rows)
	})
	em.export("projects.csv", func(w io.Writer) (int, error) {
		return WriteTableCSV(w, report.Projects)
	})

	s := report.Summaries
	if len(s.Status) > 0 {
		em.export("status.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, s.Status) })
	}
	if len(s.Roles) > 0 {
		em.export("roles.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, s.Roles) })
	}
	if len(s.Keywords) > 0 {
		em.export("keywords.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, s.Keywords) })
	}
	if len(s.YearlyFunding) > 0 {
		em.export("yearly_funding.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, s.YearlyFunding) })
	}
	if len(s.Organizations) > 0 {
		em.export("organizations.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, s.Organizations) })
	}
	if len(s.Cities) > 0 {
		em.export("cities.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, s.Cities) })
	}
	if len(report.Views.CategoryFunding) > 0 {
		em.export("category_funding.csv", func(w io.Writer) (int, error) {
			return WriteTableCSV(w, report.Views.CategoryFunding)
		})
	}
	if len(report.Views.Describe) > 0 {
		em.export("describe.csv", func(w io.Writer) (int, error) { return WriteTableCSV(w, report.Views.Describe) })
	}

	em.export("report.json", func(w io.Writer) (int, error) {
		return len(report.Projects), WriteReportJSON(w, report)
	})

	fmt.Printf("💾 Export Summary: %d files written for report %s\n", len(em.Results), em.ReportID)
	return em.Results
}

func (em *ExportManager) export(fileName string, write func(io.Writer) (int, error)) {
	result := model.ExportResult{
		Type:      em.Output.GetFileType(fileName),
		Timestamp: time.Now(),
	}

	path, err := em.Output.GetOutputFilePath(em.ReportID, fileName)
	if err == nil {
		result.Path = path
		result.RecordCount, err = writeFile(path, write)
	}

	result.Success = err == nil
	if err != nil {
		result.Error = err.Error()
		log.Printf("❌ Export of %s failed: %v", fileName, err)
	} else {
		log.Printf("✅ Exported %d records to %s", result.RecordCount, path)
	}
	em.Results = append(em.Results, result)
}

func writeFile(path string, write func(io.Writer) (int, error)) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := write(file)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close file: %w", closeErr)
	}
	return n, err
}

// WriteRowsCSV writes filtered rows with the source headers followed by the
// derived columns. Coerced columns are written in their normalized form, so
// amounts use '.' as decimal separator and dates are ISO 8601.
func WriteRowsCSV(w io.Writer, headers []string, rows []model.NormalizedRecord) (int, error) {
	columns := exportColumns(headers)

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	count := 0
	for _, row := range rows {
		for i, col := range columns {
			record[i] = exportValue(row, col)
		}
		if err := writer.Write(record); err != nil {
			return count, fmt.Errorf("failed to write row: %w", err)
		}
		count++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return count, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return count, nil
}

func exportColumns(headers []string) []string {
	columns := append([]string(nil), headers...)
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	derived := []string{model.ColStartYear}
	if present[model.ColGeolocation] {
		derived = append(derived, model.ColLat, model.ColLon)
	}
	for _, col := range derived {
		if !present[col] {
			columns = append(columns, col)
		}
	}
	return columns
}

func exportValue(row model.NormalizedRecord, col string) string {
	switch col {
	case model.ColStartDate:
		return row.StartDate.String()
	case model.ColEndDate:
		return row.EndDate.String()
	case model.ColStartYear:
		return row.StartYear.String()
	case model.ColLat:
		return row.Lat.String()
	case model.ColLon:
		return row.Lon.String()
	case model.ColTotalCost, model.ColECMaxContribution, model.ColECContribution, model.ColNetECContribution:
		return row.Money(col).String()
	}
	return row.Raw[col]
}

// WriteTableCSV writes a summary or aggregate table using its csv struct tags.
func WriteTableCSV[T any](w io.Writer, items []T) (int, error) {
	if err := gocsv.Marshal(items, w); err != nil {
		return 0, fmt.Errorf("failed to marshal CSV: %w", err)
	}
	return len(items), nil
}

// WriteReportJSON writes the report as indented JSON.
func WriteReportJSON(w io.Writer, report *model.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
