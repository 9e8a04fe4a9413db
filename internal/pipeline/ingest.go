package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"cordis-pipeline/internal/model"

	"github.com/xuri/excelize/v2"
)

// ------------------- Ingestion -------------------

// Ingest reads a CSV or XLSX sheet from a local path or an http(s) URL and
// returns its rows keyed by canonical header.
func Ingest(ctx context.Context, pathOrURL string) (*model.RawTable, error) {
	log.Printf("➡️ Starting ingestion for source: %s", pathOrURL)

	rc, err := openSource(ctx, pathOrURL)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var records [][]string
	switch sourceFormat(pathOrURL) {
	case "csv":
		records, err = readCSV(rc)
	case "xlsx":
		records, err = readXLSX(rc)
	default:
		return nil, &model.ConfigError{Source: pathOrURL, Err: model.ErrUnsupportedFormat}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", pathOrURL, err)
	}
	if len(records) == 0 {
		return nil, &model.ConfigError{Source: pathOrURL, Err: model.ErrEmptySheet}
	}

	headers, err := CanonicalHeaders(records[0])
	if err != nil {
		var cfgErr *model.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Source = pathOrURL
		}
		return nil, err
	}

	table := &model.RawTable{
		Source:  pathOrURL,
		Headers: headers,
		Rows:    make([]model.RawRecord, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		if isBlankRow(rec) {
			continue
		}
		row := make(model.RawRecord, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	log.Printf("✅ Finished ingestion for source: %s (%d rows, %d columns)", pathOrURL, len(table.Rows), len(headers))
	return table, nil
}

// CanonicalHeaders trims and lower-cases header names. Two headers that
// collapse to the same name are a schema error the caller must resolve.
func CanonicalHeaders(raw []string) ([]string, error) {
	seen := make(map[string]int, len(raw))
	headers := make([]string, len(raw))
	for i, h := range raw {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if name == "" {
			name = fmt.Sprintf("unnamed: %d", i)
		}
		if first, dup := seen[name]; dup {
			return nil, &model.ConfigError{
				Column: name,
				Err:    fmt.Errorf("%w: %q and %q", model.ErrDuplicateHeader, raw[first], h),
			}
		}
		seen[name] = i
		headers[i] = name
	}
	return headers, nil
}

func sourceFormat(pathOrURL string) string {
	p := pathOrURL
	if u, err := url.Parse(pathOrURL); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(filepath.Ext(p)) {
	case ".csv", ".txt":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	}
	return ""
}

func openSource(ctx context.Context, pathOrURL string) (io.ReadCloser, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to GET sheet: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to GET sheet: %s", resp.Status)
		}
		return resp.Body, nil
	}

	file, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	return file, nil
}

// ------------------- CSV -------------------

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	csvReader := csv.NewReader(br)
	csvReader.Comma = sniffDelimiter(br)
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV read error: %w", err)
	}
	return records, nil
}

// sniffDelimiter picks ';' for sheets exported with a European locale.
func sniffDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(4096)
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// ------------------- XLSX -------------------

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func isBlankRow(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
