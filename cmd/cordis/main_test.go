package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"cordis-pipeline/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheet = `id;role;status;ecmaxcontribution;startdate;keywords
1;coordinator;ongoing;100,00;2020-01-01;solar
1;partner;ongoing;100,00;2020-01-01;
2;coordinator;closed;50,00;2021-06-15;wind
`

func writeFixtures(t *testing.T) (sheetPath, presetPath string) {
	t.Helper()
	dir := t.TempDir()
	sheetPath = filepath.Join(dir, "sheet.csv")
	require.NoError(t, os.WriteFile(sheetPath, []byte(sheet), 0o644))
	presetPath = filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(presetPath, []byte("status:\n  - ongoing\n"), 0o644))
	return sheetPath, presetPath
}

func TestRunReportJSON(t *testing.T) {
	sheetPath, presetPath := writeFixtures(t)

	var out bytes.Buffer
	require.NoError(t, run("report", []string{"-source", sheetPath, "-filters", presetPath, "-json"}, &out))

	var report model.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.MatchedRows)
	require.Len(t, report.Projects, 1)
	assert.Equal(t, "1", report.Projects[0].ID)
	assert.Equal(t, []string{"ongoing"}, report.Filters.Values(model.DimStatus))
}

func TestRunReportText(t *testing.T) {
	sheetPath, _ := writeFixtures(t)

	var out bytes.Buffer
	require.NoError(t, run("report", []string{"-source", sheetPath}, &out))

	text := out.String()
	assert.Contains(t, text, "Rows")
	assert.Contains(t, text, "3 of 3")
	assert.Contains(t, text, "coordinator")
	assert.Contains(t, text, "Without keywords")
}

func TestRunOptions(t *testing.T) {
	sheetPath, _ := writeFixtures(t)

	var out bytes.Buffer
	require.NoError(t, run("options", []string{"-source", sheetPath, "-json"}, &out))

	var options []model.FilterOption
	require.NoError(t, json.Unmarshal(out.Bytes(), &options))
	require.NotEmpty(t, options)
	assert.Equal(t, model.DimStatus, options[0].Dimension)
	assert.Equal(t, []string{"closed", "ongoing"}, options[0].Values)
}

func TestRunExport(t *testing.T) {
	sheetPath, presetPath := writeFixtures(t)
	outDir := t.TempDir()

	require.NoError(t, run("export", []string{"-source", sheetPath, "-filters", presetPath, "-output", outDir}, &bytes.Buffer{}))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	_, err = os.Stat(filepath.Join(outDir, entries[0].Name(), "cordis_filtered.csv"))
	assert.NoError(t, err)
}

func TestRunErrors(t *testing.T) {
	sheetPath, _ := writeFixtures(t)

	assert.Error(t, run("frobnicate", nil, &bytes.Buffer{}))
	assert.ErrorIs(t, run("report", []string{"-name", "nope"}, &bytes.Buffer{}), model.ErrUnknownDataset)
	assert.Error(t, run("report", []string{"-source", sheetPath, "-filters", "/does/not/exist.yaml"}, &bytes.Buffer{}))
}
