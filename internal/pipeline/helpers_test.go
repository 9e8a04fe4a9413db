package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cordis-pipeline/internal/model"

	"github.com/stretchr/testify/require"
)

// rawTable builds a table from a header row and positional rows.
func rawTable(headers []string, rows ...[]string) *model.RawTable {
	table := &model.RawTable{Source: "test", Headers: headers}
	for _, r := range rows {
		rec := make(model.RawRecord, len(headers))
		for i, h := range headers {
			if i < len(r) {
				rec[h] = r[i]
			}
		}
		table.Rows = append(table.Rows, rec)
	}
	return table
}

var scenarioHeaders = []string{"id", "role", "status", "ecmaxcontribution", "startdate"}

// scenario is the three-row participation sheet used across tests.
func scenario() *model.Dataset {
	ds, _ := Normalize(rawTable(scenarioHeaders,
		[]string{"1", "coordinator", "ongoing", "100,00", "2020-01-01"},
		[]string{"1", "partner", "ongoing", "100,00", "2020-01-01"},
		[]string{"2", "coordinator", "closed", "50,00", "2021-06-15"},
	))
	return ds
}

func filterSet(t *testing.T, accepted map[model.Dimension][]string) model.FilterSet {
	t.Helper()
	fs, err := model.NewFilterSet(accepted)
	require.NoError(t, err)
	return fs
}

func writeCSV(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}
