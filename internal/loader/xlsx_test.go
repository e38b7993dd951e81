package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		at, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", at, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestLoadSubmissionsXLSX(t *testing.T) {
	buf := workbook(t,
		[]any{"email", "full_name", "submitted_at", "Capital of France?", "6*7"},
		[]any{"ann@x.org", "Ann", "2023-10-01 20:00:00", "paris", "42"},
		[]any{},
		[]any{"bob@x.org", "Bob", "2023-10-02 01:00:00", "Paris"},
	)
	tbl, err := LoadSubmissionsXLSX(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "full_name", "submitted_at", "Capital of France?", "6*7"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "42", cell(tbl.Rows[0], 4))
	assert.Equal(t, "", cell(tbl.Rows[1], 4))

	_, err = LoadSubmissionsXLSX(workbook(t))
	assert.Error(t, err)
	_, err = LoadSubmissionsXLSX(strings.NewReader("not a workbook"))
	assert.Error(t, err)
}

func TestReadTableByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "answers.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))
	xlsxPath := filepath.Join(dir, "answers.XLSX")
	buf := workbook(t, []any{"login", "q"}, []any{"ann", "1"})
	require.NoError(t, os.WriteFile(xlsxPath, buf.Bytes(), 0o644))

	tbl, err := ReadTable(csvPath)
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 3)

	tbl, err = ReadTable(xlsxPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ann", "1"}}, tbl.Rows)

	_, err = ReadTable(filepath.Join(dir, "missing.xlsx"))
	assert.Error(t, err)
}

func TestGradeTableFromWorkbook(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	tbl, err := LoadSubmissions(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	var rows [][]any
	for _, rec := range append([][]string{tbl.Header}, tbl.Rows...) {
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		rows = append(rows, row)
	}
	fromXLSX, err := LoadSubmissionsXLSX(workbook(t, rows...))
	require.NoError(t, err)

	want, err := GradeTable(t.Context(), cfg, tbl, nil)
	require.NoError(t, err)
	got, err := GradeTable(t.Context(), cfg, fromXLSX, nil)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
