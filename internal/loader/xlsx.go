package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadSubmissionsXLSX reads the first worksheet of an Excel workbook. The
// first non-blank row is the header and blank rows are skipped. Rows may be
// shorter than the header since trailing empty cells are not stored.
func LoadSubmissionsXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	var t *Table
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if t == nil {
			t = &Table{Header: row}
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if t == nil {
		return nil, errors.New("empty submissions table")
	}
	return t, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadTable loads a table from path, as a workbook for ".xlsx" and as CSV
// otherwise.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadSubmissionsXLSX(f)
	}
	return LoadSubmissions(f)
}
