package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mind-engage/autocheck/internal/scoring"
)

// Sheet is a rectangular export: one header and string cells. Columns from
// Numeric onwards hold scores and are written to workbooks as numbers.
type Sheet struct {
	Header  []string
	Rows    [][]string
	Numeric int
}

// Results returns res as a sheet, optionally in the short id/name/total form.
func Results(res *scoring.Results, short bool) Sheet {
	if short {
		s := Sheet{Header: []string{"id", "name", TotalHeader}, Numeric: 2}
		for _, row := range res.Rows {
			s.Rows = append(s.Rows, []string{row.ID, row.Name, strconv.Itoa(row.Total)})
		}
		return s
	}
	s := Sheet{Header: Header(res), Numeric: 2}
	for _, row := range res.Rows {
		s.Rows = append(s.Rows, record(res, row))
	}
	return s
}

// Merge modes.
const (
	MergeOuter = "outer"
	MergeInner = "inner"
)

// NormalizeID is the form ids are matched in: lower case, no spaces.
func NormalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, " ", ""))
}

// Merge joins a roster with graded results on the roster's idColumn. Roster
// columns come first, then the result columns without the id. An inner merge
// keeps roster rows that were graded; an outer merge keeps every roster row
// and appends graded ids missing from the roster.
func Merge(roster Sheet, idColumn string, res *scoring.Results, short bool, how string) (Sheet, error) {
	if how != MergeOuter && how != MergeInner {
		return Sheet{}, fmt.Errorf("unknown merge mode %q", how)
	}
	idx := -1
	for i, h := range roster.Header {
		if h == idColumn {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Sheet{}, fmt.Errorf("id column %q not in roster", idColumn)
	}

	graded := Results(res, short)
	byID := make(map[string][]string, len(graded.Rows))
	for _, rec := range graded.Rows {
		byID[NormalizeID(rec[0])] = rec[1:]
	}
	width := len(roster.Header)
	out := Sheet{
		Header:  append(append([]string{}, roster.Header...), graded.Header[1:]...),
		Numeric: width + graded.Numeric - 1,
	}
	pad := func(rec []string) []string {
		row := make([]string, width, width+len(graded.Header)-1)
		copy(row, rec)
		return row
	}

	used := map[string]bool{}
	for _, rec := range roster.Rows {
		id := ""
		if idx < len(rec) {
			id = NormalizeID(rec[idx])
		}
		scores, ok := byID[id]
		if !ok && how == MergeInner {
			continue
		}
		row := pad(rec)
		if ok {
			used[id] = true
			row = append(row, scores...)
		} else {
			row = append(row, make([]string, len(graded.Header)-1)...)
		}
		out.Rows = append(out.Rows, row)
	}
	if how == MergeOuter {
		for _, rec := range graded.Rows {
			id := NormalizeID(rec[0])
			if used[id] {
				continue
			}
			row := pad(nil)
			row[idx] = rec[0]
			out.Rows = append(out.Rows, append(row, rec[1:]...))
		}
	}
	return out, nil
}

// WriteCSV writes the sheet with its header.
func (s Sheet) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(s.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes the sheet as a single-worksheet workbook.
func (s Sheet) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	const name = "Results"
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return err
	}
	write := func(r int, cells []any) error {
		at, err := excelize.CoordinatesToCellName(1, r)
		if err != nil {
			return err
		}
		return f.SetSheetRow(name, at, &cells)
	}
	header := make([]any, len(s.Header))
	for i, h := range s.Header {
		header[i] = h
	}
	if err := write(1, header); err != nil {
		return err
	}
	for i, rec := range s.Rows {
		cells := make([]any, len(rec))
		for j, v := range rec {
			cells[j] = v
			if j >= s.Numeric && s.Numeric > 0 {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cells[j] = n
				}
			}
		}
		if err := write(i+2, cells); err != nil {
			return err
		}
	}
	return f.Write(w)
}
