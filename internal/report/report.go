// Package report renders graded results for people and spreadsheets.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/mind-engage/autocheck/internal/scoring"
)

const (
	PenaltyHeader = "Penalty coefficient"
	TotalHeader   = "Total (%)"
)

// QuestionHeader labels a question column with its weight in percent,
// e.g. "q2 (25)".
func QuestionHeader(q string, weight float64) string {
	return fmt.Sprintf("%s (%d)", q, int(weight*100))
}

// Header returns the column names of the full table.
func Header(res *scoring.Results) []string {
	h := []string{"id", "name"}
	for _, q := range res.Questions {
		h = append(h, QuestionHeader(q, res.Weights[q]))
	}
	return append(h, PenaltyHeader, TotalHeader)
}

func record(res *scoring.Results, row scoring.Row) []string {
	rec := []string{row.ID, row.Name}
	for _, q := range res.Questions {
		rec = append(rec, formatFloat(row.Scores[q]))
	}
	return append(rec, formatFloat(row.Penalty), strconv.Itoa(row.Total))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Render prints res as a table.
func Render(w io.Writer, res *scoring.Results) error {
	header := Header(res)
	align := make([]tw.Align, len(header))
	for i := range align {
		align[i] = tw.AlignRight
	}
	align[0], align[1] = tw.AlignLeft, tw.AlignLeft

	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{PerColumn: align},
		},
	}))
	table.Header(toAny(header)...)
	for _, row := range res.Rows {
		if err := table.Append(toAny(record(res, row))...); err != nil {
			return err
		}
	}
	return table.Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// WriteCSV exports res. The short form keeps only id, name and total.
func WriteCSV(w io.Writer, res *scoring.Results, short bool) error {
	return Results(res, short).WriteCSV(w)
}
