package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/autocheck/internal/scoring"
	"github.com/mind-engage/autocheck/internal/session"
)

// Table is a submissions sheet: a header and string cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// LoadSubmissions reads a CSV submissions table with a header row.
func LoadSubmissions(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty submissions table")
		}
		return nil, err
	}
	t := &Table{Header: hdr}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func (t *Table) index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// QuestionColumns returns the header columns that are not excluded by the
// non-questions_columns patterns, in order. A pattern matches anywhere in the
// column name and "*" stands for any run of characters.
func QuestionColumns(header, patterns []string) []string {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(strings.ReplaceAll(p, "*", ".*"))
		if err != nil {
			re = regexp.MustCompile(regexp.QuoteMeta(p))
		}
		res = append(res, re)
	}
	var out []string
next:
	for _, h := range header {
		for _, re := range res {
			if re.MatchString(h) {
				continue next
			}
		}
		out = append(out, h)
	}
	return out
}

// Build turns a configuration and a submissions table into session inputs.
// The n-th question column becomes question "q<n>".
func Build(cfg *Config, t *Table) ([]session.QuestionSpec, session.Settings, []session.Submission, error) {
	si := cfg.SystemInfo
	idCol := t.index(si.ID)
	if idCol < 0 {
		return nil, session.Settings{}, nil, fmt.Errorf("id column %q not in submissions", si.ID)
	}
	nameCol, timeCol := -1, -1
	if si.Name != "" {
		nameCol = t.index(si.Name)
	}
	if si.Time != "" {
		if timeCol = t.index(si.Time); timeCol < 0 {
			return nil, session.Settings{}, nil, fmt.Errorf("time column %q not in submissions", si.Time)
		}
	}

	cols := QuestionColumns(t.Header, si.NonQuestionColumns)
	questions := make([]session.QuestionSpec, len(cols))
	colIdx := make([]int, len(cols))
	for i, col := range cols {
		qid := "q" + strconv.Itoa(i+1)
		qc := cfg.Questions[qid]
		questions[i] = session.QuestionSpec{
			ID:        qid,
			Text:      col,
			Active:    qc.Check,
			CheckType: qc.CheckType,
			Correct:   qc.Answer,
			Weight:    qc.Weight,
			Metadata:  qc.Metadata,
		}
		colIdx[i] = t.index(col)
	}

	subs := make([]session.Submission, 0, len(t.Rows))
	for n, rec := range t.Rows {
		sub := session.Submission{
			ID:      cell(rec, idCol),
			Name:    cell(rec, nameCol),
			Answers: make(map[string]string, len(cols)),
		}
		if raw := strings.TrimSpace(cell(rec, timeCol)); raw != "" {
			ts, err := time.ParseInLocation(scoring.TimeLayout, raw, time.UTC)
			if err != nil {
				return nil, session.Settings{}, nil, fmt.Errorf("row %d: time %q: %w", n+2, raw, err)
			}
			sub.Time = ts
		}
		for i, q := range questions {
			sub.Answers[q.ID] = cell(rec, colIdx[i])
		}
		subs = append(subs, sub)
	}

	settings := session.Settings{
		TakeFirstSubmission: si.TakeFirstSubmission,
		Penalty:             cfg.Penalty(),
		Rules:               si.EvalFormula,
		Global:              si.Params,
	}
	return questions, settings, subs, nil
}
