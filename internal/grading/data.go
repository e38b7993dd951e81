package grading

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// table is a parsed CSV file with a header row.
type table struct {
	header []string
	cols   map[string][]string
}

func parseTable(data []byte) (*table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	t := &table{header: recs[0], cols: make(map[string][]string, len(recs[0]))}
	for i, h := range t.header {
		col := make([]string, 0, len(recs)-1)
		for _, rec := range recs[1:] {
			if i < len(rec) {
				col = append(col, rec[i])
			} else {
				col = append(col, "")
			}
		}
		t.cols[h] = col
	}
	return t, nil
}

// column resolves name in the answer table: exact, then lower case, then the
// first column, then zeros of length n.
func (t *table) column(name string, n int) ([]string, string) {
	if c, ok := t.cols[name]; ok {
		return c, "exact"
	}
	if c, ok := t.cols[strings.ToLower(name)]; ok {
		return c, "lowercase"
	}
	if len(t.header) > 0 {
		return t.cols[t.header[0]], "first column"
	}
	zeros := make([]string, n)
	for i := range zeros {
		zeros[i] = "0"
	}
	return zeros, "zeros"
}

func toFloats(col []string) ([]float64, error) {
	out := make([]float64, len(col))
	for i, s := range col {
		v, err := ParseNumber(s)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// data compares tabular answers against the reference table column by column.
func (e *evaluation) data(ctx context.Context) {
	if e.checker.files == nil {
		e.log.Warn("data check unavailable: no file store configured")
		return
	}
	p := e.in.Params
	_, answerRaw, err := e.checker.files.Load(ctx, e.in.Answer, e.in.Filename, p.Extension, p.ForceDownload)
	if err != nil {
		e.log.Warn("data check: answer unavailable", "err", err)
		return
	}
	refRaw, err := e.loadReference(ctx)
	if err != nil {
		e.log.Warn("data check: reference unavailable", "err", err)
		return
	}
	reference, err := parseTable(refRaw)
	if err != nil {
		e.log.Warn("data check: reference unreadable", "err", err)
		return
	}
	answer, err := parseTable(answerRaw)
	if err != nil {
		e.log.Warn("data check: answer unreadable, using zeros", "err", err)
		answer = &table{cols: map[string][]string{}}
	}

	columns := p.Columns
	if len(columns) == 0 {
		columns = reference.header
	}
	var errs []float64
	for i, name := range columns {
		metricName := "neg_mean_squared_error"
		if i < len(p.ErrorFuncs) {
			metricName = p.ErrorFuncs[i]
		}
		refCol, ok := reference.cols[name]
		if !ok {
			e.log.Warn("data check: reference column missing", "column", name)
			continue
		}
		ansCol, how := answer.column(name, len(refCol))
		if how != "exact" {
			e.log.Info("data check: column fallback", "column", name, "using", how)
		}
		v, err := scoreColumn(metricName, ansCol, refCol)
		if err != nil {
			e.log.Warn("data check: column skipped", "column", name, "metric", metricName, "err", err)
			continue
		}
		errs = append(errs, RoundMagnitude(v))
	}
	if len(errs) == 0 {
		e.log.Warn("data check: no comparable columns")
		e.result = 0
		return
	}
	e.result = reduce(p.SumPointsMethod, errs)
}

func (e *evaluation) loadReference(ctx context.Context) ([]byte, error) {
	if isURL(e.in.Correct) {
		_, raw, err := e.checker.files.Load(ctx, e.in.Correct, "reference_"+SanitizeName(e.in.Correct), e.in.Params.Extension, e.in.Params.ForceDownload)
		return raw, err
	}
	return os.ReadFile(e.in.Correct)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// scoreColumn evaluates metric with the answer as y_true and the reference as
// y_pred, truncated to the shorter of the two.
func scoreColumn(metric string, answer, reference []string) (float64, error) {
	fn, ok := metrics[metric]
	if !ok {
		return 0, fmt.Errorf("unknown error function %q", metric)
	}
	n := min(len(answer), len(reference))
	if n == 0 {
		return 0, fmt.Errorf("empty column")
	}
	yTrue, err := toFloats(answer[:n])
	if err != nil {
		return 0, fmt.Errorf("answer: %w", err)
	}
	yPred, err := toFloats(reference[:n])
	if err != nil {
		return 0, fmt.Errorf("reference: %w", err)
	}
	return fn(yTrue, yPred), nil
}

// metrics follow the "greater is better" convention: error metrics are
// negated.
var metrics = map[string]func(yTrue, yPred []float64) float64{
	"neg_mean_squared_error": func(t, p []float64) float64 {
		return -meanSquared(t, p)
	},
	"neg_root_mean_squared_error": func(t, p []float64) float64 {
		return -math.Sqrt(meanSquared(t, p))
	},
	"neg_mean_absolute_error": func(t, p []float64) float64 {
		return -floats.Distance(t, p, 1) / float64(len(t))
	},
	"neg_median_absolute_error": func(t, p []float64) float64 {
		d := residuals(t, p)
		for i := range d {
			d[i] = math.Abs(d[i])
		}
		return -median(d)
	},
	"max_error": func(t, p []float64) float64 {
		return -floats.Distance(t, p, math.Inf(1))
	},
	"r2": func(t, p []float64) float64 {
		d := residuals(t, p)
		_, v := stat.PopMeanVariance(t, nil)
		return 1 - varianceRatio(floats.Dot(d, d), v*float64(len(t)))
	},
	"explained_variance": func(t, p []float64) float64 {
		_, vr := stat.PopMeanVariance(residuals(t, p), nil)
		_, vt := stat.PopMeanVariance(t, nil)
		return 1 - varianceRatio(vr, vt)
	},
}

// varianceRatio mirrors the convention that a constant y_true scores 1 when
// predicted perfectly and 0 otherwise.
func varianceRatio(num, den float64) float64 {
	if den == 0 {
		if num == 0 {
			return 0
		}
		return 1
	}
	return num / den
}

func residuals(t, p []float64) []float64 {
	return floats.SubTo(make([]float64, len(t)), t, p)
}

func meanSquared(t, p []float64) float64 {
	d := residuals(t, p)
	return floats.Dot(d, d) / float64(len(d))
}

// median averages the two middle values of an even-length slice.
// stat.Quantile returns one of the observations instead.
func median(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	s := slices.Clone(a)
	slices.Sort(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

// reduce folds per-column errors; unknown methods fall back to the mean.
func reduce(method string, errs []float64) float64 {
	switch strings.ToLower(method) {
	case "sum":
		return floats.Sum(errs)
	case "median":
		return median(errs)
	case "min":
		return floats.Min(errs)
	case "max":
		return floats.Max(errs)
	default:
		return stat.Mean(errs, nil)
	}
}
