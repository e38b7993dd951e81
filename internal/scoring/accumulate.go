package scoring

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoActiveWeight = errors.New("total weight of active questions is zero")

// Weight is an active question and its relative contribution.
type Weight struct {
	Question string
	Value    float64
}

// Row is one submission's final result.
type Row struct {
	ID      string             `json:"id"`
	Name    string             `json:"name,omitempty"`
	Scores  map[string]float64 `json:"scores"` // weighted, rule-adjusted
	Penalty float64            `json:"penalty_coefficient"`
	Total   int                `json:"total"`
}

// Results is the graded table, rows in submission order.
type Results struct {
	Questions []string           `json:"questions"`
	Weights   map[string]float64 `json:"weights"`
	Rows      []Row              `json:"rows"`
}

// Accumulate weights every active question's score, applies staged rule
// adjustments (multiply, then override), sums, applies the penalty and
// normalises by the total active weight. Totals round half to even.
func Accumulate(m *Matrix, weights []Weight, adj Adjustments) (*Results, error) {
	maxVal := 0.0
	res := &Results{Weights: make(map[string]float64, len(weights))}
	for _, w := range weights {
		if _, ok := m.Scores[w.Question]; !ok {
			return nil, fmt.Errorf("no scores for active question %q", w.Question)
		}
		maxVal += w.Value
		res.Questions = append(res.Questions, w.Question)
		res.Weights[w.Question] = w.Value
	}
	if maxVal == 0 {
		return nil, ErrNoActiveWeight
	}

	res.Rows = make([]Row, m.Rows())
	for i, id := range m.IDs {
		row := Row{ID: id, Scores: make(map[string]float64, len(weights)), Penalty: m.Penalty[i]}
		total := 0.0
		for _, w := range weights {
			v := m.Scores[w.Question][i] * w.Value
			if col, ok := adj[w.Question]; ok {
				if mul := col[i].Multiply; mul != nil {
					v *= *mul
				}
				if ov := col[i].Override; ov != nil {
					v = *ov
				}
			}
			row.Scores[w.Question] = v
			total += v
		}
		final := total * row.Penalty / maxVal
		if math.IsNaN(final) || math.IsInf(final, 0) {
			return nil, fmt.Errorf("non-finite total for %q", id)
		}
		row.Total = int(math.RoundToEven(final))
		res.Rows[i] = row
	}
	return res, nil
}
