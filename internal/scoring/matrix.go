package scoring

import (
	"fmt"
	"slices"

	"github.com/mind-engage/autocheck/internal/grading"
)

// Matrix holds per-question scores for every submission row, in row order.
type Matrix struct {
	IDs       []string
	Questions []string
	Scores    map[string][]float64
	Penalty   []float64
}

// NewMatrix returns an empty matrix with one zeroed column per question and a
// neutral penalty for every row.
func NewMatrix(ids, questions []string) *Matrix {
	m := &Matrix{
		IDs:       slices.Clone(ids),
		Questions: slices.Clone(questions),
		Scores:    make(map[string][]float64, len(questions)),
		Penalty:   make([]float64, len(ids)),
	}
	for _, q := range questions {
		m.Scores[q] = make([]float64, len(ids))
	}
	for i := range m.Penalty {
		m.Penalty[i] = 1
	}
	return m
}

// Rows returns the number of submission rows.
func (m *Matrix) Rows() int { return len(m.IDs) }

// Set writes one cell.
func (m *Matrix) Set(question string, row int, v float64) error {
	col, ok := m.Scores[question]
	if !ok {
		return fmt.Errorf("unknown question column %q", question)
	}
	if row < 0 || row >= len(col) {
		return fmt.Errorf("row %d out of range", row)
	}
	col[row] = v
	return nil
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{
		IDs:       slices.Clone(m.IDs),
		Questions: slices.Clone(m.Questions),
		Scores:    make(map[string][]float64, len(m.Scores)),
		Penalty:   slices.Clone(m.Penalty),
	}
	for q, col := range m.Scores {
		c.Scores[q] = slices.Clone(col)
	}
	return c
}

// JoinPenalty sets each row's coefficient from coefs by submission id. Ids
// absent from the matrix are dropped; rows absent from coefs keep their
// current coefficient. It returns the ids of rows that had no coefficient.
func (m *Matrix) JoinPenalty(coefs map[string]float64) []string {
	var missing []string
	for i, id := range m.IDs {
		c, ok := coefs[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		m.Penalty[i] = c
	}
	return missing
}

// MinMaxScale rescales question's column linearly onto [low, high] and rounds
// it to the finest magnitude precision found in the result. A constant column
// maps to low.
func (m *Matrix) MinMaxScale(question string, low, high float64) {
	col, ok := m.Scores[question]
	if !ok || len(col) == 0 {
		return
	}
	lo, hi := slices.Min(col), slices.Max(col)
	span := hi - lo
	places := 0
	for i, v := range col {
		scaled := low
		if span != 0 {
			scaled = (v-lo)/span*(high-low) + low
		}
		col[i] = scaled
		places = max(places, grading.Decimals(scaled))
	}
	for i, v := range col {
		col[i] = grading.RoundTo(v, places)
	}
}
