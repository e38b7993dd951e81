package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccumulateSingleQuestion(t *testing.T) {
	m := NewMatrix([]string{"a", "b", "c"}, []string{"q1"})
	m.Scores["q1"] = []float64{100, 62.5, 63.5}

	res, err := Accumulate(m, []Weight{{"q1", 1}}, nil)
	require.NoError(t, err)
	var totals []int
	for _, r := range res.Rows {
		totals = append(totals, r.Total)
	}
	assert.Equal(t, []int{100, 62, 64}, totals)
	assert.Equal(t, []string{"q1"}, res.Questions)
}

func TestAccumulateWeightsAndPenalty(t *testing.T) {
	m := NewMatrix([]string{"a"}, []string{"q1", "q2"})
	m.Scores["q1"] = []float64{100}
	m.Scores["q2"] = []float64{50}
	m.Penalty[0] = 0.5

	res, err := Accumulate(m, []Weight{{"q1", 3}, {"q2", 1}}, nil)
	require.NoError(t, err)
	row := res.Rows[0]
	assert.Equal(t, map[string]float64{"q1": 300, "q2": 50}, row.Scores)
	// (300 + 50) * 0.5 / 4 = 43.75
	assert.Equal(t, 44, row.Total)
}

func TestAccumulateOverrideWinsOverMultiply(t *testing.T) {
	m := NewMatrix([]string{"a", "b"}, []string{"q1", "q2"})
	m.Scores["q1"] = []float64{40, 80}
	m.Scores["q2"] = []float64{100, 100}

	adj := ApplyRules(m, []Rule{
		mustRule(t, "q1", "fail_50", "q2_reweight_0.5"),
		mustRule(t, "q1", "fail_50", "q2_set_0"),
	}, allActive)
	res, err := Accumulate(m, []Weight{{"q1", 1}, {"q2", 1}}, adj)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Rows[0].Scores["q2"])
	assert.Equal(t, 20, res.Rows[0].Total)
	assert.Equal(t, 100.0, res.Rows[1].Scores["q2"])
	assert.Equal(t, 90, res.Rows[1].Total)
}

func TestAccumulateErrors(t *testing.T) {
	m := NewMatrix([]string{"a"}, []string{"q1"})

	_, err := Accumulate(m, []Weight{{"q1", 0}}, nil)
	assert.ErrorIs(t, err, ErrNoActiveWeight)

	_, err = Accumulate(m, []Weight{{"q7", 1}}, nil)
	assert.ErrorContains(t, err, "q7")
}
