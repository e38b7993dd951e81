package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// absTolerance is the absolute slack added to the relative tolerance so that
// a zero reference still accepts a zero answer.
const absTolerance = 1e-8

// IsClose reports whether answer is within relTol of reference, relative to
// the reference's magnitude.
func IsClose(answer, reference, relTol float64) bool {
	if math.IsNaN(answer) || math.IsNaN(reference) {
		return false
	}
	if answer == reference {
		return true
	}
	return math.Abs(answer-reference) <= absTolerance+relTol*math.Abs(reference)
}

// ParseNumber parses a whole cell as a float. Surrounding space is ignored;
// units and decimal commas are not.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}
