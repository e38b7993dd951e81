package scoring

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/mind-engage/autocheck/internal/grading"
)

// TimeLayout is the timestamp format of submissions and deadlines.
const TimeLayout = "2006-01-02 15:04:05"

var ErrUnknownPenalty = errors.New("unknown penalty formula")

// PenaltyFormula names a lateness curve.
type PenaltyFormula string

const (
	PenaltyNone  PenaltyFormula = "none"
	PenaltyExact PenaltyFormula = "exact"
	PenaltyConst PenaltyFormula = "const"
	PenaltySoft  PenaltyFormula = "soft"
)

// Penalty turns a submission time into a multiplicative coefficient.
type Penalty struct {
	Formula  PenaltyFormula
	Deadline time.Time
	StartVal float64
	Power    float64
	// Duration is the soft window in minutes.
	Duration float64
}

// NewPenalty reads penalty_formula (default exact), deadline_time (default
// 2050-01-01 00:00:00), start_val, power and duration from params.
func NewPenalty(params map[string]any) (Penalty, error) {
	p := Penalty{
		Formula:  PenaltyExact,
		Deadline: time.Date(2050, 1, 1, 0, 0, 0, 0, time.UTC),
		StartVal: 1,
		Power:    0.01,
		Duration: 30,
	}
	if v, ok := params["penalty_formula"]; ok && v != nil {
		p.Formula = PenaltyFormula(fmt.Sprint(v))
	}
	switch p.Formula {
	case PenaltyNone, PenaltyExact, PenaltyConst, PenaltySoft:
	default:
		return Penalty{}, fmt.Errorf("%w: %q", ErrUnknownPenalty, p.Formula)
	}
	if v, ok := params["deadline_time"]; ok && v != nil {
		d, err := parseDeadline(v)
		if err != nil {
			return Penalty{}, fmt.Errorf("deadline_time: %w", err)
		}
		p.Deadline = d
	}
	for key, dst := range map[string]*float64{
		"start_val": &p.StartVal,
		"power":     &p.Power,
		"duration":  &p.Duration,
	} {
		v, ok := params[key]
		if !ok || v == nil {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return Penalty{}, fmt.Errorf("%s: %w", key, err)
		}
		*dst = f
	}
	return p, nil
}

func parseDeadline(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.ParseInLocation(TimeLayout, t, time.UTC)
	}
	return time.Time{}, fmt.Errorf("unsupported value %v", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(t, 64)
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

// Coefficient returns the multiplier for a submission made at submitted.
// Submissions strictly before the deadline are on time.
func (p Penalty) Coefficient(submitted time.Time) float64 {
	onTime := submitted.Before(p.Deadline)
	switch p.Formula {
	case PenaltyNone:
		return 1
	case PenaltyExact:
		if onTime {
			return 1
		}
		return 0
	case PenaltyConst:
		if onTime {
			return 1
		}
		return p.StartVal
	case PenaltySoft:
		if onTime {
			return 1
		}
		late := submitted.Sub(p.Deadline).Minutes()
		if late >= p.Duration {
			return 0
		}
		return grading.RoundMagnitude(p.StartVal * math.Exp(-p.Power*late))
	}
	return 1
}
