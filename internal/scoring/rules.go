package scoring

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrMalformedRule = errors.New("malformed rule")

// ConditionKind selects which side of the threshold a rule fires on.
type ConditionKind int

const (
	CondPass ConditionKind = iota + 1 // driver score >= threshold
	CondFail                          // driver score < threshold
)

type Condition struct {
	Kind      ConditionKind
	Threshold float64
}

// Holds reports whether a driver score meets the condition.
func (c Condition) Holds(score float64) bool {
	switch c.Kind {
	case CondPass:
		return score >= c.Threshold
	case CondFail:
		return score < c.Threshold
	}
	return false
}

// ParseCondition parses "pass_<T>" or "fail_<T>". ok is false for anything
// else.
func ParseCondition(tok string) (Condition, bool) {
	kind, value, found := strings.Cut(strings.TrimSpace(tok), "_")
	if !found {
		return Condition{}, false
	}
	t, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Condition{}, false
	}
	switch kind {
	case "pass":
		return Condition{Kind: CondPass, Threshold: t}, true
	case "fail":
		return Condition{Kind: CondFail, Threshold: t}, true
	}
	return Condition{}, false
}

type ActionKind int

const (
	ActReweight ActionKind = iota + 1
	ActSet
)

func (k ActionKind) String() string {
	switch k {
	case ActReweight:
		return "reweight"
	case ActSet:
		return "set"
	}
	return fmt.Sprintf("action(%d)", int(k))
}

// Target selects the questions an action adjusts: every question, or one.
type Target struct {
	All      bool
	Question string
}

func (t Target) matches(q string) bool { return t.All || t.Question == q }

type Action struct {
	Kind   ActionKind
	Target Target
	Value  float64
}

var questionIDRe = regexp.MustCompile(`^q\d+$`)

// ParseAction parses "{all|q<N>}_{reweight|set}_<V>". A missing or
// non-numeric value becomes the neutral one: 1 for reweight, 0 for set.
func ParseAction(tok string) (Action, error) {
	parts := strings.SplitN(strings.TrimSpace(tok), "_", 3)
	if len(parts) < 2 {
		return Action{}, fmt.Errorf("%w: action %q", ErrMalformedRule, tok)
	}
	var a Action
	switch {
	case parts[0] == "all":
		a.Target = Target{All: true}
	case questionIDRe.MatchString(parts[0]):
		a.Target = Target{Question: parts[0]}
	default:
		return Action{}, fmt.Errorf("%w: target %q in %q", ErrMalformedRule, parts[0], tok)
	}
	switch parts[1] {
	case "reweight":
		a.Kind, a.Value = ActReweight, 1
	case "set":
		a.Kind, a.Value = ActSet, 0
	default:
		return Action{}, fmt.Errorf("%w: action kind %q in %q", ErrMalformedRule, parts[1], tok)
	}
	if len(parts) == 3 {
		if v, err := strconv.ParseFloat(parts[2], 64); err == nil {
			a.Value = v
		}
	}
	return a, nil
}

// Rule adjusts target questions for the rows where the driver question meets
// the condition.
type Rule struct {
	Driver    string
	Condition Condition
	// Inert is set when the condition token was not understood; the rule
	// then does nothing.
	Inert   bool
	Actions []Action
}

// ParseRule builds a rule from its config form: tokens[0] is the condition,
// the rest are actions.
func ParseRule(driver string, tokens []string) (Rule, error) {
	if !questionIDRe.MatchString(driver) {
		return Rule{}, fmt.Errorf("%w: driver %q", ErrMalformedRule, driver)
	}
	if len(tokens) == 0 {
		return Rule{}, fmt.Errorf("%w: %s has no condition", ErrMalformedRule, driver)
	}
	r := Rule{Driver: driver}
	cond, ok := ParseCondition(tokens[0])
	r.Condition, r.Inert = cond, !ok
	for _, tok := range tokens[1:] {
		a, err := ParseAction(tok)
		if err != nil {
			return Rule{}, fmt.Errorf("rule on %s: %w", driver, err)
		}
		r.Actions = append(r.Actions, a)
	}
	return r, nil
}

// Adjustment is the staged rule effect on one cell. Multiply scales the
// weighted score; Override replaces it and wins over Multiply.
type Adjustment struct {
	Multiply *float64
	Override *float64
}

// Adjustments maps a question to its per-row staged effects.
type Adjustments map[string][]Adjustment

func (a Adjustments) column(q string, rows int) []Adjustment {
	col, ok := a[q]
	if !ok {
		col = make([]Adjustment, rows)
		a[q] = col
	}
	return col
}

// ApplyRules evaluates rules in order against the raw scores in m. Rules whose
// driver is inactive are skipped, and targets must be active and differ from
// the driver. Each action rewrites the whole staged column of its kind for a
// target, so when several rules touch the same question the last one wins.
func ApplyRules(m *Matrix, rules []Rule, active func(q string) bool) Adjustments {
	adj := Adjustments{}
	for _, r := range rules {
		if r.Inert || !active(r.Driver) {
			continue
		}
		driver, ok := m.Scores[r.Driver]
		if !ok {
			continue
		}
		mask := make([]bool, len(driver))
		for i, s := range driver {
			mask[i] = r.Condition.Holds(s)
		}
		for _, a := range r.Actions {
			for _, q := range m.Questions {
				if q == r.Driver || !a.Target.matches(q) || !active(q) {
					continue
				}
				col := adj.column(q, m.Rows())
				for i := range col {
					var v *float64
					if mask[i] {
						val := a.Value
						v = &val
					}
					switch a.Kind {
					case ActReweight:
						col[i].Multiply = v
					case ActSet:
						col[i].Override = v
					}
				}
			}
		}
	}
	return adj
}
