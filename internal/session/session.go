package session

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"runtime"

	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/scoring"
)

var ErrNoActiveQuestions = errors.New("no active questions")

// QuestionSpec is one question of the answer key.
type QuestionSpec struct {
	ID        string
	Text      string
	Active    bool
	CheckType string
	Correct   string
	Weight    float64
	// Metadata entries override global parameters; later entries win.
	Metadata []map[string]any
}

// RuleSpec is one eval_formula entry: a condition token followed by actions.
type RuleSpec struct {
	Driver string
	Tokens []string
}

// Settings are the session-wide parameters.
type Settings struct {
	TakeFirstSubmission bool
	Penalty             map[string]any
	Rules               []RuleSpec
	// Global parameters every question starts from.
	Global map[string]any
}

type question struct {
	def    QuestionSpec
	chain  grading.Chain
	params grading.Params
}

// Session grades batches of submissions against a fixed answer key. It holds
// no state between Grade calls.
type Session struct {
	checker   *grading.Checker
	questions []question
	penalty   scoring.Penalty
	rules     []scoring.Rule
	takeFirst bool
	workers   int
	defaults  map[string]any
}

type Option func(*Session)

// WithWorkers bounds the number of cells checked concurrently.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithDefaults sets parameters that apply beneath the session's global
// parameters, e.g. process-wide code_timeout.
func WithDefaults(params map[string]any) Option {
	return func(s *Session) { s.defaults = params }
}

// New validates the configuration and resolves per-question parameters.
// Every error it returns is a configuration error naming the bad input.
func New(questions []QuestionSpec, settings Settings, checker *grading.Checker, opts ...Option) (*Session, error) {
	if checker == nil {
		checker = grading.NewChecker()
	}
	s := &Session{checker: checker, workers: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(s)
	}

	global := make(map[string]any, len(s.defaults)+len(settings.Global))
	maps.Copy(global, s.defaults)
	maps.Copy(global, settings.Global)

	seen := map[string]bool{}
	for _, qs := range questions {
		if seen[qs.ID] {
			return nil, fmt.Errorf("duplicate question %q", qs.ID)
		}
		seen[qs.ID] = true
		if qs.Weight < 0 || math.IsNaN(qs.Weight) {
			return nil, fmt.Errorf("question %s: invalid weight %v", qs.ID, qs.Weight)
		}
		chain, err := grading.ParseChain(qs.CheckType)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", qs.ID, err)
		}
		params, err := grading.ResolveParams(global, qs.Metadata)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", qs.ID, err)
		}
		s.questions = append(s.questions, question{def: qs, chain: chain, params: params})
	}

	pen, err := scoring.NewPenalty(settings.Penalty)
	if err != nil {
		return nil, err
	}
	s.penalty = pen

	for _, rs := range settings.Rules {
		r, err := scoring.ParseRule(rs.Driver, rs.Tokens)
		if err != nil {
			return nil, err
		}
		s.rules = append(s.rules, r)
	}
	s.takeFirst = settings.TakeFirstSubmission
	return s, nil
}
