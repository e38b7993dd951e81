package grading

import (
	"context"
	"log/slog"
	"time"

	"github.com/mind-engage/autocheck/internal/ctxlog"
)

// Files resolves an answer or reference value to a local file. src is either a
// URL to download or a local path; name is the cache key for downloads.
type Files interface {
	Load(ctx context.Context, src, name, ext string, force bool) (path string, data []byte, err error)
}

// TestReport is what a harness run yields.
type TestReport struct {
	Run    int
	Failed int
	Output string
}

// Passed returns the number of tests that did not fail.
func (r TestReport) Passed() int {
	if r.Failed > r.Run {
		return 0
	}
	return r.Run - r.Failed
}

// HarnessOptions bound one harness run.
type HarnessOptions struct {
	Attempts int
	Timeout  time.Duration
}

// CodeHarness executes a prepared test file and reports test counts.
type CodeHarness interface {
	RunTests(ctx context.Context, testFile string, opts HarnessOptions) (TestReport, error)
}

// Input is one cell to check.
type Input struct {
	Answer  string
	Correct string
	Params  Params
	// Filename names downloaded answer files, e.g. "q3_jdoe".
	Filename string
}

// Checker runs chains against answers.
type Checker struct {
	files   Files
	harness CodeHarness
}

type Option func(*Checker)

func WithFiles(f Files) Option         { return func(c *Checker) { c.files = f } }
func WithHarness(h CodeHarness) Option { return func(c *Checker) { c.harness = h } }

// NewChecker returns a Checker. Without files or a harness, code and data
// operations degrade to leaving the result unchanged.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run executes chain left to right on a running result that starts at 0.
// Per-operation failures are logged and never abort the chain.
func (c *Checker) Run(ctx context.Context, chain Chain, in Input) float64 {
	ev := &evaluation{
		checker: c,
		in:      in,
		log:     ctxlog.FromContext(ctx).With("file", in.Filename),
	}
	for _, op := range chain.Ops {
		if err := ctx.Err(); err != nil {
			ev.log.Warn("check cancelled", "op", op.Kind.String(), "err", err)
			break
		}
		ev.apply(ctx, op)
	}
	return ev.result
}

type evaluation struct {
	checker *Checker
	in      Input
	result  float64
	log     *slog.Logger
}

func (e *evaluation) apply(ctx context.Context, op Op) {
	switch op.Kind {
	case OpSoft:
		e.result = WRatio(e.in.Correct, e.in.Answer)
	case OpHard:
		e.result = 0
		if EqualFold(e.in.Correct, e.in.Answer) {
			e.result = 100
		}
	case OpThreshLow:
		if e.result < op.arg(0, 50) {
			e.result = e.in.Params.ThreshLowVal
		}
	case OpThreshHigh:
		if e.result >= op.arg(0, 50) {
			e.result = e.in.Params.ThreshHighVal
		}
	case OpNormalize:
		coef := op.arg(0, 100)
		if coef == 0 {
			e.log.Warn("normalize by zero skipped")
			return
		}
		e.result /= coef
	case OpReweight:
		e.result *= op.arg(0, 1)
	case OpNum:
		e.num(op.arg(0, 0.02))
	case OpCode:
		e.code(ctx)
	case OpData:
		e.data(ctx)
	default:
		e.log.Error("unhandled check operation", "op", op.Kind.String())
	}
}

func (e *evaluation) num(tol float64) {
	answer, err := ParseNumber(e.in.Answer)
	if err != nil {
		e.log.Warn("num check skipped", "err", err)
		return
	}
	correct, err := ParseNumber(e.in.Correct)
	if err != nil {
		e.log.Warn("num check skipped: reference", "err", err)
		return
	}
	e.result = 0
	if IsClose(answer, correct, tol) {
		e.result = 1
	}
}
