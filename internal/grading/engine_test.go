package grading

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFiles serves answers from memory and materialises them under dir.
type fakeFiles struct {
	dir   string
	files map[string]string // src -> content
	mu    sync.Mutex
	calls []string
}

func (f *fakeFiles) Load(_ context.Context, src, name, ext string, _ bool) (string, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	content, ok := f.files[src]
	if !ok {
		return "", nil, errors.New("download failed")
	}
	path := filepath.Join(f.dir, name+"."+ext)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", nil, err
	}
	return path, []byte(content), nil
}

type fakeHarness struct {
	report   TestReport
	err      error
	testFile string
	content  string
	opts     HarnessOptions
}

func (h *fakeHarness) RunTests(_ context.Context, testFile string, opts HarnessOptions) (TestReport, error) {
	h.testFile, h.opts = testFile, opts
	b, _ := os.ReadFile(testFile)
	h.content = string(b)
	return h.report, h.err
}

func run(t *testing.T, c *Checker, desc string, in Input) float64 {
	t.Helper()
	chain, err := ParseChain(desc)
	require.NoError(t, err)
	if in.Params.ThreshHighVal == 0 && in.Params.CodeNames == nil {
		in.Params = DefaultParams()
	}
	return c.Run(context.Background(), chain, in)
}

func TestRunHard(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, 100.0, run(t, c, "hard", Input{Answer: "paris", Correct: "Paris"}))
	assert.Equal(t, 0.0, run(t, c, "hard", Input{Answer: "London", Correct: "Paris"}))
	assert.Equal(t, 100.0, run(t, c, "hard", Input{Answer: "", Correct: ""}))
}

func TestRunSoft(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, 83.0, run(t, c, "soft", Input{Answer: "Moskow", Correct: "Moscow"}))
	assert.Equal(t, 0.0, run(t, c, "soft_threshlow_90", Input{Answer: "Moskow", Correct: "Moscow"}))
	assert.Equal(t, 100.0, run(t, c, "soft_threshhigh_80", Input{Answer: "Moskow", Correct: "Moscow"}))
}

func TestRunThresholdBoundaries(t *testing.T) {
	c := NewChecker()
	in := Input{Answer: "x", Correct: "x"}
	// hard then halve gives a prior result of exactly 50
	assert.Equal(t, 50.0, run(t, c, "hard_normalize_2_threshlow_50", in))
	assert.Equal(t, 0.0, run(t, c, "hard_normalize_2_threshlow_51", in))
	assert.Equal(t, 100.0, run(t, c, "hard_normalize_2_threshhigh_50", in))
	assert.Equal(t, 50.0, run(t, c, "hard_normalize_2_threshhigh_51", in))

	p := DefaultParams()
	p.ThreshLowVal = 10
	in.Params = p
	assert.Equal(t, 10.0, run(t, c, "hard_normalize_2_threshlow_51", in))
}

func TestRunDefaultsArguments(t *testing.T) {
	c := NewChecker()
	in := Input{Answer: "x", Correct: "x"}
	assert.Equal(t, 1.0, run(t, c, "hard_normalize", in))
	assert.Equal(t, 100.0, run(t, c, "hard_reweight", in))
	assert.Equal(t, 50.0, run(t, c, "hard_reweight_0.5", in))
	assert.Equal(t, 100.0, run(t, c, "hard_normalize_0", in))
	assert.Equal(t, 100.0, run(t, c, "hard_threshlow", in))
}

func TestRunNum(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, 1.0, run(t, c, "num", Input{Answer: "9.9", Correct: "10.0"}))
	assert.Equal(t, 0.0, run(t, c, "num", Input{Answer: "8.0", Correct: "10.0"}))
	assert.Equal(t, 1.0, run(t, c, "num_0.25", Input{Answer: "8.0", Correct: "10.0"}))
	// non-numeric leaves the running result alone
	assert.Equal(t, 100.0, run(t, c, "hard_num", Input{Answer: "abc", Correct: "abc"}))
	assert.Equal(t, 0.0, run(t, c, "num", Input{Answer: "10", Correct: "ten"}))
	assert.Equal(t, 0.0, run(t, c, "num", Input{Answer: "10 cm", Correct: "10"}))
	assert.Equal(t, 0.0, run(t, c, "num", Input{Answer: "9,9", Correct: "10"}))
}

func TestRunHardOnlyChainsAreBinary(t *testing.T) {
	c := NewChecker()
	answers := []string{"cat", "Cat", "CAT ", "dog", "", "c a t"}
	for _, a := range answers {
		got := run(t, c, "hard", Input{Answer: a, Correct: "cat"})
		assert.Contains(t, []float64{0, 100}, got, a)
	}
}

func TestRunCancelledContext(t *testing.T) {
	c := NewChecker()
	chain, err := ParseChain("hard")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0.0, c.Run(ctx, chain, Input{Answer: "a", Correct: "a", Params: DefaultParams()}))
}

func TestRunWithoutCapabilitiesDegrades(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, 100.0, run(t, c, "hard_code", Input{Answer: "a", Correct: "a"}))
	assert.Equal(t, 100.0, run(t, c, "hard_data", Input{Answer: "a", Correct: "a"}))
}
