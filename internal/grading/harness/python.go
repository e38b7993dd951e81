// Package harness runs generated Python unittest files in a subprocess.
package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"github.com/mind-engage/autocheck/internal/ctxlog"
	"github.com/mind-engage/autocheck/internal/grading"
)

// maxDistinctInstalls caps how many different missing modules one run may
// install.
const maxDistinctInstalls = 8

// Runner executes a test file and installs packages. It is the only part of
// the harness that spawns processes.
type Runner interface {
	Run(ctx context.Context, testFile string) (stdout, stderr string, err error)
	Install(ctx context.Context, pkg string) error
}

// Python implements grading.CodeHarness on top of a Runner.
type Python struct {
	Runner Runner
}

// New returns a harness that runs tests with the given interpreter.
func New(pythonBin string) *Python {
	return &Python{Runner: &ExecRunner{Bin: pythonBin}}
}

var missingModuleRe = regexp.MustCompile(`ModuleNotFoundError: No module named '([^']+)'`)

// RunTests runs testFile, installing missing modules between attempts. The
// attempt budget is spent on the first missing module and whenever the same
// module is reported again, so a module that will not install ends the loop.
func (p *Python) RunTests(ctx context.Context, testFile string, opts grading.HarnessOptions) (grading.TestReport, error) {
	log := ctxlog.FromContext(ctx).With("test_file", testFile)
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		output  string
		lastErr error
		missing string
		tried   = map[string]bool{}
	)
	for attempts > 0 {
		runCtx := ctx
		var cancel context.CancelFunc
		if opts.Timeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}
		stdout, stderr, err := p.Runner.Run(runCtx, testFile)
		timedOut := runCtx.Err() != nil
		if cancel != nil {
			cancel()
		}
		output = stdout + stderr
		lastErr = err
		if timedOut {
			return grading.TestReport{Output: output}, fmt.Errorf("tests timed out after %s", opts.Timeout)
		}

		m := missingModuleRe.FindStringSubmatch(output)
		if m == nil {
			break
		}
		if missing == "" || m[1] == missing {
			attempts--
		}
		missing = m[1]
		if !tried[missing] && len(tried) >= maxDistinctInstalls {
			log.Warn("too many missing modules, giving up", "module", missing)
			break
		}
		tried[missing] = true
		if attempts == 0 {
			break
		}
		log.Info("installing missing module", "module", missing)
		if err := p.Runner.Install(ctx, missing); err != nil {
			log.Warn("module install failed", "module", missing, "err", err)
		}
	}

	report := ParseOutput(output)
	if report.Run == 0 && lastErr != nil {
		return report, lastErr
	}
	return report, nil
}

var (
	ranRe    = regexp.MustCompile(`Ran (\d+) tests?`)
	failedRe = regexp.MustCompile(`FAILED \(([^)]*)\)`)
	countRe  = regexp.MustCompile(`(failures|errors)=(\d+)`)
)

// ParseOutput extracts unittest's "Ran N tests" and "FAILED (failures=a,
// errors=b)" summary lines. Missing lines count as zero.
func ParseOutput(output string) grading.TestReport {
	r := grading.TestReport{Output: output}
	if m := ranRe.FindStringSubmatch(output); m != nil {
		r.Run, _ = strconv.Atoi(m[1])
	}
	if m := failedRe.FindStringSubmatch(output); m != nil {
		for _, c := range countRe.FindAllStringSubmatch(m[1], -1) {
			n, _ := strconv.Atoi(c[2])
			r.Failed += n
		}
	}
	return r
}

// ExecRunner runs the Python interpreter found at Bin.
type ExecRunner struct {
	Bin            string
	InstallTimeout time.Duration
}

func (e *ExecRunner) bin() (string, error) {
	bin := e.Bin
	if bin == "" {
		bin = "python3"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", bin)
	}
	return path, nil
}

// waitDelay bounds how long Wait keeps draining output after the process
// group was killed; grandchildren holding the pipes are not waited for.
const waitDelay = time.Second

// command starts name in its own process group so cancelling ctx kills the
// interpreter together with anything the tests spawned.
func command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)
	return cmd
}

func (e *ExecRunner) Run(ctx context.Context, testFile string) (string, string, error) {
	bin, err := e.bin()
	if err != nil {
		return "", "", err
	}
	cmd := command(ctx, bin, testFile)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	err = cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// failing tests exit non-zero; the output still carries the counts
		err = nil
	}
	return out.String(), stderr.String(), err
}

func (e *ExecRunner) Install(ctx context.Context, pkg string) error {
	bin, err := e.bin()
	if err != nil {
		return err
	}
	timeout := e.InstallTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := command(ctx, bin, "-m", "pip", "install", pkg)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return errors.New(stderr.String())
	}
	return nil
}
