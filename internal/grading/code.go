package grading

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// code scores an uploaded Python source by running the reference test file
// against the definitions extracted from it.
func (e *evaluation) code(ctx context.Context) {
	if e.checker.files == nil || e.checker.harness == nil {
		e.log.Warn("code check unavailable: no file store or harness configured")
		return
	}
	p := e.in.Params
	answerPath, source, err := e.checker.files.Load(ctx, e.in.Answer, e.in.Filename, "py", p.ForceDownload)
	if err != nil {
		e.log.Warn("code check: answer unavailable", "err", err)
	}

	reference, err := os.ReadFile(referencePath(e.in.Correct))
	if err != nil {
		e.log.Warn("code check: reference test file unreadable", "err", err)
		return
	}

	testFile := harnessPath(answerPath, e.in.Filename, e.in.Correct)
	content := e.buildHarness(ctx, string(source), string(reference))
	if err := os.WriteFile(testFile, []byte(content), 0o644); err != nil {
		e.log.Warn("code check: write harness", "path", testFile, "err", err)
		return
	}

	report, err := e.checker.harness.RunTests(ctx, testFile, HarnessOptions{
		Attempts: p.ImportAttempts,
		Timeout:  p.CodeTimeout,
	})
	if err != nil {
		e.log.Warn("code check: harness failed, counting zero passed", "err", err)
	}
	if report.Run > 0 {
		e.result = RoundMagnitude(float64(report.Passed()) / float64(report.Run) * 100)
	}
}

// buildHarness splices the requested definitions (and, when enabled, the
// permitted imports) of source in front of the reference tests. An answer
// that is empty or does not parse yields the reference tests alone.
func (e *evaluation) buildHarness(ctx context.Context, source, reference string) string {
	p := e.in.Params
	if strings.TrimSpace(source) == "" {
		return reference
	}
	parsed, err := parsePython(ctx, source)
	if err != nil {
		e.log.Warn("code check: answer does not parse, running reference tests alone", "err", err)
		return reference
	}
	defer parsed.Close()

	var b strings.Builder
	if p.ImportLibs {
		if imports := filteredImportLines(parsed.imports(), p.AllowedLibs, p.DisallowedLibs); len(imports) > 0 {
			b.WriteString(strings.Join(imports, "\n"))
			b.WriteString("\n\n")
		}
	}
	for i, name := range p.CodeNames {
		kind := "function"
		if i < len(p.CodeTypes) {
			kind = p.CodeTypes[i]
		}
		def, ok := parsed.definition(name, kind)
		if !ok {
			e.log.Warn("code check: definition not found", "name", name, "kind", kind)
			continue
		}
		b.WriteString(def)
		b.WriteString("\n\n")
	}
	b.WriteString("\n\n")
	b.WriteString(reference)
	return b.String()
}

// referencePath maps the configured answer of a code question to its test
// file; the ".py" suffix is optional in configuration.
func referencePath(correct string) string {
	if strings.HasSuffix(correct, ".py") {
		return correct
	}
	return correct + ".py"
}

// harnessPath places the generated test file beside the downloaded answer,
// or in the reference's directory when the answer never materialised.
func harnessPath(answerPath, filename, correct string) string {
	if answerPath != "" {
		return strings.TrimSuffix(answerPath, filepath.Ext(answerPath)) + "_test.py"
	}
	return filepath.Join(filepath.Dir(referencePath(correct)), filename+"_test.py")
}
