package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFlags(t *testing.T) {
	var out bytes.Buffer
	o, exit, err := parseFlags([]string{"-config", "c.yml", "-submissions", "s.csv", "-short", "-workers", "3"}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, &options{config: "c.yml", submissions: "s.csv", short: true, workers: 3, merge: "outer"}, o)

	_, exit, err = parseFlags([]string{"-h"}, &out)
	assert.NoError(t, err)
	assert.True(t, exit)

	_, _, err = parseFlags([]string{"-config", "c.yml"}, &out)
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)

	_, _, err = parseFlags([]string{"-config", "c.yml", "-submissions", "s.csv", "-merge", "left"}, &out)
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)
}

const runConfig = `system_info:
  id: login
  name: name
  non-questions_columns: [login, name]
questions:
  q1:
    check: true
    answer: Paris
    check_type: hard
    weight: 1
`

func TestRun(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))

	cfgPath := filepath.Join(dir, "grading.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(runConfig), 0o644))
	subsPath := filepath.Join(dir, "answers.csv")
	require.NoError(t, os.WriteFile(subsPath, []byte("login,name,Capital\nann,Ann,paris\nbob,Bob,Rome\n"), 0o644))
	outPath := filepath.Join(dir, "out.csv")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, []string{
		"-config", cfgPath, "-submissions", subsPath, "-out", outPath, "-short", "-log-level", "error",
	})
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stdout.String(), "Ann")

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "id,name,Total (%)\nann,Ann,100\nbob,Bob,0\n", string(got))
}

func TestRunMissingFile(t *testing.T) {
	t.Setenv("CACHE_DIR", t.TempDir())
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{
		"-config", "does-not-exist.yml", "-submissions", "nope.csv",
	})
	assert.Error(t, err)
}

func TestRunMergesRosterIntoWorkbook(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))
	cfgPath := filepath.Join(dir, "grading.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(runConfig), 0o644))

	subs := excelize.NewFile()
	for i, row := range [][]any{{"login", "name", "Capital"}, {"ann", "Ann", "paris"}, {"bob", "Bob", "Rome"}} {
		require.NoError(t, subs.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &row))
	}
	subsPath := filepath.Join(dir, "answers.xlsx")
	require.NoError(t, subs.SaveAs(subsPath))
	require.NoError(t, subs.Close())

	rosterPath := filepath.Join(dir, "roster.csv")
	require.NoError(t, os.WriteFile(rosterPath, []byte("group,login\nA,Ann\nB,cid\n"), 0o644))
	outPath := filepath.Join(dir, "out.xlsx")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), &stdout, &stderr, []string{
		"-config", cfgPath, "-submissions", subsPath, "-roster", rosterPath, "-merge", "inner",
		"-out", outPath, "-short", "-log-level", "error",
	})
	require.NoError(t, err, stderr.String())

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"group", "login", "name", "Total (%)"},
		{"A", "Ann", "Ann", "100"},
	}, rows)
}
