package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mind-engage/autocheck/internal/app"
	"github.com/mind-engage/autocheck/internal/config"
	"github.com/mind-engage/autocheck/internal/ctxlog"
	"github.com/mind-engage/autocheck/internal/loader"
	"github.com/mind-engage/autocheck/internal/report"
)

// exitError carries a specific exit code.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if e, ok := err.(*exitError); ok {
			os.Exit(e.code)
		}
		os.Exit(1)
	}
}

type options struct {
	config      string
	submissions string
	out         string
	short       bool
	roster      string
	merge       string
	workers     int
	logLevel    string
	logFormat   string
}

func parseFlags(args []string, output io.Writer) (*options, bool, error) {
	fs := flag.NewFlagSet("autocheck", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
autocheck - grade a batch of submissions against an answer key.

Usage:
  autocheck -config grading.yml -submissions answers.xlsx [options]

Options:
`)
		fs.PrintDefaults()
	}
	o := &options{}
	fs.StringVar(&o.config, "config", "", "Path to the YAML grading configuration.")
	fs.StringVar(&o.submissions, "submissions", "", "Path to the submissions table (.csv or .xlsx).")
	fs.StringVar(&o.out, "out", "", "Write results to this path; .xlsx writes a workbook, anything else CSV.")
	fs.BoolVar(&o.short, "short", false, "Export only id, name and total.")
	fs.StringVar(&o.roster, "roster", "", "Roster table (.csv or .xlsx) to merge results into, keyed by the id column.")
	fs.StringVar(&o.merge, "merge", report.MergeOuter, "Roster merge mode: outer or inner.")
	fs.IntVar(&o.workers, "workers", 0, "Concurrent checks; 0 uses WORKERS.")
	fs.StringVar(&o.logLevel, "log-level", "", "Logging level: debug, info, warn, error; empty uses LOG_LEVEL.")
	fs.StringVar(&o.logFormat, "log-format", "", "Log output format: text or json; empty uses LOG_FORMAT.")

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &exitError{code: 2, msg: err.Error()}
	}
	if o.config == "" || o.submissions == "" {
		fs.Usage()
		return nil, false, &exitError{code: 2, msg: "-config and -submissions are required"}
	}
	if o.merge != report.MergeOuter && o.merge != report.MergeInner {
		return nil, false, &exitError{code: 2, msg: fmt.Sprintf("-merge must be outer or inner, got %q", o.merge)}
	}
	return o, false, nil
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	o, exit, err := parseFlags(args, stderr)
	if err != nil || exit {
		return err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = strings.ToLower(o.logLevel)
	}
	if o.logFormat != "" {
		cfg.LogFormat = strings.ToLower(o.logFormat)
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, stderr)
	slog.SetDefault(logger)
	ctx = ctxlog.WithLogger(ctx, logger)

	engine, err := app.NewEngine(cfg)
	if err != nil {
		return err
	}

	cf, err := os.Open(o.config)
	if err != nil {
		return err
	}
	defer cf.Close()
	gradingCfg, err := loader.LoadConfig(cf)
	if err != nil {
		return err
	}
	table, err := loader.ReadTable(o.submissions)
	if err != nil {
		return fmt.Errorf("submissions: %w", err)
	}

	res, err := loader.GradeTable(ctx, gradingCfg, table, engine.Checker, engine.Options...)
	if err != nil {
		return fmt.Errorf("grading: %w", err)
	}
	logger.Info("graded", "submissions", len(res.Rows), "questions", len(res.Questions))

	if err := report.Render(stdout, res); err != nil {
		return err
	}
	if o.out == "" {
		return nil
	}
	sheet := report.Results(res, o.short)
	if o.roster != "" {
		rt, err := loader.ReadTable(o.roster)
		if err != nil {
			return fmt.Errorf("roster: %w", err)
		}
		roster := report.Sheet{Header: rt.Header, Rows: rt.Rows}
		if sheet, err = report.Merge(roster, gradingCfg.SystemInfo.ID, res, o.short, o.merge); err != nil {
			return err
		}
	}
	return writeSheet(o.out, sheet)
}

func writeSheet(path string, sheet report.Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	write := sheet.WriteCSV
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		write = sheet.WriteXLSX
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
