package loader

import (
	"context"
	"io"

	"github.com/mind-engage/autocheck/internal/grading"
	"github.com/mind-engage/autocheck/internal/scoring"
	"github.com/mind-engage/autocheck/internal/session"
)

// Grade loads a YAML configuration and a CSV submissions table and grades
// them in one session.
func Grade(ctx context.Context, config, submissions io.Reader, checker *grading.Checker, opts ...session.Option) (*scoring.Results, error) {
	cfg, err := LoadConfig(config)
	if err != nil {
		return nil, err
	}
	table, err := LoadSubmissions(submissions)
	if err != nil {
		return nil, err
	}
	return GradeTable(ctx, cfg, table, checker, opts...)
}

// GradeTable grades an already loaded submissions table.
func GradeTable(ctx context.Context, cfg *Config, table *Table, checker *grading.Checker, opts ...session.Option) (*scoring.Results, error) {
	questions, settings, subs, err := Build(cfg, table)
	if err != nil {
		return nil, err
	}
	s, err := session.New(questions, settings, checker, opts...)
	if err != nil {
		return nil, err
	}
	return s.Grade(ctx, subs)
}
