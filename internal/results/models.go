// Package results persists grading runs.
package results

import (
	"errors"

	"github.com/mind-engage/autocheck/internal/scoring"
)

var ErrNotFound = errors.New("run not found")

// Run is one graded batch together with the configuration that produced it.
type Run struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	CreatedBy  string           `json:"created_by,omitempty"`
	CreatedAt  int64            `json:"created_at"`
	ConfigYAML string           `json:"config_yaml,omitempty"`
	Results    *scoring.Results `json:"results"`
}

type RunSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	CreatedBy   string `json:"created_by,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	Submissions int    `json:"submissions"`
}

type ListOpts struct {
	Q      string // title substring
	Limit  int
	Offset int
}

func (o ListOpts) limit() int {
	if o.Limit <= 0 || o.Limit > 200 {
		return 50
	}
	return o.Limit
}

func (o ListOpts) offset() int {
	if o.Offset < 0 {
		return 0
	}
	return o.Offset
}
