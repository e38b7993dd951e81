// Package loader reads grading configuration and submission tables into
// session inputs.
package loader

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/autocheck/internal/session"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the grading configuration document.
type Config struct {
	SystemInfo SystemInfo                `yaml:"system_info" validate:"required"`
	Questions  map[string]QuestionConfig `yaml:"questions" validate:"dive,keys,startswith=q,endkeys"`
}

// SystemInfo holds session-wide settings. Every key, known or not, is also
// kept in Params, which is where per-question parameters start from.
type SystemInfo struct {
	ID                  string           `yaml:"id" validate:"required"`
	Name                string           `yaml:"name"`
	Time                string           `yaml:"time"`
	NonQuestionColumns  []string         `yaml:"non-questions_columns"`
	PenaltyParams       []map[string]any `yaml:"penalty_params"`
	EvalFormula         RuleSet          `yaml:"eval_formula"`
	TakeFirstSubmission bool             `yaml:"take_first_submission"`
	ForceDownload       bool             `yaml:"force_download"`

	Params map[string]any `yaml:"-"`
}

func (s *SystemInfo) UnmarshalYAML(n *yaml.Node) error {
	type plain SystemInfo
	if err := n.Decode((*plain)(s)); err != nil {
		return err
	}
	return n.Decode(&s.Params)
}

// QuestionConfig is one entry under questions.
type QuestionConfig struct {
	Check     bool             `yaml:"check"`
	Answer    string           `yaml:"answer"`
	CheckType string           `yaml:"check_type"`
	Weight    float64          `yaml:"weight" validate:"gte=0"`
	Metadata  []map[string]any `yaml:"metadata"`
}

// RuleSet is eval_formula in document order. It accepts a list of mappings
// or a single mapping; keys keep their order within each mapping.
type RuleSet []session.RuleSpec

func (r *RuleSet) UnmarshalYAML(n *yaml.Node) error {
	var entries []*yaml.Node
	switch n.Kind {
	case yaml.SequenceNode:
		entries = n.Content
	case yaml.MappingNode:
		entries = []*yaml.Node{n}
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
		return fmt.Errorf("line %d: eval_formula must be a list of mappings", n.Line)
	default:
		return fmt.Errorf("line %d: eval_formula must be a list of mappings", n.Line)
	}
	for _, m := range entries {
		if m.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: eval_formula entry must be a mapping", m.Line)
		}
		for i := 0; i+1 < len(m.Content); i += 2 {
			var tokens []string
			if err := m.Content[i+1].Decode(&tokens); err != nil {
				return fmt.Errorf("eval_formula %s: %w", m.Content[i].Value, err)
			}
			*r = append(*r, session.RuleSpec{Driver: m.Content[i].Value, Tokens: tokens})
		}
	}
	return nil
}

// LoadConfig parses and validates a YAML configuration.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty config")
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Penalty merges the penalty_params entries into one mapping; later entries
// win.
func (c *Config) Penalty() map[string]any {
	out := map[string]any{}
	for _, entry := range c.SystemInfo.PenaltyParams {
		for k, v := range entry {
			out[k] = v
		}
	}
	return out
}
