// Package plan reads project plans from YAML files.
//
// A plan is an ordered list of steps:
//
//	steps:
//	  - id: login
//	    title: Add login form
//	    description: Users can sign in with email and password.
//	    acceptance_criteria:
//	      - Form validates email
//	      - Form validates password length
//
// acceptance_criteria may also be a single (multi-line) string.
package plan

import (
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"thoreinstein.com/flightcheck/pkg/alignment"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// Plan is an ordered list of steps.
type Plan struct {
	Name  string `yaml:"name,omitempty"`
	Steps []Step `yaml:"steps"`
}

// Step is one entry of a plan file.
type Step struct {
	ID                 string   `yaml:"id,omitempty" json:"id,omitempty"`
	Title              string   `yaml:"title" json:"title"`
	Description        string   `yaml:"description" json:"description"`
	AcceptanceCriteria Criteria `yaml:"acceptance_criteria,omitempty" json:"acceptanceCriteria,omitempty"`
}

// Criteria accepts either a YAML string or a list of strings. Lists are
// joined with newlines.
type Criteria string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Criteria) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*c = Criteria(s)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*c = Criteria(strings.Join(items, "\n"))
		return nil
	}
	return fcerrors.Newf("line %d: acceptance_criteria must be a string or a list of strings", node.Line)
}

// Load reads and validates the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fcerrors.Wrapf(err, "failed to read plan %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fcerrors.Wrapf(err, "invalid plan %s", path)
	}
	return p, nil
}

// Parse decodes and validates a plan document.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fcerrors.Wrap(err, "failed to parse plan")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate requires at least one step, a title on every step and unique ids.
func (p *Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fcerrors.New("plan has no steps")
	}
	seen := make(map[string]bool, len(p.Steps))
	for i, s := range p.Steps {
		if strings.TrimSpace(s.Title) == "" {
			return fcerrors.Newf("step %d has no title", i+1)
		}
		if s.ID == "" {
			continue
		}
		if seen[s.ID] {
			return fcerrors.Newf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Step finds a step by id, falling back to a 1-based index.
func (p *Plan) Step(ref string) (Step, error) {
	ref = strings.TrimSpace(ref)
	for _, s := range p.Steps {
		if s.ID != "" && s.ID == ref {
			return s, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(p.Steps) {
			return Step{}, fcerrors.Newf("step %d out of range (plan has %d steps)", n, len(p.Steps))
		}
		return p.Steps[n-1], nil
	}
	return Step{}, fcerrors.Newf("no step with id %q", ref)
}

// PlanStep converts s for the alignment checker.
func (s Step) PlanStep() alignment.PlanStep {
	return alignment.PlanStep{
		Title:              s.Title,
		Description:        s.Description,
		AcceptanceCriteria: string(s.AcceptanceCriteria),
	}
}
