package alignment

import (
	"context"
	"log/slog"
	"strings"

	"thoreinstein.com/flightcheck/pkg/ai"
)

// FallbackFinding is the sole finding of a degraded Result.
const FallbackFinding = "Failed to analyze alignment"

// Engine produces the three-level alignment judgment.
type Engine struct {
	provider ai.Provider
	logger   *slog.Logger
}

// NewEngine creates an Engine backed by provider.
func NewEngine(provider ai.Provider, opts ...Option) *Engine {
	s := applyOptions(opts)
	return &Engine{provider: provider, logger: s.logger}
}

// CheckAlignment asks the model to compare state against step. An empty
// model reply is an error; a reply that does not match the expected shape
// yields FallbackResult.
func (e *Engine) CheckAlignment(ctx context.Context, step PlanStep, state RepoState, model string) (*Result, error) {
	content, err := judge(ctx, e.provider, "alignment", alignmentSystemPrompt, buildAlignmentPrompt(step, state), model, judgmentTemperature)
	if err != nil {
		return nil, err
	}

	result, ok := parseResult(content)
	if !ok {
		e.logger.Warn("unusable alignment reply, using fallback", "step", step.Title, "reply_bytes", len(content))
		return FallbackResult(), nil
	}
	return result, nil
}

// FallbackResult is the misaligned, degraded Result used when the model
// reply cannot be parsed.
func FallbackResult() *Result {
	return &Result{
		Overall: StatusMisaligned,
		StepLevel: StepLevel{
			Score:    0,
			Findings: []string{FallbackFinding},
		},
		FeatureLevel: map[string]FeatureLevel{},
		FileLevel: FileLevel{
			Expected:   []string{},
			Found:      []string{},
			Missing:    []string{},
			Unexpected: []string{},
		},
		Degraded: true,
	}
}

type rawResult struct {
	Overall   string `json:"overall"`
	StepLevel *struct {
		Score    *float64 `json:"score"`
		Findings []string `json:"findings"`
	} `json:"stepLevel"`
	FeatureLevel   map[string]FeatureLevel `json:"featureLevel"`
	FileLevel      FileLevel               `json:"fileLevel"`
	ImpactAnalysis *ImpactAnalysis         `json:"impactAnalysis"`
}

// parseResult decodes and validates a reply. overall must be a known status
// and stepLevel.score must be present; everything else is normalized.
func parseResult(content string) (*Result, bool) {
	var raw rawResult
	if err := decodeReply(content, &raw); err != nil {
		return nil, false
	}
	overall := Status(strings.ToLower(strings.TrimSpace(raw.Overall)))
	if !overall.Valid() || raw.StepLevel == nil || raw.StepLevel.Score == nil {
		return nil, false
	}

	r := &Result{
		Overall: overall,
		StepLevel: StepLevel{
			Score:    clamp(*raw.StepLevel.Score),
			Findings: nonNil(raw.StepLevel.Findings),
		},
		FeatureLevel: make(map[string]FeatureLevel, len(raw.FeatureLevel)),
		FileLevel: FileLevel{
			Expected:   nonNil(raw.FileLevel.Expected),
			Found:      nonNil(raw.FileLevel.Found),
			Missing:    nonNil(raw.FileLevel.Missing),
			Unexpected: nonNil(raw.FileLevel.Unexpected),
		},
	}

	for name, f := range raw.FeatureLevel {
		f.Score = clamp(f.Score)
		f.Findings = nonNil(f.Findings)
		r.FeatureLevel[name] = f
	}

	if raw.ImpactAnalysis != nil {
		if impact, ok := validImpact(*raw.ImpactAnalysis); ok {
			r.ImpactAnalysis = impact
		}
	}
	return r, true
}
