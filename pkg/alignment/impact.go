package alignment

import (
	"context"
	"log/slog"
	"strings"

	"thoreinstein.com/flightcheck/pkg/ai"
)

// ImpactAnalyzer characterizes the effect of a misalignment.
type ImpactAnalyzer struct {
	provider ai.Provider
	logger   *slog.Logger
}

// NewImpactAnalyzer creates an ImpactAnalyzer backed by provider.
func NewImpactAnalyzer(provider ai.Provider, opts ...Option) *ImpactAnalyzer {
	s := applyOptions(opts)
	return &ImpactAnalyzer{provider: provider, logger: s.logger}
}

// NoImpact is returned for aligned results without calling the model.
func NoImpact() *ImpactAnalysis {
	return &ImpactAnalysis{
		Scope:        []string{},
		Timeline:     "No impact",
		Dependencies: []string{},
		Quality:      "Implementation aligns with plan",
	}
}

// UnknownImpact is returned when the model reply cannot be parsed.
func UnknownImpact() *ImpactAnalysis {
	return &ImpactAnalysis{
		Scope:        []string{"Unable to analyze scope impact"},
		Timeline:     "Unable to assess timeline impact",
		Dependencies: []string{"Unable to assess dependency impact"},
		Quality:      "Unable to assess quality",
	}
}

// AnalyzeImpact assesses scope, timeline, dependency and quality impact.
func (a *ImpactAnalyzer) AnalyzeImpact(ctx context.Context, result *Result, step PlanStep, model string) (*ImpactAnalysis, error) {
	if result.Overall == StatusAligned {
		return NoImpact(), nil
	}

	content, err := judge(ctx, a.provider, "impact", impactSystemPrompt, buildImpactPrompt(result, step), model, judgmentTemperature)
	if err != nil {
		return nil, err
	}

	impact, ok := parseImpact(content)
	if !ok {
		a.logger.Warn("unusable impact reply, using fallback", "step", step.Title)
		return UnknownImpact(), nil
	}
	return impact, nil
}

// parseImpact decodes an impact reply. timeline and quality must be
// non-blank; missing scope or dependency lists become empty.
func parseImpact(content string) (*ImpactAnalysis, bool) {
	var raw *ImpactAnalysis
	if err := decodeReply(content, &raw); err != nil || raw == nil {
		return nil, false
	}
	return validImpact(*raw)
}

func validImpact(i ImpactAnalysis) (*ImpactAnalysis, bool) {
	if strings.TrimSpace(i.Timeline) == "" || strings.TrimSpace(i.Quality) == "" {
		return nil, false
	}
	i.Scope = nonNil(i.Scope)
	i.Dependencies = nonNil(i.Dependencies)
	return &i, true
}
