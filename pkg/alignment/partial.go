package alignment

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"thoreinstein.com/flightcheck/pkg/ai"
)

// FeatureCompleteThreshold is the score below which a feature counts as
// missing even when marked implemented.
const FeatureCompleteThreshold = 0.7

// PartialDetector works out which criteria, files and features remain.
type PartialDetector struct {
	provider ai.Provider
	logger   *slog.Logger
}

// NewPartialDetector creates a PartialDetector backed by provider.
func NewPartialDetector(provider ai.Provider, opts ...Option) *PartialDetector {
	s := applyOptions(opts)
	return &PartialDetector{provider: provider, logger: s.logger}
}

// DetectPartial combines local rules with two model calls: one to sort the
// criteria into completed and missing, one to propose next steps. Both calls
// fall back to deterministic values on failure, so DetectPartial only
// returns an error when ctx is done.
func (d *PartialDetector) DetectPartial(ctx context.Context, result *Result, criteria []string, state RepoState, model string) (*PartialCompletionAnalysis, error) {
	completed, missing := d.AnalyzeCriteria(ctx, criteria, result, model)
	missingFiles := nonNil(slices.Clone(result.FileLevel.Missing))
	missingFeatures := MissingFeatures(result)

	nextSteps := d.NextSteps(ctx, missing, missingFiles, missingFeatures, model)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.logger.Debug("partial completion analyzed",
		"completed_criteria", len(completed),
		"missing_criteria", len(missing),
		"missing_files", len(missingFiles),
		"missing_features", len(missingFeatures),
		"files_in_snapshot", len(state.FileStructure))

	return &PartialCompletionAnalysis{
		IsPartial:         IsPartial(result),
		CompletedCriteria: completed,
		MissingCriteria:   missing,
		MissingFiles:      missingFiles,
		MissingFeatures:   missingFeatures,
		NextSteps:         nextSteps,
	}, nil
}

// MissingFeatures lists features that are unimplemented or score below
// FeatureCompleteThreshold, sorted by name.
func MissingFeatures(r *Result) []string {
	missing := []string{}
	for _, name := range slices.Sorted(maps.Keys(r.FeatureLevel)) {
		f := r.FeatureLevel[name]
		if !f.Implemented || f.Score < FeatureCompleteThreshold {
			missing = append(missing, name)
		}
	}
	return missing
}

// IsPartial is true for partial results, and for misaligned results that
// show some progress: any found file or any tracked feature.
func IsPartial(r *Result) bool {
	switch r.Overall {
	case StatusPartial:
		return true
	case StatusMisaligned:
		return len(r.FileLevel.Found) > 0 || len(r.FeatureLevel) > 0
	}
	return false
}

// AnalyzeCriteria splits criteria into completed and missing. With no
// criteria it returns two empty lists without calling the model. Any model
// failure marks every criterion missing.
func (d *PartialDetector) AnalyzeCriteria(ctx context.Context, criteria []string, r *Result, model string) (completed, missing []string) {
	if len(criteria) == 0 {
		return []string{}, []string{}
	}

	allMissing := func(reason string, args ...any) ([]string, []string) {
		d.logger.Warn(reason, args...)
		return []string{}, slices.Clone(criteria)
	}

	content, err := judge(ctx, d.provider, "criteria", criteriaSystemPrompt, buildCriteriaPrompt(criteria, r), model, judgmentTemperature)
	if err != nil {
		return allMissing("criteria analysis failed, treating all criteria as missing", "error", err)
	}

	var reply struct {
		Completed []string `json:"completed"`
		Missing   []string `json:"missing"`
	}
	if err := decodeReply(content, &reply); err != nil {
		return allMissing("unusable criteria reply, treating all criteria as missing", "error", err)
	}
	if len(reply.Completed) == 0 && len(reply.Missing) == 0 {
		return allMissing("criteria reply listed no criteria, treating all as missing")
	}

	return nonNil(reply.Completed), nonNil(reply.Missing)
}

// NextSteps proposes follow-up work. Nothing missing means no steps and no
// model call; a failed or unusable reply falls back to TemplateNextSteps.
func (d *PartialDetector) NextSteps(ctx context.Context, missingCriteria, missingFiles, missingFeatures []string, model string) []string {
	if len(missingCriteria) == 0 && len(missingFiles) == 0 && len(missingFeatures) == 0 {
		return []string{}
	}

	content, err := judge(ctx, d.provider, "next steps", nextStepsSystemPrompt,
		buildNextStepsPrompt(missingCriteria, missingFiles, missingFeatures), model, judgmentTemperature)
	if err != nil {
		d.logger.Warn("next steps generation failed, using template", "error", err)
		return TemplateNextSteps(missingCriteria, missingFiles, missingFeatures)
	}

	var reply struct {
		NextSteps []string `json:"nextSteps"`
	}
	if err := decodeReply(content, &reply); err != nil {
		d.logger.Warn("unusable next steps reply, using template", "error", err)
		return TemplateNextSteps(missingCriteria, missingFiles, missingFeatures)
	}
	return nonNil(reply.NextSteps)
}

// TemplateNextSteps builds one step per non-empty category.
func TemplateNextSteps(missingCriteria, missingFiles, missingFeatures []string) []string {
	steps := []string{}
	if len(missingFiles) > 0 {
		steps = append(steps, "Create missing files: "+strings.Join(missingFiles, ", "))
	}
	if len(missingFeatures) > 0 {
		steps = append(steps, "Implement missing features: "+strings.Join(missingFeatures, ", "))
	}
	if len(missingCriteria) > 0 {
		steps = append(steps, "Address missing criteria: "+strings.Join(missingCriteria, ", "))
	}
	return steps
}

// SplitCriteria splits newline-delimited acceptance criteria, trimming each
// line and dropping blank ones.
func SplitCriteria(s string) []string {
	criteria := []string{}
	for line := range strings.Lines(s) {
		if c := strings.TrimSpace(line); c != "" {
			criteria = append(criteria, c)
		}
	}
	return criteria
}
