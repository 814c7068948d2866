package alignment

import (
	"context"
	"log/slog"

	"thoreinstein.com/flightcheck/pkg/ai"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

// AlignmentJudge produces the three-level Result. *Engine satisfies it.
type AlignmentJudge interface {
	CheckAlignment(ctx context.Context, step PlanStep, state RepoState, model string) (*Result, error)
}

// ImpactAssessor is satisfied by *ImpactAnalyzer.
type ImpactAssessor interface {
	AnalyzeImpact(ctx context.Context, result *Result, step PlanStep, model string) (*ImpactAnalysis, error)
}

// CompletionAssessor is satisfied by *PartialDetector.
type CompletionAssessor interface {
	DetectPartial(ctx context.Context, result *Result, criteria []string, state RepoState, model string) (*PartialCompletionAnalysis, error)
}

// QuestionGenerator is satisfied by *Guide.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, impact *ImpactAnalysis, findings []string, step PlanStep, model string) (*ConversationGuide, error)
}

// Checker runs a full alignment check.
type Checker struct {
	engine  AlignmentJudge
	impact  ImpactAssessor
	partial CompletionAssessor
	guide   QuestionGenerator
	logger  *slog.Logger
}

// NewChecker wires the default components to one provider.
func NewChecker(provider ai.Provider, opts ...Option) *Checker {
	return NewCheckerWith(
		NewEngine(provider, opts...),
		NewImpactAnalyzer(provider, opts...),
		NewPartialDetector(provider, opts...),
		NewGuide(provider, opts...),
		opts...,
	)
}

// NewCheckerWith builds a Checker from explicit components.
func NewCheckerWith(engine AlignmentJudge, impact ImpactAssessor, partial CompletionAssessor, guide QuestionGenerator, opts ...Option) *Checker {
	s := applyOptions(opts)
	return &Checker{
		engine:  engine,
		impact:  impact,
		partial: partial,
		guide:   guide,
		logger:  s.logger,
	}
}

// CheckAlignment judges snap against step.
//
//   - aligned: only the alignment result is returned.
//   - misaligned: impact analysis, then the conversation guide built from it.
//   - partial or misaligned: partial-completion analysis over the step's
//     acceptance criteria.
//
// Errors from any stage are returned as is and nothing is retried.
func (c *Checker) CheckAlignment(ctx context.Context, step PlanStep, snap *snapshot.Snapshot, model string) (*CheckResult, error) {
	state := RepoStateFromSnapshot(snap)

	result, err := c.engine.CheckAlignment(ctx, step, state, model)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("alignment judged", "step", step.Title, "overall", result.Overall, "degraded", result.Degraded)

	out := &CheckResult{AlignmentResult: result}

	if result.Overall == StatusMisaligned {
		impact, err := c.impact.AnalyzeImpact(ctx, result, step, model)
		if err != nil {
			return nil, err
		}
		out.ImpactAnalysis = impact
		c.logger.Debug("impact assessed", "step", step.Title)

		guide, err := c.guide.GenerateQuestions(ctx, impact, result.StepLevel.Findings, step, model)
		if err != nil {
			return nil, err
		}
		out.ConversationGuide = guide
		c.logger.Debug("conversation guide generated", "step", step.Title, "questions", len(guide.Questions))
	}

	if result.Overall == StatusPartial || result.Overall == StatusMisaligned {
		criteria := SplitCriteria(step.AcceptanceCriteria)
		partial, err := c.partial.DetectPartial(ctx, result, criteria, state, model)
		if err != nil {
			return nil, err
		}
		out.PartialAnalysis = partial
		c.logger.Debug("partial completion assessed", "step", step.Title, "is_partial", partial.IsPartial)
	}

	return out, nil
}
