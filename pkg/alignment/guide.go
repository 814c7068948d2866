package alignment

import (
	"context"
	"log/slog"
	"strings"

	"thoreinstein.com/flightcheck/pkg/ai"
)

// DefaultGuideContext labels the fallback guide.
const DefaultGuideContext = "Default conversation guide"

// Guide generates follow-up questions for a misalignment.
type Guide struct {
	provider ai.Provider
	logger   *slog.Logger
}

// NewGuide creates a Guide backed by provider.
func NewGuide(provider ai.Provider, opts ...Option) *Guide {
	s := applyOptions(opts)
	return &Guide{provider: provider, logger: s.logger}
}

// DefaultQuestions are used when the model reply is unusable or empty.
func DefaultQuestions() []Question {
	return []Question{
		{Question: "Why were these changes made instead of following the plan?", Type: QuestionWhy, Required: true},
		{Question: "How do these changes differ from what was planned?", Type: QuestionHow, Required: true},
		{Question: "What impact do these changes have on the project timeline?", Type: QuestionImpact, Required: false},
	}
}

// DefaultGuide is the fallback ConversationGuide.
func DefaultGuide() *ConversationGuide {
	return &ConversationGuide{Context: DefaultGuideContext, Questions: DefaultQuestions()}
}

// GenerateQuestions asks the model for three to five questions. Questions
// with an unknown type become clarifications; blank questions are dropped.
// The returned guide always has at least one question.
func (g *Guide) GenerateQuestions(ctx context.Context, impact *ImpactAnalysis, findings []string, step PlanStep, model string) (*ConversationGuide, error) {
	content, err := judge(ctx, g.provider, "guide", guideSystemPrompt, buildGuidePrompt(impact, findings, step), model, guideTemperature)
	if err != nil {
		return nil, err
	}

	var reply struct {
		Context   string `json:"context"`
		Questions []struct {
			Question string `json:"question"`
			Type     string `json:"type"`
			Required bool   `json:"required"`
		} `json:"questions"`
	}
	if err := decodeReply(content, &reply); err != nil {
		g.logger.Warn("unusable guide reply, using default questions", "error", err)
		return DefaultGuide(), nil
	}

	guide := &ConversationGuide{Context: reply.Context, Questions: []Question{}}
	for _, q := range reply.Questions {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			continue
		}
		guide.Questions = append(guide.Questions, Question{
			Question: text,
			Type:     questionType(q.Type),
			Required: q.Required,
		})
	}

	if len(guide.Questions) == 0 {
		g.logger.Warn("guide reply had no questions, using default questions")
		guide.Questions = DefaultQuestions()
		if guide.Context == "" {
			guide.Context = DefaultGuideContext
		}
	}
	return guide, nil
}

func questionType(s string) QuestionType {
	switch t := QuestionType(strings.ToLower(strings.TrimSpace(s))); t {
	case QuestionWhy, QuestionHow, QuestionImpact, QuestionClarification:
		return t
	}
	return QuestionClarification
}
