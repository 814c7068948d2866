package alignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

func TestGuide_GenerateQuestions(t *testing.T) {
	p := newStubProvider()
	p.replies[guideSystemPrompt] = `{
		"context": "Login work went elsewhere",
		"questions": [
			{"question": "Why was auth deferred?", "type": "why", "required": true},
			{"question": "  ", "type": "how"},
			{"question": "Is OAuth planned?", "type": "roadmap", "required": false}
		]
	}`

	got, err := NewGuide(p).GenerateQuestions(context.Background(), UnknownImpact(), []string{"No login form"}, loginStep, "m")
	require.NoError(t, err)

	assert.Equal(t, "Login work went elsewhere", got.Context)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, QuestionWhy, got.Questions[0].Type)
	assert.Equal(t, QuestionClarification, got.Questions[1].Type)

	opts := p.opts[guideSystemPrompt]
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.4, *opts.Temperature, 1e-9)

	prompt := p.last[guideSystemPrompt][1].Content
	assert.Contains(t, prompt, "1. No login form")
	assert.Contains(t, prompt, "Timeline: Unable to assess timeline impact")
}

func TestGuide_Fallbacks(t *testing.T) {
	t.Run("unparseable", func(t *testing.T) {
		p := newStubProvider()
		p.replies[guideSystemPrompt] = "Ask them why."

		got, err := NewGuide(p).GenerateQuestions(context.Background(), nil, nil, loginStep, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultGuide(), got)
		assert.True(t, got.Questions[0].Required)
		assert.False(t, got.Questions[2].Required)
	})

	t.Run("no questions", func(t *testing.T) {
		p := newStubProvider()
		p.replies[guideSystemPrompt] = `{"context":"ctx","questions":[]}`

		got, err := NewGuide(p).GenerateQuestions(context.Background(), nil, nil, loginStep, "")
		require.NoError(t, err)
		assert.Equal(t, "ctx", got.Context)
		assert.Equal(t, DefaultQuestions(), got.Questions)
	})

	t.Run("empty reply is an error", func(t *testing.T) {
		p := newStubProvider()
		_, err := NewGuide(p).GenerateQuestions(context.Background(), nil, nil, loginStep, "")
		assert.True(t, fcerrors.IsJudgmentError(err))
	})
}
