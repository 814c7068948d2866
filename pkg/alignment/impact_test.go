package alignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

func misalignedResult() *Result {
	return &Result{
		Overall:   StatusMisaligned,
		StepLevel: StepLevel{Score: 0.1, Findings: []string{"No login form found", "No auth module"}},
		FeatureLevel: map[string]FeatureLevel{
			"email validation": {Score: 0, Implemented: false, Findings: []string{}},
		},
		FileLevel: FileLevel{
			Expected:   []string{"src/Login.tsx"},
			Found:      []string{},
			Missing:    []string{"src/Login.tsx"},
			Unexpected: []string{},
		},
	}
}

func TestImpactAnalyzer_AlignedSkipsModel(t *testing.T) {
	p := newStubProvider()
	got, err := NewImpactAnalyzer(p).AnalyzeImpact(context.Background(), &Result{Overall: StatusAligned}, loginStep, "")
	require.NoError(t, err)

	assert.Equal(t, NoImpact(), got)
	assert.Zero(t, p.totalCalls())
}

func TestImpactAnalyzer_Parses(t *testing.T) {
	p := newStubProvider()
	p.replies[impactSystemPrompt] = `{"scope":["login missing"],"timeline":"1 week slip","dependencies":["profile page"],"quality":"incomplete"}`

	got, err := NewImpactAnalyzer(p).AnalyzeImpact(context.Background(), misalignedResult(), loginStep, "m")
	require.NoError(t, err)
	assert.Equal(t, &ImpactAnalysis{
		Scope:        []string{"login missing"},
		Timeline:     "1 week slip",
		Dependencies: []string{"profile page"},
		Quality:      "incomplete",
	}, got)

	prompt := p.last[impactSystemPrompt][1].Content
	assert.Contains(t, prompt, "Step Level Findings: No login form found, No auth module")
	assert.Contains(t, prompt, "- email validation: Score 0, Implemented: false")
	assert.Contains(t, prompt, "Missing: src/Login.tsx")
}

func TestImpactAnalyzer_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "no idea"},
		{"empty object", `{}`},
		{"null", `null`},
		{"unknown keys", `{"foo":1}`},
		{"blank timeline", `{"scope":["x"],"timeline":" ","quality":"poor"}`},
		{"missing quality", `{"scope":["x"],"timeline":"late","dependencies":[]}`},
		{"wrong type", `{"timeline":3,"quality":"poor"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newStubProvider()
			p.replies[impactSystemPrompt] = tt.reply

			got, err := NewImpactAnalyzer(p).AnalyzeImpact(context.Background(), misalignedResult(), loginStep, "")
			require.NoError(t, err)
			assert.Equal(t, UnknownImpact(), got)
		})
	}
}

func TestImpactAnalyzer_MissingListsBecomeEmpty(t *testing.T) {
	p := newStubProvider()
	p.replies[impactSystemPrompt] = `{"timeline":"2 day slip","quality":"partial"}`

	got, err := NewImpactAnalyzer(p).AnalyzeImpact(context.Background(), misalignedResult(), loginStep, "")
	require.NoError(t, err)
	assert.Equal(t, &ImpactAnalysis{
		Scope:        []string{},
		Timeline:     "2 day slip",
		Dependencies: []string{},
		Quality:      "partial",
	}, got)
}

func TestImpactAnalyzer_EmptyReplyIsError(t *testing.T) {
	p := newStubProvider()
	_, err := NewImpactAnalyzer(p).AnalyzeImpact(context.Background(), misalignedResult(), loginStep, "")
	assert.True(t, fcerrors.IsJudgmentError(err))
}
