// Package alignment judges how well a repository snapshot matches a plan
// step. The Checker sequences an Engine (three-level alignment), an
// ImpactAnalyzer, a PartialDetector and a Guide; the comparator functions
// derive scores and statuses from a Result without calling a model.
//
// Every model reply is treated as untrusted input. Replies that are absent
// produce a JudgmentError; replies that are present but malformed produce a
// fixed fallback value defined next to the shape it replaces.
package alignment

import (
	"thoreinstein.com/flightcheck/pkg/repo"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

// Status is the overall alignment verdict.
type Status string

// Alignment statuses.
const (
	StatusAligned    Status = "aligned"
	StatusPartial    Status = "partial"
	StatusMisaligned Status = "misaligned"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAligned, StatusPartial, StatusMisaligned:
		return true
	}
	return false
}

// PlanStep is a unit of planned work.
type PlanStep struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	AcceptanceCriteria string `json:"acceptanceCriteria,omitempty"`
}

// StepLevel scores the step as a whole.
type StepLevel struct {
	Score    float64  `json:"score"`
	Findings []string `json:"findings"`
}

// FeatureLevel scores one named capability within a step.
type FeatureLevel struct {
	Score       float64  `json:"score"`
	Implemented bool     `json:"implemented"`
	Findings    []string `json:"findings"`
}

// FileLevel compares expected and actual files.
type FileLevel struct {
	Expected   []string `json:"expected"`
	Found      []string `json:"found"`
	Missing    []string `json:"missing"`
	Unexpected []string `json:"unexpected"`
}

// ImpactAnalysis describes how a misalignment affects the project.
type ImpactAnalysis struct {
	Scope        []string `json:"scope"`
	Timeline     string   `json:"timeline"`
	Dependencies []string `json:"dependencies"`
	Quality      string   `json:"quality"`
}

// Result is the three-level alignment judgment.
type Result struct {
	Overall        Status                  `json:"overall"`
	StepLevel      StepLevel               `json:"stepLevel"`
	FeatureLevel   map[string]FeatureLevel `json:"featureLevel"`
	FileLevel      FileLevel               `json:"fileLevel"`
	ImpactAnalysis *ImpactAnalysis         `json:"impactAnalysis,omitempty"`

	// Degraded marks a fallback result built because the model reply could
	// not be used. Overall is still misaligned in that case.
	Degraded bool `json:"degraded,omitempty"`
}

// PartialCompletionAnalysis lists what is done and what remains.
type PartialCompletionAnalysis struct {
	IsPartial         bool     `json:"isPartial"`
	CompletedCriteria []string `json:"completedCriteria"`
	MissingCriteria   []string `json:"missingCriteria"`
	MissingFiles      []string `json:"missingFiles"`
	MissingFeatures   []string `json:"missingFeatures"`
	NextSteps         []string `json:"nextSteps"`
}

// QuestionType classifies a guide question.
type QuestionType string

// Question types.
const (
	QuestionWhy           QuestionType = "why"
	QuestionHow           QuestionType = "how"
	QuestionImpact        QuestionType = "impact"
	QuestionClarification QuestionType = "clarification"
)

// Question is one prompt for the follow-up conversation.
type Question struct {
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Required bool         `json:"required"`
}

// ConversationGuide seeds a discussion about a misalignment.
type ConversationGuide struct {
	Context   string     `json:"context"`
	Questions []Question `json:"questions"`
}

// CheckResult is the Checker's output. Optional parts are nil when the
// overall status did not call for them.
type CheckResult struct {
	AlignmentResult   *Result                    `json:"alignmentResult"`
	ImpactAnalysis    *ImpactAnalysis            `json:"impactAnalysis,omitempty"`
	PartialAnalysis   *PartialCompletionAnalysis `json:"partialAnalysis,omitempty"`
	ConversationGuide *ConversationGuide         `json:"conversationGuide,omitempty"`
}

// RepoState is the part of a snapshot the engine reads.
type RepoState struct {
	FileStructure []repo.Entry
	KeyFiles      []repo.KeyFile
	RecentCommits []repo.Commit
}

// RepoStateFromSnapshot extracts the RepoState from a stored snapshot.
func RepoStateFromSnapshot(s *snapshot.Snapshot) RepoState {
	if s == nil {
		return RepoState{}
	}
	return RepoState{
		FileStructure: s.Data.FileStructure,
		KeyFiles:      s.Data.KeyFiles,
		RecentCommits: s.Data.RecentCommits,
	}
}
