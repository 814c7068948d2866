package alignment

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"thoreinstein.com/flightcheck/pkg/repo"
)

// keyFilePromptChars limits how much of each key file goes into the
// alignment prompt.
const keyFilePromptChars = 500

const alignmentSystemPrompt = `You are an expert code reviewer analyzing alignment between a project plan and actual implementation.
Analyze at three levels:
1. Step Level: Overall alignment of the step
2. Feature Level: Individual features/components mentioned in the step
3. File Level: Expected files vs actual files

Return a JSON object with the alignment result.`

const alignmentSchema = `Analyze alignment at three levels and return a JSON object with this structure:
{
  "overall": "aligned" | "misaligned" | "partial",
  "stepLevel": {
    "score": 0.0-1.0,
    "findings": ["finding1", "finding2"]
  },
  "featureLevel": {
    "featureName": {
      "score": 0.0-1.0,
      "implemented": true/false,
      "findings": ["finding1"]
    }
  },
  "fileLevel": {
    "expected": ["file1", "file2"],
    "found": ["file1"],
    "missing": ["file2"],
    "unexpected": ["file3"]
  }
}

If misaligned, also include:
"impactAnalysis": {
  "scope": ["scope impact 1"],
  "timeline": "timeline impact",
  "dependencies": ["dependency impact 1"],
  "quality": "quality assessment"
}`

const impactSystemPrompt = `You are a project management expert analyzing the impact of code changes that don't align with the project plan.
Analyze impact across four dimensions:
1. Scope: What features were added/removed/changed?
2. Timeline: How does this affect estimated completion?
3. Dependencies: What other steps are impacted?
4. Quality: Is the implementation complete and correct?`

const criteriaSystemPrompt = "You are an expert at analyzing code against acceptance criteria."

const nextStepsSystemPrompt = "You are a project manager generating actionable next steps."

const guideSystemPrompt = `You are an expert at facilitating productive conversations about project alignment.
Generate specific, focused questions that help understand:
1. Why changes were made (intent)
2. How changes differ from plan (scope)
3. Impact on project (consequences)
4. Clarifications needed (ambiguity)

Questions should be specific and actionable, never accusatory, and focused on
reaching agreement. Mix required and optional questions.`

func buildAlignmentPrompt(step PlanStep, state RepoState) string {
	var b strings.Builder

	b.WriteString("Analyze the alignment between this project plan step and the current repository state.\n\n")
	writeStep(&b, step)
	if step.AcceptanceCriteria != "" {
		fmt.Fprintf(&b, "Acceptance Criteria: %s\n", step.AcceptanceCriteria)
	}

	b.WriteString("\nREPOSITORY STATE:\nFile Structure:\n")
	for _, e := range state.FileStructure {
		if e.Language != "" {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", e.Path, e.Type, e.Language)
		} else {
			fmt.Fprintf(&b, "- %s (%s)\n", e.Path, e.Type)
		}
	}

	b.WriteString("\nKey Files:\n")
	for _, f := range state.KeyFiles {
		fmt.Fprintf(&b, "\n%s:\n%s...\n", f.Path, repo.Truncate(f.Content, keyFilePromptChars))
	}

	b.WriteString("\nRecent Commits:\n")
	for _, c := range state.RecentCommits {
		fmt.Fprintf(&b, "- %s: %s\n", shortSHA(c.SHA), firstLine(c.Message))
	}

	b.WriteString("\n")
	b.WriteString(alignmentSchema)
	return b.String()
}

func buildImpactPrompt(r *Result, step PlanStep) string {
	var b strings.Builder

	b.WriteString("Analyze the impact of this misalignment:\n\n")
	writeStep(&b, step)

	b.WriteString("\nALIGNMENT FINDINGS:\n")
	fmt.Fprintf(&b, "Step Level Score: %g\n", r.StepLevel.Score)
	fmt.Fprintf(&b, "Step Level Findings: %s\n", strings.Join(r.StepLevel.Findings, ", "))

	b.WriteString("\nFeature Level:\n")
	for _, name := range slices.Sorted(maps.Keys(r.FeatureLevel)) {
		f := r.FeatureLevel[name]
		fmt.Fprintf(&b, "- %s: Score %g, Implemented: %t, Findings: %s\n",
			name, f.Score, f.Implemented, strings.Join(f.Findings, ", "))
	}

	b.WriteString("\nFile Level:\n")
	fmt.Fprintf(&b, "Expected: %s\n", strings.Join(r.FileLevel.Expected, ", "))
	fmt.Fprintf(&b, "Found: %s\n", strings.Join(r.FileLevel.Found, ", "))
	fmt.Fprintf(&b, "Missing: %s\n", strings.Join(r.FileLevel.Missing, ", "))
	fmt.Fprintf(&b, "Unexpected: %s\n", strings.Join(r.FileLevel.Unexpected, ", "))

	b.WriteString(`
Return a JSON object with impact analysis:
{
  "scope": ["scope impact 1", "scope impact 2"],
  "timeline": "timeline impact description",
  "dependencies": ["dependency impact 1", "dependency impact 2"],
  "quality": "quality assessment description"
}`)
	return b.String()
}

func buildCriteriaPrompt(criteria []string, r *Result) string {
	var b strings.Builder

	b.WriteString("Analyze which acceptance criteria are met based on this alignment result:\n\n")
	b.WriteString("Acceptance Criteria:\n")
	writeNumbered(&b, criteria)

	b.WriteString("\nAlignment Result:\n")
	fmt.Fprintf(&b, "- Step Level Score: %g\n", r.StepLevel.Score)
	fmt.Fprintf(&b, "- Findings: %s\n", strings.Join(r.StepLevel.Findings, ", "))
	b.WriteString("- Feature Level:\n")
	for _, name := range slices.Sorted(maps.Keys(r.FeatureLevel)) {
		f := r.FeatureLevel[name]
		fmt.Fprintf(&b, "  - %s: score %g, implemented %t\n", name, f.Score, f.Implemented)
	}
	fmt.Fprintf(&b, "- File Level: Found %d, Missing %d\n", len(r.FileLevel.Found), len(r.FileLevel.Missing))

	b.WriteString(`
Return JSON using the criteria text exactly as listed:
{
  "completed": ["criterion 1", "criterion 2"],
  "missing": ["criterion 3", "criterion 4"]
}`)
	return b.String()
}

func buildNextStepsPrompt(missingCriteria, missingFiles, missingFeatures []string) string {
	var b strings.Builder

	b.WriteString("Generate specific next steps to complete this work:\n\n")
	b.WriteString("Missing Criteria:\n")
	writeNumbered(&b, missingCriteria)
	fmt.Fprintf(&b, "\nMissing Files:\n%s\n", strings.Join(missingFiles, ", "))
	fmt.Fprintf(&b, "\nMissing Features:\n%s\n", strings.Join(missingFeatures, ", "))

	b.WriteString(`
Return a JSON object listing specific, actionable next steps:
{
  "nextSteps": ["step 1", "step 2", "step 3"]
}`)
	return b.String()
}

func buildGuidePrompt(impact *ImpactAnalysis, findings []string, step PlanStep) string {
	var b strings.Builder

	b.WriteString("Generate conversation questions for this misalignment:\n\n")
	writeStep(&b, step)

	b.WriteString("\nALIGNMENT FINDINGS:\n")
	writeNumbered(&b, findings)

	if impact != nil {
		b.WriteString("\nIMPACT ANALYSIS:\n")
		fmt.Fprintf(&b, "Scope: %s\n", strings.Join(impact.Scope, ", "))
		fmt.Fprintf(&b, "Timeline: %s\n", impact.Timeline)
		fmt.Fprintf(&b, "Dependencies: %s\n", strings.Join(impact.Dependencies, ", "))
		fmt.Fprintf(&b, "Quality: %s\n", impact.Quality)
	}

	b.WriteString(`
Return JSON:
{
  "context": "Brief context for the conversation",
  "questions": [
    {
      "question": "question text",
      "type": "why" | "how" | "impact" | "clarification",
      "required": true/false
    }
  ]
}

Generate 3-5 questions that help understand the misalignment and guide toward resolution.`)
	return b.String()
}

func writeStep(b *strings.Builder, step PlanStep) {
	b.WriteString("PLAN STEP:\n")
	fmt.Fprintf(b, "Title: %s\n", step.Title)
	fmt.Fprintf(b, "Description: %s\n", step.Description)
}

func writeNumbered(b *strings.Builder, items []string) {
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
