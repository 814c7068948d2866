package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"thoreinstein.com/flightcheck/pkg/alignment"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

func statusColor(s alignment.Status) *color.Color {
	switch s {
	case alignment.StatusAligned:
		return color.New(color.FgGreen, color.Bold)
	case alignment.StatusPartial:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func printCheckReport(w io.Writer, report checkReport) {
	r := report.Result.AlignmentResult

	fmt.Fprintf(w, "Step:     %s\n", report.Step.Title)
	fmt.Fprintf(w, "Project:  %s @ %s (snapshot %s)\n", report.Project, shortCommit(report.CommitSHA), report.SnapshotID)
	fmt.Fprint(w, "Status:   ")
	statusColor(r.Overall).Fprintln(w, strings.ToUpper(string(r.Overall)))
	if r.Degraded {
		color.New(color.FgYellow).Fprintln(w, "          (the model reply could not be used; this is a fallback result)")
	}
	fmt.Fprintf(w, "Score:    %.2f\n", alignment.OverallScore(r))

	printList(w, "Findings", r.StepLevel.Findings)

	b := alignment.GetBreakdown(r)
	if len(b.FeatureLevel) > 0 {
		fmt.Fprintln(w, "\nFeatures:")
		for _, f := range b.FeatureLevel {
			mark := color.GreenString("✓")
			if !r.FeatureLevel[f.Name].Implemented {
				mark = color.RedString("✗")
			}
			fmt.Fprintf(w, "  %s %s (%.2f)\n", mark, f.Name, f.Score)
		}
	}
	fmt.Fprintf(w, "\nFiles: %s\n", b.FileLevel.Details)
	printList(w, "Missing files", r.FileLevel.Missing)
	printList(w, "Unexpected files", r.FileLevel.Unexpected)

	if impact := report.Result.ImpactAnalysis; impact != nil {
		fmt.Fprintln(w, "\nImpact:")
		fmt.Fprintf(w, "  Scope:        %s\n", strings.Join(impact.Scope, "; "))
		fmt.Fprintf(w, "  Timeline:     %s\n", impact.Timeline)
		fmt.Fprintf(w, "  Dependencies: %s\n", strings.Join(impact.Dependencies, "; "))
		fmt.Fprintf(w, "  Quality:      %s\n", impact.Quality)
	}

	if p := report.Result.PartialAnalysis; p != nil {
		printList(w, "Completed criteria", p.CompletedCriteria)
		printList(w, "Missing criteria", p.MissingCriteria)
		printList(w, "Next steps", p.NextSteps)
	}

	if g := report.Result.ConversationGuide; g != nil {
		fmt.Fprintln(w, "\nQuestions to discuss:")
		if g.Context != "" {
			fmt.Fprintf(w, "  %s\n", g.Context)
		}
		for i, q := range g.Questions {
			req := ""
			if q.Required {
				req = color.New(color.Bold).Sprint(" (required)")
			}
			fmt.Fprintf(w, "  %d. [%s] %s%s\n", i+1, q.Type, q.Question, req)
		}
	}
}

func printList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func printSnapshot(w io.Writer, s *snapshot.Snapshot) {
	fmt.Fprintf(w, "Snapshot:  %s\n", s.ID)
	fmt.Fprintf(w, "Project:   %s\n", s.ProjectID)
	fmt.Fprintf(w, "Created:   %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Commit:    %s\n", shortCommit(s.Data.CommitSHA))
	fmt.Fprintf(w, "Files:     %d (%d bytes)\n", s.Data.TotalFiles, s.Data.TotalLines)
	fmt.Fprintf(w, "Key files: %d\n", len(s.Data.KeyFiles))
	if len(s.Data.Languages) > 0 {
		fmt.Fprintf(w, "Languages: %s\n", strings.Join(s.Data.Languages, ", "))
	}
}

func printDiff(w io.Writer, older, newer *snapshot.Snapshot, d snapshot.Diff) {
	fmt.Fprintf(w, "Comparing %s (%s) -> %s (%s)\n",
		older.ID, shortCommit(older.Data.CommitSHA), newer.ID, shortCommit(newer.Data.CommitSHA))
	fmt.Fprintf(w, "New commits: %d\n", d.NewCommits)

	for _, p := range d.AddedFiles {
		color.New(color.FgGreen).Fprintf(w, "+ %s\n", p)
	}
	for _, p := range d.RemovedFiles {
		color.New(color.FgRed).Fprintf(w, "- %s\n", p)
	}
	fmt.Fprintf(w, "%d files present in both snapshots\n", len(d.ModifiedFiles))
}

func printBreakdown(w io.Writer, r *alignment.Result) {
	b := alignment.GetBreakdown(r)

	fmt.Fprint(w, "Overall:  ")
	statusColor(b.Overall.Status).Fprintf(w, "%.2f %s\n", b.Overall.Score, b.Overall.Status)
	fmt.Fprintf(w, "Step:     %.2f %s\n", b.StepLevel.Score, b.StepLevel.Status)
	for _, f := range b.FeatureLevel {
		fmt.Fprintf(w, "Feature:  %.2f %s  %s\n", f.Score, f.Status, f.Name)
	}
	fmt.Fprintf(w, "Files:    %.2f %s  %s\n", b.FileLevel.Score, b.FileLevel.Status, b.FileLevel.Details)
	if b.Overall.Status != r.Overall {
		fmt.Fprintf(w, "\nNote: the model reported %s; the weighted score suggests %s.\n", r.Overall, b.Overall.Status)
	}
}

func shortCommit(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
