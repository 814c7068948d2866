package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"thoreinstein.com/flightcheck/pkg/ai"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

var (
	discussModel      string
	discussTranscript string
)

// discussCmd opens a conversation about a saved check result.
var discussCmd = &cobra.Command{
	Use:   "discuss <result.json>",
	Short: "Talk through a misalignment with the AI provider",
	Long: `Start an interactive conversation seeded with a saved check result and its
conversation guide. Type your answers line by line; an empty line is ignored,
and "exit" or "quit" (or end of input) ends the conversation.

In-conversation commands:
  /context   show the check context the conversation was seeded with
  /reset     forget the conversation so far and start over

Use --transcript to save the conversation as JSON when it ends.

Example:
  flightcheck check plan.yaml login --project acme/web -o result.json
  flightcheck discuss result.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		report, err := readReport(args[0])
		if err != nil {
			return err
		}

		provider, err := newProvider(ctx, cfg, newLogger())
		if err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}

		model := checkModel(cfg, discussModel)
		if err := runDiscuss(ctx, report, provider, model, discussTranscript, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discussCmd)
	discussCmd.Flags().StringVarP(&discussModel, "model", "m", "", "model override for the conversation")
	discussCmd.Flags().StringVar(&discussTranscript, "transcript", "", "write the conversation to this JSON file when it ends")
}

const discussSystemPrompt = `You are helping a developer and their team understand why the work in a
repository differs from the project plan, and agree on what to do next.
Ask one question at a time. Be specific, never accusatory, and summarize what
was agreed when the developer indicates they are done.`

func runDiscuss(ctx context.Context, report *checkReport, provider ai.Provider, model, transcript string, in io.Reader, out io.Writer) error {
	conv := ai.NewConversation(provider, discussSystemPrompt+"\n\n"+discussContext(report),
		ai.WithModel(model), ai.WithTemperature(0.4))

	prompt := color.New(color.FgCyan, color.Bold)
	opening := "Let's start with the first question."
	if g := report.Result.ConversationGuide; g != nil && len(g.Questions) > 0 {
		opening = g.Questions[0].Question
	}
	conv.AddAssistantMessage(opening)
	fmt.Fprintf(out, "%s\n\n", opening)

	scanner := bufio.NewScanner(in)
	for {
		prompt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		switch line {
		case "/context":
			fmt.Fprintf(out, "\n%s\n", conv.SystemPrompt())
			continue
		case "/reset":
			conv.Clear()
			conv.AddAssistantMessage(opening)
			fmt.Fprintf(out, "\nConversation reset.\n\n%s\n\n", opening)
			continue
		}

		conv.AddUserMessage(line)
		resp, err := conv.Send(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s\n\n", strings.TrimSpace(resp.Content))
	}
	fmt.Fprintf(out, "\nConversation ended after %d messages.\n", conv.MessageCount())

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "failed to read input")
	}

	if transcript != "" {
		if err := writeTranscript(transcript, conv.History()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Transcript written to %s\n", transcript)
	}
	return nil
}

func writeTranscript(path string, history []ai.Message) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create transcript %s", path)
	}
	defer f.Close()

	return encodeJSON(f, history)
}

// discussContext renders the check result for the system prompt.
func discussContext(report *checkReport) string {
	var b strings.Builder
	r := report.Result.AlignmentResult

	fmt.Fprintf(&b, "Plan step: %s\n%s\n", report.Step.Title, report.Step.Description)
	if report.Step.AcceptanceCriteria != "" {
		fmt.Fprintf(&b, "Acceptance criteria:\n%s\n", report.Step.AcceptanceCriteria)
	}
	fmt.Fprintf(&b, "\nRepository: %s at %s\n", report.Project, report.CommitSHA)
	fmt.Fprintf(&b, "Alignment: %s\n", r.Overall)
	for _, f := range r.StepLevel.Findings {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	if impact := report.Result.ImpactAnalysis; impact != nil {
		fmt.Fprintf(&b, "\nImpact on timeline: %s\nImpact on quality: %s\n", impact.Timeline, impact.Quality)
	}

	if g := report.Result.ConversationGuide; g != nil {
		if g.Context != "" {
			fmt.Fprintf(&b, "\nContext: %s\n", g.Context)
		}
		b.WriteString("\nQuestions to cover:\n")
		for i, q := range g.Questions {
			fmt.Fprintf(&b, "%d. (%s) %s\n", i+1, q.Type, q.Question)
		}
	}
	return b.String()
}
