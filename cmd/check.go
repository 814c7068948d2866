package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"thoreinstein.com/flightcheck/pkg/alignment"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
	"thoreinstein.com/flightcheck/pkg/plan"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

// CheckOptions holds the parsed flags of the check command.
type CheckOptions struct {
	Project       string
	Ref           string
	CurrentBranch bool
	Model         string
	JSON          bool
	Fresh         bool
	Output        string
	Retries       int
	Timeout       time.Duration
	Snapshot      snapshot.Options
	Retry         fcerrors.RetryConfig
}

var checkOpts CheckOptions

// checkCmd runs one alignment check.
var checkCmd = &cobra.Command{
	Use:   "check <plan-file> <step>",
	Short: "Check a repository against a plan step",
	Long: `Check whether a repository matches one step of a project plan.

The step is selected by its id or by its 1-based position in the plan file.
Without --project the repository is taken from the origin remote of the
current git checkout.
A snapshot younger than snapshot.freshness is reused unless --fresh is given.

Exit status is non-zero only when the check itself fails; a misaligned
result is still a successful check.

Examples:
  flightcheck check plan.yaml login --project acme/web
  flightcheck check plan.yaml login --current-branch
  flightcheck check plan.yaml 2 --project acme/web --ref main --json
  flightcheck check plan.yaml login --project acme/web --retries 2 -o result.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := loadConfig()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		logger := newLogger()

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}
		step, err := p.Step(args[1])
		if err != nil {
			return err
		}

		store, closeStore, err := snapshot.Open(ctx, &cfg.Store)
		if err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}
		defer func() { _ = closeStore() }()

		manager, err := newSnapshotManager(ctx, cfg, store, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}

		provider, err := newProvider(ctx, cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}

		opts := checkOpts
		if err := resolveLocalDefaults(ctx, &opts); err != nil {
			return err
		}
		opts.Model = checkModel(cfg, opts.Model)
		opts.Timeout = cfg.AI.Timeout
		opts.Snapshot = snapshotOptions(&cfg.Snapshot)
		opts.Retry = fcerrors.NewRetryConfig(opts.Retries)
		opts.Retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			logger.Warn("check failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		}

		checker := alignment.NewChecker(provider, alignment.WithLogger(logger))
		if err := runCheck(ctx, opts, step, manager, checker, cmd.OutOrStdout()); err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&checkOpts.Project, "project", "p", "", "repository as owner/repo or GitHub URL (default: origin of the current checkout)")
	checkCmd.Flags().StringVar(&checkOpts.Ref, "ref", "", "branch, tag or commit to analyze (default branch when empty)")
	checkCmd.Flags().BoolVar(&checkOpts.CurrentBranch, "current-branch", false, "analyze the branch checked out locally")
	checkCmd.Flags().StringVarP(&checkOpts.Model, "model", "m", "", "model override for this check")
	checkCmd.Flags().BoolVar(&checkOpts.JSON, "json", false, "print the result as JSON")
	checkCmd.Flags().BoolVar(&checkOpts.Fresh, "fresh", false, "always take a new snapshot")
	checkCmd.Flags().StringVarP(&checkOpts.Output, "output", "o", "", "also write the JSON result to this file")
	checkCmd.Flags().IntVar(&checkOpts.Retries, "retries", 0, "retry the check this many times on transient failures")
}

// checkReport is what check writes with --json or --output, and what score
// and discuss read back.
type checkReport struct {
	Project    string                 `json:"project"`
	SnapshotID string                 `json:"snapshotId"`
	CommitSHA  string                 `json:"commitSha"`
	Step       plan.Step              `json:"step"`
	Result     *alignment.CheckResult `json:"result"`
}

func runCheck(ctx context.Context, opts CheckOptions, step plan.Step, snapshots snapshotSource, checker alignmentChecker, out io.Writer) error {
	project, err := snapshot.ParseProject(opts.Project)
	if err != nil {
		return err
	}

	var snap *snapshot.Snapshot
	if opts.Fresh {
		snap, err = snapshots.CreateSnapshot(ctx, project, opts.Ref, opts.Snapshot)
	} else {
		snap, err = snapshots.GetOrCreateSnapshot(ctx, project, opts.Ref, opts.Snapshot)
	}
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Using snapshot %s (%s, commit %s)\n", snap.ID, snap.CreatedAt.Format(time.RFC3339), snap.Data.CommitSHA)
	}

	result, err := fcerrors.RetryWithResult(ctx, opts.Retry, func() (*alignment.CheckResult, error) {
		attemptCtx, cancel := withOptionalTimeout(ctx, opts.Timeout)
		defer cancel()
		return checker.CheckAlignment(attemptCtx, step.PlanStep(), snap, opts.Model)
	})
	if err != nil {
		return err
	}

	report := checkReport{
		Project:    project.ID,
		SnapshotID: snap.ID,
		CommitSHA:  snap.Data.CommitSHA,
		Step:       step,
		Result:     result,
	}

	if opts.Output != "" {
		if err := writeReport(opts.Output, report); err != nil {
			return err
		}
	}

	if opts.JSON {
		return encodeJSON(out, report)
	}

	printCheckReport(out, report)
	return nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func writeReport(path string, report checkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode result")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

func readReport(path string) (*checkReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	var report checkReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	if report.Result == nil || report.Result.AlignmentResult == nil {
		return nil, errors.Newf("%s does not contain an alignment result", path)
	}
	return &report, nil
}
