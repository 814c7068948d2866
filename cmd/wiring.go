package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"

	"thoreinstein.com/flightcheck/pkg/ai"
	"thoreinstein.com/flightcheck/pkg/alignment"
	"thoreinstein.com/flightcheck/pkg/bootstrap"
	"thoreinstein.com/flightcheck/pkg/config"
	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
	"thoreinstein.com/flightcheck/pkg/git"
	"thoreinstein.com/flightcheck/pkg/github"
	"thoreinstein.com/flightcheck/pkg/repo"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

// snapshotSource is satisfied by *snapshot.Manager.
type snapshotSource interface {
	CreateSnapshot(ctx context.Context, project snapshot.Project, ref string, opts snapshot.Options) (*snapshot.Snapshot, error)
	GetOrCreateSnapshot(ctx context.Context, project snapshot.Project, ref string, opts snapshot.Options) (*snapshot.Snapshot, error)
}

// alignmentChecker is satisfied by *alignment.Checker.
type alignmentChecker interface {
	CheckAlignment(ctx context.Context, step alignment.PlanStep, snap *snapshot.Snapshot, model string) (*alignment.CheckResult, error)
}

// snapshotOptions maps the snapshot config section onto per-call options.
func snapshotOptions(cfg *config.SnapshotConfig) snapshot.Options {
	return snapshot.Options{
		MaxFiles:       cfg.MaxFiles,
		MaxFileSize:    cfg.MaxFileSize,
		IncludeContent: cfg.IncludeContent,
	}
}

// newSnapshotManager wires GitHub access, the repository analyzer and store
// into a Manager.
func newSnapshotManager(ctx context.Context, cfg *config.Config, store snapshot.Store, logger *slog.Logger) (*snapshot.Manager, error) {
	client, err := github.NewClient(ctx, &cfg.GitHub, logger)
	if err != nil {
		return nil, err
	}

	analyzer := repo.NewAnalyzer(client,
		repo.WithLogger(logger),
		repo.WithMaxFileSize(cfg.Snapshot.MaxFileSize),
		repo.WithCommitLimit(cfg.Snapshot.CommitLimit),
		repo.WithTraversalLimits(cfg.Snapshot.MaxDepth, cfg.Snapshot.MaxEntries),
	)

	return snapshot.NewManager(analyzer, store,
		snapshot.WithFreshness(cfg.Snapshot.Freshness),
		snapshot.WithLogger(logger),
	), nil
}

// newProvider creates the configured judgment provider and verifies it is
// usable.
func newProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ai.Provider, error) {
	provider, err := ai.NewProvider(ctx, &cfg.AI, logger)
	if err != nil {
		return nil, err
	}
	if !provider.IsAvailable() {
		return nil, fcerrors.NewAIError(provider.Name(), "NewProvider", "provider is not configured")
	}
	return provider, nil
}

// checkModel returns the model override for alignment checks: the flag,
// then alignment.model. Empty leaves the provider's configured model.
func checkModel(cfg *config.Config, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Alignment.Model
}

// localCheckout returns the git checkout containing the working directory.
func localCheckout() (*git.Checkout, error) {
	root, err := bootstrap.FindGitRoot()
	if err != nil {
		return nil, errors.Wrap(err, "failed to locate git checkout")
	}
	if root == "" {
		if root, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, "failed to get working directory")
		}
	}
	return git.NewCheckout(root), nil
}

// resolveLocalDefaults fills the project from the origin remote and, with
// --current-branch, the ref from the checked-out branch.
func resolveLocalDefaults(ctx context.Context, opts *CheckOptions) error {
	if opts.Project != "" && !opts.CurrentBranch {
		return nil
	}

	checkout, err := localCheckout()
	if err != nil {
		return err
	}
	return applyCheckoutDefaults(ctx, checkout, opts)
}

func applyCheckoutDefaults(ctx context.Context, checkout *git.Checkout, opts *CheckOptions) error {
	if opts.Project == "" {
		remote, err := checkout.Repository(ctx)
		if err != nil {
			return errors.Wrap(err, "no --project given and the current directory has no GitHub origin")
		}
		opts.Project = remote.FullName()
	}

	if opts.CurrentBranch {
		if opts.Ref != "" {
			return errors.New("--ref and --current-branch cannot be used together")
		}
		branch, err := checkout.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		opts.Ref = branch
	}
	return nil
}
