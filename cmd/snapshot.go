package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

var (
	snapshotRef  string
	snapshotJSON bool
	diffFrom     string
	diffTo       string
)

// snapshotCmd groups snapshot subcommands.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage repository snapshots",
	Long: `Create and inspect the repository snapshots alignment checks are run against.

Examples:
  flightcheck snapshot create acme/web --ref main
  flightcheck snapshot latest acme/web
  flightcheck snapshot diff acme/web`,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create <project>",
	Short: "Take a new snapshot of a repository",
	Args:  cobra.ExactArgs(1),
}

var snapshotLatestCmd = &cobra.Command{
	Use:   "latest <project>",
	Short: "Show the most recent snapshot of a repository",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotStore(cmd, func(ctx context.Context, store snapshot.Store, _ *snapshot.Manager, _ snapshot.Options) error {
			return runSnapshotLatest(ctx, store, args[0], cmd.OutOrStdout())
		})
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <project>",
	Short: "Compare two snapshots of a repository",
	Long: `Compare two snapshots by file path.

Without --from and --to the two most recent snapshots are compared.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSnapshotStore(cmd, func(ctx context.Context, store snapshot.Store, _ *snapshot.Manager, _ snapshot.Options) error {
			return runSnapshotDiff(ctx, store, args[0], diffFrom, diffTo, cmd.OutOrStdout())
		})
	},
}

func init() {
	// RunE is assigned here rather than in the literal to break the
	// initialization cycle with withSnapshotStore's snapshotCreateCmd check.
	snapshotCreateCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withSnapshotStore(cmd, func(ctx context.Context, store snapshot.Store, manager *snapshot.Manager, opts snapshot.Options) error {
			project, err := snapshot.ParseProject(args[0])
			if err != nil {
				return err
			}
			s, err := manager.CreateSnapshot(ctx, project, snapshotRef, opts)
			if err != nil {
				return err
			}
			return writeSnapshot(cmd.OutOrStdout(), s)
		})
	}

	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd, snapshotLatestCmd, snapshotDiffCmd)

	snapshotCmd.PersistentFlags().BoolVar(&snapshotJSON, "json", false, "print JSON")
	snapshotCreateCmd.Flags().StringVar(&snapshotRef, "ref", "", "branch, tag or commit to analyze")
	snapshotDiffCmd.Flags().StringVar(&diffFrom, "from", "", "older snapshot id")
	snapshotDiffCmd.Flags().StringVar(&diffTo, "to", "", "newer snapshot id")
}

// withSnapshotStore opens the store, builds a manager, and runs fn.
func withSnapshotStore(cmd *cobra.Command, fn func(ctx context.Context, store snapshot.Store, manager *snapshot.Manager, opts snapshot.Options) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	logger := newLogger()

	store, closeStore, err := snapshot.Open(ctx, &cfg.Store)
	if err != nil {
		fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
		return err
	}
	defer func() { _ = closeStore() }()

	var manager *snapshot.Manager
	if cmd == snapshotCreateCmd {
		manager, err = newSnapshotManager(ctx, cfg, store, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
			return err
		}
	}

	if err := fn(ctx, store, manager, snapshotOptions(&cfg.Snapshot)); err != nil {
		fmt.Fprintln(os.Stderr, fcerrors.FormatUserError(err))
		return err
	}
	return nil
}

func runSnapshotLatest(ctx context.Context, store snapshot.Store, projectRef string, out io.Writer) error {
	project, err := snapshot.ParseProject(projectRef)
	if err != nil {
		return err
	}
	s, err := store.Latest(ctx, project.ID)
	if err != nil {
		return err
	}
	if s == nil {
		return errors.Newf("no snapshots for %s; run 'flightcheck snapshot create %s'", project.ID, project.ID)
	}
	return writeSnapshot(out, s)
}

func runSnapshotDiff(ctx context.Context, store snapshot.Store, projectRef, fromID, toID string, out io.Writer) error {
	project, err := snapshot.ParseProject(projectRef)
	if err != nil {
		return err
	}

	var older, newer *snapshot.Snapshot
	if fromID != "" || toID != "" {
		if fromID == "" || toID == "" {
			return errors.New("--from and --to must be given together")
		}
		if older, err = store.Get(ctx, fromID); err != nil {
			return err
		}
		if newer, err = store.Get(ctx, toID); err != nil {
			return err
		}
	} else {
		recent, err := store.List(ctx, project.ID, 2)
		if err != nil {
			return err
		}
		if len(recent) < 2 {
			return errors.Newf("need two snapshots of %s to compare, found %d", project.ID, len(recent))
		}
		newer, older = recent[0], recent[1]
	}

	d := snapshot.CompareSnapshots(older, newer)
	if snapshotJSON {
		return encodeJSON(out, d)
	}
	printDiff(out, older, newer, d)
	return nil
}

func writeSnapshot(out io.Writer, s *snapshot.Snapshot) error {
	if snapshotJSON {
		return encodeJSON(out, s)
	}
	printSnapshot(out, s)
	return nil
}

func encodeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode JSON")
}
