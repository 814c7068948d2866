package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/flightcheck/pkg/repo"
	"thoreinstein.com/flightcheck/pkg/snapshot"
)

func newCmdTestStore(t *testing.T) *snapshot.SQLStore {
	t.Helper()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	store, err := snapshot.OpenSQLite(filepath.Join(t.TempDir(), "snapshots.db"), snapshot.WithStoreClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func dataWithFiles(sha string, paths ...string) snapshot.Data {
	d := snapshot.Data{CommitSHA: sha}
	for _, p := range paths {
		d.FileStructure = append(d.FileStructure, repo.Entry{Path: p, Type: repo.TypeFile})
	}
	d.RecentCommits = []repo.Commit{{SHA: sha}}
	d.TotalFiles = len(paths)
	return d
}

func TestRunSnapshotLatest(t *testing.T) {
	ctx := context.Background()
	store := newCmdTestStore(t)

	err := runSnapshotLatest(ctx, store, "acme/web", &bytes.Buffer{})
	assert.ErrorContains(t, err, "no snapshots for acme/web")

	_, err = store.Create(ctx, "acme/web", dataWithFiles("aaaaaaa111", "a.ts"))
	require.NoError(t, err)
	latest, err := store.Create(ctx, "acme/web", dataWithFiles("bbbbbbb222", "a.ts", "b.ts"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runSnapshotLatest(ctx, store, "acme/web", &out))
	assert.Contains(t, out.String(), latest.ID)
	assert.Contains(t, out.String(), "Commit:    bbbbbbb")
	assert.Contains(t, out.String(), "Files:     2")
}

func TestRunSnapshotDiff(t *testing.T) {
	ctx := context.Background()
	store := newCmdTestStore(t)

	err := runSnapshotDiff(ctx, store, "acme/web", "", "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "need two snapshots")

	first, err := store.Create(ctx, "acme/web", dataWithFiles("1111111aaa", "a.ts", "b.ts"))
	require.NoError(t, err)
	second, err := store.Create(ctx, "acme/web", dataWithFiles("2222222bbb", "b.ts", "c.ts"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runSnapshotDiff(ctx, store, "acme/web", "", "", &out))
	text := out.String()
	assert.Contains(t, text, first.ID+" (1111111) -> "+second.ID+" (2222222)")
	assert.Contains(t, text, "+ c.ts")
	assert.Contains(t, text, "- a.ts")
	assert.Contains(t, text, "1 files present in both snapshots")

	out.Reset()
	require.NoError(t, runSnapshotDiff(ctx, store, "acme/web", second.ID, first.ID, &out))
	assert.Contains(t, out.String(), "+ a.ts")

	err = runSnapshotDiff(ctx, store, "acme/web", first.ID, "", &bytes.Buffer{})
	assert.ErrorContains(t, err, "--from and --to")
}

func TestRunSnapshotDiff_JSON(t *testing.T) {
	ctx := context.Background()
	store := newCmdTestStore(t)

	_, err := store.Create(ctx, "acme/web", dataWithFiles("1111111", "a.ts", "b.ts"))
	require.NoError(t, err)
	_, err = store.Create(ctx, "acme/web", dataWithFiles("2222222", "b.ts", "c.ts"))
	require.NoError(t, err)

	snapshotJSON = true
	defer func() { snapshotJSON = false }()

	var out bytes.Buffer
	require.NoError(t, runSnapshotDiff(ctx, store, "acme/web", "", "", &out))

	var d snapshot.Diff
	require.NoError(t, json.Unmarshal(out.Bytes(), &d))
	assert.Equal(t, snapshot.Diff{
		AddedFiles:    []string{"c.ts"},
		RemovedFiles:  []string{"a.ts"},
		ModifiedFiles: []string{"b.ts"},
		NewCommits:    1,
	}, d)
}
