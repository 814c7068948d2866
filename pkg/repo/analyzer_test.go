package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/flightcheck/pkg/github"
)

// fakeReader serves a fixed tree keyed by directory path.
type fakeReader struct {
	mu        sync.Mutex
	dirs      map[string][]github.ContentEntry
	files     map[string]string
	commits   []github.Commit
	dirErr    map[string]error
	fileErr   map[string]error
	commitErr error
	listed    []string
}

func (f *fakeReader) ListContents(_ context.Context, _, _, p, _ string) ([]github.ContentEntry, error) {
	f.mu.Lock()
	f.listed = append(f.listed, p)
	f.mu.Unlock()
	if err := f.dirErr[p]; err != nil {
		return nil, err
	}
	return f.dirs[p], nil
}

func (f *fakeReader) GetFileContent(_ context.Context, _, _, p, _ string) (string, error) {
	if err := f.fileErr[p]; err != nil {
		return "", err
	}
	return f.files[p], nil
}

func (f *fakeReader) ListCommits(_ context.Context, _, _ string, limit int) ([]github.Commit, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	if len(f.commits) > limit {
		return f.commits[:limit], nil
	}
	return f.commits, nil
}

func file(p string, size int) github.ContentEntry {
	return github.ContentEntry{Path: p, Name: p[strings.LastIndex(p, "/")+1:], Type: github.EntryFile, Size: size}
}

func dir(p string) github.ContentEntry {
	return github.ContentEntry{Path: p, Name: p[strings.LastIndex(p, "/")+1:], Type: github.EntryDir}
}

func sampleReader() *fakeReader {
	return &fakeReader{
		dirs: map[string][]github.ContentEntry{
			"": {
				file("package.json", 120),
				file("README.md", 80),
				file("notes.txt", 5),
				dir("src"),
			},
			"src": {
				file("src/index.ts", 300),
				dir("src/components"),
			},
			"src/components": {
				file("src/components/Button.tsx", 200),
				file("src/components/util.js", 50),
			},
		},
		files: map[string]string{
			"package.json": `{"name":"demo"}`,
			"README.md":    "# demo\nexport function hello() {}",
		},
		commits: []github.Commit{
			{SHA: "abc1234", Message: "init", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer(sampleReader())
	got, err := a.Analyze(context.Background(), "o", "r", "")
	require.NoError(t, err)

	paths := make([]string, 0, len(got.FileStructure))
	for _, e := range got.FileStructure {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{
		"package.json", "README.md", "notes.txt", "src",
		"src/index.ts", "src/components",
		"src/components/Button.tsx", "src/components/util.js",
	}, paths)

	assert.Equal(t, 6, got.TotalFiles)
	assert.Equal(t, 120+80+5+300+200+50, got.TotalLines)
	assert.Equal(t, []string{"json", "markdown", "typescript", "javascript"}, got.Languages)

	require.Len(t, got.KeyFiles, 2)
	assert.Equal(t, "package.json", got.KeyFiles[0].Path)
	assert.Equal(t, []string{"hello"}, got.KeyFiles[1].Functions)

	require.Len(t, got.RecentCommits, 1)
	assert.Equal(t, "abc1234", got.RecentCommits[0].SHA)
}

func TestAnalyzeStructure_SubtreeErrorIsSkipped(t *testing.T) {
	r := sampleReader()
	r.dirErr = map[string]error{"src/components": errors.New("forbidden")}

	entries := NewAnalyzer(r).AnalyzeStructure(context.Background(), "o", "r", "")

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	assert.Contains(t, paths, "src/components")
	assert.NotContains(t, paths, "src/components/Button.tsx")
	assert.Contains(t, paths, "src/index.ts")
}

func TestAnalyzeStructure_RootErrorYieldsEmpty(t *testing.T) {
	r := sampleReader()
	r.dirErr = map[string]error{"": errors.New("boom")}

	entries := NewAnalyzer(r).AnalyzeStructure(context.Background(), "o", "r", "")
	assert.Empty(t, entries)
}

func TestAnalyzeStructure_Limits(t *testing.T) {
	t.Run("depth", func(t *testing.T) {
		r := sampleReader()
		entries := NewAnalyzer(r, WithTraversalLimits(1, 0)).AnalyzeStructure(context.Background(), "o", "r", "")
		assert.Len(t, entries, 4)
		assert.Equal(t, []string{""}, r.listed)
	})

	t.Run("entries", func(t *testing.T) {
		entries := NewAnalyzer(sampleReader(), WithTraversalLimits(0, 3)).AnalyzeStructure(context.Background(), "o", "r", "")
		assert.Len(t, entries, 3)
	})
}

func TestKeyFiles(t *testing.T) {
	t.Run("fetch failure omits file", func(t *testing.T) {
		r := sampleReader()
		r.fileErr = map[string]error{"package.json": errors.New("404")}

		files, err := NewAnalyzer(r).KeyFiles(context.Background(), "o", "r", "")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "README.md", files[0].Path)
	})

	t.Run("content truncated", func(t *testing.T) {
		r := sampleReader()
		r.files["README.md"] = strings.Repeat("x", 50)

		files, err := NewAnalyzer(r, WithMaxFileSize(10)).KeyFiles(context.Background(), "o", "r", "")
		require.NoError(t, err)
		assert.Len(t, files[1].Content, 10)
	})

	t.Run("root listing failure is an error", func(t *testing.T) {
		r := sampleReader()
		r.dirErr = map[string]error{"": errors.New("unauthorized")}

		_, err := NewAnalyzer(r).KeyFiles(context.Background(), "o", "r", "")
		assert.Error(t, err)
	})
}

func TestAnalyze_CommitErrorPropagates(t *testing.T) {
	r := sampleReader()
	r.commitErr = errors.New("rate limited")

	_, err := NewAnalyzer(r).Analyze(context.Background(), "o", "r", "")
	assert.ErrorContains(t, err, "rate limited")
}

func TestRecentCommits_Limit(t *testing.T) {
	r := sampleReader()
	for i := range 15 {
		r.commits = append(r.commits, github.Commit{SHA: strings.Repeat("a", i+1)})
	}

	commits, err := NewAnalyzer(r).RecentCommits(context.Background(), "o", "r", DefaultCommitLimit)
	require.NoError(t, err)
	assert.Len(t, commits, DefaultCommitLimit)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "h", Truncate("hé", 2), "must not split a multibyte rune")
}
