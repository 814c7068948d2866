package repo

import (
	"context"
	"log/slog"
	"path"
	"sync"
	"unicode/utf8"

	"thoreinstein.com/flightcheck/pkg/github"
)

// Defaults for Analyzer limits.
const (
	DefaultMaxFileSize = 10000
	DefaultCommitLimit = 10
	DefaultMaxDepth    = 10
	DefaultMaxEntries  = 5000
)

// Analyzer builds an Analysis from a github.RepoReader.
type Analyzer struct {
	reader      github.RepoReader
	extractor   SymbolExtractor
	logger      *slog.Logger
	maxFileSize int
	commitLimit int
	maxDepth    int
	maxEntries  int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for skipped subtrees and files.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSymbolExtractor replaces the regex symbol extractor.
func WithSymbolExtractor(e SymbolExtractor) Option {
	return func(a *Analyzer) {
		if e != nil {
			a.extractor = e
		}
	}
}

// WithMaxFileSize sets the per-key-file content budget in bytes.
func WithMaxFileSize(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxFileSize = n
		}
	}
}

// WithCommitLimit sets how many recent commits are fetched.
func WithCommitLimit(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.commitLimit = n
		}
	}
}

// WithTraversalLimits bounds directory depth and the total number of
// recorded entries.
func WithTraversalLimits(maxDepth, maxEntries int) Option {
	return func(a *Analyzer) {
		if maxDepth > 0 {
			a.maxDepth = maxDepth
		}
		if maxEntries > 0 {
			a.maxEntries = maxEntries
		}
	}
}

// NewAnalyzer creates an Analyzer reading through reader.
func NewAnalyzer(reader github.RepoReader, opts ...Option) *Analyzer {
	a := &Analyzer{
		reader:      reader,
		extractor:   RegexExtractor{},
		logger:      slog.Default(),
		maxFileSize: DefaultMaxFileSize,
		commitLimit: DefaultCommitLimit,
		maxDepth:    DefaultMaxDepth,
		maxEntries:  DefaultMaxEntries,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze fetches structure, key files and commits concurrently and
// aggregates them. A failure in one fetch does not cancel the others; the
// first error encountered (key files, then commits) is returned.
func (a *Analyzer) Analyze(ctx context.Context, owner, repo, ref string) (*Analysis, error) {
	var (
		wg        sync.WaitGroup
		structure []Entry
		keyFiles  []KeyFile
		commits   []Commit
		keyErr    error
		commitErr error
	)

	wg.Go(func() {
		structure = a.AnalyzeStructure(ctx, owner, repo, ref)
	})
	wg.Go(func() {
		keyFiles, keyErr = a.KeyFiles(ctx, owner, repo, ref)
	})
	wg.Go(func() {
		commits, commitErr = a.RecentCommits(ctx, owner, repo, a.commitLimit)
	})
	wg.Wait()

	if keyErr != nil {
		return nil, keyErr
	}
	if commitErr != nil {
		return nil, commitErr
	}

	analysis := &Analysis{
		FileStructure: structure,
		KeyFiles:      keyFiles,
		RecentCommits: commits,
		Languages:     []string{},
	}

	seen := make(map[string]bool)
	for _, e := range structure {
		if e.Type != TypeFile {
			continue
		}
		analysis.TotalFiles++
		analysis.TotalLines += e.Size
		if e.Language != "" && !seen[e.Language] {
			seen[e.Language] = true
			analysis.Languages = append(analysis.Languages, e.Language)
		}
	}

	a.logger.Debug("repository analyzed",
		"owner", owner,
		"repo", repo,
		"entries", len(structure),
		"key_files", len(keyFiles),
		"commits", len(commits))

	return analysis, nil
}

// AnalyzeStructure walks the tree from the root. Subtrees that cannot be
// listed are logged and skipped. The walk stops descending past the depth
// limit and stops recording once the entry limit is reached.
func (a *Analyzer) AnalyzeStructure(ctx context.Context, owner, repo, ref string) []Entry {
	w := &walker{a: a, owner: owner, repo: repo, ref: ref, entries: []Entry{}}
	w.walk(ctx, "", 0)
	return w.entries
}

type walker struct {
	a                *Analyzer
	owner, repo, ref string
	entries          []Entry
	truncated        bool
}

func (w *walker) walk(ctx context.Context, dir string, depth int) {
	if w.truncated {
		return
	}

	items, err := w.a.reader.ListContents(ctx, w.owner, w.repo, dir, w.ref)
	if err != nil {
		w.a.logger.Warn("skipping unreadable path", "path", dir, "error", err)
		return
	}

	for _, item := range items {
		if len(w.entries) >= w.a.maxEntries {
			w.truncated = true
			w.a.logger.Warn("entry limit reached, truncating file structure", "limit", w.a.maxEntries)
			return
		}

		p := item.Path
		if p == "" {
			p = path.Join(dir, item.Name)
		}

		switch item.Type {
		case github.EntryFile:
			w.entries = append(w.entries, Entry{
				Path:     p,
				Type:     TypeFile,
				Size:     item.Size,
				Language: DetectLanguage(p),
			})
		case github.EntryDir:
			w.entries = append(w.entries, Entry{Path: p, Type: TypeDirectory})
			if depth+1 >= w.a.maxDepth {
				w.a.logger.Warn("depth limit reached, not descending", "path", p, "limit", w.a.maxDepth)
				continue
			}
			w.walk(ctx, p, depth+1)
		}
	}
}

// KeyFiles fetches allow-listed files at the repository root. Failing to
// list the root is an error; failing to fetch one file is logged and the
// file omitted.
func (a *Analyzer) KeyFiles(ctx context.Context, owner, repo, ref string) ([]KeyFile, error) {
	root, err := a.reader.ListContents(ctx, owner, repo, "", ref)
	if err != nil {
		return nil, err
	}

	keyFiles := []KeyFile{}
	for _, item := range root {
		p := item.Path
		if p == "" {
			p = item.Name
		}
		if item.Type != github.EntryFile || !IsKeyFile(path.Base(p)) {
			continue
		}

		content, err := a.reader.GetFileContent(ctx, owner, repo, p, ref)
		if err != nil {
			a.logger.Warn("skipping key file", "path", p, "error", err)
			continue
		}

		keyFiles = append(keyFiles, KeyFile{
			Path:      p,
			Content:   Truncate(content, a.maxFileSize),
			Functions: a.extractor.ExtractSymbols(content, p),
		})
	}
	return keyFiles, nil
}

// RecentCommits returns up to limit commits, newest first.
func (a *Analyzer) RecentCommits(ctx context.Context, owner, repo string, limit int) ([]Commit, error) {
	raw, err := a.reader.ListCommits(ctx, owner, repo, limit)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(raw))
	for _, c := range raw {
		commits = append(commits, Commit{SHA: c.SHA, Message: c.Message, Date: c.Date})
	}
	return commits, nil
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if n < 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
