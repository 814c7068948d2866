package snapshot

import (
	"context"
	"log/slog"
	"time"

	"thoreinstein.com/flightcheck/pkg/repo"
)

// Defaults applied by Manager.
const (
	DefaultFreshness   = time.Hour
	DefaultMaxFiles    = 50
	DefaultMaxFileSize = 10000
)

// Analyzer produces a repository analysis. *repo.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, owner, repo, ref string) (*repo.Analysis, error)
}

// Options limits the key files kept in a snapshot.
type Options struct {
	MaxFiles       int
	MaxFileSize    int
	IncludeContent bool
}

// DefaultOptions returns 50 files, 10,000 bytes each, content included.
func DefaultOptions() Options {
	return Options{
		MaxFiles:       DefaultMaxFiles,
		MaxFileSize:    DefaultMaxFileSize,
		IncludeContent: true,
	}
}

// Manager creates, reuses and compares snapshots.
type Manager struct {
	analyzer  Analyzer
	store     Store
	freshness time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFreshness sets how old a snapshot may be and still be reused.
func WithFreshness(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.freshness = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager.
func NewManager(analyzer Analyzer, store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		analyzer:  analyzer,
		store:     store,
		freshness: DefaultFreshness,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSnapshot analyzes the repository, applies opts to the key files and
// persists the result.
func (m *Manager) CreateSnapshot(ctx context.Context, project Project, ref string, opts Options) (*Snapshot, error) {
	analysis, err := m.analyzer.Analyze(ctx, project.Owner, project.Repo, ref)
	if err != nil {
		return nil, err
	}

	data := Data{
		Analysis:  *analysis,
		CommitSHA: UnknownCommit,
		Timestamp: m.now().UTC(),
	}
	if len(analysis.RecentCommits) > 0 {
		data.CommitSHA = analysis.RecentCommits[0].SHA
	}
	data.KeyFiles = limitKeyFiles(analysis.KeyFiles, opts)

	snap, err := m.store.Create(ctx, project.ID, data)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("snapshot created", "project", project.ID, "id", snap.ID, "commit", data.CommitSHA)
	return snap, nil
}

// GetOrCreateSnapshot returns the latest snapshot when it is younger than
// the freshness window, and creates a new one otherwise.
func (m *Manager) GetOrCreateSnapshot(ctx context.Context, project Project, ref string, opts Options) (*Snapshot, error) {
	existing, err := m.store.Latest(ctx, project.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		age := m.now().Sub(existing.CreatedAt)
		if age < m.freshness {
			m.logger.Debug("reusing snapshot", "project", project.ID, "id", existing.ID, "age", age)
			return existing, nil
		}
		m.logger.Debug("snapshot stale", "project", project.ID, "id", existing.ID, "age", age)
	}

	return m.CreateSnapshot(ctx, project, ref, opts)
}

func limitKeyFiles(files []repo.KeyFile, opts Options) []repo.KeyFile {
	maxFiles := opts.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	if len(files) > maxFiles {
		files = files[:maxFiles]
	}

	limited := make([]repo.KeyFile, len(files))
	for i, f := range files {
		limited[i] = f
		if opts.IncludeContent {
			limited[i].Content = repo.Truncate(f.Content, maxSize)
		} else {
			limited[i].Content = ""
		}
	}
	return limited
}
