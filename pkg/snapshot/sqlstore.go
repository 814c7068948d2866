package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// Supported SQL dialects.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is the cause of the SnapshotError returned by Get for an
// unknown id.
var ErrNotFound = fcerrors.New("snapshot not found")

const schema = `
CREATE TABLE IF NOT EXISTS repo_snapshots (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	created_at BIGINT NOT NULL,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS repo_snapshots_project_created
	ON repo_snapshots (project_id, created_at)`

// SQLStore stores snapshots in SQLite or PostgreSQL. Payloads are JSON text
// and creation times are Unix nanoseconds.
type SQLStore struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// SQLStoreOption configures a SQLStore.
type SQLStoreOption func(*SQLStore)

// WithStoreClock replaces time.Now for created_at.
func WithStoreClock(now func() time.Time) SQLStoreOption {
	return func(s *SQLStore) {
		s.now = now
	}
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(path string, opts ...SQLStoreOption) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("Open", "", "failed to create database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("Open", "", "failed to open sqlite database", err)
	}
	// SQLite allows one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fcerrors.NewSnapshotErrorWithCause("Open", "", "failed to enable WAL mode", err)
	}

	return newSQLStore(db, DriverSQLite, opts), nil
}

// OpenPostgres connects to PostgreSQL through pgx.
func OpenPostgres(ctx context.Context, dsn string, opts ...SQLStoreOption) (*SQLStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("Open", "", "failed to open postgres connection", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fcerrors.NewSnapshotErrorWithCause("Open", "", "failed to reach postgres", err)
	}
	return newSQLStore(db, DriverPostgres, opts), nil
}

func newSQLStore(db *sql.DB, dialect string, opts []SQLStoreOption) *SQLStore {
	s := &SQLStore{db: db, dialect: dialect, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates the snapshot table and index.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for stmt := range strings.SplitSeq(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fcerrors.NewSnapshotErrorWithCause("Migrate", "", "failed to apply schema", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Create inserts a new snapshot row.
func (s *SQLStore) Create(ctx context.Context, projectID string, data Data) (*Snapshot, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("Create", projectID, "failed to encode snapshot", err)
	}

	snap := &Snapshot{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		CreatedAt: s.now().UTC(),
		Data:      data,
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO repo_snapshots (id, project_id, created_at, data) VALUES (?, ?, ?, ?)`),
		snap.ID, projectID, snap.CreatedAt.UnixNano(), string(payload))
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("Create", projectID, "failed to insert snapshot", err)
	}
	return snap, nil
}

// Latest returns the newest snapshot for projectID, or nil.
func (s *SQLStore) Latest(ctx context.Context, projectID string) (*Snapshot, error) {
	snaps, err := s.List(ctx, projectID, 1)
	if err != nil {
		var snapErr *fcerrors.SnapshotError
		if fcerrors.As(err, &snapErr) {
			snapErr.Operation = "Latest"
		}
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return snaps[0], nil
}

// Get returns a snapshot by id.
func (s *SQLStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, project_id, created_at, data FROM repo_snapshots WHERE id = ?`), id)

	snap, err := scanSnapshot(row)
	if fcerrors.Is(err, sql.ErrNoRows) {
		return nil, fcerrors.NewSnapshotErrorWithCause("Get", "", "no snapshot with id "+id, ErrNotFound)
	}
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("Get", "", "failed to read snapshot", err)
	}
	return snap, nil
}

// List returns up to limit snapshots for projectID, newest first. A
// non-positive limit returns all of them.
func (s *SQLStore) List(ctx context.Context, projectID string, limit int) ([]*Snapshot, error) {
	query := `SELECT id, project_id, created_at, data FROM repo_snapshots WHERE project_id = ? ORDER BY created_at DESC`
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("List", projectID, "failed to query snapshots", err)
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fcerrors.NewSnapshotErrorWithCause("List", projectID, "failed to read snapshot", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("List", projectID, "failed to read snapshots", err)
	}
	return snaps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		snap      Snapshot
		createdAt int64
		payload   string
	)
	if err := row.Scan(&snap.ID, &snap.ProjectID, &createdAt, &payload); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &snap.Data); err != nil {
		return nil, fcerrors.Wrap(err, "decode snapshot payload")
	}
	snap.CreatedAt = time.Unix(0, createdAt).UTC()
	return &snap, nil
}

// rebind converts ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
