// Package snapshot persists repository analyses per project and decides
// when a stored analysis is fresh enough to reuse.
package snapshot

import (
	"context"
	"time"

	"thoreinstein.com/flightcheck/pkg/github"
	"thoreinstein.com/flightcheck/pkg/repo"
)

// UnknownCommit is recorded when the analysis returned no commits.
const UnknownCommit = "unknown"

// Data is the persisted payload: the analysis plus the head commit it was
// taken at.
type Data struct {
	repo.Analysis
	CommitSHA string    `json:"commitSha"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a stored, immutable Data row.
type Snapshot struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
	Data      Data      `json:"data"`
}

// Store persists snapshots.
type Store interface {
	// Create stores data as a new snapshot for projectID.
	Create(ctx context.Context, projectID string, data Data) (*Snapshot, error)

	// Latest returns the newest snapshot for projectID, or nil when there is none.
	Latest(ctx context.Context, projectID string) (*Snapshot, error)

	// Get returns the snapshot with the given id.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// List returns up to limit snapshots for projectID, newest first.
	List(ctx context.Context, projectID string, limit int) ([]*Snapshot, error)
}

// Project identifies the repository a snapshot belongs to.
type Project struct {
	ID    string
	Owner string
	Repo  string
}

// ParseProject accepts "owner/repo" or a GitHub URL. The project ID is
// "owner/repo".
func ParseProject(s string) (Project, error) {
	owner, name, err := github.ParseRepo(s)
	if err != nil {
		return Project{}, err
	}
	return Project{ID: owner + "/" + name, Owner: owner, Repo: name}, nil
}
