package snapshot

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	fcerrors "thoreinstein.com/flightcheck/pkg/errors"
)

// CachedStore fronts a Store with LRU caches for Latest (by project) and
// Get (by id). Writes go through to the underlying store first.
type CachedStore struct {
	inner  Store
	latest *lru.Cache[string, *Snapshot]
	byID   *lru.Cache[string, *Snapshot]
}

// NewCachedStore wraps inner with caches holding up to size entries each.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	latest, err := lru.New[string, *Snapshot](size)
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("NewCachedStore", "", "invalid cache size", err)
	}
	byID, err := lru.New[string, *Snapshot](size)
	if err != nil {
		return nil, fcerrors.NewSnapshotErrorWithCause("NewCachedStore", "", "invalid cache size", err)
	}
	return &CachedStore{inner: inner, latest: latest, byID: byID}, nil
}

// Create writes through and caches the new snapshot.
func (c *CachedStore) Create(ctx context.Context, projectID string, data Data) (*Snapshot, error) {
	snap, err := c.inner.Create(ctx, projectID, data)
	if err != nil {
		return nil, err
	}
	c.byID.Add(snap.ID, snap)
	if cur, ok := c.latest.Get(projectID); !ok || !snap.CreatedAt.Before(cur.CreatedAt) {
		c.latest.Add(projectID, snap)
	}
	return snap, nil
}

// Latest serves from cache, falling back to the underlying store.
func (c *CachedStore) Latest(ctx context.Context, projectID string) (*Snapshot, error) {
	if snap, ok := c.latest.Get(projectID); ok {
		return snap, nil
	}
	snap, err := c.inner.Latest(ctx, projectID)
	if err != nil || snap == nil {
		return snap, err
	}
	c.latest.Add(projectID, snap)
	c.byID.Add(snap.ID, snap)
	return snap, nil
}

// Get serves from cache, falling back to the underlying store.
func (c *CachedStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	if snap, ok := c.byID.Get(id); ok {
		return snap, nil
	}
	snap, err := c.inner.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.byID.Add(id, snap)
	return snap, nil
}

// List is not cached.
func (c *CachedStore) List(ctx context.Context, projectID string, limit int) ([]*Snapshot, error) {
	return c.inner.List(ctx, projectID, limit)
}
