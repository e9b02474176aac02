package dotted

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of snapshots the default accelerator keeps.
const DefaultCacheSize = 64

// Accelerator caches verified snapshots. Stores check it against the
// artifact they read on open, and invalidate and rewarm it after every write. It is best-effort: keys are Persist.Locate results, and one
// accelerator may be shared by any number of stores.
type Accelerator interface {
	// Lookup returns a copy of the cached snapshot for key, if any.
	Lookup(key string) (*Snapshot, bool)
	// Invalidate drops key.
	Invalidate(key string)
	// Precompile verifies the snapshot and caches it under key.
	Precompile(key string, snapshot *Snapshot) error
}

type snapshotCache struct {
	arc *lru.ARCCache
}

// NewSnapshotCache creates an ARC-based accelerator holding size snapshots.
func NewSnapshotCache(size int) Accelerator {
	cache, err := lru.NewARC(size)
	if err != nil {
		panic(err)
	}
	return &snapshotCache{arc: cache}
}

func (c *snapshotCache) Lookup(key string) (*Snapshot, bool) {
	v, ok := c.arc.Get(key)
	if !ok {
		return nil, false
	}
	return v.(*Snapshot).clone(), true
}

func (c *snapshotCache) Invalidate(key string) {
	c.arc.Remove(key)
}

func (c *snapshotCache) Precompile(key string, snapshot *Snapshot) error {
	if snapshot == nil {
		return errors.New("dotted: precompile: nil snapshot")
	}
	if err := snapshot.Verify(); err != nil {
		return err
	}
	c.arc.Add(key, snapshot.clone())
	return nil
}
