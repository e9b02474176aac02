package dotted

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// Persist is the storage a Store reads its snapshot from and writes it to.
// Artifacts are addressed by name and are always rewritten whole.
type Persist interface {
	// Exists reports whether an artifact with the given name has been stored.
	Exists(ctx context.Context, name string) (bool, error)
	// Load retrieves the previously-stored bytes by the given name.
	Load(ctx context.Context, name string) ([]byte, error)
	// Store replaces the artifact of the given name with the given bytes.
	Store(ctx context.Context, name string, b []byte) error
	// Locate returns a location for the named artifact that is unique across
	// Persists, used as the snapshot's path and as the accelerator key.
	Locate(name string) string
}

type inMemoryStore struct {
	entries map[string][]byte
	l       sync.Mutex
}

// NewInMemoryStore provides a Persist that keeps artifacts in a map, usually for testing.
func NewInMemoryStore() Persist {
	return &inMemoryStore{}
}

func (ims *inMemoryStore) Exists(ctx context.Context, name string) (bool, error) {
	ims.l.Lock()
	_, ok := ims.entries[name]
	ims.l.Unlock()
	return ok, nil
}

func (ims *inMemoryStore) Store(ctx context.Context, name string, value []byte) error {
	stored := append([]byte(nil), value...)
	ims.l.Lock()
	if ims.entries == nil {
		ims.entries = map[string][]byte{name: stored}
	} else {
		ims.entries[name] = stored
	}
	ims.l.Unlock()
	return nil
}

func (ims *inMemoryStore) Load(ctx context.Context, name string) ([]byte, error) {
	ims.l.Lock()
	value, ok := ims.entries[name]
	ims.l.Unlock()
	if !ok {
		return nil, fmt.Errorf("inMemoryStore entry not found for %s: %w", name, os.ErrNotExist)
	}
	return append([]byte(nil), value...), nil
}

func (ims *inMemoryStore) Locate(name string) string {
	return fmt.Sprintf("mem://%p/%s", ims, name)
}
