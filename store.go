package dotted

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StoreOption configures Open.
type StoreOption func(*storeConfig)

type storeConfig struct {
	name           string
	delimiter      string
	format         Format
	diagnostics    Diagnostics
	accelerator    Accelerator
	acceleratorSet bool
	autosave       bool
	readonly       bool
	seed           any
	now            func() time.Time
}

// WithName sets the store name checked against the snapshot on load. By
// default the artifact's base name without extension is used.
func WithName(name string) StoreOption {
	return func(cfg *storeConfig) { cfg.name = name }
}

// WithStoreDelimiter sets the delimiter of the store's tree.
func WithStoreDelimiter(delimiter string) StoreOption {
	return func(cfg *storeConfig) { cfg.delimiter = delimiter }
}

// WithFormat overrides the format chosen from the artifact extension.
func WithFormat(format Format) StoreOption {
	return func(cfg *storeConfig) { cfg.format = format }
}

// WithDiagnostics attaches a diagnostics sink.
func WithDiagnostics(d Diagnostics) StoreOption {
	return func(cfg *storeConfig) { cfg.diagnostics = d }
}

// WithAccelerator replaces the process-wide snapshot cache. Passing nil
// leaves the store without one.
func WithAccelerator(a Accelerator) StoreOption {
	return func(cfg *storeConfig) {
		cfg.accelerator = a
		cfg.acceleratorSet = true
	}
}

// WithAutosave makes Close save a non-empty tree.
func WithAutosave(on bool) StoreOption {
	return func(cfg *storeConfig) { cfg.autosave = on }
}

// WithReadonly marks the store read-only. See SetReadonly.
func WithReadonly(on bool) StoreOption {
	return func(cfg *storeConfig) { cfg.readonly = on }
}

// WithSeed merges data into the tree before loading. A seeded tree is not
// overwritten by the artifact.
func WithSeed(data any) StoreOption {
	return func(cfg *storeConfig) { cfg.seed = data }
}

// WithClock sets the time source for snapshot timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(cfg *storeConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

var (
	sharedCacheOnce sync.Once
	sharedCache     Accelerator
)

func defaultAccelerator() Accelerator {
	sharedCacheOnce.Do(func() {
		sharedCache = NewSnapshotCache(DefaultCacheSize)
	})
	return sharedCache
}

// Store keeps a Tree in a snapshot artifact. The artifact is read once by
// Open and rewritten whole by Save, only when the tree's content hash
// differs from the last one read or written. A Store is not safe for
// concurrent use, and nothing stops another process writing the same
// artifact; a crash during Store.Save can leave it truncated.
type Store struct {
	tree     *Tree
	persist  Persist
	artifact string
	name     string
	format   Format

	diag  Diagnostics
	accel Accelerator
	now   func() time.Time

	readonly   bool
	autosave   bool
	locked     bool
	closed     bool
	storedHash string
	createdAt  time.Time
}

// Open creates a store for artifact in persist and loads it. Nothing is
// loaded when the artifact does not exist or the tree was seeded. A
// snapshot written under another name fails with a *ProvenanceError.
func Open(ctx context.Context, persist Persist, artifact string, opts ...StoreOption) (*Store, error) {
	if persist == nil {
		return nil, errors.New("dotted: no persistence mechanism set")
	}
	if artifact == "" {
		return nil, errors.New("dotted: artifact name must not be empty")
	}
	cfg := storeConfig{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.acceleratorSet {
		cfg.accelerator = defaultAccelerator()
	}
	if cfg.name == "" {
		base := path.Base(artifact)
		cfg.name = strings.TrimSuffix(base, path.Ext(base))
	}
	if cfg.format == "" {
		cfg.format = FormatFor(artifact)
	}

	s := &Store{
		tree:      New(WithDelimiter(cfg.delimiter)),
		persist:   persist,
		artifact:  artifact,
		name:      cfg.name,
		format:    cfg.format,
		diag:      cfg.diagnostics,
		accel:     cfg.accelerator,
		now:       cfg.now,
		readonly:  cfg.readonly,
		autosave:  cfg.autosave,
		createdAt: cfg.now(),
	}
	if cfg.seed != nil {
		if err := s.tree.Merge(cfg.seed); err != nil {
			return nil, fmt.Errorf("dotted: seed %s: %w", s.name, err)
		}
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) fields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{zap.String("store", s.name), zap.String("artifact", s.artifact)}, extra...)
}

func (s *Store) note(msg string, extra ...zap.Field) {
	if s.diag != nil {
		s.diag.Note(msg, s.fields(extra...)...)
	}
}

func (s *Store) load(ctx context.Context) error {
	exists, err := s.persist.Exists(ctx, s.artifact)
	if err != nil {
		return fmt.Errorf("dotted: check %s: %w", s.artifact, err)
	}
	if !exists {
		s.note("nothing to load", zap.String("reason", "artifact does not exist"))
		return nil
	}
	if !s.tree.Empty() {
		s.note("nothing to load", zap.String("reason", "tree already seeded"))
		return nil
	}
	snapshot, err := s.readSnapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot.Name != s.name {
		return &ProvenanceError{Artifact: s.artifact, Want: s.name, Got: snapshot.Name}
	}
	s.storedHash = snapshot.Hash
	s.tree.Replace(snapshot.Data)
	return nil
}

// readSnapshot always reads and decodes the artifact. The accelerator only
// supplies its verified copy when that copy carries the hash just read, and is
// refreshed otherwise.
func (s *Store) readSnapshot(ctx context.Context) (*Snapshot, error) {
	b, err := s.persist.Load(ctx, s.artifact)
	if err != nil {
		return nil, fmt.Errorf("dotted: persist load %s: %w", s.artifact, err)
	}
	snapshot, err := DecodeSnapshot(s.format, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.artifact, err)
	}
	if s.accel == nil {
		return snapshot, nil
	}
	key := s.persist.Locate(s.artifact)
	if cached, ok := s.accel.Lookup(key); ok {
		if cached.Hash == snapshot.Hash {
			s.note("accelerator current", zap.String("hash", cached.Hash))
			return cached, nil
		}
		s.note("accelerator stale", zap.String("cached", cached.Hash), zap.String("hash", snapshot.Hash))
		s.accel.Invalidate(key)
	}
	if err := s.accel.Precompile(key, snapshot); err != nil && s.diag != nil {
		s.diag.Warn("accelerator rejected snapshot", s.fields(zap.Error(err))...)
	}
	return snapshot, nil
}

// Save writes the tree as a fresh snapshot unless its content hash matches
// the one last read or written, and reports whether it wrote. After a write
// the accelerator is invalidated and rewarmed; if that fails the write still
// stands, and the failure is reported to Diagnostics, or returned wrapping
// ErrAcceleratorUnavailable when there is no sink.
func (s *Store) Save(ctx context.Context) (bool, error) {
	if s.locked {
		return false, ErrLocked
	}
	s.locked = true
	defer func() { s.locked = false }()

	hash, err := ContentHash(s.tree)
	if err != nil {
		return false, err
	}
	if hash == s.storedHash {
		s.note("snapshot unchanged, skipping write", zap.String("hash", hash))
		return false, nil
	}

	snapshot, err := NewSnapshot(s.name, s.persist.Locate(s.artifact), s.tree, s.now())
	if err != nil {
		return false, err
	}
	b, err := EncodeSnapshot(s.format, snapshot)
	if err != nil {
		return false, err
	}
	if err := s.persist.Store(ctx, s.artifact, b); err != nil {
		return false, fmt.Errorf("dotted: persist store %s: %w", s.artifact, err)
	}
	s.storedHash = hash
	s.note("snapshot written", zap.String("hash", hash), zap.Int("bytes", len(b)))

	if err := s.rewarm(snapshot); err != nil {
		if s.diag == nil {
			return true, err
		}
		s.diag.Warn("accelerator not rewarmed", s.fields(zap.Error(err))...)
	}
	return true, nil
}

func (s *Store) rewarm(snapshot *Snapshot) error {
	key := s.persist.Locate(s.artifact)
	if s.accel == nil {
		return fmt.Errorf("%w: none configured for %s", ErrAcceleratorUnavailable, key)
	}
	s.accel.Invalidate(key)
	if err := s.accel.Precompile(key, snapshot); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAcceleratorUnavailable, key, err)
	}
	return nil
}

// Close saves the tree when autosave is on and the tree is not empty.
// Once a Close succeeds later calls do nothing; after a failed save Close
// may be called again to retry.
func (s *Store) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	if s.autosave && !s.tree.Empty() {
		if _, err := s.Save(ctx); err != nil {
			return err
		}
	}
	s.closed = true
	return nil
}

// SetDefault merges data into the tree when it is empty, or always with override.
func (s *Store) SetDefault(data any, override bool) error {
	if !s.tree.Empty() && !override {
		return nil
	}
	return s.tree.Merge(data)
}

// SetAutosave turns saving on Close on or off.
func (s *Store) SetAutosave(on bool) { s.autosave = on }

// Autosave reports whether Close saves.
func (s *Store) Autosave() bool { return s.autosave }

// SetReadonly marks the store read-only. The flag is recorded only:
// mutations and Save do not check it yet.
func (s *Store) SetReadonly(on bool) { s.readonly = on }

// Readonly reports the read-only flag.
func (s *Store) Readonly() bool { return s.readonly }

// Name returns the store name recorded in snapshots.
func (s *Store) Name() string { return s.name }

// Artifact returns the artifact name within the store's Persist.
func (s *Store) Artifact() string { return s.artifact }

// Hash returns the content hash last read or written, or "" before either.
func (s *Store) Hash() string { return s.storedHash }

// CreatedAt returns when the store was opened.
func (s *Store) CreatedAt() time.Time { return s.createdAt }

// Tree returns the store's tree. Changes to it are what Save persists.
func (s *Store) Tree() *Tree { return s.tree }

// Get calls Tree().Get.
func (s *Store) Get(key string, def any) (any, error) { return s.tree.Get(key, def) }

// Set calls Tree().Set.
func (s *Store) Set(key string, value any) error { return s.tree.Set(key, value) }

// Has calls Tree().Has.
func (s *Store) Has(keys ...string) bool { return s.tree.Has(keys...) }

// Delete calls Tree().Delete.
func (s *Store) Delete(keys ...string) error { return s.tree.Delete(keys...) }

// Flatten calls Tree().Flatten.
func (s *Store) Flatten(delimiter string) map[string]any { return s.tree.Flatten(delimiter) }

// All calls Tree().All.
func (s *Store) All() map[string]any { return s.tree.All() }
