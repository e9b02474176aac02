package dotted

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/blake2b-simd"
)

// Generator identifies snapshots written by Store.
const Generator = "github.com/jrhy/dotted.Store"

// SnapshotType describes the shape of Snapshot.Data.
const SnapshotType = "map"

// Snapshot is the self-describing persisted form of a tree. Name, Hash and
// Data are enough to rebuild the tree and check where it came from; the
// other fields are informational.
type Snapshot struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path" yaml:"path"`
	Generator string `json:"generator" yaml:"generator"`
	Generated string `json:"generated" yaml:"generated"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
	Type      string `json:"type" yaml:"type"`
	Hash      string `json:"hash" yaml:"hash"`
	Data      *Tree  `json:"data" yaml:"data"`
}

// NewSnapshot captures data under name. The tree is cloned.
func NewSnapshot(name, path string, data *Tree, now time.Time) (*Snapshot, error) {
	if data == nil {
		data = New()
	}
	hash, err := ContentHash(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Name:      name,
		Path:      path,
		Generator: Generator,
		Generated: now.Format(time.RFC1123Z),
		Timestamp: now.Unix(),
		Type:      SnapshotType,
		Hash:      hash,
		Data:      data.Clone(),
	}, nil
}

// Verify recomputes the content hash of Data and compares it with Hash.
func (s *Snapshot) Verify() error {
	hash, err := ContentHash(s.Data)
	if err != nil {
		return err
	}
	if hash != s.Hash {
		return fmt.Errorf("%w: %s has %s, recorded %s", ErrHashMismatch, s.Name, hash, s.Hash)
	}
	return nil
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	if s.Data != nil {
		c.Data = s.Data.Clone()
	}
	return &c
}

// ContentHash digests a canonical encoding of the tree: its raw form as JSON
// with keys sorted, so neither insertion order nor int/float representation
// of the same number changes the hash.
func ContentHash(t *Tree) (string, error) {
	if t == nil {
		t = New()
	}
	canonical, err := json.Marshal(t.All())
	if err != nil {
		return "", fmt.Errorf("%w: hash: %w", ErrExport, err)
	}
	sum := blake2b.Sum256(canonical)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}
