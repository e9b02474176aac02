package dotted

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyKey is returned by every operation handed an empty path key.
	ErrEmptyKey = errors.New("dotted: empty key")
	// ErrNotSequence is returned by Push when the current value is neither
	// absent nor a []any.
	ErrNotSequence = errors.New("dotted: value is not a sequence")
	// ErrProvenance matches a *ProvenanceError.
	ErrProvenance = errors.New("dotted: snapshot provenance mismatch")
	// ErrExport wraps failures to serialise a snapshot; nothing is written.
	ErrExport = errors.New("dotted: snapshot export failed")
	// ErrAcceleratorUnavailable is returned by Save when the snapshot was
	// written but the accelerator could not be rewarmed and no Diagnostics
	// sink is attached to report it.
	ErrAcceleratorUnavailable = errors.New("dotted: accelerator unavailable")
	// ErrLocked is returned by a Save that re-enters another Save.
	ErrLocked = errors.New("dotted: save already in progress")
	// ErrHashMismatch is returned by Snapshot.Verify.
	ErrHashMismatch = errors.New("dotted: snapshot hash mismatch")
)

// ProvenanceError reports a snapshot written under a different store name.
type ProvenanceError struct {
	Artifact string
	Want     string
	Got      string
}

func (e *ProvenanceError) Error() string {
	return fmt.Sprintf("dotted: snapshot %s belongs to store %q, not %q", e.Artifact, e.Got, e.Want)
}

// Is lets errors.Is(err, ErrProvenance) match.
func (e *ProvenanceError) Is(target error) bool {
	return target == ErrProvenance
}
