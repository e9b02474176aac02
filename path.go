package dotted

import (
	"strings"
)

// DefaultDelimiter separates path segments unless a tree is built with WithDelimiter.
const DefaultDelimiter = "."

// RawModifier, appended to a Get key, returns the subtree verbatim with
// primary values shown under PrimaryKey.
const RawModifier = ":"

// mode selects what Get returns for a branch.
type mode uint8

const (
	// modePrimary returns the branch's primary value when it has one, else
	// the cleaned subtree.
	modePrimary mode = iota
	// modeRaw returns the subtree including PrimaryKey entries.
	modeRaw
	// modeCleaned returns the subtree with every primary value stripped.
	modeCleaned
)

func (m mode) String() string {
	switch m {
	case modeRaw:
		return "raw"
	case modeCleaned:
		return "cleaned"
	default:
		return "primary"
	}
}

// splitPath breaks key into segments on delimiter.
func splitPath(key, delimiter string) ([]string, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	return strings.Split(key, delimiter), nil
}

// parseGetKey reads the retrieval modifier off the end of key and returns
// the remaining segments. All leading and trailing delimiter and modifier
// characters are trimmed, not only the final one, so "..a.b:" addresses
// "a.b" in raw mode.
func parseGetKey(key, delimiter string) ([]string, mode, error) {
	if key == "" {
		return nil, modePrimary, ErrEmptyKey
	}
	m := modePrimary
	switch {
	case strings.HasSuffix(key, RawModifier):
		m = modeRaw
	case strings.HasSuffix(key, delimiter):
		m = modeCleaned
	}
	trimmed := strings.Trim(key, delimiter+RawModifier)
	return strings.Split(trimmed, delimiter), m, nil
}
