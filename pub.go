package dotted

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// New returns an empty tree.
func New(opts ...Option) *Tree {
	t := &Tree{}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.init()
	return t
}

// From returns a tree whose root is replaced by data; see Replace.
func From(data any, opts ...Option) *Tree {
	t := New(opts...)
	t.Replace(data)
	return t
}

// Delimiter returns the path separator.
func (t *Tree) Delimiter() string {
	t.init()
	return t.delimiter
}

// Set stores value at key, replacing whatever was there. A leaf met on the
// way down becomes a branch whose primary value is the leaf's old value, so
// Set("a", 1) followed by Set("a.b", 2) keeps both. String-keyed mappings
// and trees are stored as branches.
func (t *Tree) Set(key string, value any) error {
	segments, err := splitPath(key, t.Delimiter())
	if err != nil {
		return err
	}
	t.place(segments, toNode(value))
	return nil
}

// SetAll calls Set for every entry of values, in key order. No entry is set
// if any key is empty.
func (t *Tree) SetAll(values map[string]any) error {
	ordered := sortedPairs(values)
	for _, p := range ordered {
		if p.key == "" {
			return ErrEmptyKey
		}
	}
	for _, p := range ordered {
		if err := t.Set(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// Add sets key only when Lookup finds nothing there, and reports whether it did.
func (t *Tree) Add(key string, value any) (bool, error) {
	_, found, err := t.Lookup(key)
	if err != nil || found {
		return false, err
	}
	return true, t.Set(key, value)
}

// AddAll calls Add for every entry of values, in key order.
func (t *Tree) AddAll(values map[string]any) error {
	ordered := sortedPairs(values)
	for _, p := range ordered {
		if p.key == "" {
			return ErrEmptyKey
		}
	}
	for _, p := range ordered {
		if _, err := t.Add(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// Push appends value to the sequence at key, creating it when absent.
func (t *Tree) Push(key string, value any) error {
	current, found, err := t.Lookup(key)
	if err != nil {
		return err
	}
	if !found {
		return t.Set(key, []any{value})
	}
	grown, ok := sequence(current)
	if !ok {
		return fmt.Errorf("%w: %q holds %T", ErrNotSequence, key, current)
	}
	return t.Set(key, append(grown, value))
}

// sequence copies any slice or array into a fresh []any with room for one more.
func sequence(v any) ([]any, bool) {
	if seq, ok := v.([]any); ok {
		grown := make([]any, len(seq), len(seq)+1)
		copy(grown, seq)
		return grown, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	grown := make([]any, rv.Len(), rv.Len()+1)
	for i := range grown {
		grown[i] = rv.Index(i).Interface()
	}
	return grown, true
}

// Has reports whether every key resolves, either as an exact top-level key
// or by walking its segments. It is false for no keys, an empty key, or an
// empty tree.
func (t *Tree) Has(keys ...string) bool {
	if len(keys) == 0 || t.Empty() {
		return false
	}
	for _, key := range keys {
		if key == "" {
			return false
		}
		if _, ok := t.root.children[key]; ok {
			continue
		}
		if _, ok := t.resolve(strings.Split(key, t.delimiter)); !ok {
			return false
		}
	}
	return true
}

// Lookup resolves key and reports whether anything is there. A trailing
// RawModifier returns the subtree with primary values under PrimaryKey; a
// trailing delimiter returns the subtree without them; with no modifier a
// branch's primary value is returned alone when it has one.
func (t *Tree) Lookup(key string) (any, bool, error) {
	segments, m, err := parseGetKey(key, t.Delimiter())
	if err != nil {
		return nil, false, err
	}
	n, ok := t.resolve(segments)
	if !ok {
		return nil, false, nil
	}
	return render(n, m), true, nil
}

// Get is Lookup returning def when nothing is found.
func (t *Tree) Get(key string, def any) (any, error) {
	value, found, err := t.Lookup(key)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return value, nil
}

// Pull returns Get(key, def) and then deletes key.
func (t *Tree) Pull(key string, def any) (any, error) {
	value, err := t.Get(key, def)
	if err != nil {
		return def, err
	}
	return value, t.Delete(key)
}

// PullAll returns the raw root and empties the tree.
func (t *Tree) PullAll() map[string]any {
	all := t.All()
	t.root = newBranch()
	return all
}

// Delete removes each key. An exact top-level key is removed directly;
// otherwise the path is walked, and a missing or non-branch intermediate
// segment makes that key a no-op. Nothing is removed if any key is empty.
func (t *Tree) Delete(keys ...string) error {
	if err := checkKeys(keys); err != nil {
		return err
	}
	t.init()
	for _, key := range keys {
		if t.root.remove(key) {
			continue
		}
		segments := strings.Split(key, t.delimiter)
		parent, ok := t.resolve(segments[:len(segments)-1])
		if !ok || parent.leaf {
			continue
		}
		parent.remove(segments[len(segments)-1])
	}
	return nil
}

// Clear empties the tree, or with keys, resets each to an empty branch.
func (t *Tree) Clear(keys ...string) error {
	if len(keys) == 0 {
		t.init()
		t.root = newBranch()
		return nil
	}
	if err := checkKeys(keys); err != nil {
		return err
	}
	for _, key := range keys {
		t.place(strings.Split(key, t.delimiter), newBranch())
	}
	return nil
}

// Flatten renders the tree as a single-level mapping from joined paths to
// leaf values. An empty delimiter means the tree's own.
func (t *Tree) Flatten(delimiter string) map[string]any {
	if delimiter == "" {
		delimiter = t.Delimiter()
	}
	return FlattenMap(t.All(), delimiter, "")
}

// FlattenMap flattens a raw mapping such as one returned by All or
// Get("key:"). Non-empty mappings are descended into with prefix extended by
// key and delimiter; empty mappings and other values are emitted as they are.
// A PrimaryKey entry is emitted under the prefix itself, trimmed of
// delimiters, which is the path the primary value was originally set at.
func FlattenMap(m map[string]any, delimiter, prefix string) map[string]any {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	out := map[string]any{}
	flattenInto(out, m, delimiter, prefix)
	return out
}

func flattenInto(out, m map[string]any, delimiter, prefix string) {
	for k, v := range m {
		if sub, ok := v.(map[string]any); ok && len(sub) > 0 {
			flattenInto(out, sub, delimiter, prefix+k+delimiter)
			continue
		}
		if k == PrimaryKey {
			out[strings.Trim(prefix, delimiter)] = v
			continue
		}
		out[prefix+k] = v
	}
}

// All returns a raw copy of the root: children in their stored form, and
// primary values under PrimaryKey.
func (t *Tree) All() map[string]any {
	t.init()
	return t.root.raw().(map[string]any)
}

// Keys returns the top-level keys in insertion order.
func (t *Tree) Keys() []string {
	t.init()
	return append([]string(nil), t.root.keys...)
}

// Range calls f with each top-level key and its raw value, in insertion
// order, until f returns false.
func (t *Tree) Range(f func(key string, value any) bool) {
	for _, k := range t.Keys() {
		c, ok := t.root.children[k]
		if !ok {
			continue
		}
		if !f(k, c.raw()) {
			return
		}
	}
}

// Len returns the number of top-level keys.
func (t *Tree) Len() int {
	t.init()
	return len(t.root.keys)
}

// Empty reports whether the tree has no keys.
func (t *Tree) Empty() bool {
	return t.Len() == 0
}

// Append stores value under the next sequential top-level index (one past
// the largest non-negative integer key, or "0") and returns that key.
func (t *Tree) Append(value any) string {
	t.init()
	next := 0
	for _, k := range t.root.keys {
		if i, err := strconv.Atoi(k); err == nil && i >= next {
			next = i + 1
		}
	}
	key := strconv.Itoa(next)
	t.root.put(key, toNode(value))
	return key
}

// Replace discards the root and rebuilds it from data: another tree, a
// string-keyed mapping (PrimaryKey entries become primary values), a []any
// keyed by index, or any other value stored under "0". Keys are taken
// literally, not split on the delimiter.
func (t *Tree) Replace(data any) {
	t.init()
	root := newBranch()
	for _, p := range pairs(data) {
		root.put(p.key, toNode(p.value))
	}
	t.root = root
}

// Merge normalises data as Replace does and Sets each top-level entry,
// so dotted keys in data are split into paths.
func (t *Tree) Merge(data any) error {
	entries := pairs(data)
	for _, p := range entries {
		if p.key == "" {
			return ErrEmptyKey
		}
	}
	for _, p := range entries {
		if err := t.Set(p.key, p.value); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the tree's structure. Leaf values are shared.
func (t *Tree) Clone() *Tree {
	t.init()
	return &Tree{root: t.root.clone(), delimiter: t.delimiter}
}
