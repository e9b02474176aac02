package dotted

import (
	"reflect"
	"sort"
)

// PrimaryKey carries a branch's primary value in raw views and in every
// persisted form. It must not be used as a real key.
const PrimaryKey = "@value"

// node is either a leaf holding an opaque value, or a branch holding ordered
// children and, optionally, the primary value that lived at its path before
// children were added beneath it.
type node struct {
	leaf  bool
	value any

	keys       []string
	children   map[string]*node
	hasPrimary bool
	primary    any
}

func newBranch() *node {
	return &node{children: map[string]*node{}}
}

func newLeaf(value any) *node {
	return &node{leaf: true, value: value}
}

func (n *node) child(key string) (*node, bool) {
	if n == nil || n.leaf {
		return nil, false
	}
	c, ok := n.children[key]
	return c, ok
}

// put adds or replaces a child, keeping the original position of a replaced key.
func (n *node) put(key string, c *node) {
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = c
}

func (n *node) remove(key string) bool {
	if _, exists := n.children[key]; !exists {
		return false
	}
	delete(n.children, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return true
}

// promote turns a leaf into a branch in place, keeping its old value as the
// branch's primary value.
func (n *node) promote() {
	if !n.leaf {
		return
	}
	n.primary, n.hasPrimary = n.value, true
	n.leaf, n.value = false, nil
	n.keys, n.children = nil, map[string]*node{}
}

func (n *node) isEmpty() bool {
	return !n.leaf && len(n.keys) == 0 && !n.hasPrimary
}

func (n *node) clone() *node {
	if n.leaf {
		return newLeaf(n.value)
	}
	c := &node{
		keys:       append([]string(nil), n.keys...),
		children:   make(map[string]*node, len(n.children)),
		hasPrimary: n.hasPrimary,
		primary:    n.primary,
	}
	for k, child := range n.children {
		c.children[k] = child.clone()
	}
	return c
}

// raw renders the node as plain Go values, with primaries under PrimaryKey.
func (n *node) raw() any {
	if n.leaf {
		return n.value
	}
	out := make(map[string]any, len(n.keys)+1)
	if n.hasPrimary {
		out[PrimaryKey] = n.primary
	}
	for _, k := range n.keys {
		out[k] = n.children[k].raw()
	}
	return out
}

// cleaned renders the node as plain Go values without any primary values.
func (n *node) cleaned() any {
	if n.leaf {
		return n.value
	}
	out := make(map[string]any, len(n.keys))
	for _, k := range n.keys {
		out[k] = n.children[k].cleaned()
	}
	return out
}

// toNode converts a caller value into a node. String-keyed mappings and trees
// become branches; a PrimaryKey entry in a mapping becomes the primary value.
func toNode(value any) *node {
	switch v := value.(type) {
	case *node:
		return v.clone()
	case *Tree:
		if v == nil {
			return newLeaf(nil)
		}
		return v.root.clone()
	case map[string]any:
		if v == nil {
			return newLeaf(nil)
		}
		b := newBranch()
		for _, k := range sortedKeys(v) {
			if k == PrimaryKey {
				b.primary, b.hasPrimary = v[k], true
				continue
			}
			b.put(k, toNode(v[k]))
		}
		return b
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String && !rv.IsNil() {
		converted := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			converted[iter.Key().String()] = iter.Value().Interface()
		}
		return toNode(converted)
	}
	return newLeaf(value)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
