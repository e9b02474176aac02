package dotted

import (
	"sort"
	"strconv"
)

// Tree is an ordered nested mapping addressed by delimited path strings.
// A path may hold a primary value and, later, children beneath it; both are
// kept. The zero Tree is empty and uses DefaultDelimiter. A Tree is not safe
// for concurrent use.
type Tree struct {
	root      *node
	delimiter string
}

// Option configures a Tree.
type Option func(*Tree)

// WithDelimiter sets the path separator. An empty delimiter is ignored.
func WithDelimiter(delimiter string) Option {
	return func(t *Tree) {
		if delimiter != "" {
			t.delimiter = delimiter
		}
	}
}

func (t *Tree) init() {
	if t.root == nil {
		t.root = newBranch()
	}
	if t.delimiter == "" {
		t.delimiter = DefaultDelimiter
	}
}

// resolve walks segments from the root. Walking through a leaf fails.
func (t *Tree) resolve(segments []string) (*node, bool) {
	t.init()
	n := t.root
	for _, segment := range segments {
		c, ok := n.child(segment)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}

// place stores value at segments, creating missing branches and promoting
// leaves found along the way so that their values survive as primaries.
func (t *Tree) place(segments []string, value *node) {
	t.init()
	n := t.root
	last := len(segments) - 1
	for _, segment := range segments[:last] {
		c, ok := n.children[segment]
		if !ok {
			c = newBranch()
			n.put(segment, c)
		} else if c.leaf {
			c.promote()
		}
		n = c
	}
	n.put(segments[last], value)
}

func render(n *node, m mode) any {
	if n.leaf {
		return n.value
	}
	switch {
	case m == modeRaw:
		return n.raw()
	case m == modePrimary && n.hasPrimary:
		return n.primary
	default:
		return n.cleaned()
	}
}

type pair struct {
	key   string
	value any
}

// pairs turns data into ordered top-level entries. Trees keep their order,
// mappings are sorted, sequences are keyed by index and anything else becomes
// the single entry "0".
func pairs(data any) []pair {
	switch v := data.(type) {
	case nil:
		return nil
	case *Tree:
		if v == nil {
			return nil
		}
		v.init()
		out := make([]pair, 0, len(v.root.keys))
		for _, k := range v.root.keys {
			out = append(out, pair{k, v.root.children[k].clone()})
		}
		return out
	case []any:
		out := make([]pair, len(v))
		for i, item := range v {
			out[i] = pair{strconv.Itoa(i), item}
		}
		return out
	}
	n := toNode(data)
	if n.leaf {
		return []pair{{"0", data}}
	}
	out := make([]pair, 0, len(n.keys))
	for _, k := range n.keys {
		out = append(out, pair{k, n.children[k]})
	}
	return out
}

func sortedPairs(m map[string]any) []pair {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]pair, len(keys))
	for i, k := range keys {
		out[i] = pair{k, m[k]}
	}
	return out
}

func checkKeys(keys []string) error {
	for _, key := range keys {
		if key == "" {
			return ErrEmptyKey
		}
	}
	return nil
}
