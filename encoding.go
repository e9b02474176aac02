package dotted

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the tree as an object in insertion order, with each
// primary value under PrimaryKey ahead of its siblings.
func (t *Tree) MarshalJSON() ([]byte, error) {
	t.init()
	var buf bytes.Buffer
	if err := writeJSONNode(&buf, t.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSONNode(buf *bytes.Buffer, n *node) error {
	if n.leaf {
		b, err := json.Marshal(n.value)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	buf.WriteByte('{')
	first := true
	writeKey := func(k string) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		b, _ := json.Marshal(k)
		buf.Write(b)
		buf.WriteByte(':')
	}
	if n.hasPrimary {
		writeKey(PrimaryKey)
		b, err := json.Marshal(n.primary)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	for _, k := range n.keys {
		writeKey(k)
		if err := writeJSONNode(buf, n.children[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON replaces the tree with a JSON object, keeping key order.
// Integral numbers decode as int, others as float64.
func (t *Tree) UnmarshalJSON(data []byte) error {
	t.init()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("dotted: decode tree: %w", err)
	}
	if tok == nil {
		t.root = newBranch()
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("dotted: decode tree: want object, got %v", tok)
	}
	root, err := decodeJSONBranch(dec)
	if err != nil {
		return fmt.Errorf("dotted: decode tree: %w", err)
	}
	if root.hasPrimary {
		return fmt.Errorf("dotted: decode tree: %q not allowed at the root", PrimaryKey)
	}
	t.root = root
	return nil
}

func decodeJSONNode(dec *json.Decoder) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeJSONBranch(dec)
		case '[':
			seq := []any{}
			for dec.More() {
				item, err := decodeJSONNode(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, item.raw())
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return newLeaf(seq), nil
		}
		return nil, fmt.Errorf("unexpected %v", v)
	case json.Number:
		return newLeaf(number(v)), nil
	default:
		return newLeaf(v), nil
	}
}

func decodeJSONBranch(dec *json.Decoder) (*node, error) {
	b := newBranch()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		child, err := decodeJSONNode(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if key == PrimaryKey {
			b.primary, b.hasPrimary = child.raw(), true
			continue
		}
		b.put(key, child)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return b, nil
}

func number(n json.Number) any {
	if i, err := n.Int64(); err == nil && int64(int(i)) == i {
		return int(i)
	}
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}

// MarshalYAML encodes the tree as a mapping in insertion order.
func (t *Tree) MarshalYAML() (interface{}, error) {
	t.init()
	return yamlNode(t.root)
}

func yamlNode(n *node) (*yaml.Node, error) {
	if n.leaf {
		var v yaml.Node
		if err := v.Encode(n.value); err != nil {
			return nil, err
		}
		return &v, nil
	}
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if n.hasPrimary {
		var v yaml.Node
		if err := v.Encode(n.primary); err != nil {
			return nil, err
		}
		m.Content = append(m.Content, yamlKey(PrimaryKey), &v)
	}
	for _, k := range n.keys {
		v, err := yamlNode(n.children[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		m.Content = append(m.Content, yamlKey(k), v)
	}
	return m, nil
}

func yamlKey(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}

// UnmarshalYAML replaces the tree with a YAML mapping, keeping key order.
func (t *Tree) UnmarshalYAML(value *yaml.Node) error {
	t.init()
	value = resolveYAML(value)
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		t.root = newBranch()
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("dotted: decode tree: want mapping at line %d", value.Line)
	}
	root, err := decodeYAMLNode(value)
	if err != nil {
		return fmt.Errorf("dotted: decode tree: %w", err)
	}
	if root.hasPrimary {
		return fmt.Errorf("dotted: decode tree: %q not allowed at the root", PrimaryKey)
	}
	t.root = root
	return nil
}

func resolveYAML(value *yaml.Node) *yaml.Node {
	for {
		switch {
		case value.Kind == yaml.DocumentNode && len(value.Content) > 0:
			value = value.Content[0]
		case value.Kind == yaml.AliasNode && value.Alias != nil:
			value = value.Alias
		default:
			return value
		}
	}
}

func decodeYAMLNode(value *yaml.Node) (*node, error) {
	value = resolveYAML(value)
	if value.Kind != yaml.MappingNode {
		var v any
		if err := value.Decode(&v); err != nil {
			return nil, err
		}
		return newLeaf(v), nil
	}
	b := newBranch()
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		child, err := decodeYAMLNode(value.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if key == PrimaryKey {
			b.primary, b.hasPrimary = child.raw(), true
			continue
		}
		b.put(key, child)
	}
	return b, nil
}
