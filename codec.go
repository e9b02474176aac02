package dotted

import (
	"encoding/json"
	"fmt"
	"math"
	"path"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"
)

// Format is a snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	// FormatProto carries numbers as float64, so integers must stay within
	// ±2^53 to round-trip; larger ones fail to encode.
	FormatProto Format = "proto"
)

// maxExactInt is the largest magnitude a float64 holds without rounding.
const maxExactInt = 1 << 53

// FormatFor picks a format from an artifact name's extension, defaulting to JSON.
func FormatFor(artifact string) Format {
	switch strings.ToLower(path.Ext(artifact)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".pb", ".binpb":
		return FormatProto
	default:
		return FormatJSON
	}
}

// EncodeSnapshot serialises s. Failures wrap ErrExport.
func EncodeSnapshot(format Format, s *Snapshot) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	switch format {
	case FormatJSON, "":
		b, err = json.MarshalIndent(s, "", "  ")
	case FormatYAML:
		b, err = yaml.Marshal(s)
	case FormatProto:
		b, err = marshalProto(s)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrExport, format, s.Name, err)
	}
	return b, nil
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot.
func DecodeSnapshot(format Format, b []byte) (*Snapshot, error) {
	var s Snapshot
	var err error
	switch format {
	case FormatJSON, "":
		err = json.Unmarshal(b, &s)
	case FormatYAML:
		err = yaml.Unmarshal(b, &s)
	case FormatProto:
		err = unmarshalProto(b, &s)
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("dotted: decode %s snapshot: %w", format, err)
	}
	if s.Data == nil {
		s.Data = New()
	}
	return &s, nil
}

func marshalProto(s *Snapshot) ([]byte, error) {
	data := s.Data
	if data == nil {
		data = New()
	}
	all := data.All()
	if err := exactInts(all); err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(map[string]any{
		"name":      s.Name,
		"path":      s.Path,
		"generator": s.Generator,
		"generated": s.Generated,
		"timestamp": s.Timestamp,
		"type":      s.Type,
		"hash":      s.Hash,
		"data":      all,
	})
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(st)
}

func unmarshalProto(b []byte, s *Snapshot) error {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("unmarshal proto: %w", err)
	}
	m := st.AsMap()
	str := func(k string) string {
		v, _ := m[k].(string)
		return v
	}
	s.Name = str("name")
	s.Path = str("path")
	s.Generator = str("generator")
	s.Generated = str("generated")
	s.Type = str("type")
	s.Hash = str("hash")
	if ts, ok := m["timestamp"].(float64); ok {
		s.Timestamp = int64(ts)
	}
	data, _ := integral(m["data"]).(map[string]any)
	s.Data = From(data)
	return nil
}

// exactInts rejects integers that float64 would round.
func exactInts(v any) error {
	switch x := v.(type) {
	case int:
		return exactInt(int64(x))
	case int64:
		return exactInt(x)
	case uint:
		return exactUint(uint64(x))
	case uint64:
		return exactUint(x)
	case []any:
		for _, e := range x {
			if err := exactInts(e); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, e := range x {
			if err := exactInts(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func exactInt(x int64) error {
	if x > maxExactInt || x < -maxExactInt {
		return fmt.Errorf("integer %d does not fit a proto number", x)
	}
	return nil
}

func exactUint(x uint64) error {
	if x > maxExactInt {
		return fmt.Errorf("integer %d does not fit a proto number", x)
	}
	return nil
}

// integral restores ints that structpb carried as float64.
func integral(v any) any {
	switch x := v.(type) {
	case float64:
		if x == math.Trunc(x) && math.Abs(x) <= maxExactInt {
			return int(x)
		}
		return x
	case []any:
		for i := range x {
			x[i] = integral(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = integral(x[k])
		}
		return x
	default:
		return v
	}
}
