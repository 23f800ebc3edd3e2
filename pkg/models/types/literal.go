package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// FromString converts a CQL literal into the serialized form of t.
// The literal null yields a nil value.
func (t *DataType) FromString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "null") {
		return nil, nil
	}
	switch t.Kind {
	case Int:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int literal %q: %w", s, err)
		}
		return binary.BigEndian.AppendUint32(nil, uint32(int32(n))), nil
	case BigInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bigint literal %q: %w", s, err)
		}
		return binary.BigEndian.AppendUint64(nil, uint64(n)), nil
	case Text:
		return []byte(unquote(s)), nil
	case Blob:
		if !strings.HasPrefix(strings.ToLower(s), "0x") {
			return nil, fmt.Errorf("invalid blob literal %q: expected 0x prefix", s)
		}
		return hex.DecodeString(s[2:])
	case Boolean:
		switch strings.ToLower(s) {
		case "true":
			return []byte{1}, nil
		case "false":
			return []byte{0}, nil
		}
		return nil, fmt.Errorf("invalid boolean literal %q", s)
	case UUID, TimeUUID:
		u, err := uuid.Parse(unquote(s))
		if err != nil {
			return nil, fmt.Errorf("invalid uuid literal %q: %w", s, err)
		}
		if t.Kind == TimeUUID && u.Version() != 1 {
			return nil, fmt.Errorf("unsupported UUID version %d for timeuuid", u.Version())
		}
		return u[:], nil
	case Tuple:
		parts, err := splitEnclosed(s, '(', ')')
		if err != nil {
			return nil, err
		}
		if len(parts) > len(t.Elements) {
			return nil, fmt.Errorf("tuple literal %q has %d components, type %s expects %d", s, len(parts), t.Name(), len(t.Elements))
		}
		elems := make([][]byte, 0, len(parts))
		for i, p := range parts {
			e, err := t.Elements[i].Underlying().FromString(p)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return BuildTuple(elems), nil
	case List, Set:
		open, closing := byte('['), byte(']')
		if t.Kind == Set {
			open, closing = '{', '}'
		}
		parts, err := splitEnclosed(s, open, closing)
		if err != nil {
			return nil, err
		}
		elems := make([][]byte, 0, len(parts))
		for _, p := range parts {
			e, err := t.Keys.FromString(p)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		if t.Kind == Set {
			slices.SortFunc(elems, t.Keys.Compare)
			elems = slices.CompactFunc(elems, func(a, b []byte) bool { return t.Keys.Compare(a, b) == 0 })
		}
		return PackCollection(elems, false), nil
	case Map:
		parts, err := splitEnclosed(s, '{', '}')
		if err != nil {
			return nil, err
		}
		type entry struct{ k, v []byte }
		entries := make([]entry, 0, len(parts))
		for _, p := range parts {
			kv := splitTopLevel(p, ':')
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid map entry %q", p)
			}
			k, err := t.Keys.FromString(kv[0])
			if err != nil {
				return nil, err
			}
			v, err := t.Values.FromString(kv[1])
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry{k: k, v: v})
		}
		slices.SortStableFunc(entries, func(a, b entry) int { return t.Keys.Compare(a.k, b.k) })
		elems := make([][]byte, 0, 2*len(entries))
		for _, e := range entries {
			elems = append(elems, e.k, e.v)
		}
		return PackCollection(elems, true), nil
	}
	return nil, fmt.Errorf("cannot parse literal of type %s", t.Name())
}

// ToString renders a serialized value of type t.
func (t *DataType) ToString(b []byte) string {
	if b == nil {
		return "null"
	}
	switch t.Kind {
	case Int:
		if len(b) == 4 {
			return strconv.FormatInt(int64(int32(binary.BigEndian.Uint32(b))), 10)
		}
	case BigInt:
		if len(b) == 8 {
			return strconv.FormatInt(int64(binary.BigEndian.Uint64(b)), 10)
		}
	case Text:
		return string(b)
	case Boolean:
		if len(b) == 1 {
			return strconv.FormatBool(b[0] != 0)
		}
	case UUID, TimeUUID:
		if u, err := uuid.FromBytes(b); err == nil {
			return u.String()
		}
	case Tuple:
		elems, err := SplitTuple(b)
		if err != nil {
			break
		}
		parts := make([]string, 0, len(elems))
		for i, e := range elems {
			tp := BlobType
			if i < len(t.Elements) {
				tp = t.Elements[i]
			}
			parts = append(parts, tp.ToString(e))
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case List, Set:
		elems, err := UnpackCollection(b, false)
		if err != nil {
			break
		}
		parts := make([]string, 0, len(elems))
		for _, e := range elems {
			parts = append(parts, t.Keys.ToString(e))
		}
		if t.Kind == Set {
			return "{" + strings.Join(parts, ", ") + "}"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Map:
		elems, err := UnpackCollection(b, true)
		if err != nil {
			break
		}
		parts := make([]string, 0, len(elems)/2)
		for i := 0; i+1 < len(elems); i += 2 {
			parts = append(parts, t.Keys.ToString(elems[i])+": "+t.Values.ToString(elems[i+1]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "0x" + hex.EncodeToString(b)
}

// ParseType parses a CQL type name such as "int" or "frozen<map<int, text>>".
func ParseType(name string) (*DataType, error) {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)

	if base, args, ok := splitGeneric(name); ok {
		switch strings.ToLower(base) {
		case "frozen":
			if len(args) != 1 {
				return nil, fmt.Errorf("frozen expects exactly one argument: %q", name)
			}
			inner, err := ParseType(args[0])
			if err != nil {
				return nil, err
			}
			c := *inner
			c.Frozen = true
			return &c, nil
		case "map":
			if len(args) != 2 {
				return nil, fmt.Errorf("map expects two arguments: %q", name)
			}
			k, err := ParseType(args[0])
			if err != nil {
				return nil, err
			}
			v, err := ParseType(args[1])
			if err != nil {
				return nil, err
			}
			return MapOf(k, v, false), nil
		case "set", "list":
			if len(args) != 1 {
				return nil, fmt.Errorf("%s expects one argument: %q", base, name)
			}
			e, err := ParseType(args[0])
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(base, "set") {
				return SetOf(e, false), nil
			}
			return ListOf(e, false), nil
		case "tuple":
			elems := make([]*DataType, 0, len(args))
			for _, a := range args {
				e, err := ParseType(a)
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
			}
			return TupleOf(elems...), nil
		}
		return nil, fmt.Errorf("unknown parametrized type %q", name)
	}

	switch lower {
	case "int":
		return IntType, nil
	case "bigint", "counter":
		return BigIntType, nil
	case "text", "varchar", "ascii":
		return TextType, nil
	case "blob":
		return BlobType, nil
	case "boolean":
		return BooleanType, nil
	case "uuid":
		return UUIDType, nil
	case "timeuuid":
		return TimeUUIDType, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func splitGeneric(name string) (string, []string, bool) {
	open := strings.IndexByte(name, '<')
	if open < 0 || !strings.HasSuffix(name, ">") {
		return "", nil, false
	}
	return strings.TrimSpace(name[:open]), splitTopLevel(name[open+1:len(name)-1], ','), true
}

func splitEnclosed(s string, open, closing byte) ([]string, error) {
	if len(s) < 2 || s[0] != open || s[len(s)-1] != closing {
		return nil, fmt.Errorf("literal %q must be enclosed in %c%c", s, open, closing)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}
	return splitTopLevel(inner, ','), nil
}

// splitTopLevel splits s on sep, ignoring separators nested in brackets
// or single quoted strings.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\'':
			quoted = !quoted
		case quoted:
		case c == '(' || c == '[' || c == '{' || c == '<':
			depth++
		case c == ')' || c == ']' || c == '}' || c == '>':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
