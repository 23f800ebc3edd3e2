package types

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

type Kind int

const (
	Int = Kind(iota)
	BigInt
	Text
	Blob
	Boolean
	UUID
	TimeUUID
	Map
	Set
	List
	Tuple
)

var kindNames = map[Kind]string{
	Int:      "int",
	BigInt:   "bigint",
	Text:     "text",
	Blob:     "blob",
	Boolean:  "boolean",
	UUID:     "uuid",
	TimeUUID: "timeuuid",
	Map:      "map",
	Set:      "set",
	List:     "list",
	Tuple:    "tuple",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// DataType describes how values of a column are serialized and ordered.
// Keys holds the element type of sets and lists and the key type of maps.
type DataType struct {
	Kind     Kind
	Keys     *DataType
	Values   *DataType
	Elements []*DataType

	Frozen   bool
	Reversed bool
}

var (
	IntType      = &DataType{Kind: Int}
	BigIntType   = &DataType{Kind: BigInt}
	TextType     = &DataType{Kind: Text}
	BlobType     = &DataType{Kind: Blob}
	BooleanType  = &DataType{Kind: Boolean}
	UUIDType     = &DataType{Kind: UUID}
	TimeUUIDType = &DataType{Kind: TimeUUID}
)

func MapOf(keys, values *DataType, frozen bool) *DataType {
	return &DataType{Kind: Map, Keys: keys, Values: values, Frozen: frozen}
}

func SetOf(elements *DataType, frozen bool) *DataType {
	return &DataType{Kind: Set, Keys: elements, Frozen: frozen}
}

func ListOf(elements *DataType, frozen bool) *DataType {
	return &DataType{Kind: List, Keys: elements, Frozen: frozen}
}

// TupleOf returns a tuple type. Tuples are always frozen.
func TupleOf(elements ...*DataType) *DataType {
	return &DataType{Kind: Tuple, Elements: elements, Frozen: true}
}

// ReversedOf returns a copy of t sorting in descending order.
func ReversedOf(t *DataType) *DataType {
	c := *t
	c.Reversed = true
	return &c
}

// Underlying returns t with the reversed flag stripped.
func (t *DataType) Underlying() *DataType {
	if !t.Reversed {
		return t
	}
	c := *t
	c.Reversed = false
	return &c
}

func (t *DataType) IsCollection() bool {
	return t.Kind == Map || t.Kind == Set || t.Kind == List
}

func (t *DataType) IsMap() bool {
	return t.Kind == Map
}

// IsMultiCell reports whether values of t are stored cell by cell,
// i.e. t is a non-frozen collection.
func (t *DataType) IsMultiCell() bool {
	return t.IsCollection() && !t.Frozen
}

func (t *DataType) Name() string {
	var name string
	switch t.Kind {
	case Map:
		name = "map<" + t.Keys.Name() + ", " + t.Values.Name() + ">"
	case Set, List:
		name = t.Kind.String() + "<" + t.Keys.Name() + ">"
	case Tuple:
		parts := make([]string, 0, len(t.Elements))
		for _, e := range t.Elements {
			parts = append(parts, e.Name())
		}
		name = "tuple<" + strings.Join(parts, ", ") + ">"
	default:
		name = t.Kind.String()
	}
	if t.Frozen && t.IsCollection() {
		name = "frozen<" + name + ">"
	}
	if t.Reversed {
		name = "reversed<" + name + ">"
	}
	return name
}

func (t *DataType) String() string {
	return t.Name()
}

// Compare orders two serialized values of type t. Empty values sort first.
func (t *DataType) Compare(a, b []byte) int {
	c := t.compareNatural(a, b)
	if t.Reversed {
		return -c
	}
	return c
}

func (t *DataType) compareNatural(a, b []byte) int {
	if len(a) == 0 || len(b) == 0 {
		return cmpInt(len(a), len(b))
	}
	switch t.Kind {
	case Int:
		if len(a) == 4 && len(b) == 4 {
			return cmpInt64(int64(int32(binary.BigEndian.Uint32(a))), int64(int32(binary.BigEndian.Uint32(b))))
		}
	case BigInt:
		if len(a) == 8 && len(b) == 8 {
			return cmpInt64(int64(binary.BigEndian.Uint64(a)), int64(binary.BigEndian.Uint64(b)))
		}
	case TimeUUID:
		ua, errA := uuid.FromBytes(a)
		ub, errB := uuid.FromBytes(b)
		if errA == nil && errB == nil {
			if c := cmpInt64(int64(ua.Time()), int64(ub.Time())); c != 0 {
				return c
			}
		}
	case Tuple:
		return compareTuples(t.Elements, a, b)
	case List, Set:
		return compareCollections(false, func(int) *DataType { return t.Keys }, a, b)
	case Map:
		return compareCollections(true, func(i int) *DataType {
			if i%2 == 0 {
				return t.Keys
			}
			return t.Values
		}, a, b)
	}
	return bytes.Compare(a, b)
}

func compareTuples(elements []*DataType, a, b []byte) int {
	ea, errA := SplitTuple(a)
	eb, errB := SplitTuple(b)
	if errA != nil || errB != nil {
		return bytes.Compare(a, b)
	}
	for i := 0; i < len(ea) && i < len(eb); i++ {
		tp := BlobType
		if i < len(elements) {
			tp = elements[i]
		}
		if c := tp.Compare(ea[i], eb[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ea), len(eb))
}

func compareCollections(pairs bool, typeAt func(int) *DataType, a, b []byte) int {
	ea, errA := UnpackCollection(a, pairs)
	eb, errB := UnpackCollection(b, pairs)
	if errA != nil || errB != nil {
		return bytes.Compare(a, b)
	}
	for i := 0; i < len(ea) && i < len(eb); i++ {
		if c := typeAt(i).Compare(ea[i], eb[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ea), len(eb))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
