package token

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/go-faster/city"
	"github.com/spaolacci/murmur3"
)

type Kind int

const (
	KindMin = Kind(0)
	KindKey = Kind(1)
	KindMax = Kind(2)
)

// Token is the position of a partition on the ring. The minimum and maximum
// tokens are sentinels sorting before and after every key token.
type Token struct {
	Kind  Kind
	Value int64
}

func MinimumToken() Token {
	return Token{Kind: KindMin}
}

func MaximumToken() Token {
	return Token{Kind: KindMax}
}

func KeyToken(v int64) Token {
	return Token{Kind: KindKey, Value: v}
}

func (t Token) IsMinimum() bool {
	return t.Kind == KindMin
}

func (t Token) IsMaximum() bool {
	return t.Kind == KindMax
}

func (t Token) Compare(o Token) int {
	if t.Kind != o.Kind {
		if t.Kind < o.Kind {
			return -1
		}
		return 1
	}
	if t.Kind != KindKey {
		return 0
	}
	switch {
	case t.Value < o.Value:
		return -1
	case t.Value > o.Value:
		return 1
	}
	return 0
}

func (t Token) String() string {
	switch t.Kind {
	case KindMin:
		return "minimum token"
	case KindMax:
		return "maximum token"
	}
	return strconv.FormatInt(t.Value, 10)
}

type PartitionerType int

const (
	PartitionerMurmur3 = PartitionerType(0)
	PartitionerCity    = PartitionerType(1)
)

// Partitioner maps serialized partition keys to tokens.
type Partitioner interface {
	Name() string
	GetToken(key []byte) Token
	TokenFromBytes(b []byte) (Token, error)
	TokenToBytes(t Token) []byte
}

type longTokenCodec struct{}

// TokenFromBytes decodes a bigint token value.
func (longTokenCodec) TokenFromBytes(b []byte) (Token, error) {
	if len(b) != 8 {
		return Token{}, fmt.Errorf("invalid token value: expected 8 bytes, got %d", len(b))
	}
	return KeyToken(int64(binary.BigEndian.Uint64(b))), nil
}

func (longTokenCodec) TokenToBytes(t Token) []byte {
	v := t.Value
	switch t.Kind {
	case KindMin:
		v = math.MinInt64
	case KindMax:
		v = math.MaxInt64
	}
	return binary.BigEndian.AppendUint64(nil, uint64(v))
}

// Murmur3Partitioner takes the first half of the x64 128-bit murmur3 hash.
type Murmur3Partitioner struct {
	longTokenCodec
}

func (Murmur3Partitioner) Name() string {
	return "murmur3"
}

func (Murmur3Partitioner) GetToken(key []byte) Token {
	h1, _ := murmur3.Sum128(key)
	return KeyToken(normalize(int64(h1)))
}

type CityPartitioner struct {
	longTokenCodec
}

func (CityPartitioner) Name() string {
	return "city"
}

func (CityPartitioner) GetToken(key []byte) Token {
	return KeyToken(normalize(int64(city.Hash64(key))))
}

// the minimum value is reserved for the minimum token
func normalize(v int64) int64 {
	if v == math.MinInt64 {
		return math.MaxInt64
	}
	return v
}

// PartitionerByName returns the partitioner registered under the given name.
// An empty name selects murmur3.
func PartitionerByName(name string) (Partitioner, error) {
	switch name {
	case "murmur3", "murmur", "":
		return Murmur3Partitioner{}, nil
	case "city":
		return CityPartitioner{}, nil
	default:
		return nil, fmt.Errorf("unknown partitioner: %s", name)
	}
}

func ToString(pt PartitionerType) string {
	switch pt {
	case PartitionerMurmur3:
		return "murmur3"
	case PartitionerCity:
		return "city"
	}
	return ""
}
