package kr

import (
	"encoding/hex"
	"fmt"

	"github.com/pg-sharding/widecol/pkg/models/token"
)

// DecoratedKey is a serialized partition key paired with its token.
type DecoratedKey struct {
	Token      token.Token
	Key        []byte
	Components [][]byte
}

func (dk *DecoratedKey) String() string {
	return fmt.Sprintf("{%s, 0x%s}", dk.Token, hex.EncodeToString(dk.Key))
}

type TokenBound struct {
	Token     token.Token
	Inclusive bool
}

// PartitionRange is either a singular key or an interval of tokens.
// Missing bounds are unbounded.
type PartitionRange struct {
	Start *TokenBound
	End   *TokenBound
	Key   *DecoratedKey
}

func OpenPartitionRange() *PartitionRange {
	return &PartitionRange{}
}

func SingularPartitionRange(key *DecoratedKey) *PartitionRange {
	return &PartitionRange{Key: key}
}

func NewTokenRange(start, end *TokenBound) *PartitionRange {
	return &PartitionRange{Start: start, End: end}
}

// TokenPointRange covers exactly the partitions owning token t.
func TokenPointRange(t token.Token) *PartitionRange {
	return NewTokenRange(&TokenBound{Token: t, Inclusive: true}, &TokenBound{Token: t, Inclusive: true})
}

func (pr *PartitionRange) IsSingular() bool {
	return pr.Key != nil
}

func (pr *PartitionRange) IsFull() bool {
	return pr.Key == nil && pr.Start == nil && pr.End == nil
}

func (pr *PartitionRange) String() string {
	if pr.Key != nil {
		return pr.Key.String()
	}
	open, start := "(", "-inf"
	if pr.Start != nil {
		start = pr.Start.Token.String()
		if pr.Start.Inclusive {
			open = "["
		}
	}
	end, closing := "+inf", ")"
	if pr.End != nil {
		end = pr.End.Token.String()
		if pr.End.Inclusive {
			closing = "]"
		}
	}
	return open + start + ", " + end + closing
}
