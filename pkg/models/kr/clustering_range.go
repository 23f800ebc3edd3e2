package kr

import (
	"encoding/hex"
	"strings"

	"golang.org/x/exp/slices"
)

// PrefixComparator compares the i-th components of two clustering prefixes.
type PrefixComparator func(i int, a, b []byte) int

// ClusteringBound is a clustering prefix. An inclusive bound covers every
// row whose key starts with the prefix.
type ClusteringBound struct {
	Prefix    [][]byte
	Inclusive bool
}

type ClusteringRange struct {
	Start    *ClusteringBound
	End      *ClusteringBound
	Singular bool
}

func OpenClusteringRange() *ClusteringRange {
	return &ClusteringRange{}
}

func SingularClusteringRange(prefix [][]byte) *ClusteringRange {
	b := &ClusteringBound{Prefix: prefix, Inclusive: true}
	return &ClusteringRange{Start: b, End: b, Singular: true}
}

func NewClusteringRange(start, end *ClusteringBound) *ClusteringRange {
	return &ClusteringRange{Start: start, End: end}
}

// Reversed swaps the bounds of a range built in the natural order of a
// column that is stored in descending order.
func (cr *ClusteringRange) Reversed() *ClusteringRange {
	if cr.Singular {
		return cr
	}
	return &ClusteringRange{Start: cr.End, End: cr.Start}
}

func (cr *ClusteringRange) IsFull() bool {
	return !cr.Singular && cr.Start == nil && cr.End == nil
}

func (cr *ClusteringRange) String() string {
	return cr.Format(func(_ int, b []byte) string {
		return "0x" + hex.EncodeToString(b)
	})
}

// Format renders the range as [/a/b - /c), rendering each component with render.
func (cr *ClusteringRange) Format(render func(i int, b []byte) string) string {
	var sb strings.Builder
	if cr.Start == nil || cr.Start.Inclusive {
		sb.WriteByte('[')
	} else {
		sb.WriteByte('(')
	}
	writePrefix(&sb, cr.Start, render)
	sb.WriteString(" - ")
	writePrefix(&sb, cr.End, render)
	if cr.End == nil || cr.End.Inclusive {
		sb.WriteByte(']')
	} else {
		sb.WriteByte(')')
	}
	return sb.String()
}

func writePrefix(sb *strings.Builder, b *ClusteringBound, render func(int, []byte) string) {
	if b == nil {
		return
	}
	for i, c := range b.Prefix {
		sb.WriteByte('/')
		if c == nil {
			sb.WriteString("NULL")
			continue
		}
		sb.WriteString(render(i, c))
	}
}

// bound weights: a position just before or just after every key with the prefix
const (
	before = -1
	after  = 1
)

func startWeight(b *ClusteringBound) int {
	if b.Inclusive {
		return before
	}
	return after
}

func endWeight(b *ClusteringBound) int {
	if b.Inclusive {
		return after
	}
	return before
}

func comparePositions(cmp PrefixComparator, a [][]byte, wa int, b [][]byte, wb int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := cmp(i, a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) == len(b):
		return cmpWeights(wa, wb)
	case len(a) < len(b):
		return wa
	default:
		return -wb
	}
}

func cmpWeights(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// CompareStarts orders two start bounds, a missing start sorts first.
func CompareStarts(cmp PrefixComparator, a, b *ClusteringBound) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return comparePositions(cmp, a.Prefix, startWeight(a), b.Prefix, startWeight(b))
}

// IsEmpty reports whether r selects no rows: its start does not precede
// its end. (/5 - /5] and [/5 - /5) are empty, [/5 - /5] is not.
func IsEmpty(cmp PrefixComparator, r *ClusteringRange) bool {
	if r.Start == nil || r.End == nil {
		return false
	}
	return comparePositions(cmp, r.Start.Prefix, startWeight(r.Start), r.End.Prefix, endWeight(r.End)) >= 0
}

// NormalizeClusteringRanges drops empty ranges,
// removes ranges with equal starts and sorts the rest by start.
func NormalizeClusteringRanges(cmp PrefixComparator, ranges []*ClusteringRange) []*ClusteringRange {
	res := make([]*ClusteringRange, 0, len(ranges))
	for _, r := range ranges {
		if IsEmpty(cmp, r) {
			continue
		}
		res = append(res, r)
	}
	slices.SortStableFunc(res, func(a, b *ClusteringRange) int {
		return CompareStarts(cmp, a.Start, b.Start)
	})
	return slices.CompactFunc(res, func(a, b *ClusteringRange) bool {
		return CompareStarts(cmp, a.Start, b.Start) == 0
	})
}
