package restrictions

import (
	"github.com/pg-sharding/widecol/pkg/models/schema"
)

// analysis is the outcome of walking the key columns in schema order.
type analysis struct {
	candidates []*schema.ColumnDefinition

	// non-token partition key restrictions do not resolve to a set of keys
	pkNeedsFiltering bool
	// every partition key column has exactly one EQ or IN restriction
	pkIsPrefix       bool
	ckNeedsFiltering bool
}

func restrictionsOn(rs []*Restriction, c *schema.ColumnDefinition) []*Restriction {
	var res []*Restriction
	for _, r := range rs {
		if r.OnToken {
			continue
		}
		for _, t := range r.Target {
			if t.ID == c.ID {
				res = append(res, r)
				break
			}
		}
	}
	return res
}

// analyze collects the columns that a scan over a key prefix cannot serve,
// in the order partition key, clustering key, static and regular columns.
func analyze(s *schema.Schema, rs []*Restriction) *analysis {
	a := &analysis{}
	seen := map[int]bool{}
	addCandidate := func(c *schema.ColumnDefinition) {
		if !seen[c.ID] {
			seen[c.ID] = true
			a.candidates = append(a.candidates, c)
		}
	}

	var pkRestricted []*schema.ColumnDefinition
	hasPK := false
	for _, c := range s.PartitionKeyColumns() {
		crs := restrictionsOn(rs, c)
		if len(crs) == 0 {
			a.pkNeedsFiltering = true
			continue
		}
		hasPK = true
		pkRestricted = append(pkRestricted, c)
		if len(crs) > 1 || !(crs[0].IsEQ() || crs[0].IsIN()) {
			a.pkNeedsFiltering = true
		}
	}
	if !hasPK {
		// a token range or a full scan: no column of the key is known
		a.pkNeedsFiltering = false
	}
	if a.pkNeedsFiltering {
		for _, c := range pkRestricted {
			addCandidate(c)
		}
	}
	a.pkIsPrefix = hasPK && !a.pkNeedsFiltering

	isKeyPrefix := a.pkIsPrefix
	aligned := multiColumnAligned(s, rs)
	var closedBy *Restriction
	for _, c := range s.ClusteringKeyColumns() {
		crs := restrictionsOn(rs, c)
		if len(crs) == 0 {
			isKeyPrefix = false
			continue
		}
		for _, r := range crs {
			breaks := false
			switch {
			case !isKeyPrefix:
				breaks = true
			case closedBy != nil && closedBy != r:
				breaks = true
			case r.IsContains():
				breaks = true
			case r.IsMultiColumn() && !aligned:
				breaks = true
			case r.IsSlice():
				closedBy = r
			}
			if breaks {
				isKeyPrefix = false
				a.ckNeedsFiltering = true
				addCandidate(c)
			}
		}
	}

	for _, group := range [][]*schema.ColumnDefinition{s.StaticColumns(), s.RegularColumns()} {
		for _, c := range group {
			if len(restrictionsOn(rs, c)) > 0 {
				addCandidate(c)
			}
		}
	}
	return a
}

// multiColumnAligned reports whether the multi-column restrictions form a
// clustering prefix: a single restriction on the first clustering columns,
// with a uniform ordering direction if it is a slice.
func multiColumnAligned(s *schema.Schema, rs []*Restriction) bool {
	var multi *Restriction
	for _, r := range rs {
		if !r.IsMultiColumn() {
			continue
		}
		if multi != nil {
			return false
		}
		multi = r
	}
	if multi == nil {
		return true
	}
	ck := s.ClusteringKeyColumns()
	for i, c := range multi.Target {
		if i >= len(ck) || ck[i].ID != c.ID {
			return false
		}
	}
	if multi.IsSlice() {
		for _, c := range multi.Target {
			if c.Type.Reversed != multi.Target[0].Type.Reversed {
				return false
			}
		}
	}
	return true
}
