package restrictions

import (
	"strings"

	"github.com/pg-sharding/widecol/pkg/cql"
)

type SliceBound struct {
	Term      cql.Term
	Inclusive bool
}

// TermSlice is the conjunction of range bounds on one target. Bounds may
// be markers, so the tightest start and end are picked when the slice is
// bound to query options.
type TermSlice struct {
	Starts []SliceBound
	Ends   []SliceBound
}

func NewTermSlice(op cql.Operator, t cql.Term) *TermSlice {
	b := SliceBound{Term: t, Inclusive: op.IsInclusive()}
	if op.IsStartBound() {
		return &TermSlice{Starts: []SliceBound{b}}
	}
	return &TermSlice{Ends: []SliceBound{b}}
}

func (ts *TermSlice) HasStart() bool {
	return len(ts.Starts) > 0
}

func (ts *TermSlice) HasEnd() bool {
	return len(ts.Ends) > 0
}

// Merge returns the conjunction of both slices. Neither input is modified.
func (ts *TermSlice) Merge(o *TermSlice) *TermSlice {
	res := &TermSlice{
		Starts: make([]SliceBound, 0, len(ts.Starts)+len(o.Starts)),
		Ends:   make([]SliceBound, 0, len(ts.Ends)+len(o.Ends)),
	}
	res.Starts = append(append(res.Starts, ts.Starts...), o.Starts...)
	res.Ends = append(append(res.Ends, ts.Ends...), o.Ends...)
	return res
}

func (ts *TermSlice) CollectMarkerSpecification(boundNames *cql.VariableSpecifications) {
	for _, b := range ts.Starts {
		b.Term.CollectMarkerSpecification(boundNames)
	}
	for _, b := range ts.Ends {
		b.Term.CollectMarkerSpecification(boundNames)
	}
}

func (ts *TermSlice) String() string {
	return ts.format("")
}

func (ts *TermSlice) format(target string) string {
	var parts []string
	for _, b := range ts.Starts {
		op := ">"
		if b.Inclusive {
			op = ">="
		}
		parts = append(parts, strings.TrimLeft(target+" "+op+" "+b.Term.String(), " "))
	}
	for _, b := range ts.Ends {
		op := "<"
		if b.Inclusive {
			op = "<="
		}
		parts = append(parts, strings.TrimLeft(target+" "+op+" "+b.Term.String(), " "))
	}
	return strings.Join(parts, " AND ")
}

// ResolvedBound is a bound with its bytes known. A nil *ResolvedBound
// means the side is unbounded.
type ResolvedBound struct {
	Value     []byte
	Inclusive bool
}

// Resolve binds every bound and keeps the largest start and the smallest
// end under cmp. On equal values an exclusive bound wins. A null bound
// yields ok == false.
func (ts *TermSlice) Resolve(opts *cql.QueryOptions, cmp func(a, b []byte) int) (start, end *ResolvedBound, ok bool, err error) {
	pick := func(bounds []SliceBound, sign int) (*ResolvedBound, bool, error) {
		var best *ResolvedBound
		for _, b := range bounds {
			v, err := b.Term.BindAndGet(opts)
			if err != nil {
				return nil, false, err
			}
			if v == nil {
				return nil, false, nil
			}
			if best == nil {
				best = &ResolvedBound{Value: v, Inclusive: b.Inclusive}
				continue
			}
			c := sign * cmp(v, best.Value)
			switch {
			case c > 0:
				best = &ResolvedBound{Value: v, Inclusive: b.Inclusive}
			case c == 0:
				best = &ResolvedBound{Value: best.Value, Inclusive: best.Inclusive && b.Inclusive}
			}
		}
		return best, true, nil
	}

	start, ok, err = pick(ts.Starts, 1)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	end, ok, err = pick(ts.Ends, -1)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	return start, end, true, nil
}
