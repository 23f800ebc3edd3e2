package restrictions

import (
	"strings"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

// Value is the right hand side of a restriction. It is one of
// SingleValue, MultipleValues, MapEntry and *TermSlice.
type Value interface {
	CollectMarkerSpecification(boundNames *cql.VariableSpecifications)
	String() string

	isValue()
}

type SingleValue struct {
	Term cql.Term
}

// MultipleValues holds the alternatives of an IN restriction: either a
// list of terms or a single marker bound to a list.
type MultipleValues struct {
	Terms  []cql.Term
	Marker cql.MultiValueTerm
}

// MapEntry is the value of a map subscript equality: m[Key] = Value.
type MapEntry struct {
	Key   cql.Term
	Value cql.Term
}

func (SingleValue) isValue()    {}
func (MultipleValues) isValue() {}
func (MapEntry) isValue()       {}
func (*TermSlice) isValue()     {}

func (v SingleValue) CollectMarkerSpecification(boundNames *cql.VariableSpecifications) {
	v.Term.CollectMarkerSpecification(boundNames)
}

func (v SingleValue) String() string {
	return v.Term.String()
}

func (v MultipleValues) CollectMarkerSpecification(boundNames *cql.VariableSpecifications) {
	if v.Marker != nil {
		v.Marker.CollectMarkerSpecification(boundNames)
		return
	}
	for _, t := range v.Terms {
		t.CollectMarkerSpecification(boundNames)
	}
}

func (v MultipleValues) String() string {
	if v.Marker != nil {
		return v.Marker.String()
	}
	parts := make([]string, 0, len(v.Terms))
	for _, t := range v.Terms {
		parts = append(parts, t.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Bind resolves the alternatives for one execution.
func (v MultipleValues) Bind(opts *cql.QueryOptions) ([][]byte, error) {
	if v.Marker != nil {
		return v.Marker.BindValues(opts)
	}
	res := make([][]byte, 0, len(v.Terms))
	for _, t := range v.Terms {
		b, err := t.BindAndGet(opts)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, nil
}

func (v MapEntry) CollectMarkerSpecification(boundNames *cql.VariableSpecifications) {
	v.Key.CollectMarkerSpecification(boundNames)
	v.Value.CollectMarkerSpecification(boundNames)
}

func (v MapEntry) String() string {
	return "[" + v.Key.String() + "] = " + v.Value.String()
}

// Restriction is one normalized predicate. Target lists more than one
// column for multi-column restrictions and the whole partition key for
// token restrictions.
type Restriction struct {
	Op      cql.Operator
	Target  []*schema.ColumnDefinition
	Value   Value
	OnToken bool
	// set for tuple relations, even on a single column
	MultiColumn bool
}

func (r *Restriction) IsSlice() bool {
	_, ok := r.Value.(*TermSlice)
	return ok
}

// IsEQ reports whether r is a plain equality, map entries excluded.
func (r *Restriction) IsEQ() bool {
	_, ok := r.Value.(SingleValue)
	return ok && r.Op == cql.EQ
}

func (r *Restriction) IsIN() bool {
	_, ok := r.Value.(MultipleValues)
	return ok
}

func (r *Restriction) IsMapEntry() bool {
	_, ok := r.Value.(MapEntry)
	return ok
}

func (r *Restriction) IsContains() bool {
	return r.Op.IsContains()
}

func (r *Restriction) IsMultiColumn() bool {
	return r.MultiColumn
}

// SameTarget reports whether both restrictions constrain the same columns
// in the same way.
func (r *Restriction) SameTarget(o *Restriction) bool {
	if r.OnToken != o.OnToken || r.MultiColumn != o.MultiColumn || len(r.Target) != len(o.Target) {
		return false
	}
	for i := range r.Target {
		if r.Target[i].ID != o.Target[i].ID {
			return false
		}
	}
	return true
}

func (r *Restriction) targetString() string {
	names := make([]string, 0, len(r.Target))
	for _, c := range r.Target {
		names = append(names, c.Name)
	}
	switch {
	case r.OnToken:
		return "token(" + strings.Join(names, ", ") + ")"
	case r.MultiColumn:
		return "(" + strings.Join(names, ", ") + ")"
	}
	return names[0]
}

func (r *Restriction) String() string {
	target := r.targetString()
	switch v := r.Value.(type) {
	case *TermSlice:
		return v.format(target)
	case MapEntry:
		return target + v.String()
	case MultipleValues:
		return target + " IN " + v.String()
	case SingleValue:
		return target + " " + r.Op.String() + " " + v.String()
	}
	return target
}

func invalidNull(r *Restriction) error {
	return wcerror.Newf(wcerror.WC_UNSUPPORTED_RANGE, "invalid null value in condition for %s", r.targetString())
}
