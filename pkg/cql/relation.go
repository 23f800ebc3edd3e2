package cql

import (
	"strings"
)

// Relation is one parsed predicate of a WHERE clause.
type Relation interface {
	Operator() Operator
	String() string
}

// SingleColumnRelation restricts one column, optionally through a map
// subscript: m[key] = value. IN relations carry either InValues or a
// single Marker in Value.
type SingleColumnRelation struct {
	Entity   string
	MapKey   RawTerm
	Value    RawTerm
	InValues []RawTerm
	Op       Operator
}

var _ Relation = &SingleColumnRelation{}

func (r *SingleColumnRelation) Operator() Operator {
	return r.Op
}

func (r *SingleColumnRelation) String() string {
	entity := r.Entity
	if r.MapKey != nil {
		entity += "[" + r.MapKey.String() + "]"
	}
	if r.Op == IN && r.Value == nil {
		return entity + " IN " + joinRaw(r.InValues)
	}
	return entity + " " + r.Op.String() + " " + rawString(r.Value)
}

// MultiColumnRelation restricts a tuple of clustering columns: (a, b) > (1, 2).
type MultiColumnRelation struct {
	Entities []string
	Value    RawTupleTerm
	InValues []RawTupleTerm
	Op       Operator
}

var _ Relation = &MultiColumnRelation{}

func (r *MultiColumnRelation) Operator() Operator {
	return r.Op
}

func (r *MultiColumnRelation) String() string {
	entities := "(" + strings.Join(r.Entities, ", ") + ")"
	if r.Op == IN && (r.Value == nil || len(r.InValues) > 0) {
		parts := make([]string, 0, len(r.InValues))
		for _, v := range r.InValues {
			parts = append(parts, v.String())
		}
		return entities + " IN (" + strings.Join(parts, ", ") + ")"
	}
	value := "<nil>"
	if r.Value != nil {
		value = r.Value.String()
	}
	return entities + " " + r.Op.String() + " " + value
}

// TokenRelation compares the token of the partition key: token(a, b) > ?.
type TokenRelation struct {
	Entities []string
	Value    RawTerm
	Op       Operator
}

var _ Relation = &TokenRelation{}

func (r *TokenRelation) Operator() Operator {
	return r.Op
}

func (r *TokenRelation) String() string {
	return "token(" + strings.Join(r.Entities, ", ") + ") " + r.Op.String() + " " + rawString(r.Value)
}

func rawString(t RawTerm) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func joinRaw(terms []RawTerm) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, t.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
