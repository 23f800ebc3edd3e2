package cql

import (
	"github.com/pg-sharding/widecol/pkg/models/types"
)

// ColumnSpecification describes the receiver of a value: a column or a
// derived value such as a collection element or a token.
type ColumnSpecification struct {
	Keyspace string
	Table    string
	Name     string
	Type     *types.DataType
}

// Derived returns a specification of a value derived from the column,
// e.g. "value(tags)" for the elements of a collection.
func (cs *ColumnSpecification) Derived(kind string, tp *types.DataType) *ColumnSpecification {
	return &ColumnSpecification{
		Keyspace: cs.Keyspace,
		Table:    cs.Table,
		Name:     kind + "(" + cs.Name + ")",
		Type:     tp,
	}
}

// VariableSpecifications collects the receivers of the bind markers of a
// statement, indexed by marker position.
type VariableSpecifications struct {
	specs []*ColumnSpecification
}

func NewVariableSpecifications(size int) *VariableSpecifications {
	return &VariableSpecifications{specs: make([]*ColumnSpecification, size)}
}

func (vs *VariableSpecifications) Add(bindIndex int, spec *ColumnSpecification) {
	for len(vs.specs) <= bindIndex {
		vs.specs = append(vs.specs, nil)
	}
	vs.specs[bindIndex] = spec
}

func (vs *VariableSpecifications) Size() int {
	return len(vs.specs)
}

func (vs *VariableSpecifications) Specifications() []*ColumnSpecification {
	return vs.specs
}

// Spec returns the receiver of the i-th marker or nil.
func (vs *VariableSpecifications) Spec(i int) *ColumnSpecification {
	if i < 0 || i >= len(vs.specs) {
		return nil
	}
	return vs.specs[i]
}
