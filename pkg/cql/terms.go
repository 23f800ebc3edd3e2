package cql

import (
	"strconv"
	"strings"

	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

// Term is a prepared value. Its bytes may only be known at execution.
type Term interface {
	// CollectMarkerSpecification registers the receivers of the bind
	// markers reachable from the term.
	CollectMarkerSpecification(boundNames *VariableSpecifications)
	BindAndGet(opts *QueryOptions) ([]byte, error)
	String() string
}

// TupleTerm is a term whose value is a tuple of components.
type TupleTerm interface {
	Term
	BindElements(opts *QueryOptions) ([][]byte, error)
}

// MultiValueTerm binds to a list of values, e.g. the marker of "IN ?".
type MultiValueTerm interface {
	Term
	BindValues(opts *QueryOptions) ([][]byte, error)
}

type Constant struct {
	Value []byte
	Type  *types.DataType
}

var _ Term = &Constant{}

func (c *Constant) CollectMarkerSpecification(*VariableSpecifications) {}

func (c *Constant) BindAndGet(*QueryOptions) ([]byte, error) {
	return c.Value, nil
}

func (c *Constant) String() string {
	return c.Type.Underlying().ToString(c.Value)
}

type BindMarker struct {
	Index    int
	Receiver *ColumnSpecification
}

var _ Term = &BindMarker{}

func (m *BindMarker) CollectMarkerSpecification(boundNames *VariableSpecifications) {
	boundNames.Add(m.Index, m.Receiver)
}

func (m *BindMarker) BindAndGet(opts *QueryOptions) ([]byte, error) {
	return opts.Value(m.Index)
}

func (m *BindMarker) String() string {
	return "?" + strconv.Itoa(m.Index)
}

// Tuple is a tuple of terms, e.g. (1, ?).
type Tuple struct {
	Elements []Term
	Type     *types.DataType
}

var _ TupleTerm = &Tuple{}

func (t *Tuple) CollectMarkerSpecification(boundNames *VariableSpecifications) {
	for _, e := range t.Elements {
		e.CollectMarkerSpecification(boundNames)
	}
}

func (t *Tuple) BindElements(opts *QueryOptions) ([][]byte, error) {
	res := make([][]byte, 0, len(t.Elements))
	for _, e := range t.Elements {
		b, err := e.BindAndGet(opts)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, nil
}

func (t *Tuple) BindAndGet(opts *QueryOptions) ([]byte, error) {
	elems, err := t.BindElements(opts)
	if err != nil {
		return nil, err
	}
	return types.BuildTuple(elems), nil
}

func (t *Tuple) String() string {
	parts := make([]string, 0, len(t.Elements))
	for _, e := range t.Elements {
		parts = append(parts, e.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TupleBindMarker is a single marker bound to a whole tuple.
type TupleBindMarker struct {
	Index    int
	Receiver *ColumnSpecification
}

var _ TupleTerm = &TupleBindMarker{}

func (m *TupleBindMarker) CollectMarkerSpecification(boundNames *VariableSpecifications) {
	boundNames.Add(m.Index, m.Receiver)
}

func (m *TupleBindMarker) BindAndGet(opts *QueryOptions) ([]byte, error) {
	return opts.Value(m.Index)
}

func (m *TupleBindMarker) BindElements(opts *QueryOptions) ([][]byte, error) {
	b, err := opts.Value(m.Index)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "invalid null value for %s", m.Receiver.Name)
	}
	elems, err := types.SplitTuple(b)
	if err != nil {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "invalid tuple value for %s: %s", m.Receiver.Name, err)
	}
	if len(elems) != len(m.Receiver.Type.Elements) {
		return nil, wcerror.Newf(wcerror.WC_CARDINALITY_MISMATCH, "expected %d tuple components for %s, got %d", len(m.Receiver.Type.Elements), m.Receiver.Name, len(elems))
	}
	return elems, nil
}

func (m *TupleBindMarker) String() string {
	return "?" + strconv.Itoa(m.Index)
}

// ListBindMarker is the marker of "IN ?". It binds to a list of values.
type ListBindMarker struct {
	Index    int
	Receiver *ColumnSpecification
}

var _ MultiValueTerm = &ListBindMarker{}

func (m *ListBindMarker) CollectMarkerSpecification(boundNames *VariableSpecifications) {
	boundNames.Add(m.Index, m.Receiver)
}

func (m *ListBindMarker) BindAndGet(opts *QueryOptions) ([]byte, error) {
	return opts.Value(m.Index)
}

func (m *ListBindMarker) BindValues(opts *QueryOptions) ([][]byte, error) {
	b, err := opts.Value(m.Index)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "invalid null value for %s", m.Receiver.Name)
	}
	elems, err := types.UnpackCollection(b, false)
	if err != nil {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "invalid list value for %s: %s", m.Receiver.Name, err)
	}
	return elems, nil
}

func (m *ListBindMarker) String() string {
	return "?" + strconv.Itoa(m.Index)
}
