package cql

import (
	"strings"

	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

// RawTerm is an unprepared term as produced by the parser.
type RawTerm interface {
	Prepare(receiver *ColumnSpecification) (Term, error)
	String() string
}

// RawTupleTerm is an unprepared tuple, (a, b) or a tuple marker.
type RawTupleTerm interface {
	PrepareTuple(receivers []*ColumnSpecification) (TupleTerm, error)
	String() string
}

type Literal struct {
	Text string
}

var _ RawTerm = &Literal{}

func (l *Literal) Prepare(receiver *ColumnSpecification) (Term, error) {
	tp := receiver.Type.Underlying()
	b, err := tp.FromString(l.Text)
	if err != nil {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "invalid literal for %s of type %s: %s", receiver.Name, tp.Name(), err)
	}
	return &Constant{Value: b, Type: tp}, nil
}

func (l *Literal) String() string {
	return l.Text
}

// Marker is a positional bind marker.
type Marker struct {
	Index int
}

var _ RawTerm = &Marker{}

func (m *Marker) Prepare(receiver *ColumnSpecification) (Term, error) {
	return &BindMarker{Index: m.Index, Receiver: receiver}, nil
}

// PrepareIn prepares the marker of "IN ?" against the column receiver.
func (m *Marker) PrepareIn(receiver *ColumnSpecification) MultiValueTerm {
	return &ListBindMarker{
		Index:    m.Index,
		Receiver: receiver.Derived("in", types.ListOf(receiver.Type.Underlying(), true)),
	}
}

func (m *Marker) String() string {
	return "?"
}

type TupleLiteral struct {
	Elements []RawTerm
}

var _ RawTupleTerm = &TupleLiteral{}

func (tl *TupleLiteral) PrepareTuple(receivers []*ColumnSpecification) (TupleTerm, error) {
	if len(tl.Elements) != len(receivers) {
		return nil, wcerror.Newf(wcerror.WC_CARDINALITY_MISMATCH, "expected %d elements in value tuple, but got %d: %s", len(receivers), len(tl.Elements), tl)
	}
	elems := make([]Term, 0, len(tl.Elements))
	elemTypes := make([]*types.DataType, 0, len(tl.Elements))
	for i, e := range tl.Elements {
		t, err := e.Prepare(receivers[i])
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		elemTypes = append(elemTypes, receivers[i].Type.Underlying())
	}
	return &Tuple{Elements: elems, Type: types.TupleOf(elemTypes...)}, nil
}

func (tl *TupleLiteral) String() string {
	parts := make([]string, 0, len(tl.Elements))
	for _, e := range tl.Elements {
		parts = append(parts, e.String())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// TupleMarker is a single marker standing for a whole tuple.
type TupleMarker struct {
	Index int
}

var _ RawTupleTerm = &TupleMarker{}

func (m *TupleMarker) PrepareTuple(receivers []*ColumnSpecification) (TupleTerm, error) {
	receiver, err := tupleReceiver(receivers)
	if err != nil {
		return nil, err
	}
	return &TupleBindMarker{Index: m.Index, Receiver: receiver}, nil
}

// PrepareIn prepares the marker of "(a, b) IN ?". It binds to a list of
// tuples.
func (m *TupleMarker) PrepareIn(receivers []*ColumnSpecification) (MultiValueTerm, error) {
	receiver, err := tupleReceiver(receivers)
	if err != nil {
		return nil, err
	}
	return &ListBindMarker{
		Index:    m.Index,
		Receiver: receiver.Derived("in", types.ListOf(receiver.Type, true)),
	}, nil
}

func tupleReceiver(receivers []*ColumnSpecification) (*ColumnSpecification, error) {
	if len(receivers) == 0 {
		return nil, wcerror.New(wcerror.WC_CARDINALITY_MISMATCH, "tuple marker without receivers")
	}
	names := make([]string, 0, len(receivers))
	elemTypes := make([]*types.DataType, 0, len(receivers))
	for _, r := range receivers {
		names = append(names, r.Name)
		elemTypes = append(elemTypes, r.Type.Underlying())
	}
	return &ColumnSpecification{
		Keyspace: receivers[0].Keyspace,
		Table:    receivers[0].Table,
		Name:     "(" + strings.Join(names, ",") + ")",
		Type:     types.TupleOf(elemTypes...),
	}, nil
}

func (m *TupleMarker) String() string {
	return "?"
}
