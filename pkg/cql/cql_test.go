package cql_test

import (
	"testing"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/stretchr/testify/assert"
)

func spec(name string, tp *types.DataType) *cql.ColumnSpecification {
	return &cql.ColumnSpecification{Keyspace: "ks", Table: "t", Name: name, Type: tp}
}

func TestOperatorFromString(t *testing.T) {
	assert := assert.New(t)

	for _, tt := range []struct {
		text     string
		expected cql.Operator
	}{
		{"=", cql.EQ},
		{">=", cql.GTE},
		{"in", cql.IN},
		{"contains  key", cql.CONTAINS_KEY},
		{"<>", cql.NEQ},
		{"is not", cql.IS_NOT},
	} {
		op, err := cql.OperatorFromString(tt.text)
		assert.NoError(err, tt.text)
		assert.Equal(tt.expected, op, tt.text)
	}

	_, err := cql.OperatorFromString("~")
	assert.Error(err)
}

func TestOperatorPredicates(t *testing.T) {
	assert := assert.New(t)

	assert.True(cql.GT.IsSlice())
	assert.True(cql.GT.IsStartBound())
	assert.False(cql.GT.IsInclusive())
	assert.True(cql.LTE.IsInclusive())
	assert.False(cql.LTE.IsStartBound())
	assert.False(cql.IN.IsSlice())
	assert.True(cql.CONTAINS_KEY.IsContains())
}

func TestLiteralAndMarker(t *testing.T) {
	assert := assert.New(t)

	boundNames := cql.NewVariableSpecifications(0)
	receiver := spec("ck", types.ReversedOf(types.IntType))

	lit, err := (&cql.Literal{Text: "5"}).Prepare(receiver)
	assert.NoError(err)
	lit.CollectMarkerSpecification(boundNames)
	assert.Equal(0, boundNames.Size())
	assert.Equal("5", lit.String())

	marker, err := (&cql.Marker{Index: 1}).Prepare(receiver)
	assert.NoError(err)
	marker.CollectMarkerSpecification(boundNames)
	assert.Equal(2, boundNames.Size())
	assert.Nil(boundNames.Spec(0))
	assert.Same(receiver, boundNames.Spec(1))

	opts := cql.NewQueryOptions(nil, []byte{0, 0, 0, 7})
	b, err := marker.BindAndGet(opts)
	assert.NoError(err)
	assert.Equal([]byte{0, 0, 0, 7}, b)

	_, err = marker.BindAndGet(cql.NewQueryOptions())
	assert.True(wcerror.IsInvalidRequest(err))

	_, err = (&cql.Literal{Text: "five"}).Prepare(receiver)
	assert.True(wcerror.IsInvalidRequest(err))
}

func TestTupleLiteralArity(t *testing.T) {
	assert := assert.New(t)

	receivers := []*cql.ColumnSpecification{spec("a", types.IntType), spec("b", types.TextType)}

	_, err := (&cql.TupleLiteral{Elements: []cql.RawTerm{&cql.Literal{Text: "1"}}}).PrepareTuple(receivers)
	assert.Equal(wcerror.WC_CARDINALITY_MISMATCH, wcerror.Code(err))

	tuple, err := (&cql.TupleLiteral{Elements: []cql.RawTerm{&cql.Literal{Text: "1"}, &cql.Marker{Index: 0}}}).PrepareTuple(receivers)
	assert.NoError(err)

	boundNames := cql.NewVariableSpecifications(0)
	tuple.CollectMarkerSpecification(boundNames)
	assert.Equal("b", boundNames.Spec(0).Name)

	elems, err := tuple.BindElements(cql.NewQueryOptions([]byte("x")))
	assert.NoError(err)
	assert.Equal([][]byte{{0, 0, 0, 1}, []byte("x")}, elems)
}

func TestTupleMarker(t *testing.T) {
	assert := assert.New(t)

	receivers := []*cql.ColumnSpecification{spec("a", types.IntType), spec("b", types.IntType)}
	tm, err := (&cql.TupleMarker{Index: 0}).PrepareTuple(receivers)
	assert.NoError(err)

	boundNames := cql.NewVariableSpecifications(0)
	tm.CollectMarkerSpecification(boundNames)
	assert.Equal("(a,b)", boundNames.Spec(0).Name)
	assert.Equal("tuple<int, int>", boundNames.Spec(0).Type.Name())

	opts, err := cql.BindValuesFromStrings(boundNames, []string{"(1, 2)"})
	assert.NoError(err)

	elems, err := tm.BindElements(opts)
	assert.NoError(err)
	assert.Equal([][]byte{{0, 0, 0, 1}, {0, 0, 0, 2}}, elems)

	short := cql.NewQueryOptions(types.BuildTuple([][]byte{{0, 0, 0, 1}}))
	_, err = tm.BindElements(short)
	assert.Equal(wcerror.WC_CARDINALITY_MISMATCH, wcerror.Code(err))
}

func TestInMarker(t *testing.T) {
	assert := assert.New(t)

	receiver := spec("pk", types.IntType)
	in := (&cql.Marker{Index: 0}).PrepareIn(receiver)

	boundNames := cql.NewVariableSpecifications(0)
	in.CollectMarkerSpecification(boundNames)
	assert.Equal("in(pk)", boundNames.Spec(0).Name)

	opts, err := cql.BindValuesFromStrings(boundNames, []string{"[3, 1]"})
	assert.NoError(err)

	values, err := in.BindValues(opts)
	assert.NoError(err)
	assert.Equal([][]byte{{0, 0, 0, 3}, {0, 0, 0, 1}}, values)
}

func TestBindValuesFromStringsArity(t *testing.T) {
	assert := assert.New(t)

	boundNames := cql.NewVariableSpecifications(1)
	boundNames.Add(0, spec("pk", types.IntType))

	_, err := cql.BindValuesFromStrings(boundNames, []string{"1", "2"})
	assert.True(wcerror.IsInvalidRequest(err))

	opts, err := cql.BindValuesFromStrings(boundNames, []string{"null"})
	assert.NoError(err)
	assert.Nil(opts.Values[0])
}

func TestRelationString(t *testing.T) {
	assert := assert.New(t)

	for _, tt := range []struct {
		rel      cql.Relation
		expected string
	}{
		{&cql.SingleColumnRelation{Entity: "pk", Op: cql.EQ, Value: &cql.Literal{Text: "1"}}, "pk = 1"},
		{&cql.SingleColumnRelation{Entity: "pk", Op: cql.IN, InValues: []cql.RawTerm{&cql.Literal{Text: "1"}, &cql.Marker{}}}, "pk IN (1, ?)"},
		{&cql.SingleColumnRelation{Entity: "m", MapKey: &cql.Literal{Text: "'k'"}, Op: cql.EQ, Value: &cql.Literal{Text: "2"}}, "m['k'] = 2"},
		{&cql.MultiColumnRelation{Entities: []string{"a", "b"}, Op: cql.GT, Value: &cql.TupleMarker{}}, "(a, b) > ?"},
		{&cql.TokenRelation{Entities: []string{"pk"}, Op: cql.LTE, Value: &cql.Literal{Text: "10"}}, "token(pk) <= 10"},
	} {
		assert.Equal(tt.expected, tt.rel.String())
	}
}
