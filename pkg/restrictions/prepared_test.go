package restrictions_test

import (
	"testing"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/kr"
	"github.com/pg-sharding/widecol/pkg/models/token"
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/pkg/restrictions"
	"github.com/stretchr/testify/assert"
)

func TestPartitionKeyIn(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{in("pk", "3", "1", "2", "1")}, nil)
	assert.NoError(err)
	assert.False(p.NeedFiltering())
	assert.False(p.IsKeyRange())
	assert.True(p.KeyIsInRelation())

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Len(ranges, 3)
	for i, v := range []string{"1", "2", "3"} {
		key := s.SerializePartitionKey([][]byte{intValue(t, v)})
		assert.True(ranges[i].IsSingular())
		assert.Equal(key, ranges[i].Key.Key)
		assert.Equal(token.Murmur3Partitioner{}.GetToken(key), ranges[i].Key.Token)
	}

	clustering, err := p.GetClusteringBounds(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Len(clustering, 1)
	assert.True(clustering[0].IsFull())
}

func TestPartitionKeyEqWithClusteringSlice(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{eq("pk", "1"), rel("ck", cql.GT, "5")}, nil)
	assert.NoError(err)
	assert.False(p.NeedFiltering())
	assert.True(p.HasClusteringKeyRestrictions())

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Len(ranges, 1)
	key := s.SerializePartitionKey([][]byte{intValue(t, "1")})
	assert.Equal(&kr.DecoratedKey{
		Token:      token.Murmur3Partitioner{}.GetToken(key),
		Key:        key,
		Components: [][]byte{intValue(t, "1")},
	}, ranges[0].Key)

	clustering, err := p.GetClusteringBounds(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Equal([]string{"(/5 - ]"}, renderClustering(s, clustering))
}

func TestRegularColumnWithoutIndexNeedsFiltering(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{eq("pk", "1"), eq("v", "'a'")}, nil)
	assert.NoError(err)
	assert.True(p.NeedFiltering())
	assert.False(p.UsesIndexing())
	assert.Equal([]string{"v"}, columnNames(p.FilteredColumns()))
}

func TestContradictoryTokenSlice(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	for _, where := range [][]cql.Relation{
		{tokenRel(cql.GT, "10"), tokenRel(cql.LTE, "10")},
		{tokenRel(cql.GTE, "10"), tokenRel(cql.LT, "10")},
		{tokenRel(cql.GTE, "10"), tokenRel(cql.LTE, "5")},
	} {
		p, err := restrictions.Prepare(s, nil, where, nil)
		assert.NoError(err)
		assert.True(p.IsKeyRange())

		ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
		assert.NoError(err)
		assert.NotNil(ranges)
		assert.Empty(ranges)
	}
}

func TestTokenRanges(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	for _, tt := range []struct {
		where    []cql.Relation
		expected string
	}{
		{where: []cql.Relation{tokenRel(cql.GT, "3")}, expected: "(3, maximum token]"},
		{where: []cql.Relation{tokenRel(cql.LTE, "-7")}, expected: "[minimum token, -7]"},
		{where: []cql.Relation{tokenRel(cql.GTE, "5"), tokenRel(cql.LTE, "5")}, expected: "[5, 5]"},
		{where: []cql.Relation{tokenRel(cql.GT, "1"), tokenRel(cql.GTE, "4"), tokenRel(cql.LT, "9")}, expected: "[4, 9)"},
	} {
		p, err := restrictions.Prepare(s, nil, tt.where, nil)
		assert.NoError(err)

		ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
		assert.NoError(err)
		if assert.Len(ranges, 1) {
			assert.Equal(tt.expected, ranges[0].String())
		}
	}
}

func TestTokenEqIsPointRange(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{tokenRel(cql.EQ, "42")}, nil)
	assert.NoError(err)
	assert.True(p.HasTokenRestriction())
	assert.False(p.HasPartitionKeyRestrictions())

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Equal([]*kr.PartitionRange{kr.TokenPointRange(token.KeyToken(42))}, ranges)
}

func TestNoRestrictions(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, nil, nil)
	assert.NoError(err)
	assert.False(p.NeedFiltering())
	assert.True(p.IsKeyRange())

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Equal([]*kr.PartitionRange{kr.OpenPartitionRange()}, ranges)

	clustering, err := p.GetClusteringBounds(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Equal([]*kr.ClusteringRange{kr.OpenClusteringRange()}, clustering)
}

func TestPartialPartitionKey(t *testing.T) {
	assert := assert.New(t)
	s := wideSchema(t, types.IntType, types.IntType)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{eq("a", "1"), eq("ck1", "2")}, nil)
	assert.NoError(err)
	assert.True(p.IsKeyRange())
	assert.True(p.NeedFiltering())
	assert.Equal([]string{"a", "ck1"}, columnNames(p.FilteredColumns()))

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Equal([]*kr.PartitionRange{kr.OpenPartitionRange()}, ranges)

	clustering, err := p.GetClusteringBounds(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Equal([]*kr.ClusteringRange{kr.OpenClusteringRange()}, clustering)
}

func TestPartitionKeySliceNeedsFiltering(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{rel("pk", cql.GT, "1")}, nil)
	assert.NoError(err)
	assert.True(p.IsKeyRange())
	assert.Equal([]string{"pk"}, columnNames(p.FilteredColumns()))
}

func TestCartesianProductOfPartitionKey(t *testing.T) {
	assert := assert.New(t)
	s := wideSchema(t, types.IntType, types.IntType)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{in("b", "5", "3", "4"), in("a", "2", "1")}, nil)
	assert.NoError(err)

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	var keys [][2]string
	for _, r := range ranges {
		keys = append(keys, [2]string{
			types.IntType.ToString(r.Key.Components[0]),
			types.IntType.ToString(r.Key.Components[1]),
		})
	}
	assert.Equal([][2]string{
		{"1", "3"}, {"1", "4"}, {"1", "5"},
		{"2", "3"}, {"2", "4"}, {"2", "5"},
	}, keys)
}

func TestCartesianProductLimit(t *testing.T) {
	assert := assert.New(t)
	s := wideSchema(t, types.IntType, types.IntType)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{in("a", "1", "2", "3"), in("b", "1", "2")},
		nil, restrictions.WithMaxCartesianProduct(5))
	assert.NoError(err)

	_, err = p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.Equal(wcerror.WC_CARDINALITY_MISMATCH, wcerror.Code(err))

	p, err = restrictions.Prepare(s, nil, []cql.Relation{eq("a", "1"), eq("b", "1"), in("ck1", "1", "2", "3"), in("ck2", "1", "2")},
		nil, restrictions.WithMaxCartesianProduct(5))
	assert.NoError(err)

	_, err = p.GetClusteringBounds(cql.NewQueryOptions())
	assert.Equal(wcerror.WC_CARDINALITY_MISMATCH, wcerror.Code(err))
}

func TestEmptyInList(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{in("pk")}, nil)
	assert.NoError(err)

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	assert.Empty(ranges)
}

func TestInMarkerBoundToList(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	boundNames := cql.NewVariableSpecifications(0)
	where := []cql.Relation{&cql.SingleColumnRelation{Entity: "pk", Op: cql.IN, Value: &cql.Marker{Index: 0}}}
	p, err := restrictions.Prepare(s, nil, where, boundNames)
	assert.NoError(err)
	assert.Equal(1, boundNames.Size())

	opts, err := cql.BindValuesFromStrings(boundNames, []string{"[2, 1, 2]"})
	assert.NoError(err)

	ranges, err := p.GetPartitionKeyRanges(opts)
	assert.NoError(err)
	if assert.Len(ranges, 2) {
		assert.Equal(intValue(t, "1"), ranges[0].Key.Components[0])
		assert.Equal(intValue(t, "2"), ranges[1].Key.Components[0])
	}
}

func TestNullBoundValues(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{marker("pk", cql.EQ, 0)}, nil)
	assert.NoError(err)
	_, err = p.GetPartitionKeyRanges(cql.NewQueryOptions(nil))
	assert.Equal(wcerror.WC_UNSUPPORTED_RANGE, wcerror.Code(err))
	assert.True(wcerror.IsInvalidRequest(err))

	p, err = restrictions.Prepare(s, nil, []cql.Relation{eq("pk", "1"), marker("ck", cql.GT, 0)}, nil)
	assert.NoError(err)
	_, err = p.GetClusteringBounds(cql.NewQueryOptions(nil))
	assert.Equal(wcerror.WC_UNSUPPORTED_RANGE, wcerror.Code(err))

	p, err = restrictions.Prepare(s, nil, []cql.Relation{&cql.TokenRelation{Entities: []string{"pk"}, Op: cql.GT, Value: &cql.Marker{Index: 0}}}, nil)
	assert.NoError(err)
	_, err = p.GetPartitionKeyRanges(cql.NewQueryOptions(nil))
	assert.Equal(wcerror.WC_UNSUPPORTED_RANGE, wcerror.Code(err))
}

func TestMissingBindValue(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{marker("pk", cql.EQ, 0)}, nil)
	assert.NoError(err)
	_, err = p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.Equal(wcerror.WC_INVALID_REQUEST, wcerror.Code(err))
}

func TestPrepareIsDeterministic(t *testing.T) {
	assert := assert.New(t)
	s := wideSchema(t, types.IntType, types.IntType)

	where := []cql.Relation{
		in("a", "2", "1"), eq("b", "3"),
		in("ck1", "3", "1"), rel("ck2", cql.LTE, "8"), rel("ck2", cql.GT, "2"),
	}
	opts := cql.NewQueryOptions()

	p1, err := restrictions.Prepare(s, nil, where, nil)
	assert.NoError(err)
	p2, err := restrictions.Prepare(s, nil, where, nil)
	assert.NoError(err)
	assert.Equal(p1.String(), p2.String())

	r1, err := p1.GetPartitionKeyRanges(opts)
	assert.NoError(err)
	r2, err := p1.GetPartitionKeyRanges(opts)
	assert.NoError(err)
	r3, err := p2.GetPartitionKeyRanges(opts)
	assert.NoError(err)
	assert.Equal(r1, r2)
	assert.Equal(r1, r3)

	c1, err := p1.GetClusteringBounds(opts)
	assert.NoError(err)
	c2, err := p2.GetClusteringBounds(opts)
	assert.NoError(err)
	assert.Equal(c1, c2)
	assert.Equal([]string{"(/1/2 - /1/8]", "(/3/2 - /3/8]"}, renderClustering(s, c1))
}

func TestCityPartitioner(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{eq("pk", "7")}, nil,
		restrictions.WithPartitioner(token.CityPartitioner{}))
	assert.NoError(err)

	ranges, err := p.GetPartitionKeyRanges(cql.NewQueryOptions())
	assert.NoError(err)
	key := s.SerializePartitionKey([][]byte{intValue(t, "7")})
	assert.Equal(token.CityPartitioner{}.GetToken(key), ranges[0].Key.Token)
}

func TestPreparedString(t *testing.T) {
	assert := assert.New(t)
	s := simpleSchema(t)

	p, err := restrictions.Prepare(s, nil, []cql.Relation{rel("ck", cql.LT, "9"), eq("pk", "1"), rel("ck", cql.GTE, "2")}, nil)
	assert.NoError(err)
	assert.Equal("pk = 1 AND ck >= 2 AND ck < 9", p.String())
}
