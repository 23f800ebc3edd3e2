package restrictions_test

import (
	"testing"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/kr"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/types"
)

func lit(text string) cql.RawTerm {
	return &cql.Literal{Text: text}
}

func rel(col string, op cql.Operator, value string) cql.Relation {
	return &cql.SingleColumnRelation{Entity: col, Op: op, Value: lit(value)}
}

func eq(col, value string) cql.Relation {
	return rel(col, cql.EQ, value)
}

func marker(col string, op cql.Operator, idx int) cql.Relation {
	return &cql.SingleColumnRelation{Entity: col, Op: op, Value: &cql.Marker{Index: idx}}
}

func in(col string, values ...string) cql.Relation {
	raw := make([]cql.RawTerm, 0, len(values))
	for _, v := range values {
		raw = append(raw, lit(v))
	}
	return &cql.SingleColumnRelation{Entity: col, Op: cql.IN, InValues: raw}
}

func tokenRel(op cql.Operator, value string, cols ...string) cql.Relation {
	if len(cols) == 0 {
		cols = []string{"pk"}
	}
	return &cql.TokenRelation{Entities: cols, Op: op, Value: lit(value)}
}

func tuple(values ...string) cql.RawTupleTerm {
	raw := make([]cql.RawTerm, 0, len(values))
	for _, v := range values {
		raw = append(raw, lit(v))
	}
	return &cql.TupleLiteral{Elements: raw}
}

func multi(cols []string, op cql.Operator, value cql.RawTupleTerm) cql.Relation {
	return &cql.MultiColumnRelation{Entities: cols, Op: op, Value: value}
}

func multiIn(cols []string, values ...cql.RawTupleTerm) cql.Relation {
	return &cql.MultiColumnRelation{Entities: cols, Op: cql.IN, InValues: values}
}

func intValue(t *testing.T, v string) []byte {
	t.Helper()
	b, err := types.IntType.FromString(v)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// (pk int, ck int, v text, PRIMARY KEY (pk, ck))
func simpleSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder("ks", "simple").
		WithColumn("pk", types.IntType, schema.PartitionKey).
		WithColumn("ck", types.IntType, schema.ClusteringKey).
		WithColumn("v", types.TextType, schema.Regular).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func wideSchema(t *testing.T, ck1, ck2 *types.DataType) *schema.Schema {
	t.Helper()
	s, err := schema.NewBuilder("ks", "wide").
		WithColumn("a", types.IntType, schema.PartitionKey).
		WithColumn("b", types.IntType, schema.PartitionKey).
		WithColumn("ck1", ck1, schema.ClusteringKey).
		WithColumn("ck2", ck2, schema.ClusteringKey).
		WithColumn("st", types.IntType, schema.Static).
		WithColumn("v", types.TextType, schema.Regular).
		WithColumn("tags", types.SetOf(types.TextType, false), schema.Regular).
		WithColumn("m", types.MapOf(types.TextType, types.IntType, false), schema.Regular).
		WithColumn("fm", types.MapOf(types.TextType, types.IntType, true), schema.Regular).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func renderClustering(s *schema.Schema, ranges []*kr.ClusteringRange) []string {
	res := make([]string, 0, len(ranges))
	for _, r := range ranges {
		res = append(res, r.Format(func(i int, b []byte) string {
			return s.ClusteringKeyColumns()[i].Type.Underlying().ToString(b)
		}))
	}
	return res
}

func columnNames(cols []*schema.ColumnDefinition) []string {
	var res []string
	for _, c := range cols {
		res = append(res, c.Name)
	}
	return res
}
