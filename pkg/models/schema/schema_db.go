package schema

import (
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/qdb"
)

func columnKindFromDB(kind string) (ColumnKind, error) {
	switch kind {
	case qdb.ColumnKindPartitionKey:
		return PartitionKey, nil
	case qdb.ColumnKindClustering:
		return ClusteringKey, nil
	case qdb.ColumnKindStatic:
		return Static, nil
	case qdb.ColumnKindRegular, "":
		return Regular, nil
	}
	return 0, wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown column kind %q", kind)
}

// FromDB builds a schema from its catalog record. Clustering columns with
// descending order get a reversed type.
func FromDB(t *qdb.Table) (*Schema, error) {
	b := NewBuilder(t.Keyspace, t.Name)
	for _, c := range t.Columns {
		tp, err := types.ParseType(c.Type)
		if err != nil {
			return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "column %s: %s", c.Name, err)
		}
		kind, err := columnKindFromDB(c.Kind)
		if err != nil {
			return nil, err
		}
		switch c.Order {
		case qdb.ClusteringOrderDesc:
			if kind != ClusteringKey {
				return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "only clustering columns can have an order, got %s", c.Name)
			}
			tp = types.ReversedOf(tp)
		case qdb.ClusteringOrderAsc, "":
		default:
			return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown clustering order %q of column %s", c.Order, c.Name)
		}
		b.WithColumn(c.Name, tp, kind)
	}
	return b.Build()
}

// ToDB renders the schema as a catalog record.
func (s *Schema) ToDB() *qdb.Table {
	t := &qdb.Table{Keyspace: s.Keyspace, Name: s.Table}
	for _, cd := range s.columns {
		col := qdb.Column{Name: cd.Name, Type: cd.Type.Underlying().Name(), Kind: cd.Kind.String()}
		if cd.Type.Reversed {
			col.Order = qdb.ClusteringOrderDesc
		}
		t.Columns = append(t.Columns, col)
	}
	return t
}
