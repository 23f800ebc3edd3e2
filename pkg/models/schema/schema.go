package schema

import (
	"encoding/binary"
	"strings"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/kr"
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/qdb"
)

type ColumnKind int

const (
	PartitionKey  = ColumnKind(0)
	ClusteringKey = ColumnKind(1)
	Static        = ColumnKind(2)
	Regular       = ColumnKind(3)
)

func (k ColumnKind) String() string {
	switch k {
	case PartitionKey:
		return qdb.ColumnKindPartitionKey
	case ClusteringKey:
		return qdb.ColumnKindClustering
	case Static:
		return qdb.ColumnKindStatic
	}
	return qdb.ColumnKindRegular
}

// ColumnDefinition is owned by its Schema. Position is the index of the
// column among the columns of the same kind, ID is the index in schema
// order: partition key, clustering key, static, regular.
type ColumnDefinition struct {
	Name     string
	Type     *types.DataType
	Kind     ColumnKind
	Position int
	ID       int
}

func (cd *ColumnDefinition) IsPartitionKey() bool {
	return cd.Kind == PartitionKey
}

func (cd *ColumnDefinition) IsClusteringKey() bool {
	return cd.Kind == ClusteringKey
}

func (cd *ColumnDefinition) IsPrimaryKey() bool {
	return cd.Kind == PartitionKey || cd.Kind == ClusteringKey
}

func (cd *ColumnDefinition) IsStatic() bool {
	return cd.Kind == Static
}

func (cd *ColumnDefinition) String() string {
	return cd.Name
}

type Schema struct {
	Keyspace string
	Table    string

	columns []*ColumnDefinition
	byName  map[string]*ColumnDefinition

	partitionKey []*ColumnDefinition
	clustering   []*ColumnDefinition
	static       []*ColumnDefinition
	regular      []*ColumnDefinition
}

func (s *Schema) PartitionKeyColumns() []*ColumnDefinition {
	return s.partitionKey
}

func (s *Schema) ClusteringKeyColumns() []*ColumnDefinition {
	return s.clustering
}

func (s *Schema) StaticColumns() []*ColumnDefinition {
	return s.static
}

func (s *Schema) RegularColumns() []*ColumnDefinition {
	return s.regular
}

// AllColumns returns the columns in schema order.
func (s *Schema) AllColumns() []*ColumnDefinition {
	return s.columns
}

func (s *Schema) GetColumnDefinition(name string) *ColumnDefinition {
	return s.byName[name]
}

func (s *Schema) ColumnByID(id int) *ColumnDefinition {
	if id < 0 || id >= len(s.columns) {
		return nil
	}
	return s.columns[id]
}

func (s *Schema) String() string {
	names := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		names = append(names, c.Name+" "+c.Type.Name())
	}
	return s.Keyspace + "." + s.Table + "(" + strings.Join(names, ", ") + ")"
}

func (s *Schema) MakeColumnSpecification(cdef *ColumnDefinition) *cql.ColumnSpecification {
	return &cql.ColumnSpecification{
		Keyspace: s.Keyspace,
		Table:    s.Table,
		Name:     cdef.Name,
		Type:     cdef.Type,
	}
}

// SerializePartitionKey builds the partition key the partitioner hashes.
// A composite key stores each component as a 2-byte length, the bytes and
// an end-of-component byte.
func (s *Schema) SerializePartitionKey(components [][]byte) []byte {
	if len(components) == 1 {
		return components[0]
	}
	size := 0
	for _, c := range components {
		size += 3 + len(c)
	}
	buf := make([]byte, 0, size)
	for _, c := range components {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(c)))
		buf = append(buf, c...)
		buf = append(buf, 0)
	}
	return buf
}

// ClusteringComparator compares clustering prefix components with the
// types of their columns.
func (s *Schema) ClusteringComparator() kr.PrefixComparator {
	return func(i int, a, b []byte) int {
		if i >= len(s.clustering) {
			return types.BlobType.Compare(a, b)
		}
		return s.clustering[i].Type.Compare(a, b)
	}
}

type columnSpec struct {
	name string
	tp   *types.DataType
	kind ColumnKind
}

// Builder assembles a Schema. Key columns are positioned in the order they
// are added.
type Builder struct {
	keyspace string
	table    string
	columns  []columnSpec
}

func NewBuilder(keyspace, table string) *Builder {
	return &Builder{keyspace: keyspace, table: table}
}

func (b *Builder) WithColumn(name string, tp *types.DataType, kind ColumnKind) *Builder {
	b.columns = append(b.columns, columnSpec{name: name, tp: tp, kind: kind})
	return b
}

func (b *Builder) Build() (*Schema, error) {
	s := &Schema{
		Keyspace: b.keyspace,
		Table:    b.table,
		byName:   map[string]*ColumnDefinition{},
	}
	for _, c := range b.columns {
		if _, ok := s.byName[c.name]; ok {
			return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "multiple definitions of column %s in table %s.%s", c.name, b.keyspace, b.table)
		}
		if c.tp == nil {
			return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "column %s has no type", c.name)
		}
		if c.kind == PartitionKey || c.kind == ClusteringKey {
			if c.tp.IsMultiCell() {
				return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "non-frozen collection %s cannot be part of the primary key", c.name)
			}
		}
		cd := &ColumnDefinition{Name: c.name, Type: c.tp, Kind: c.kind}
		s.byName[c.name] = cd
		switch c.kind {
		case PartitionKey:
			cd.Position = len(s.partitionKey)
			s.partitionKey = append(s.partitionKey, cd)
		case ClusteringKey:
			cd.Position = len(s.clustering)
			s.clustering = append(s.clustering, cd)
		case Static:
			cd.Position = len(s.static)
			s.static = append(s.static, cd)
		default:
			cd.Position = len(s.regular)
			s.regular = append(s.regular, cd)
		}
	}
	if len(s.partitionKey) == 0 {
		return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "table %s.%s has no partition key", b.keyspace, b.table)
	}
	if len(s.static) > 0 && len(s.clustering) == 0 {
		return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "static columns are only useful with clustering columns in table %s.%s", b.keyspace, b.table)
	}

	for _, group := range [][]*ColumnDefinition{s.partitionKey, s.clustering, s.static, s.regular} {
		for _, cd := range group {
			cd.ID = len(s.columns)
			s.columns = append(s.columns, cd)
		}
	}
	return s, nil
}
