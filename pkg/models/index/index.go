package index

import (
	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/qdb"
)

type Metadata struct {
	Name    string
	Table   string
	Kind    string
	Options map[string]string
}

func MetadataFromDB(idx *qdb.Index) Metadata {
	return Metadata{
		Name:    idx.Name,
		Table:   idx.Table,
		Kind:    idx.Kind,
		Options: idx.Options,
	}
}

func (md Metadata) ToDB(keyspace string) *qdb.Index {
	return &qdb.Index{
		Name:     md.Name,
		Keyspace: keyspace,
		Table:    md.Table,
		Kind:     md.Kind,
		Options:  md.Options,
	}
}

func (md Metadata) Target() string {
	return md.Options[TargetOptionName]
}

// Index is a secondary index as seen by the planner: the column it
// targets and whether it is co-partitioned with the base table.
type Index struct {
	targetColumn string
	metadata     Metadata
	local        bool
	targetType   TargetType
}

func NewIndex(md Metadata) *Index {
	target := md.Target()
	idx := &Index{
		targetColumn: TargetColumnName(target),
		metadata:     md,
		local:        IsLocalTarget(target),
		targetType:   TargetValues,
	}
	if m := targetRegex.FindStringSubmatch(target); m != nil {
		if tt, err := TargetTypeFromString(m[1]); err == nil {
			idx.targetType = tt
		}
	}
	return idx
}

func (i *Index) TargetColumn() string {
	return i.targetColumn
}

func (i *Index) Metadata() Metadata {
	return i.metadata
}

func (i *Index) IsLocal() bool {
	return i.local
}

func (i *Index) TargetType() TargetType {
	return i.targetType
}

func (i *Index) DependsOn(cdef *schema.ColumnDefinition) bool {
	return cdef.Name == i.targetColumn
}

// SupportsExpression reports whether the index can serve a restriction
// with operator op on cdef. An EQ on an entries index stands for a map
// subscript equality.
func (i *Index) SupportsExpression(cdef *schema.ColumnDefinition, op cql.Operator) bool {
	if !i.DependsOn(cdef) {
		return false
	}
	switch i.targetType {
	case TargetKeys:
		return op == cql.CONTAINS_KEY
	case TargetEntries:
		return op == cql.EQ && cdef.Type.IsMap()
	case TargetFull:
		return op == cql.EQ
	}
	if cdef.Type.IsMultiCell() {
		return op == cql.CONTAINS
	}
	return op == cql.EQ
}

func (i *Index) String() string {
	return i.metadata.Name
}
