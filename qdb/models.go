package qdb

const (
	ColumnKindPartitionKey = "partition_key"
	ColumnKindClustering   = "clustering"
	ColumnKindStatic       = "static"
	ColumnKindRegular      = "regular"

	ClusteringOrderAsc  = "asc"
	ClusteringOrderDesc = "desc"
)

type Column struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Kind  string `json:"kind" yaml:"kind"`
	Order string `json:"order,omitempty" yaml:"order,omitempty"`
}

// Table is a catalog record of a table schema. Key columns are listed in
// key order.
type Table struct {
	Keyspace string   `json:"keyspace" yaml:"keyspace"`
	Name     string   `json:"name" yaml:"name"`
	Columns  []Column `json:"columns" yaml:"columns"`
}

func (t *Table) ID() string {
	return TableID(t.Keyspace, t.Name)
}

func TableID(keyspace, name string) string {
	return keyspace + "." + name
}

const (
	IndexKindComposites = "composites"
	IndexKindCustom     = "custom"
)

// Index is a catalog record of a secondary index. Seq orders indexes by
// declaration.
type Index struct {
	Name     string            `json:"name" yaml:"name"`
	Keyspace string            `json:"keyspace" yaml:"keyspace"`
	Table    string            `json:"table" yaml:"table"`
	Kind     string            `json:"kind" yaml:"kind"`
	Options  map[string]string `json:"options" yaml:"options"`
	Seq      int64             `json:"seq" yaml:"-"`
}

func (i *Index) ID() string {
	return TableID(i.Keyspace, i.Name)
}
