package qdb_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/qdb"
	"github.com/stretchr/testify/assert"
)

var mockTable = &qdb.Table{
	Keyspace: "ks",
	Name:     "t",
	Columns: []qdb.Column{
		{Name: "pk", Type: "int", Kind: qdb.ColumnKindPartitionKey},
		{Name: "ck", Type: "int", Kind: qdb.ColumnKindClustering, Order: qdb.ClusteringOrderDesc},
		{Name: "v", Type: "text", Kind: qdb.ColumnKindRegular},
	},
}

func mockIndex(name string) *qdb.Index {
	return &qdb.Index{
		Name:     name,
		Keyspace: "ks",
		Table:    "t",
		Kind:     qdb.IndexKindComposites,
		Options:  map[string]string{"target": "v"},
	}
}

// must run with -race
func TestMemqdbRacing(t *testing.T) {
	assert := assert.New(t)

	memqdb, err := qdb.RestoreQDB(filepath.Join(t.TempDir(), "memqdb.json"))
	assert.NoError(err)
	assert.NoError(memqdb.AddTable(context.TODO(), mockTable))

	var wg sync.WaitGroup
	ctx := context.TODO()

	methods := []func(){
		func() { _ = memqdb.AddTable(ctx, mockTable) },
		func() { _ = memqdb.AddIndex(ctx, mockIndex("by_v")) },
		func() { _, _ = memqdb.GetTable(ctx, "ks", "t") },
		func() { _, _ = memqdb.ListTables(ctx) },
		func() { _, _ = memqdb.ListIndexes(ctx, "ks", "t") },
		func() { _ = memqdb.DropIndex(ctx, "ks", "by_v") },
	}
	for i := 0; i < 10; i++ {
		for _, m := range methods {
			wg.Add(1)
			go func(m func()) {
				defer wg.Done()
				m()
			}(m)
		}
	}
	wg.Wait()
}

func TestMemQDBIndexesKeepDeclarationOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memqdb, err := qdb.NewMemQDB("")
	assert.NoError(err)
	assert.NoError(memqdb.AddTable(ctx, mockTable))

	for _, name := range []string{"zeta", "alpha", "mid"} {
		assert.NoError(memqdb.AddIndex(ctx, mockIndex(name)))
	}
	// replacing keeps the original position
	assert.NoError(memqdb.AddIndex(ctx, mockIndex("zeta")))

	indexes, err := memqdb.ListIndexes(ctx, "ks", "t")
	assert.NoError(err)

	var names []string
	for _, idx := range indexes {
		names = append(names, idx.Name)
	}
	assert.Equal([]string{"zeta", "alpha", "mid"}, names)
}

func TestMemQDBUnknownObjects(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memqdb, err := qdb.NewMemQDB("")
	assert.NoError(err)

	_, err = memqdb.GetTable(ctx, "ks", "missing")
	assert.Equal(wcerror.WC_METADATA_ERROR, wcerror.Code(err))

	err = memqdb.AddIndex(ctx, mockIndex("by_v"))
	assert.Equal(wcerror.WC_METADATA_ERROR, wcerror.Code(err))

	err = memqdb.DropIndex(ctx, "ks", "by_v")
	assert.Error(err)
}

func TestMemQDBDropTableDropsIndexes(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memqdb, err := qdb.NewMemQDB("")
	assert.NoError(err)
	assert.NoError(memqdb.AddTable(ctx, mockTable))
	assert.NoError(memqdb.AddIndex(ctx, mockIndex("by_v")))

	assert.NoError(memqdb.DropTable(ctx, "ks", "t"))

	indexes, err := memqdb.ListIndexes(ctx, "ks", "t")
	assert.NoError(err)
	assert.Empty(indexes)
}

func TestMemQDBBackupRestore(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	backup := filepath.Join(t.TempDir(), "catalog.json")

	memqdb, err := qdb.RestoreQDB(backup)
	assert.NoError(err)
	assert.NoError(memqdb.AddTable(ctx, mockTable))
	assert.NoError(memqdb.AddIndex(ctx, mockIndex("first")))
	assert.NoError(memqdb.AddIndex(ctx, mockIndex("second")))

	restored, err := qdb.RestoreQDB(backup)
	assert.NoError(err)

	table, err := restored.GetTable(ctx, "ks", "t")
	assert.NoError(err)
	assert.Equal(mockTable, table)

	indexes, err := restored.ListIndexes(ctx, "ks", "t")
	assert.NoError(err)
	assert.Len(indexes, 2)
	assert.Equal("first", indexes[0].Name)
	assert.Equal("second", indexes[1].Name)

	// sequence survives the restore
	assert.NoError(restored.AddIndex(ctx, mockIndex("third")))
	indexes, err = restored.ListIndexes(ctx, "ks", "t")
	assert.NoError(err)
	assert.Equal("third", indexes[2].Name)
}

func TestNewQDB(t *testing.T) {
	assert := assert.New(t)

	db, err := qdb.NewQDB("mem", "", "")
	assert.NoError(err)
	assert.IsType(&qdb.MemQDB{}, db)

	_, err = qdb.NewQDB("zookeeper", "", "")
	assert.Error(err)
}

func TestMemQDBListTablesSortedByID(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	db, err := qdb.NewMemQDB("")
	assert.NoError(err)
	for _, id := range [][2]string{{"ks2", "a"}, {"ks", "z"}, {"ks", "b"}} {
		table := *mockTable
		table.Keyspace, table.Name = id[0], id[1]
		assert.NoError(db.AddTable(ctx, &table))
	}

	tables, err := db.ListTables(ctx)
	assert.NoError(err)
	var ids []string
	for _, table := range tables {
		ids = append(ids, table.ID())
	}
	assert.Equal([]string{"ks.b", "ks.z", "ks2.a"}, ids)
}
