package qdb_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/qdb"
	"github.com/stretchr/testify/assert"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const TestTimeout = 10 * time.Second

func cleanupDb(ctx context.Context, db *qdb.EtcdQDB) error {
	_, err := db.Client().Delete(ctx, "", clientv3.WithPrefix())
	return err
}

// setupEtcd connects to the etcd named by ETCD_ADDR and wipes it.
func setupEtcd(ctx context.Context, t *testing.T) *qdb.EtcdQDB {
	addr := os.Getenv("ETCD_ADDR")
	if addr == "" {
		t.Skip("ETCD_ADDR is not set")
	}
	db, err := qdb.NewEtcdQDB(addr)
	if err != nil {
		t.Fatalf("failed to connect to etcd catalog: %s", err)
	}
	if err := cleanupDb(ctx, db); err != nil {
		t.Fatalf("failed to clean etcd catalog: %s", err)
	}
	return db
}

func TestEtcdTables(t *testing.T) {
	is := assert.New(t)
	ctx, cancel := context.WithTimeout(context.TODO(), TestTimeout)
	defer cancel()
	db := setupEtcd(ctx, t)

	t.Run("happy path", func(t *testing.T) {
		is.NoError(cleanupDb(ctx, db))
		is.NoError(db.AddTable(ctx, mockTable))

		actual, err := db.GetTable(ctx, "ks", "t")
		is.NoError(err)
		is.Equal(mockTable, actual)

		tables, err := db.ListTables(ctx)
		is.NoError(err)
		is.Len(tables, 1)
	})

	t.Run("unknown table", func(t *testing.T) {
		is.NoError(cleanupDb(ctx, db))
		_, err := db.GetTable(ctx, "ks", "missing")
		is.Error(err)
		is.Equal(wcerror.WC_METADATA_ERROR, wcerror.Code(err))
	})
}

func TestEtcdIndexes(t *testing.T) {
	is := assert.New(t)
	ctx, cancel := context.WithTimeout(context.TODO(), TestTimeout)
	defer cancel()
	db := setupEtcd(ctx, t)

	t.Run("creation order", func(t *testing.T) {
		is.NoError(cleanupDb(ctx, db))
		is.NoError(db.AddTable(ctx, mockTable))
		is.NoError(db.AddIndex(ctx, mockIndex("z_by_v")))
		is.NoError(db.AddIndex(ctx, mockIndex("a_by_v")))

		indexes, err := db.ListIndexes(ctx, "ks", "t")
		is.NoError(err)
		is.Len(indexes, 2)
		is.Equal("z_by_v", indexes[0].Name)
		is.Equal("a_by_v", indexes[1].Name)
	})

	t.Run("index on unknown table", func(t *testing.T) {
		is.NoError(cleanupDb(ctx, db))
		is.Error(db.AddIndex(ctx, mockIndex("by_v")))
	})

	t.Run("drop table drops indexes", func(t *testing.T) {
		is.NoError(cleanupDb(ctx, db))
		is.NoError(db.AddTable(ctx, mockTable))
		is.NoError(db.AddIndex(ctx, mockIndex("by_v")))
		is.NoError(db.DropTable(ctx, "ks", "t"))

		indexes, err := db.ListIndexes(ctx, "ks", "t")
		is.NoError(err)
		is.Empty(indexes)
		is.Error(db.DropIndex(ctx, "ks", "by_v"))
	})
}
