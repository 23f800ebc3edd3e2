package qdb

import (
	"context"
	"fmt"
)

// QDB stores table and secondary index metadata.
type QDB interface {
	AddTable(ctx context.Context, t *Table) error
	GetTable(ctx context.Context, keyspace, name string) (*Table, error)
	DropTable(ctx context.Context, keyspace, name string) error
	ListTables(ctx context.Context) ([]*Table, error)

	AddIndex(ctx context.Context, idx *Index) error
	DropIndex(ctx context.Context, keyspace, name string) error
	// ListIndexes returns the indexes of a table in declaration order.
	ListIndexes(ctx context.Context, keyspace, table string) ([]*Index, error)
}

func NewQDB(qdbType, addr, backupPath string) (QDB, error) {
	switch qdbType {
	case "etcd":
		return NewEtcdQDB(addr)
	case "mem", "":
		return RestoreQDB(backupPath)
	default:
		return nil, fmt.Errorf("qdb implementation %s is invalid", qdbType)
	}
}
