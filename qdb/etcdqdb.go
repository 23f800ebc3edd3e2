package qdb

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/pkg/wclog"
	"golang.org/x/exp/slices"

	retry "github.com/sethvargo/go-retry"
	clientv3 "go.etcd.io/etcd/client/v3"
)

type EtcdQDB struct {
	cli *clientv3.Client
}

var _ QDB = &EtcdQDB{}

func NewEtcdQDB(addr string) (*EtcdQDB, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   []string{addr},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	wclog.Zero.Debug().
		Str("address", addr).
		Uint("client", wclog.GetPointer(cli)).
		Msg("etcdqdb: NewEtcdQDB")

	return &EtcdQDB{
		cli: cli,
	}, nil
}

const (
	tablesNamespace  = "/tables/"
	indexesNamespace = "/indexes/"

	maxRetries = 7
)

func tableNodePath(keyspace, name string) string {
	return path.Join(tablesNamespace, keyspace, name)
}

func indexKeyspacePath(keyspace string) string {
	return path.Join(indexesNamespace, keyspace) + "/"
}

func indexNodePath(keyspace, name string) string {
	return path.Join(indexesNamespace, keyspace, name)
}

func backoff() retry.Backoff {
	return retry.WithMaxRetries(maxRetries, retry.NewFibonacci(100*time.Millisecond))
}

func (q *EtcdQDB) Client() *clientv3.Client {
	return q.cli
}

func (q *EtcdQDB) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return retry.Do(ctx, backoff(), func(ctx context.Context) error {
		resp, err := q.cli.Put(ctx, key, string(raw))
		if err != nil {
			return retry.RetryableError(err)
		}
		wclog.Zero.Debug().
			Interface("response", resp).
			Str("key", key).
			Msg("etcdqdb: put")
		return nil
	})
}

func (q *EtcdQDB) get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	var resp *clientv3.GetResponse
	err := retry.Do(ctx, backoff(), func(ctx context.Context) error {
		var err error
		resp, err = q.cli.Get(ctx, key, opts...)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	return resp, err
}

// ==============================================================================
//                                   TABLES
// ==============================================================================

func (q *EtcdQDB) AddTable(ctx context.Context, t *Table) error {
	wclog.Zero.Debug().
		Interface("table", t).
		Msg("etcdqdb: add table")

	return q.put(ctx, tableNodePath(t.Keyspace, t.Name), t)
}

func (q *EtcdQDB) GetTable(ctx context.Context, keyspace, name string) (*Table, error) {
	wclog.Zero.Debug().
		Str("keyspace", keyspace).
		Str("table", name).
		Msg("etcdqdb: get table")

	nodePath := tableNodePath(keyspace, name)
	resp, err := q.get(ctx, nodePath)
	if err != nil {
		return nil, err
	}

	switch len(resp.Kvs) {
	case 0:
		return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown table %s.%s", keyspace, name)
	case 1:
		ret := &Table{}
		if err := json.Unmarshal(resp.Kvs[0].Value, ret); err != nil {
			return nil, err
		}
		return ret, nil
	default:
		return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "possible data corruption: multiple key-value pairs found for %v", nodePath)
	}
}

func (q *EtcdQDB) DropTable(ctx context.Context, keyspace, name string) error {
	wclog.Zero.Debug().
		Str("keyspace", keyspace).
		Str("table", name).
		Msg("etcdqdb: drop table")

	indexes, err := q.ListIndexes(ctx, keyspace, name)
	if err != nil {
		return err
	}

	ops := []clientv3.Op{clientv3.OpDelete(tableNodePath(keyspace, name))}
	for _, idx := range indexes {
		ops = append(ops, clientv3.OpDelete(indexNodePath(idx.Keyspace, idx.Name)))
	}

	resp, err := q.cli.Txn(ctx).Then(ops...).Commit()
	if err != nil {
		return err
	}
	wclog.Zero.Debug().
		Interface("response", resp).
		Msg("etcdqdb: drop table")
	return nil
}

func (q *EtcdQDB) ListTables(ctx context.Context) ([]*Table, error) {
	wclog.Zero.Debug().Msg("etcdqdb: list tables")

	resp, err := q.get(ctx, tablesNamespace, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	ret := make([]*Table, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		t := &Table{}
		if err := json.Unmarshal(kv.Value, t); err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	slices.SortFunc(ret, func(a, b *Table) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return ret, nil
}

// ==============================================================================
//                                  INDEXES
// ==============================================================================

func (q *EtcdQDB) AddIndex(ctx context.Context, idx *Index) error {
	wclog.Zero.Debug().
		Interface("index", idx).
		Msg("etcdqdb: add index")

	if _, err := q.GetTable(ctx, idx.Keyspace, idx.Table); err != nil {
		return err
	}
	return q.put(ctx, indexNodePath(idx.Keyspace, idx.Name), idx)
}

func (q *EtcdQDB) DropIndex(ctx context.Context, keyspace, name string) error {
	wclog.Zero.Debug().
		Str("keyspace", keyspace).
		Str("index", name).
		Msg("etcdqdb: drop index")

	resp, err := q.cli.Delete(ctx, indexNodePath(keyspace, name))
	if err != nil {
		return err
	}
	if resp.Deleted == 0 {
		return wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown index %s.%s", keyspace, name)
	}
	return nil
}

// ListIndexes orders indexes by the revision that created their key.
func (q *EtcdQDB) ListIndexes(ctx context.Context, keyspace, table string) ([]*Index, error) {
	wclog.Zero.Debug().
		Str("keyspace", keyspace).
		Str("table", table).
		Msg("etcdqdb: list indexes")

	resp, err := q.get(ctx, indexKeyspacePath(keyspace), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	var ret []*Index
	for _, kv := range resp.Kvs {
		idx := &Index{}
		if err := json.Unmarshal(kv.Value, idx); err != nil {
			return nil, err
		}
		if idx.Table != table {
			continue
		}
		idx.Seq = kv.CreateRevision
		ret = append(ret, idx)
	}
	sortIndexes(ret)
	return ret, nil
}
