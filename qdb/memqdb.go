package qdb

import (
	"cmp"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"github.com/pg-sharding/widecol/pkg/wclog"
	"golang.org/x/exp/slices"
)

type MemQDB struct {
	mu sync.RWMutex

	Tables  map[string]*Table `json:"tables"`
	Indexes map[string]*Index `json:"indexes"`
	NextSeq int64             `json:"next_seq"`

	backupPath string
}

var _ QDB = &MemQDB{}

func NewMemQDB(backupPath string) (*MemQDB, error) {
	return &MemQDB{
		Tables:  map[string]*Table{},
		Indexes: map[string]*Index{},

		backupPath: backupPath,
	}, nil
}

// RestoreQDB loads the catalog from its JSON backup, creating an empty
// backup file when there is none yet.
func RestoreQDB(backupPath string) (*MemQDB, error) {
	qdb, err := NewMemQDB(backupPath)
	if err != nil {
		return nil, err
	}
	if backupPath == "" {
		return qdb, nil
	}
	if _, err := os.Stat(backupPath); err != nil {
		wclog.Zero.Info().Err(err).Msg("memqdb backup file not exists. Creating new one.")
		f, err := os.Create(backupPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return qdb, nil
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return qdb, nil
	}
	if err := json.Unmarshal(data, qdb); err != nil {
		return nil, err
	}
	if qdb.Tables == nil {
		qdb.Tables = map[string]*Table{}
	}
	if qdb.Indexes == nil {
		qdb.Indexes = map[string]*Index{}
	}
	return qdb, nil
}

func (q *MemQDB) DumpState() error {
	if q.backupPath == "" {
		return nil
	}
	tmpPath := q.backupPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	state, err := json.MarshalIndent(q, "", "	")
	if err != nil {
		return err
	}

	if _, err = f.Write(state); err != nil {
		return err
	}
	f.Close()

	return os.Rename(tmpPath, q.backupPath)
}

// ==============================================================================
//                                   TABLES
// ==============================================================================

func (q *MemQDB) AddTable(_ context.Context, t *Table) error {
	wclog.Zero.Debug().Interface("table", t).Msg("memqdb: add table")
	q.mu.Lock()
	defer q.mu.Unlock()

	return ExecuteCommands(q.DumpState, NewUpdateCommand(q.Tables, t.ID(), t))
}

func (q *MemQDB) GetTable(_ context.Context, keyspace, name string) (*Table, error) {
	wclog.Zero.Debug().Str("keyspace", keyspace).Str("table", name).Msg("memqdb: get table")
	q.mu.RLock()
	defer q.mu.RUnlock()

	t, ok := q.Tables[TableID(keyspace, name)]
	if !ok {
		return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown table %s.%s", keyspace, name)
	}
	return t, nil
}

// DropTable removes the table together with its indexes.
func (q *MemQDB) DropTable(_ context.Context, keyspace, name string) error {
	wclog.Zero.Debug().Str("keyspace", keyspace).Str("table", name).Msg("memqdb: drop table")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.Tables[TableID(keyspace, name)]; !ok {
		return wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown table %s.%s", keyspace, name)
	}

	commands := []Command{NewDeleteCommand(q.Tables, TableID(keyspace, name))}
	for id, idx := range q.Indexes {
		if idx.Keyspace == keyspace && idx.Table == name {
			commands = append(commands, NewDeleteCommand(q.Indexes, id))
		}
	}
	return ExecuteCommands(q.DumpState, commands...)
}

func (q *MemQDB) ListTables(_ context.Context) ([]*Table, error) {
	wclog.Zero.Debug().Msg("memqdb: list tables")
	q.mu.RLock()
	defer q.mu.RUnlock()

	ret := make([]*Table, 0, len(q.Tables))
	for _, t := range q.Tables {
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

// AddIndex registers an index. Replacing an existing index keeps its
// position in declaration order.
func (q *MemQDB) AddIndex(_ context.Context, idx *Index) error {
	wclog.Zero.Debug().Interface("index", idx).Msg("memqdb: add index")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.Tables[TableID(idx.Keyspace, idx.Table)]; !ok {
		return wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown table %s.%s", idx.Keyspace, idx.Table)
	}

	stored := *idx
	if prev, ok := q.Indexes[idx.ID()]; ok {
		stored.Seq = prev.Seq
		return ExecuteCommands(q.DumpState, NewUpdateCommand(q.Indexes, idx.ID(), &stored))
	}

	seq := q.NextSeq
	stored.Seq = seq
	return ExecuteCommands(q.DumpState,
		NewCustomCommand(func() error {
			q.NextSeq = seq + 1
			return nil
		}, func() error {
			q.NextSeq = seq
			return nil
		}),
		NewUpdateCommand(q.Indexes, idx.ID(), &stored),
	)
}

func (q *MemQDB) DropIndex(_ context.Context, keyspace, name string) error {
	wclog.Zero.Debug().Str("keyspace", keyspace).Str("index", name).Msg("memqdb: drop index")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.Indexes[TableID(keyspace, name)]; !ok {
		return wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown index %s.%s", keyspace, name)
	}
	return ExecuteCommands(q.DumpState, NewDeleteCommand(q.Indexes, TableID(keyspace, name)))
}

func (q *MemQDB) ListIndexes(_ context.Context, keyspace, table string) ([]*Index, error) {
	wclog.Zero.Debug().Str("keyspace", keyspace).Str("table", table).Msg("memqdb: list indexes")
	q.mu.RLock()
	defer q.mu.RUnlock()

	var ret []*Index
	for _, idx := range q.Indexes {
		if idx.Keyspace == keyspace && idx.Table == table {
			ret = append(ret, idx)
		}
	}
	sortIndexes(ret)
	return ret, nil
}

func sortIndexes(indexes []*Index) {
	slices.SortFunc(indexes, func(a, b *Index) int {
		if c := cmp.Compare(a.Seq, b.Seq); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
}
