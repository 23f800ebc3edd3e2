package index

import (
	"context"
	"sync"

	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/wclog"
	"github.com/pg-sharding/widecol/qdb"
	"github.com/pkg/errors"
)

// Manager exposes the secondary indexes of one table.
type Manager interface {
	// ListIndexes returns the indexes in declaration order.
	ListIndexes() []*Index
	GetDependentIndices(cdef *schema.ColumnDefinition) []Metadata
	IsIndex(table string) bool
}

func TableName(indexName string) string {
	return indexName + "_index"
}

type SecondaryIndexManager struct {
	mu sync.RWMutex

	schema  *schema.Schema
	db      qdb.QDB
	indices []*Index
}

var _ Manager = &SecondaryIndexManager{}

func NewSecondaryIndexManager(s *schema.Schema, db qdb.QDB) *SecondaryIndexManager {
	return &SecondaryIndexManager{
		schema: s,
		db:     db,
	}
}

// Reload synchronizes the manager with the catalog: indexes that are gone
// are dropped and new ones are appended in declaration order. On error the
// manager keeps its previous indexes.
func (m *SecondaryIndexManager) Reload(ctx context.Context) error {
	records, err := m.db.ListIndexes(ctx, m.schema.Keyspace, m.schema.Table)
	if err != nil {
		return errors.Wrapf(err, "failed to list indexes of %s.%s", m.schema.Keyspace, m.schema.Table)
	}

	loaded := make(map[string]*Index, len(records))
	for _, r := range records {
		md := MetadataFromDB(r)
		if err := m.checkTarget(md); err != nil {
			return err
		}
		loaded[md.Name] = NewIndex(md)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]*Index, 0, len(records))
	for _, idx := range m.indices {
		if fresh, ok := loaded[idx.metadata.Name]; ok {
			next = append(next, fresh)
			delete(loaded, idx.metadata.Name)
		} else {
			wclog.Zero.Debug().Str("index", idx.metadata.Name).Msg("index manager: drop index")
		}
	}
	for _, r := range records {
		if idx, ok := loaded[r.Name]; ok {
			wclog.Zero.Debug().
				Str("index", r.Name).
				Str("target", idx.targetColumn).
				Bool("local", idx.local).
				Msg("index manager: add index")
			next = append(next, idx)
			delete(loaded, r.Name)
		}
	}
	m.indices = next
	return nil
}

func (m *SecondaryIndexManager) AddIndex(md Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.addIndexLocked(md)
}

func (m *SecondaryIndexManager) checkTarget(md Metadata) error {
	if _, err := ParseTarget(m.schema, md.Target()); err != nil {
		return errors.Wrapf(err, "unable to parse targets for index %s (%s)", md.Name, md.Target())
	}
	return nil
}

func (m *SecondaryIndexManager) addIndexLocked(md Metadata) error {
	if err := m.checkTarget(md); err != nil {
		return err
	}
	idx := NewIndex(md)
	for i, existing := range m.indices {
		if existing.metadata.Name == md.Name {
			m.indices[i] = idx
			return nil
		}
	}
	wclog.Zero.Debug().
		Str("index", md.Name).
		Str("target", idx.targetColumn).
		Bool("local", idx.local).
		Msg("index manager: add index")
	m.indices = append(m.indices, idx)
	return nil
}

func (m *SecondaryIndexManager) ListIndexes() []*Index {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]*Index, len(m.indices))
	copy(res, m.indices)
	return res
}

func (m *SecondaryIndexManager) GetDependentIndices(cdef *schema.ColumnDefinition) []Metadata {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []Metadata
	for _, idx := range m.indices {
		if idx.DependsOn(cdef) {
			res = append(res, idx.metadata)
		}
	}
	return res
}

// IsIndex reports whether table is the backing table of one of the indexes.
func (m *SecondaryIndexManager) IsIndex(table string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, idx := range m.indices {
		if TableName(idx.metadata.Name) == table {
			return true
		}
	}
	return false
}
