package restrictions

import (
	"strings"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/index"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/token"
	"github.com/pg-sharding/widecol/pkg/wclog"
)

const DefaultMaxCartesianProduct = 100

type options struct {
	partitioner         token.Partitioner
	maxCartesianProduct int
	allowLocalIndex     bool
}

type Option func(*options)

func WithPartitioner(p token.Partitioner) Option {
	return func(o *options) {
		o.partitioner = p
	}
}

// WithMaxCartesianProduct bounds the number of keys and clustering ranges
// an IN expansion may produce.
func WithMaxCartesianProduct(n int) Option {
	return func(o *options) {
		o.maxCartesianProduct = n
	}
}

func WithAllowLocalIndex(allow bool) Option {
	return func(o *options) {
		o.allowLocalIndex = allow
	}
}

// Prepared is the immutable result of preparing the WHERE clause of a
// statement. It is safe for concurrent use.
type Prepared struct {
	schema       *schema.Schema
	restrictions []*Restriction

	analysis    *analysis
	index       *index.Index
	indexColumn *schema.ColumnDefinition
	filtered    []*schema.ColumnDefinition

	opts options
}

// Prepare builds the restrictions of a statement on table s, decides which
// columns need filtering and picks a secondary index from im, which may be
// nil. Bind markers are registered in boundNames.
func Prepare(s *schema.Schema, im index.Manager, where []cql.Relation, boundNames *cql.VariableSpecifications, opts ...Option) (*Prepared, error) {
	o := options{
		partitioner:         token.Murmur3Partitioner{},
		maxCartesianProduct: DefaultMaxCartesianProduct,
		allowLocalIndex:     true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if boundNames == nil {
		boundNames = cql.NewVariableSpecifications(0)
	}

	built, err := buildRestrictions(s, where, boundNames)
	if err != nil {
		return nil, err
	}
	rs := normalize(built)
	if err := validate(s, rs); err != nil {
		return nil, err
	}

	p := &Prepared{
		schema:       s,
		restrictions: rs,
		analysis:     analyze(s, rs),
		opts:         o,
	}

	if im != nil && len(p.analysis.candidates) > 0 {
		p.indexColumn, p.index = chooseIndex(s, rs, p.analysis.candidates, im.ListIndexes(), o.allowLocalIndex)
	}
	for _, c := range p.analysis.candidates {
		if p.indexColumn != nil && c.ID == p.indexColumn.ID {
			continue
		}
		p.filtered = append(p.filtered, c)
	}

	ev := wclog.Zero.Debug().
		Str("table", s.Keyspace+"."+s.Table).
		Str("restrictions", describe(rs)).
		Str("candidates", columnNames(p.analysis.candidates)).
		Str("filtered", columnNames(p.filtered))
	if p.index != nil {
		ev = ev.Str("index", p.index.Metadata().Name)
	}
	ev.Msg("prepared restrictions")

	return p, nil
}

func (p *Prepared) Schema() *schema.Schema {
	return p.schema
}

// NeedFiltering reports whether rows returned by the scan must be filtered.
func (p *Prepared) NeedFiltering() bool {
	return len(p.filtered) > 0
}

func (p *Prepared) UsesIndexing() bool {
	return p.index != nil
}

// Index returns the chosen index and the column it serves, or nils.
func (p *Prepared) Index() (*index.Index, *schema.ColumnDefinition) {
	return p.index, p.indexColumn
}

func (p *Prepared) FilteredColumns() []*schema.ColumnDefinition {
	res := make([]*schema.ColumnDefinition, len(p.filtered))
	copy(res, p.filtered)
	return res
}

func (p *Prepared) Restrictions() []*Restriction {
	res := make([]*Restriction, len(p.restrictions))
	copy(res, p.restrictions)
	return res
}

func (p *Prepared) HasTokenRestriction() bool {
	return p.tokenRestriction() != nil
}

func (p *Prepared) HasPartitionKeyRestrictions() bool {
	for _, r := range p.restrictions {
		if r.Target[0].IsPartitionKey() {
			return true
		}
	}
	return false
}

func (p *Prepared) HasClusteringKeyRestrictions() bool {
	for _, r := range p.restrictions {
		if !r.OnToken && r.Target[0].IsClusteringKey() {
			return true
		}
	}
	return false
}

// IsKeyRange reports whether the partition key does not resolve to a
// finite set of keys: a token restriction, a filtered or an incomplete
// partition key.
func (p *Prepared) IsKeyRange() bool {
	return p.HasTokenRestriction() || !p.analysis.pkIsPrefix
}

// KeyIsInRelation reports whether a partition key column is restricted by IN.
func (p *Prepared) KeyIsInRelation() bool {
	for _, r := range p.restrictions {
		if !r.OnToken && r.Target[0].IsPartitionKey() && r.IsIN() {
			return true
		}
	}
	return false
}

func (p *Prepared) String() string {
	parts := make([]string, 0, len(p.restrictions))
	for _, r := range p.restrictions {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " AND ")
}
