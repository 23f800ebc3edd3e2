package restrictions

import (
	"github.com/pg-sharding/widecol/pkg/models/index"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/wclog"
)

const (
	scoreNone   = 0
	scoreGlobal = 1
	scoreLocal  = 2
)

// pkFullyEQ reports whether every partition key column has a single EQ
// restriction, which is what scanning a local index requires.
func pkFullyEQ(s *schema.Schema, rs []*Restriction) bool {
	for _, c := range s.PartitionKeyColumns() {
		crs := restrictionsOn(rs, c)
		if len(crs) != 1 || !crs[0].IsEQ() {
			return false
		}
	}
	return true
}

// scoreIndex rates idx for the restrictions crs on c. An index must target c
// and support the operator of every restriction on it, so a global index
// scores 1 only for an EQ (or CONTAINS / CONTAINS KEY / map entry, per its
// target type) and 0 for slices and IN. A local index scores 2 when the
// partition key is fully EQ restricted and local indexes are allowed.
func scoreIndex(idx *index.Index, c *schema.ColumnDefinition, crs []*Restriction, fullPK, allowLocal bool) int {
	if idx.TargetColumn() != c.Name {
		return scoreNone
	}
	for _, r := range crs {
		if r.IsMultiColumn() || !idx.SupportsExpression(c, r.Op) {
			return scoreNone
		}
	}
	if idx.IsLocal() {
		if allowLocal && fullPK {
			return scoreLocal
		}
		return scoreNone
	}
	return scoreGlobal
}

// chooseIndex picks the (column, index) pair with the strictly highest
// score, scanning candidates in order and indexes in declaration order.
func chooseIndex(s *schema.Schema, rs []*Restriction, candidates []*schema.ColumnDefinition, indexes []*index.Index, allowLocal bool) (*schema.ColumnDefinition, *index.Index) {
	fullPK := pkFullyEQ(s, rs)

	var (
		bestColumn *schema.ColumnDefinition
		bestIndex  *index.Index
		bestScore  = scoreNone
	)
	for _, c := range candidates {
		crs := restrictionsOn(rs, c)
		for _, idx := range indexes {
			score := scoreIndex(idx, c, crs, fullPK, allowLocal)
			wclog.Zero.Debug().
				Str("column", c.Name).
				Str("index", idx.Metadata().Name).
				Bool("local", idx.IsLocal()).
				Int("score", score).
				Msg("scored index candidate")
			if score > bestScore {
				bestColumn, bestIndex, bestScore = c, idx, score
			}
		}
	}
	return bestColumn, bestIndex
}
