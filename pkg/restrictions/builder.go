package restrictions

import (
	"fmt"
	"strings"

	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"golang.org/x/exp/slices"
)

func malformed(format string, args ...any) error {
	return wcerror.Newf(wcerror.WC_MALFORMED_RESTRICTION, format, args...)
}

func tokenSpecification(s *schema.Schema) *cql.ColumnSpecification {
	return &cql.ColumnSpecification{
		Keyspace: s.Keyspace,
		Table:    s.Table,
		Name:     "partition key token",
		Type:     types.BigIntType,
	}
}

// buildRestrictions translates relations into restrictions and registers
// their bind markers. IS NOT relations are accepted and dropped.
func buildRestrictions(s *schema.Schema, where []cql.Relation, boundNames *cql.VariableSpecifications) ([]*Restriction, error) {
	res := make([]*Restriction, 0, len(where))
	for _, rel := range where {
		if rel.Operator() == cql.IS_NOT {
			continue
		}
		if rel.Operator() == cql.LIKE {
			return nil, malformed("LIKE restriction is not supported: %s", rel)
		}
		if rel.Operator() == cql.NEQ {
			return nil, malformed("unsupported \"!=\" relation: %s", rel)
		}

		var (
			r   *Restriction
			err error
		)
		switch rel := rel.(type) {
		case *cql.SingleColumnRelation:
			r, err = buildSingleColumn(s, rel)
		case *cql.MultiColumnRelation:
			r, err = buildMultiColumn(s, rel)
		case *cql.TokenRelation:
			r, err = buildToken(s, rel)
		default:
			err = wcerror.Newf(wcerror.WC_INVALID_REQUEST, "unsupported relation %T: %s", rel, rel)
		}
		if err != nil {
			return nil, err
		}
		if len(r.Target) == 0 {
			return nil, malformed("relation restricts no columns: %s", rel)
		}
		r.Value.CollectMarkerSpecification(boundNames)
		res = append(res, r)
	}
	return res, nil
}

func lookupColumn(s *schema.Schema, name string) (*schema.ColumnDefinition, error) {
	cdef := s.GetColumnDefinition(name)
	if cdef == nil {
		return nil, wcerror.Newf(wcerror.WC_UNKNOWN_COLUMN, "undefined column name %s in table %s.%s", name, s.Keyspace, s.Table)
	}
	return cdef, nil
}

func buildSingleColumn(s *schema.Schema, rel *cql.SingleColumnRelation) (*Restriction, error) {
	cdef, err := lookupColumn(s, rel.Entity)
	if err != nil {
		return nil, err
	}
	spec := s.MakeColumnSpecification(cdef)
	tp := cdef.Type.Underlying()
	r := &Restriction{Op: rel.Op, Target: []*schema.ColumnDefinition{cdef}}

	if rel.MapKey != nil {
		if !tp.IsMap() {
			return nil, malformed("column %s cannot be used as a map", cdef.Name)
		}
		if !tp.IsMultiCell() {
			return nil, malformed("map-entry equality predicates on frozen map column %s are not supported", cdef.Name)
		}
		if rel.Op != cql.EQ {
			return nil, malformed("only EQ relations are supported on map entries: %s", rel)
		}
		key, err := prepareTerm(rel.MapKey, spec.Derived("key", tp.Keys))
		if err != nil {
			return nil, err
		}
		value, err := prepareTerm(rel.Value, spec.Derived("value", tp.Values))
		if err != nil {
			return nil, err
		}
		r.Value = MapEntry{Key: key, Value: value}
		return r, nil
	}

	if tp.IsMultiCell() && !rel.Op.IsContains() {
		return nil, malformed("collection column '%s' (%s) cannot be restricted by a '%s' relation", cdef.Name, tp.Name(), rel.Op)
	}

	switch {
	case rel.Op == cql.CONTAINS:
		if !tp.IsCollection() {
			return nil, malformed("cannot use CONTAINS on non-collection column %s", cdef.Name)
		}
		elem := tp.Keys
		if tp.IsMap() {
			elem = tp.Values
		}
		t, err := prepareTerm(rel.Value, spec.Derived("value", elem))
		if err != nil {
			return nil, err
		}
		r.Value = SingleValue{Term: t}
	case rel.Op == cql.CONTAINS_KEY:
		if !tp.IsMap() {
			return nil, malformed("cannot use CONTAINS KEY on non-map column %s", cdef.Name)
		}
		t, err := prepareTerm(rel.Value, spec.Derived("key", tp.Keys))
		if err != nil {
			return nil, err
		}
		r.Value = SingleValue{Term: t}
	case rel.Op == cql.IN:
		if m, ok := rel.Value.(*cql.Marker); ok && len(rel.InValues) == 0 {
			r.Value = MultipleValues{Marker: m.PrepareIn(spec)}
			break
		}
		if rel.Value != nil {
			return nil, malformed("invalid IN relation: %s", rel)
		}
		terms := make([]cql.Term, 0, len(rel.InValues))
		for _, raw := range rel.InValues {
			t, err := prepareTerm(raw, spec)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		r.Value = MultipleValues{Terms: terms}
	case rel.Op.IsSlice():
		t, err := prepareTerm(rel.Value, spec)
		if err != nil {
			return nil, err
		}
		r.Value = NewTermSlice(rel.Op, t)
	case rel.Op == cql.EQ:
		t, err := prepareTerm(rel.Value, spec)
		if err != nil {
			return nil, err
		}
		r.Value = SingleValue{Term: t}
	default:
		return nil, malformed("unsupported operator %s in relation %s", rel.Op, rel)
	}
	return r, nil
}

func prepareTerm(raw cql.RawTerm, receiver *cql.ColumnSpecification) (cql.Term, error) {
	if raw == nil {
		return nil, malformed("missing value for %s", receiver.Name)
	}
	return raw.Prepare(receiver)
}

func buildMultiColumn(s *schema.Schema, rel *cql.MultiColumnRelation) (*Restriction, error) {
	target := make([]*schema.ColumnDefinition, 0, len(rel.Entities))
	receivers := make([]*cql.ColumnSpecification, 0, len(rel.Entities))
	for i, name := range rel.Entities {
		cdef, err := lookupColumn(s, name)
		if err != nil {
			return nil, err
		}
		if !cdef.IsClusteringKey() {
			return nil, malformed("multi-column relations can only be applied to clustering columns but was applied to: %s", cdef.Name)
		}
		if i > 0 && cdef.Position <= target[i-1].Position {
			if cdef.Position == target[i-1].Position {
				return nil, malformed("column %s appeared twice in a relation: %s", cdef.Name, rel)
			}
			return nil, malformed("clustering columns must appear in the PRIMARY KEY order in multi-column relations: %s", rel)
		}
		target = append(target, cdef)
		receivers = append(receivers, s.MakeColumnSpecification(cdef))
	}
	r := &Restriction{Op: rel.Op, Target: target, MultiColumn: true}
	if len(target) == 0 {
		return r, nil
	}

	prepare := func(raw cql.RawTupleTerm) (cql.TupleTerm, error) {
		if raw == nil {
			return nil, malformed("missing value for %s", rel)
		}
		return raw.PrepareTuple(receivers)
	}

	switch {
	case rel.Op == cql.EQ:
		t, err := prepare(rel.Value)
		if err != nil {
			return nil, err
		}
		r.Value = SingleValue{Term: t}
	case rel.Op == cql.IN:
		if m, ok := rel.Value.(*cql.TupleMarker); ok && len(rel.InValues) == 0 {
			mv, err := m.PrepareIn(receivers)
			if err != nil {
				return nil, err
			}
			r.Value = MultipleValues{Marker: mv}
			break
		}
		if rel.Value != nil {
			return nil, malformed("invalid IN relation: %s", rel)
		}
		terms := make([]cql.Term, 0, len(rel.InValues))
		for _, raw := range rel.InValues {
			t, err := prepare(raw)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		r.Value = MultipleValues{Terms: terms}
	case rel.Op.IsSlice():
		t, err := prepare(rel.Value)
		if err != nil {
			return nil, err
		}
		r.Value = NewTermSlice(rel.Op, t)
	default:
		return nil, malformed("unsupported operator %s in multi-column relation %s", rel.Op, rel)
	}
	return r, nil
}

func buildToken(s *schema.Schema, rel *cql.TokenRelation) (*Restriction, error) {
	pk := s.PartitionKeyColumns()
	if len(rel.Entities) != len(pk) {
		return nil, malformed("the token function arguments must be in the partition key order: %s", columnNames(pk))
	}
	for i, name := range rel.Entities {
		if _, err := lookupColumn(s, name); err != nil {
			return nil, err
		}
		if name != pk[i].Name {
			return nil, malformed("the token function arguments must be in the partition key order: %s", columnNames(pk))
		}
	}

	t, err := prepareTerm(rel.Value, tokenSpecification(s))
	if err != nil {
		return nil, err
	}
	r := &Restriction{Op: rel.Op, Target: pk, OnToken: true}
	switch {
	case rel.Op == cql.EQ:
		r.Value = SingleValue{Term: t}
	case rel.Op.IsSlice():
		r.Value = NewTermSlice(rel.Op, t)
	default:
		return nil, malformed("unsupported operator %s for token restriction %s", rel.Op, rel)
	}
	return r, nil
}

func columnNames(cols []*schema.ColumnDefinition) string {
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

// normalize sorts restrictions by the id of their first target column and
// merges slices sharing a target.
func normalize(rs []*Restriction) []*Restriction {
	sorted := make([]*Restriction, len(rs))
	copy(sorted, rs)
	slices.SortStableFunc(sorted, func(a, b *Restriction) int {
		return a.Target[0].ID - b.Target[0].ID
	})

	res := make([]*Restriction, 0, len(sorted))
	for _, r := range sorted {
		slice, ok := r.Value.(*TermSlice)
		if !ok {
			res = append(res, r)
			continue
		}
		merged := false
		for i, prev := range res {
			prevSlice, ok := prev.Value.(*TermSlice)
			if !ok || !prev.SameTarget(r) {
				continue
			}
			res[i] = &Restriction{
				Op:          prev.Op,
				Target:      prev.Target,
				Value:       prevSlice.Merge(slice),
				OnToken:     prev.OnToken,
				MultiColumn: prev.MultiColumn,
			}
			merged = true
			break
		}
		if !merged {
			res = append(res, r)
		}
	}
	return res
}

// validate rejects restriction sets no plan can serve.
func validate(s *schema.Schema, rs []*Restriction) error {
	var (
		tokenRs    []*Restriction
		pkColumnRs []*Restriction
		singleCK   []*Restriction
		multiCK    []*Restriction
		perColumn  = map[int][]*Restriction{}
	)
	for _, r := range rs {
		switch {
		case r.OnToken:
			tokenRs = append(tokenRs, r)
			continue
		case r.IsMultiColumn():
			multiCK = append(multiCK, r)
		case r.Target[0].IsClusteringKey():
			singleCK = append(singleCK, r)
		case r.Target[0].IsPartitionKey():
			pkColumnRs = append(pkColumnRs, r)
		}
		for _, c := range r.Target {
			perColumn[c.ID] = append(perColumn[c.ID], r)
		}
	}

	if len(tokenRs) > 0 && len(pkColumnRs) > 0 {
		return malformed("columns %s cannot be restricted by both a normal relation and a token relation", columnNames(s.PartitionKeyColumns()))
	}
	if len(tokenRs) > 1 {
		for _, r := range tokenRs {
			if r.IsEQ() {
				return malformed("%s cannot be restricted by more than one relation if it includes an Equal", r.targetString())
			}
		}
	}
	if len(singleCK) > 0 && len(multiCK) > 0 {
		return malformed("mixing single column relations and multi column relations on clustering columns is not allowed")
	}

	for _, c := range s.AllColumns() {
		crs := perColumn[c.ID]
		if len(crs) < 2 {
			continue
		}
		for _, r := range crs {
			if !r.IsEQ() && !r.IsIN() {
				continue
			}
			for _, o := range crs {
				if o == r || o.IsContains() {
					continue
				}
				kind := "an Equal"
				if r.IsIN() {
					kind = "IN"
				}
				return malformed("%s cannot be restricted by more than one relation if it includes %s", c.Name, kind)
			}
		}
	}
	return nil
}

func describe(rs []*Restriction) string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
}
