package restrictions

import (
	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/kr"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/token"
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
	"golang.org/x/exp/slices"
)

// GetPartitionKeyRanges computes the partition ranges to scan for one
// execution. An empty result means no partition can match.
func (p *Prepared) GetPartitionKeyRanges(opts *cql.QueryOptions) ([]*kr.PartitionRange, error) {
	if tr := p.tokenRestriction(); tr != nil {
		return p.tokenRanges(tr, opts)
	}
	if !p.analysis.pkIsPrefix {
		return []*kr.PartitionRange{kr.OpenPartitionRange()}, nil
	}
	return p.singularKeys(opts)
}

func (p *Prepared) tokenRestriction() *Restriction {
	for _, r := range p.restrictions {
		if r.OnToken {
			return r
		}
	}
	return nil
}

func (p *Prepared) tokenRanges(r *Restriction, opts *cql.QueryOptions) ([]*kr.PartitionRange, error) {
	switch v := r.Value.(type) {
	case SingleValue:
		b, err := v.Term.BindAndGet(opts)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, invalidNull(r)
		}
		t, err := p.opts.partitioner.TokenFromBytes(b)
		if err != nil {
			return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "%s", err)
		}
		return []*kr.PartitionRange{kr.TokenPointRange(t)}, nil
	case *TermSlice:
		start, end, ok, err := v.Resolve(opts, types.BigIntType.Compare)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidNull(r)
		}
		startBound := &kr.TokenBound{Token: token.MinimumToken(), Inclusive: true}
		if start != nil {
			t, err := p.opts.partitioner.TokenFromBytes(start.Value)
			if err != nil {
				return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "%s", err)
			}
			startBound = &kr.TokenBound{Token: t, Inclusive: start.Inclusive}
		}
		endBound := &kr.TokenBound{Token: token.MaximumToken(), Inclusive: true}
		if end != nil {
			t, err := p.opts.partitioner.TokenFromBytes(end.Value)
			if err != nil {
				return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "%s", err)
			}
			endBound = &kr.TokenBound{Token: t, Inclusive: end.Inclusive}
		}

		// ranges never wrap around the ring
		switch c := startBound.Token.Compare(endBound.Token); {
		case c > 0:
			return []*kr.PartitionRange{}, nil
		case c == 0 && !(startBound.Inclusive && endBound.Inclusive):
			return []*kr.PartitionRange{}, nil
		}
		return []*kr.PartitionRange{kr.NewTokenRange(startBound, endBound)}, nil
	}
	return nil, wcerror.Newf(wcerror.WC_MALFORMED_RESTRICTION, "unsupported token restriction %s", r)
}

// columnValues returns the sorted distinct values an EQ or IN restriction
// admits for column c.
func columnValues(r *Restriction, c *schema.ColumnDefinition, opts *cql.QueryOptions) ([][]byte, error) {
	var values [][]byte
	switch v := r.Value.(type) {
	case SingleValue:
		if r.Op != cql.EQ {
			return nil, wcerror.Newf(wcerror.WC_UNSUPPORTED_RANGE, "only EQ and IN relations are supported on key column %s: %s", c.Name, r)
		}
		b, err := v.Term.BindAndGet(opts)
		if err != nil {
			return nil, err
		}
		values = [][]byte{b}
	case MultipleValues:
		bound, err := v.Bind(opts)
		if err != nil {
			return nil, err
		}
		values = make([][]byte, len(bound))
		copy(values, bound)
	case *TermSlice:
		return nil, wcerror.Newf(wcerror.WC_UNSUPPORTED_RANGE, "only EQ and IN relation are supported on the partition key (unless you use the token() function): %s", r)
	case MapEntry:
		return nil, wcerror.Newf(wcerror.WC_UNSUPPORTED_RANGE, "map entry restriction on key column %s: %s", c.Name, r)
	}
	for _, b := range values {
		if b == nil {
			return nil, invalidNull(r)
		}
	}
	slices.SortFunc(values, c.Type.Compare)
	return slices.CompactFunc(values, func(a, b []byte) bool { return c.Type.Compare(a, b) == 0 }), nil
}

// cartesianProduct enumerates one value of each list in lexicographic
// order of the list indexes.
func cartesianProduct(lists [][][]byte, limit int) ([][][]byte, error) {
	total := 1
	for _, l := range lists {
		total *= len(l)
		if total > limit {
			return nil, wcerror.Newf(wcerror.WC_CARDINALITY_MISMATCH, "cartesian product of IN lists exceeds the limit of %d", limit)
		}
	}
	if total == 0 {
		return nil, nil
	}
	res := make([][][]byte, 0, total)
	idx := make([]int, len(lists))
	for {
		combination := make([][]byte, len(lists))
		for i, l := range lists {
			combination[i] = l[idx[i]]
		}
		res = append(res, combination)

		i := len(lists) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(lists[i]) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return res, nil
		}
	}
}

func (p *Prepared) singularKeys(opts *cql.QueryOptions) ([]*kr.PartitionRange, error) {
	pk := p.schema.PartitionKeyColumns()
	lists := make([][][]byte, 0, len(pk))
	for _, c := range pk {
		crs := restrictionsOn(p.restrictions, c)
		values, err := columnValues(crs[0], c, opts)
		if err != nil {
			return nil, err
		}
		lists = append(lists, values)
	}

	combinations, err := cartesianProduct(lists, p.opts.maxCartesianProduct)
	if err != nil {
		return nil, err
	}
	res := make([]*kr.PartitionRange, 0, len(combinations))
	for _, components := range combinations {
		key := p.schema.SerializePartitionKey(components)
		res = append(res, kr.SingularPartitionRange(&kr.DecoratedKey{
			Token:      p.opts.partitioner.GetToken(key),
			Key:        key,
			Components: components,
		}))
	}
	return res, nil
}
