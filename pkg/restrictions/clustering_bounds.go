package restrictions

import (
	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/kr"
	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/types"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

// GetClusteringBounds computes the clustering ranges to read within each
// partition for one execution, sorted by start.
func (p *Prepared) GetClusteringBounds(opts *cql.QueryOptions) ([]*kr.ClusteringRange, error) {
	var ckRs []*Restriction
	for _, r := range p.restrictions {
		if !r.OnToken && r.Target[0].IsClusteringKey() {
			ckRs = append(ckRs, r)
		}
	}
	if len(ckRs) == 0 || p.analysis.ckNeedsFiltering {
		return []*kr.ClusteringRange{kr.OpenClusteringRange()}, nil
	}

	var (
		ranges []*kr.ClusteringRange
		err    error
	)
	if ckRs[0].IsMultiColumn() {
		ranges, err = p.multiColumnBounds(ckRs[0], opts)
	} else {
		ranges, err = p.singleColumnBounds(opts)
	}
	if err != nil {
		return nil, err
	}
	return kr.NormalizeClusteringRanges(p.schema.ClusteringComparator(), ranges), nil
}

func naturalTupleType(cols []*schema.ColumnDefinition) *types.DataType {
	elems := make([]*types.DataType, 0, len(cols))
	for _, c := range cols {
		elems = append(elems, c.Type.Underlying())
	}
	return types.TupleOf(elems...)
}

func bindTuple(r *Restriction, t cql.Term, opts *cql.QueryOptions) ([][]byte, error) {
	if tt, ok := t.(cql.TupleTerm); ok {
		elems, err := tt.BindElements(opts)
		if err != nil {
			return nil, err
		}
		return checkTuple(r, elems)
	}
	b, err := t.BindAndGet(opts)
	if err != nil {
		return nil, err
	}
	return splitBoundTuple(r, b)
}

// splitBoundTuple splits a serialized tuple bound for r.
func splitBoundTuple(r *Restriction, b []byte) ([][]byte, error) {
	if b == nil {
		return nil, invalidNull(r)
	}
	elems, err := types.SplitTuple(b)
	if err != nil {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "invalid tuple value for %s: %s", r.targetString(), err)
	}
	return checkTuple(r, elems)
}

func checkTuple(r *Restriction, elems [][]byte) ([][]byte, error) {
	if len(elems) != len(r.Target) {
		return nil, wcerror.Newf(wcerror.WC_CARDINALITY_MISMATCH, "expected %d elements in value tuple for %s, got %d", len(r.Target), r.targetString(), len(elems))
	}
	for _, e := range elems {
		if e == nil {
			return nil, invalidNull(r)
		}
	}
	return elems, nil
}

func (p *Prepared) multiColumnBounds(r *Restriction, opts *cql.QueryOptions) ([]*kr.ClusteringRange, error) {
	switch v := r.Value.(type) {
	case SingleValue:
		elems, err := bindTuple(r, v.Term, opts)
		if err != nil {
			return nil, err
		}
		return []*kr.ClusteringRange{kr.SingularClusteringRange(elems)}, nil
	case MultipleValues:
		var tuples [][][]byte
		if v.Marker != nil {
			values, err := v.Marker.BindValues(opts)
			if err != nil {
				return nil, err
			}
			for _, b := range values {
				elems, err := splitBoundTuple(r, b)
				if err != nil {
					return nil, err
				}
				tuples = append(tuples, elems)
			}
		} else {
			for _, t := range v.Terms {
				elems, err := bindTuple(r, t, opts)
				if err != nil {
					return nil, err
				}
				tuples = append(tuples, elems)
			}
		}
		if len(tuples) > p.opts.maxCartesianProduct {
			return nil, wcerror.Newf(wcerror.WC_CARDINALITY_MISMATCH, "IN list of %s exceeds the limit of %d", r.targetString(), p.opts.maxCartesianProduct)
		}
		res := make([]*kr.ClusteringRange, 0, len(tuples))
		for _, elems := range tuples {
			res = append(res, kr.SingularClusteringRange(elems))
		}
		return res, nil
	case *TermSlice:
		start, end, ok, err := v.Resolve(opts, naturalTupleType(r.Target).Compare)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, invalidNull(r)
		}
		toBound := func(b *ResolvedBound) (*kr.ClusteringBound, error) {
			if b == nil {
				return nil, nil
			}
			elems, err := splitBoundTuple(r, b.Value)
			if err != nil {
				return nil, err
			}
			return &kr.ClusteringBound{Prefix: elems, Inclusive: b.Inclusive}, nil
		}
		startBound, err := toBound(start)
		if err != nil {
			return nil, err
		}
		endBound, err := toBound(end)
		if err != nil {
			return nil, err
		}
		cr := kr.NewClusteringRange(startBound, endBound)
		if r.Target[0].Type.Reversed {
			cr = cr.Reversed()
		}
		return []*kr.ClusteringRange{cr}, nil
	}
	return nil, wcerror.Newf(wcerror.WC_MALFORMED_RESTRICTION, "unsupported multi-column restriction %s", r)
}

func (p *Prepared) singleColumnBounds(opts *cql.QueryOptions) ([]*kr.ClusteringRange, error) {
	var (
		lists [][][]byte
		slice *Restriction
		col   *schema.ColumnDefinition
	)
	for _, c := range p.schema.ClusteringKeyColumns() {
		crs := restrictionsOn(p.restrictions, c)
		if len(crs) == 0 {
			break
		}
		if crs[0].IsSlice() {
			slice, col = crs[0], c
			break
		}
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

	if slice == nil {
		res := make([]*kr.ClusteringRange, 0, len(combinations))
		for _, prefix := range combinations {
			res = append(res, kr.SingularClusteringRange(prefix))
		}
		return res, nil
	}

	ts := slice.Value.(*TermSlice)
	start, end, ok, err := ts.Resolve(opts, col.Type.Underlying().Compare)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidNull(slice)
	}

	bound := func(prefix [][]byte, b *ResolvedBound) *kr.ClusteringBound {
		if b == nil {
			if len(prefix) == 0 {
				return nil
			}
			return &kr.ClusteringBound{Prefix: prefix, Inclusive: true}
		}
		full := make([][]byte, 0, len(prefix)+1)
		full = append(append(full, prefix...), b.Value)
		return &kr.ClusteringBound{Prefix: full, Inclusive: b.Inclusive}
	}

	res := make([]*kr.ClusteringRange, 0, len(combinations))
	for _, prefix := range combinations {
		cr := kr.NewClusteringRange(bound(prefix, start), bound(prefix, end))
		if col.Type.Reversed {
			cr = cr.Reversed()
		}
		res = append(res, cr)
	}
	return res, nil
}
