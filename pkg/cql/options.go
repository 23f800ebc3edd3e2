package cql

import (
	"fmt"

	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

// QueryOptions carries the serialized values bound to the markers of one
// execution.
type QueryOptions struct {
	Values [][]byte
}

func NewQueryOptions(values ...[]byte) *QueryOptions {
	return &QueryOptions{Values: values}
}

func (qo *QueryOptions) Value(i int) ([]byte, error) {
	if qo == nil || i < 0 || i >= len(qo.Values) {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "no value bound for marker %d", i)
	}
	return qo.Values[i], nil
}

// BindValuesFromStrings converts textual bind values into query options
// using the receivers collected at preparation.
func BindValuesFromStrings(specs *VariableSpecifications, values []string) (*QueryOptions, error) {
	if len(values) != specs.Size() {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "there were %d markers(?) in CQL but %d bound variables", specs.Size(), len(values))
	}
	res := make([][]byte, 0, len(values))
	for i, v := range values {
		spec := specs.Spec(i)
		if spec == nil {
			return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "marker %d is not used by any relation", i)
		}
		b, err := spec.Type.Underlying().FromString(v)
		if err != nil {
			return nil, wcerror.New(wcerror.WC_INVALID_REQUEST, fmt.Sprintf("invalid value for %s: %s", spec.Name, err))
		}
		res = append(res, b)
	}
	return &QueryOptions{Values: res}, nil
}
