package cql

import (
	"fmt"
	"strings"
)

type Operator int

const (
	EQ = Operator(iota)
	LT
	LTE
	GT
	GTE
	IN
	CONTAINS
	CONTAINS_KEY
	LIKE
	NEQ
	IS_NOT
)

var operatorNames = map[Operator]string{
	EQ:           "=",
	LT:           "<",
	LTE:          "<=",
	GT:           ">",
	GTE:          ">=",
	IN:           "IN",
	CONTAINS:     "CONTAINS",
	CONTAINS_KEY: "CONTAINS KEY",
	LIKE:         "LIKE",
	NEQ:          "!=",
	IS_NOT:       "IS NOT",
}

func (op Operator) String() string {
	if n, ok := operatorNames[op]; ok {
		return n
	}
	return fmt.Sprintf("operator(%d)", int(op))
}

// IsSlice reports whether op is one of <, <=, > and >=.
func (op Operator) IsSlice() bool {
	return op == LT || op == LTE || op == GT || op == GTE
}

// IsStartBound reports whether op bounds a slice from below.
func (op Operator) IsStartBound() bool {
	return op == GT || op == GTE
}

func (op Operator) IsInclusive() bool {
	return op == LTE || op == GTE || op == EQ
}

// IsContains reports whether op tests collection membership.
func (op Operator) IsContains() bool {
	return op == CONTAINS || op == CONTAINS_KEY
}

// OperatorFromString parses the textual form of an operator.
func OperatorFromString(s string) (Operator, error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if norm == "<>" {
		return NEQ, nil
	}
	for op, name := range operatorNames {
		if name == norm {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}
