package main

import (
	"strings"

	"github.com/pg-sharding/widecol/pkg/config"
	"github.com/pg-sharding/widecol/pkg/cql"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

const markerText = "?"

// Query is the YAML description of a statement: the relations of its WHERE
// clause and the text values bound to its markers, one list per execution.
type Query struct {
	Keyspace   string     `yaml:"keyspace" json:"keyspace" toml:"keyspace"`
	Table      string     `yaml:"table" json:"table" toml:"table"`
	Where      []Relation `yaml:"where" json:"where" toml:"where"`
	Executions [][]string `yaml:"executions" json:"executions" toml:"executions"`
}

// Relation describes one relation. Exactly one of Column, Columns and
// Token names the left hand side. A value of "?" is a bind marker.
type Relation struct {
	Column  string   `yaml:"column" json:"column" toml:"column"`
	Columns []string `yaml:"columns" json:"columns" toml:"columns"`
	Token   []string `yaml:"token" json:"token" toml:"token"`

	Op  string `yaml:"op" json:"op" toml:"op"`
	Key string `yaml:"key" json:"key" toml:"key"`

	Value  string     `yaml:"value" json:"value" toml:"value"`
	Values []string   `yaml:"values" json:"values" toml:"values"`
	Tuple  []string   `yaml:"tuple" json:"tuple" toml:"tuple"`
	Tuples [][]string `yaml:"tuples" json:"tuples" toml:"tuples"`
}

func LoadQuery(path string) (*Query, error) {
	q := &Query{}
	if err := config.DecodeFile(path, q); err != nil {
		return nil, err
	}
	if q.Table == "" {
		return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "query %s names no table", path)
	}
	return q, nil
}

// markers hands out bind indexes in order of appearance.
type markers struct {
	next int
}

func (m *markers) term(text string) cql.RawTerm {
	if strings.TrimSpace(text) == markerText {
		idx := m.next
		m.next++
		return &cql.Marker{Index: idx}
	}
	return &cql.Literal{Text: text}
}

func (m *markers) tuple(elems []string) cql.RawTupleTerm {
	raw := make([]cql.RawTerm, 0, len(elems))
	for _, e := range elems {
		raw = append(raw, m.term(e))
	}
	return &cql.TupleLiteral{Elements: raw}
}

func (m *markers) tupleMarker() cql.RawTupleTerm {
	idx := m.next
	m.next++
	return &cql.TupleMarker{Index: idx}
}

// Relations converts the query into parsed relations.
func (q *Query) Relations() ([]cql.Relation, error) {
	var (
		m   markers
		res = make([]cql.Relation, 0, len(q.Where))
	)
	for i, r := range q.Where {
		op, err := cql.OperatorFromString(r.Op)
		if err != nil {
			return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "relation %d: %s", i, err)
		}

		switch {
		case len(r.Token) > 0:
			res = append(res, &cql.TokenRelation{Entities: r.Token, Op: op, Value: m.term(r.Value)})
		case len(r.Columns) > 0:
			rel := &cql.MultiColumnRelation{Entities: r.Columns, Op: op}
			switch {
			case op == cql.IN && r.Value == markerText:
				rel.Value = m.tupleMarker()
			case op == cql.IN:
				for _, t := range r.Tuples {
					rel.InValues = append(rel.InValues, m.tuple(t))
				}
			case r.Value == markerText:
				rel.Value = m.tupleMarker()
			default:
				rel.Value = m.tuple(r.Tuple)
			}
			res = append(res, rel)
		case r.Column != "":
			rel := &cql.SingleColumnRelation{Entity: r.Column, Op: op}
			if r.Key != "" {
				rel.MapKey = m.term(r.Key)
			}
			if op == cql.IN && r.Value == "" {
				rel.InValues = make([]cql.RawTerm, 0, len(r.Values))
				for _, v := range r.Values {
					rel.InValues = append(rel.InValues, m.term(v))
				}
			} else {
				rel.Value = m.term(r.Value)
			}
			res = append(res, rel)
		default:
			return nil, wcerror.Newf(wcerror.WC_INVALID_REQUEST, "relation %d names no column", i)
		}
	}
	return res, nil
}
