package index

import (
	"regexp"
	"strings"

	"github.com/pg-sharding/widecol/pkg/models/schema"
	"github.com/pg-sharding/widecol/pkg/models/wcerror"
)

const (
	TargetOptionName      = "target"
	CustomIndexOptionName = "class_name"

	IndexKeysOptionName    = "index_keys"
	IndexValuesOptionName  = "index_values"
	IndexEntriesOptionName = "index_keys_and_values"
)

type TargetType int

const (
	TargetValues  = TargetType(0)
	TargetKeys    = TargetType(1)
	TargetEntries = TargetType(2)
	TargetFull    = TargetType(3)
)

func (tt TargetType) String() string {
	switch tt {
	case TargetKeys:
		return "keys"
	case TargetEntries:
		return "entries"
	case TargetFull:
		return "full"
	}
	return "values"
}

func TargetTypeFromString(s string) (TargetType, error) {
	switch s {
	case "values":
		return TargetValues, nil
	case "keys":
		return TargetKeys, nil
	case "entries":
		return TargetEntries, nil
	case "full":
		return TargetFull, nil
	}
	return 0, wcerror.Newf(wcerror.WC_METADATA_ERROR, "unknown index target type %q", s)
}

// IndexOption returns the option recording which part of a collection is indexed.
func (tt TargetType) IndexOption() string {
	switch tt {
	case TargetKeys:
		return IndexKeysOptionName
	case TargetEntries:
		return IndexEntriesOptionName
	}
	return IndexValuesOptionName
}

var (
	targetRegex = regexp.MustCompile(`^(keys|entries|values|full)\((.+)\)$`)
	// (pk1,pk2),ck
	localTargetRegex = regexp.MustCompile(`^\(((?:\\.|[^)\\])+)\),((?:\\.|[^,)\\])+)$`)
)

// TargetInfo is a parsed index target. A local index lists the partition
// key it is co-partitioned with in PKColumns and its indexed column in
// CKColumns, a global index has a single PKColumns entry.
type TargetInfo struct {
	PKColumns []*schema.ColumnDefinition
	CKColumns []*schema.ColumnDefinition
	Type      TargetType
}

// EscapeTarget escapes a column name for use in a local index target.
func EscapeTarget(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `,`, `\,`, `)`, `\)`)
	return r.Replace(name)
}

func unescapeTarget(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// splitEscaped splits on commas that are not escaped.
func splitEscaped(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case ',':
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// LocalTarget builds the target of a local index on column co-partitioned
// with the given partition key.
func LocalTarget(pkColumns []string, column string) string {
	escaped := make([]string, 0, len(pkColumns))
	for _, c := range pkColumns {
		escaped = append(escaped, EscapeTarget(c))
	}
	return "(" + strings.Join(escaped, ",") + ")," + EscapeTarget(column)
}

func IsLocalTarget(target string) bool {
	return localTargetRegex.MatchString(target)
}

// TargetColumnName returns the name of the indexed column of a target.
func TargetColumnName(target string) string {
	if m := targetRegex.FindStringSubmatch(target); m != nil {
		return unescapeTarget(m[2])
	}
	if m := localTargetRegex.FindStringSubmatch(target); m != nil {
		return unescapeTarget(m[2])
	}
	return target
}

func ParseTarget(s *schema.Schema, target string) (*TargetInfo, error) {
	getColumn := func(name string) (*schema.ColumnDefinition, error) {
		cdef := s.GetColumnDefinition(unescapeTarget(name))
		if cdef == nil {
			return nil, wcerror.Newf(wcerror.WC_METADATA_ERROR, "column %s not found", unescapeTarget(name))
		}
		return cdef, nil
	}

	info := &TargetInfo{Type: TargetValues}
	if m := targetRegex.FindStringSubmatch(target); m != nil {
		tt, err := TargetTypeFromString(m[1])
		if err != nil {
			return nil, err
		}
		cdef, err := getColumn(m[2])
		if err != nil {
			return nil, err
		}
		info.Type = tt
		info.PKColumns = append(info.PKColumns, cdef)
		return info, nil
	}

	if m := localTargetRegex.FindStringSubmatch(target); m != nil {
		for _, name := range splitEscaped(m[1]) {
			if name == "" {
				continue
			}
			cdef, err := getColumn(name)
			if err != nil {
				return nil, err
			}
			info.PKColumns = append(info.PKColumns, cdef)
		}
		cdef, err := getColumn(m[2])
		if err != nil {
			return nil, err
		}
		info.CKColumns = append(info.CKColumns, cdef)
		return info, nil
	}

	cdef, err := getColumn(target)
	if err != nil {
		return nil, err
	}
	info.PKColumns = append(info.PKColumns, cdef)
	return info, nil
}
