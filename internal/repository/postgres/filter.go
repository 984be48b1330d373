package postgres

import (
	"fmt"
	"regexp"
	"strings"

	"member-service/internal/authz"
)

// columnPattern restricts identifiers that reach query text. Resource
// and field names already pass registry validation; this is the
// store's own check for anything caller-supplied.
var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// compileFilter renders a filter tree into a SQL predicate over table,
// appending bind arguments to args. Relation containment becomes an
// EXISTS subquery, so scoping composes with pagination instead of
// filtering rows client-side.
func compileFilter(table string, f *authz.Filter, args *[]any, aliasSeq *int) (string, error) {
	if f == nil {
		return "TRUE", nil
	}

	switch f.Kind {
	case authz.FilterNever:
		return "FALSE", nil

	case authz.FilterEq:
		if !columnPattern.MatchString(f.Field) {
			return "", fmt.Errorf(errBadColumnFmt, f.Field)
		}
		*args = append(*args, f.Value)
		return fmt.Sprintf("%s.%s = $%d", table, f.Field, len(*args)), nil

	case authz.FilterAnd, authz.FilterOr:
		op := " AND "
		if f.Kind == authz.FilterOr {
			op = " OR "
		}
		parts := make([]string, 0, len(f.Clauses))
		for _, clause := range f.Clauses {
			part, err := compileFilter(table, clause, args, aliasSeq)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "(" + strings.Join(parts, op) + ")", nil

	case authz.FilterRelated:
		rel := f.Relation
		alias := fmt.Sprintf("r%d", *aliasSeq)
		*aliasSeq++

		suffix, err := compileFilter(alias, f.Suffix, args, aliasSeq)
		if err != nil {
			return "", err
		}

		switch rel.Cardinality {
		case authz.ManyToOne:
			return fmt.Sprintf(
				"EXISTS (SELECT 1 FROM %s %s WHERE %s.id = %s.%s AND %s)",
				rel.Target, alias, alias, table, rel.LocalField, suffix,
			), nil
		case authz.OneToMany:
			return fmt.Sprintf(
				"EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.id AND %s)",
				rel.Target, alias, alias, rel.RemoteField, table, suffix,
			), nil
		}
	}

	return "", fmt.Errorf(errBadFilterFmt, f.Kind)
}
