package authz

import "github.com/google/uuid"

// FilterKind discriminates filter nodes.
type FilterKind int

const (
	FilterEq FilterKind = iota
	FilterAnd
	FilterOr
	FilterRelated
	FilterNever
)

// Filter is a combinable query predicate. The lookup filter builder
// produces one from a resource's ownership plans; the store compiles
// it into native query clauses, so scoping stays correct under
// pagination instead of being a client-side post-filter.
type Filter struct {
	Kind     FilterKind
	Field    string
	Value    any
	Relation Relation
	Suffix   *Filter
	Clauses  []*Filter
}

// Eq matches records whose field equals value.
func Eq(field string, value any) *Filter {
	return &Filter{Kind: FilterEq, Field: field, Value: value}
}

// AnyRelated matches records for which any related record across the
// relation satisfies the suffix.
func AnyRelated(rel Relation, suffix *Filter) *Filter {
	return &Filter{Kind: FilterRelated, Relation: rel, Suffix: suffix}
}

// Never matches no record. Used for explicit deny-all ownership
// policies, which downstream renders as empty lists and 404 items.
func Never() *Filter {
	return &Filter{Kind: FilterNever}
}

// And combines clauses conjunctively, dropping nils.
func And(clauses ...*Filter) *Filter {
	return combine(FilterAnd, clauses)
}

// Or combines clauses disjunctively, dropping nils.
func Or(clauses ...*Filter) *Filter {
	return combine(FilterOr, clauses)
}

func combine(kind FilterKind, clauses []*Filter) *Filter {
	kept := make([]*Filter, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Filter{Kind: kind, Clauses: kept}
}

// BuildOwnerFilter translates a resource's ownership plans plus the
// principal into a predicate restricting a collection read or write to
// owned items. Returns nil when the resource declares no ownership
// concept at all; callers that reached RequiresOwnership with a nil
// filter must deny outright, since there is no way to scope the
// result.
func BuildOwnerFilter(p Principal, res *ResourceDescriptor) *Filter {
	if res.DenyAll {
		return Never()
	}
	if len(res.plans) == 0 {
		return nil
	}
	if p.Kind != KindUser {
		return Never()
	}

	clauses := make([]*Filter, 0, len(res.plans))
	for _, plan := range res.plans {
		f := Eq(plan.Field, p.ID)
		for i := len(plan.Hops) - 1; i >= 0; i-- {
			f = AnyRelated(plan.Hops[i], f)
		}
		clauses = append(clauses, f)
	}

	return Or(clauses...)
}

// MergeFilters conjoins a caller-supplied filter with the owner
// filter, so a laxer caller filter can never widen the result beyond
// owned items.
func MergeFilters(callerFilter, ownerFilter *Filter) *Filter {
	return And(callerFilter, ownerFilter)
}

// RelatedLookup resolves related records during in-memory filter
// evaluation: all records of resource whose field equals value.
type RelatedLookup func(resource, field string, value uuid.UUID) []Record

// Matches evaluates the filter against a record using lookup for
// relation hops. In-memory stores and tests use it; the SQL store
// compiles filters natively instead.
func (f *Filter) Matches(rec Record, lookup RelatedLookup) bool {
	if f == nil {
		return true
	}

	switch f.Kind {
	case FilterNever:
		return false

	case FilterEq:
		if want, ok := f.Value.(uuid.UUID); ok {
			got, ok := rec.Ref(f.Field)
			return ok && got == want
		}
		return rec[f.Field] == f.Value

	case FilterAnd:
		for _, c := range f.Clauses {
			if !c.Matches(rec, lookup) {
				return false
			}
		}
		return true

	case FilterOr:
		for _, c := range f.Clauses {
			if c.Matches(rec, lookup) {
				return true
			}
		}
		return false

	case FilterRelated:
		var related []Record
		switch f.Relation.Cardinality {
		case ManyToOne:
			fk, ok := rec.Ref(f.Relation.LocalField)
			if !ok {
				return false
			}
			related = lookup(f.Relation.Target, recordIDField, fk)
		case OneToMany:
			related = lookup(f.Relation.Target, f.Relation.RemoteField, rec.ID())
		}
		for _, r := range related {
			if f.Suffix.Matches(r, lookup) {
				return true
			}
		}
		return false
	}

	return false
}
