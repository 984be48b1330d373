package authz

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	apperrors "member-service/pkg/errors"
)

// Cardinality describes the direction of a named relation hop.
type Cardinality string

const (
	// ManyToOne: the declaring resource carries a foreign key
	// (LocalField) referencing the target resource's id.
	ManyToOne Cardinality = "many_to_one"
	// OneToMany: the target resource carries a foreign key
	// (RemoteField) referencing the declaring resource's id.
	OneToMany Cardinality = "one_to_many"
)

// Relation is a named, typed hop from one resource to another.
// Relations are declared once at startup and validated by NewRegistry,
// so traversal errors are impossible at request time.
type Relation struct {
	Name        string
	Target      string
	Cardinality Cardinality
	LocalField  string
	RemoteField string
}

// OwnershipPlan is a compiled ownership path: zero or more relation
// hops followed by a terminal field compared against the principal id.
type OwnershipPlan struct {
	Hops  []Relation
	Field string
}

// ResourceDescriptor is the static method-visibility and ownership
// declaration for one resource. Loaded once at startup, immutable
// during request processing.
type ResourceDescriptor struct {
	Name string

	// Method sets visible to anonymous / any-authenticated / owning
	// callers respectively.
	PublicMethods     []string
	RegisteredMethods []string
	OwnerMethods      []string

	// Candidate sets for link annotation: collection scope and item
	// scope use different methods.
	ResourceMethods []string
	ItemMethods     []string

	// OwnerPaths are dotted ownership paths such as "user_id" or
	// "group.moderator_id", compiled into plans by NewRegistry.
	OwnerPaths []string

	// DenyAll marks administrative sub-resources that should render as
	// 404 / empty rather than 403 for non-admins.
	DenyAll bool

	public     map[string]bool
	registered map[string]bool
	owner      map[string]bool
	plans      []OwnershipPlan
}

// Plans returns the compiled ownership plans. Empty until the
// descriptor has been registered.
func (d *ResourceDescriptor) Plans() []OwnershipPlan {
	return d.plans
}

// HasOwnership reports whether the resource declares any ownership
// concept at all.
func (d *ResourceDescriptor) HasOwnership() bool {
	return d.DenyAll || len(d.plans) > 0
}

// Registry holds every resource descriptor and relation arena,
// compiled and validated once at boot.
type Registry struct {
	resources map[string]*ResourceDescriptor
	relations map[string]map[string]Relation
	order     []string
}

// identPattern restricts resource, relation, and field names. The
// names flow into query text downstream, so they must be plain
// identifiers.
var identPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var knownMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodHead:   true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// NewRegistry compiles descriptors and relations into a validated
// registry. Any unresolvable relation or malformed declaration is a
// fatal configuration error; nothing is deferred to request time.
func NewRegistry(descriptors []*ResourceDescriptor, relations map[string][]Relation) (*Registry, error) {
	r := &Registry{
		resources: make(map[string]*ResourceDescriptor, len(descriptors)),
		relations: make(map[string]map[string]Relation),
	}

	for _, d := range descriptors {
		if d.Name == "" {
			return nil, apperrors.Configuration(errEmptyResourceName)
		}
		if !identPattern.MatchString(d.Name) {
			return nil, apperrors.Configuration(fmt.Sprintf(errBadIdentifierFmt, "resource", d.Name))
		}
		if _, dup := r.resources[d.Name]; dup {
			return nil, apperrors.Configuration(fmt.Sprintf(errDuplicateResourceFmt, d.Name))
		}
		r.resources[d.Name] = d
		r.order = append(r.order, d.Name)
	}

	for resource, rels := range relations {
		if _, ok := r.resources[resource]; !ok {
			return nil, apperrors.Configuration(fmt.Sprintf(errUnknownResourceFmt, resource))
		}
		byName := make(map[string]Relation, len(rels))
		for _, rel := range rels {
			if err := validateRelation(resource, rel, r.resources); err != nil {
				return nil, err
			}
			byName[rel.Name] = rel
		}
		r.relations[resource] = byName
	}

	for _, d := range descriptors {
		var err error
		if d.public, err = methodSet(d.Name, "publicMethods", d.PublicMethods); err != nil {
			return nil, err
		}
		if d.registered, err = methodSet(d.Name, "registeredMethods", d.RegisteredMethods); err != nil {
			return nil, err
		}
		if d.owner, err = methodSet(d.Name, "ownerMethods", d.OwnerMethods); err != nil {
			return nil, err
		}
		if _, err = methodSet(d.Name, "resourceMethods", d.ResourceMethods); err != nil {
			return nil, err
		}
		if _, err = methodSet(d.Name, "itemMethods", d.ItemMethods); err != nil {
			return nil, err
		}

		d.plans = d.plans[:0]
		for _, path := range d.OwnerPaths {
			plan, err := r.compilePath(d.Name, path)
			if err != nil {
				return nil, err
			}
			d.plans = append(d.plans, plan)
		}
	}

	return r, nil
}

// MustNewRegistry compiles the registry and panics on invalid
// configuration, for use at startup with static declarations.
func MustNewRegistry(descriptors []*ResourceDescriptor, relations map[string][]Relation) *Registry {
	r, err := NewRegistry(descriptors, relations)
	if err != nil {
		panic(fmt.Sprintf("authz.MustNewRegistry: %v", err))
	}
	return r
}

// Descriptor looks up a resource by name.
func (r *Registry) Descriptor(name string) (*ResourceDescriptor, bool) {
	d, ok := r.resources[name]
	return d, ok
}

// Resources returns all descriptors in declaration order.
func (r *Registry) Resources() []*ResourceDescriptor {
	out := make([]*ResourceDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.resources[name])
	}
	return out
}

func (r *Registry) compilePath(resource, path string) (OwnershipPlan, error) {
	segments := strings.Split(path, ".")
	if path == "" || len(segments) == 0 {
		return OwnershipPlan{}, apperrors.Configuration(fmt.Sprintf(errOwnerPathEmptyFmt, resource))
	}

	plan := OwnershipPlan{}
	current := resource
	for _, segment := range segments[:len(segments)-1] {
		rel, ok := r.relations[current][segment]
		if !ok {
			return OwnershipPlan{}, apperrors.Configuration(
				fmt.Sprintf(errOwnerPathUnknownRelFmt, resource, path, segment, current))
		}
		plan.Hops = append(plan.Hops, rel)
		current = rel.Target
	}

	field := segments[len(segments)-1]
	if !identPattern.MatchString(field) {
		return OwnershipPlan{}, apperrors.Configuration(fmt.Sprintf(errBadIdentifierFmt, "ownership field", field))
	}
	plan.Field = field

	return plan, nil
}

func validateRelation(resource string, rel Relation, resources map[string]*ResourceDescriptor) error {
	if !identPattern.MatchString(rel.Name) {
		return apperrors.Configuration(fmt.Sprintf(errBadIdentifierFmt, "relation", rel.Name))
	}
	if _, ok := resources[rel.Target]; !ok {
		return apperrors.Configuration(fmt.Sprintf(errRelationUnknownTargetFmt, resource, rel.Name, rel.Target))
	}

	switch rel.Cardinality {
	case ManyToOne:
		if rel.LocalField == "" || !identPattern.MatchString(rel.LocalField) {
			return apperrors.Configuration(fmt.Sprintf(errRelationMissingLocalFmt, resource, rel.Name))
		}
	case OneToMany:
		if rel.RemoteField == "" || !identPattern.MatchString(rel.RemoteField) {
			return apperrors.Configuration(fmt.Sprintf(errRelationMissingRemoteFmt, resource, rel.Name))
		}
	default:
		return apperrors.Configuration(fmt.Sprintf(errRelationBadCardinalityFmt, resource, rel.Name, rel.Cardinality))
	}

	return nil
}

func methodSet(resource, setName string, methods []string) (map[string]bool, error) {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		if !knownMethods[m] {
			return nil, apperrors.Configuration(fmt.Sprintf(errUnknownMethodFmt, resource, m, setName))
		}
		set[m] = true
	}
	return set, nil
}
