package authz

import (
	"context"
	"net/http"
)

// Decision is the outcome of the policy function for one
// principal/resource/method triple.
type Decision int

const (
	// Deny aborts the request: 401 for anonymous callers, 403
	// otherwise. There is no partial or soft deny.
	Deny Decision = iota
	// Admit grants the operation unconditionally.
	Admit
	// AdmitReadOnly grants the (non-mutating) operation via a
	// read-only admin grant.
	AdmitReadOnly
	// RequiresOwnership grants the operation only on items the caller
	// owns; a downstream stage applies the lookup filter or checks the
	// concrete item.
	RequiresOwnership
)

func (d Decision) String() string {
	switch d {
	case Admit:
		return "admit"
	case AdmitReadOnly:
		return "admit_readonly"
	case RequiresOwnership:
		return "requires_ownership"
	default:
		return "deny"
	}
}

var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// MutatingMethod reports whether the method writes.
func MutatingMethod(method string) bool {
	return mutatingMethods[method]
}

// Engine is the authorization decision engine.
type Engine struct {
	catalog *GrantCatalog
}

func NewEngine(catalog *GrantCatalog) *Engine {
	return &Engine{catalog: catalog}
}

// Decide applies the policy in strict order, first match wins:
//
//  1. Root admits everything.
//  2. A Full grant admits; a ReadOnly grant admits reads and denies
//     mutations outright (never silently downgraded).
//  3. Public methods admit anyone, anonymous included.
//  4. Registered methods admit any authenticated principal.
//  5. Owner methods require ownership, resolved downstream.
//  6. Otherwise deny.
//
// As a side effect the admin flags on the SecurityContext are raised
// the first time a grant is observed; re-invocation for a different
// resource in the same request never lowers them.
//
// A non-nil error aborts the request: ErrAPIKeyNoGrant maps to 403,
// anything else is a collaborator failure.
func (e *Engine) Decide(ctx context.Context, sc *SecurityContext, res *ResourceDescriptor, method string) (Decision, error) {
	if sc == nil {
		return Deny, ErrNilContext
	}

	if sc.Principal.Kind == KindRoot {
		sc.IsFullAdmin = true
		return Admit, nil
	}

	grant, err := e.catalog.GrantFor(ctx, sc.Principal, res.Name, method)
	if err != nil {
		return Deny, err
	}

	switch grant {
	case GrantFull:
		sc.IsFullAdmin = true
		return Admit, nil
	case GrantReadOnly:
		sc.IsReadOnlyAdmin = true
		if MutatingMethod(method) {
			return Deny, nil
		}
		return AdmitReadOnly, nil
	}

	if res.public[method] {
		return Admit, nil
	}
	if sc.Authenticated() && res.registered[method] {
		return Admit, nil
	}
	if res.owner[method] {
		return RequiresOwnership, nil
	}

	return Deny, nil
}
