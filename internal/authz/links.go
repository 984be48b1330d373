package authz

import (
	"context"
	"net/http"
	"sort"
)

// Annotator computes the HTTP methods the current principal may use on
// a link target, for HATEOAS discoverability metadata. It is read-only
// and idempotent, and must never itself cause a request to fail.
type Annotator struct {
	engine *Engine
	owners *OwnershipResolver
}

func NewAnnotator(engine *Engine, owners *OwnershipResolver) *Annotator {
	return &Annotator{engine: engine, owners: owners}
}

// MethodsFor returns the allowed methods for one link target. A nil
// record evaluates resource scope (resourceMethods); a record
// evaluates item scope (itemMethods) and additionally confirms
// ownership of that specific item when a candidate lands on
// RequiresOwnership. OPTIONS is always included; HEAD rides along with
// GET. Candidates whose evaluation errors are simply omitted.
func (a *Annotator) MethodsFor(ctx context.Context, sc *SecurityContext, res *ResourceDescriptor, rec Record) []string {
	candidates := res.ResourceMethods
	if rec != nil {
		candidates = res.ItemMethods
	}

	allowed := map[string]bool{http.MethodOptions: true}
	for _, method := range candidates {
		decision, err := a.engine.Decide(ctx, sc, res, method)
		if err != nil {
			continue
		}

		switch decision {
		case Admit, AdmitReadOnly:
			allowed[method] = true
		case RequiresOwnership:
			if rec == nil {
				// Collection scope: ownership is resolved per item
				// or per payload later, so the method is
				// discoverable.
				allowed[method] = true
				continue
			}
			if owned, err := a.owners.IsOwner(ctx, sc.Principal, res, rec); err == nil && owned {
				allowed[method] = true
			}
		}
	}

	if allowed[http.MethodGet] {
		allowed[http.MethodHead] = true
	}

	methods := make([]string, 0, len(allowed))
	for m := range allowed {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	return methods
}
