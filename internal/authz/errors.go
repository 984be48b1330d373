package authz

import "errors"

var (
	// ErrAPIKeyNoGrant is returned when an API key has no explicit
	// permission entry for the requested resource and method. An API
	// key is a closed capability: a missing entry aborts the request
	// with 403 rather than falling through to other grant sources.
	ErrAPIKeyNoGrant = errors.New("api key has no grant for this resource and method")

	// ErrNilContext is returned when the decision engine is invoked
	// without a security context.
	ErrNilContext = errors.New("security context is nil")
)

const (
	errUnknownResourceFmt         = "authz: unknown resource: %s"
	errDuplicateResourceFmt       = "authz: duplicate resource: %s"
	errEmptyResourceName          = "authz: resource name must not be empty"
	errBadIdentifierFmt           = "authz: %s: invalid identifier %q"
	errUnknownMethodFmt           = "authz: resource %s: unknown method %q in %s"
	errRelationUnknownTargetFmt   = "authz: resource %s: relation %s references unknown resource %s"
	errRelationBadCardinalityFmt  = "authz: resource %s: relation %s has invalid cardinality %q"
	errRelationMissingLocalFmt    = "authz: resource %s: many-to-one relation %s requires a local field"
	errRelationMissingRemoteFmt   = "authz: resource %s: one-to-many relation %s requires a remote field"
	errOwnerPathEmptyFmt          = "authz: resource %s: empty ownership path"
	errOwnerPathUnknownRelFmt     = "authz: resource %s: ownership path %q names unknown relation %q on %s"
	errMembershipLookupFmt        = "membership lookup failed: %w"
	errSessionLookupFmt           = "session lookup failed: %w"
	errTouchSessionFmt            = "authz: failed to refresh session last-seen for %s: %v"
	errUnexpectedSigningMethodFmt = "unexpected signing method: %v"
)
