package authz

// SecurityContext is request-scoped authorization state. It is created
// fresh per request by the principal resolver, extended (never
// replaced) by later stages of the same request, and discarded at
// request end. It must not be shared or pooled across requests.
type SecurityContext struct {
	Principal Principal

	// CredentialProvided distinguishes "no credential supplied" from
	// "credential supplied but it resolved to nothing". The latter is
	// fatal on any endpoint that is not an outright public admit.
	CredentialProvided bool

	// Admin flags are set monotonically by the decision engine the
	// first time a grant is observed. A later decision for a different
	// resource within the same request never clears them.
	IsFullAdmin     bool
	IsReadOnlyAdmin bool
}

func NewSecurityContext() *SecurityContext {
	return &SecurityContext{Principal: AnonymousPrincipal()}
}

// Authenticated reports whether a non-anonymous principal is attached.
func (sc *SecurityContext) Authenticated() bool {
	return sc.Principal.Authenticated()
}
