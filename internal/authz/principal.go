package authz

import "github.com/google/uuid"

// PrincipalKind identifies how the caller authenticated
type PrincipalKind string

const (
	KindAnonymous PrincipalKind = "anonymous"
	KindUser      PrincipalKind = "user"
	KindAPIKey    PrincipalKind = "api_key"
	KindRoot      PrincipalKind = "root"
)

// RootID is the sentinel principal id assigned to the root credential.
var RootID = uuid.Nil

// Principal is the resolved identity of the caller for one request.
// Exactly one kind applies per request.
type Principal struct {
	Kind PrincipalKind
	ID   uuid.UUID
	// Key holds the raw API key value for KindAPIKey principals; the
	// grant catalog probes the key table with it.
	Key string
}

func AnonymousPrincipal() Principal {
	return Principal{Kind: KindAnonymous}
}

// Authenticated reports whether the principal is anything other than
// anonymous.
func (p Principal) Authenticated() bool {
	return p.Kind != KindAnonymous
}
