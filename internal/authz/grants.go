package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Grant is the permission level a principal class holds for one
// resource and method.
type Grant int

const (
	GrantNone Grant = iota
	GrantReadOnly
	GrantFull
)

func (g Grant) String() string {
	switch g {
	case GrantFull:
		return "full"
	case GrantReadOnly:
		return "readonly"
	default:
		return "none"
	}
}

// Group permission strings as declared on group records.
const (
	PermissionRead      = "read"
	PermissionReadWrite = "readwrite"
)

// KeyGrants is the static resource -> method -> bool table of one API
// key.
type KeyGrants map[string]map[string]bool

// APIKeyTable maps raw key values to their grants. Loaded once from
// configuration at startup, read-only afterwards.
type APIKeyTable map[string]KeyGrants

// MembershipStore enumerates the group permissions a user currently
// holds for a resource. Expired memberships must not be returned; the
// engine never honors them.
type MembershipStore interface {
	ActivePermissions(ctx context.Context, userID uuid.UUID, resource string) ([]string, error)
}

// GrantCatalog combines the three grant sources (root, API keys, group
// memberships) with precedence Full > ReadOnly > None. Results are
// computed fresh per request; nothing is cached across requests.
type GrantCatalog struct {
	memberships MembershipStore
	keys        APIKeyTable
}

func NewGrantCatalog(memberships MembershipStore, keys APIKeyTable) *GrantCatalog {
	return &GrantCatalog{memberships: memberships, keys: keys}
}

// GrantFor resolves the grant level for a principal on resource and
// method. For API keys the table is a closed world: a missing entry
// returns ErrAPIKeyNoGrant, which aborts the request rather than
// falling through to weaker sources.
func (c *GrantCatalog) GrantFor(ctx context.Context, p Principal, resource, method string) (Grant, error) {
	switch p.Kind {
	case KindRoot:
		return GrantFull, nil

	case KindAPIKey:
		grants, ok := c.keys[p.Key]
		if !ok {
			return GrantNone, ErrAPIKeyNoGrant
		}
		methods, ok := grants[resource]
		if !ok || !methods[method] {
			return GrantNone, ErrAPIKeyNoGrant
		}
		return GrantFull, nil

	case KindUser:
		perms, err := c.memberships.ActivePermissions(ctx, p.ID, resource)
		if err != nil {
			return GrantNone, fmt.Errorf(errMembershipLookupFmt, err)
		}
		grant := GrantNone
		for _, perm := range perms {
			switch perm {
			case PermissionReadWrite:
				return GrantFull, nil
			case PermissionRead:
				grant = GrantReadOnly
			}
		}
		return grant, nil

	default:
		return GrantNone, nil
	}
}
