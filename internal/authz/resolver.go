package authz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"member-service/internal/domain/session"
	apperrors "member-service/pkg/errors"
	"member-service/pkg/logger"
)

const sessionTouchTimeout = 500 * time.Millisecond

// SessionStore is the collaborator lookup for session credentials.
type SessionStore interface {
	GetByTokenHash(ctx context.Context, hash string) (*session.Session, error)
	Touch(ctx context.Context, id uuid.UUID) error
}

// PrincipalResolver maps a raw bearer credential to a principal. It is
// invoked once per request, before any resource-specific processing,
// on public and non-public endpoints alike.
type PrincipalResolver struct {
	sessions   SessionStore
	keys       APIKeyTable
	rootSecret string
	jwtSecret  []byte
}

func NewPrincipalResolver(sessions SessionStore, keys APIKeyTable, rootSecret string, jwtSecret []byte) *PrincipalResolver {
	return &PrincipalResolver{
		sessions:   sessions,
		keys:       keys,
		rootSecret: rootSecret,
		jwtSecret:  jwtSecret,
	}
}

// CredentialFromRequest extracts the bearer credential: the username
// field of HTTP Basic auth (empty password convention), or the
// Authorization header with any leading scheme word discarded
// unconditionally.
func CredentialFromRequest(r *http.Request) string {
	if user, _, ok := r.BasicAuth(); ok && user != "" {
		return user
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.Fields(header)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[1]
	}
}

// Resolve maps a credential to a fresh SecurityContext. A missing
// credential yields Anonymous; a supplied credential that resolves to
// nothing also yields Anonymous but with CredentialProvided set, which
// the authorize stage escalates to 401 on anything but a plain public
// admit. Only transient store failures surface as errors.
func (r *PrincipalResolver) Resolve(ctx context.Context, rawCredential string) (*SecurityContext, error) {
	sc := NewSecurityContext()

	credential := strings.TrimSpace(rawCredential)
	if credential == "" {
		return sc, nil
	}
	sc.CredentialProvided = true

	if r.rootSecret != "" && credential == r.rootSecret {
		sc.Principal = Principal{Kind: KindRoot, ID: RootID}
		return sc, nil
	}

	if _, ok := r.keys[credential]; ok {
		sc.Principal = Principal{Kind: KindAPIKey, Key: credential}
		return sc, nil
	}

	if _, err := VerifySessionToken(r.jwtSecret, credential); err != nil {
		// Not a signed session token; treated as an unknown
		// credential, not an error.
		return sc, nil
	}

	s, err := r.sessions.GetByTokenHash(ctx, HashToken(credential))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return sc, nil
		}
		return nil, fmt.Errorf(errSessionLookupFmt, err)
	}

	sc.Principal = Principal{Kind: KindUser, ID: s.UserID}
	r.touchSession(s.ID)

	return sc, nil
}

// touchSession refreshes the session's last-seen timestamp.
// Fire-and-forget: failure is logged and swallowed, never surfaced as
// a request failure.
func (r *PrincipalResolver) touchSession(id uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), sessionTouchTimeout)
	defer cancel()

	if err := r.sessions.Touch(ctx, id); err != nil {
		log.Printf(errTouchSessionFmt, id, logger.SanitizeLogMessage(err.Error()))
	}
}
