package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"member-service/internal/authz"
)

const (
	// ContextKeySecurityContext is the echo context key holding the
	// request's resolved SecurityContext.
	ContextKeySecurityContext = "security_context"

	msgResolvePrincipalFail = "failed to resolve credentials"
)

// Authenticator resolves the request credential to a principal before
// any resource-specific processing. It runs on every route, public ones
// included, so grant side effects and link annotation always see the
// same principal.
type Authenticator struct {
	resolver *authz.PrincipalResolver
}

func NewAuthenticator(resolver *authz.PrincipalResolver) *Authenticator {
	return &Authenticator{resolver: resolver}
}

// Middleware resolves the credential and stores the SecurityContext in
// the echo context. An unknown credential is not an error here; the
// authorize stage decides whether it matters. Only a transient store
// failure aborts the request.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential := authz.CredentialFromRequest(c.Request())

			sc, err := a.resolver.Resolve(c.Request().Context(), credential)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, msgResolvePrincipalFail)
			}

			c.Set(ContextKeySecurityContext, sc)
			return next(c)
		}
	}
}

// GetSecurityContext extracts the resolved SecurityContext from the
// echo context. Returns nil when the authenticator did not run.
func GetSecurityContext(c echo.Context) *authz.SecurityContext {
	if sc, ok := c.Get(ContextKeySecurityContext).(*authz.SecurityContext); ok {
		return sc
	}
	return nil
}
