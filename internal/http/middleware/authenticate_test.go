package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"member-service/internal/authz"
	"member-service/internal/domain/session"
	apperrors "member-service/pkg/errors"
)

type stubSessionStore struct {
	err error
}

func (s *stubSessionStore) GetByTokenHash(context.Context, string) (*session.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return nil, apperrors.NotFound("session not found")
}

func (s *stubSessionStore) Touch(context.Context, uuid.UUID) error { return nil }

func newAuthContext(t *testing.T, authorization string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticatorStoresSecurityContext(t *testing.T) {
	resolver := authz.NewPrincipalResolver(&stubSessionStore{}, nil, "root-secret-value", []byte("test-secret"))
	auth := NewAuthenticator(resolver)

	c, _ := newAuthContext(t, "Bearer root-secret-value")

	var seen *authz.SecurityContext
	err := auth.Middleware()(func(c echo.Context) error {
		seen = GetSecurityContext(c)
		return nil
	})(c)

	assert.NoError(t, err)
	assert.NotNil(t, seen)
	assert.Equal(t, authz.KindRoot, seen.Principal.Kind)
}

func TestAuthenticatorAnonymousWithoutCredential(t *testing.T) {
	resolver := authz.NewPrincipalResolver(&stubSessionStore{}, nil, "root-secret-value", []byte("test-secret"))
	auth := NewAuthenticator(resolver)

	c, _ := newAuthContext(t, "")

	err := auth.Middleware()(func(c echo.Context) error {
		sc := GetSecurityContext(c)
		assert.NotNil(t, sc)
		assert.Equal(t, authz.KindAnonymous, sc.Principal.Kind)
		assert.False(t, sc.CredentialProvided)
		return nil
	})(c)

	assert.NoError(t, err)
}

func TestAuthenticatorSurfacesStoreFailure(t *testing.T) {
	secret := []byte("0f2b6a91c4d8e35712fab6c09d84e1375a6b2c90d4e8f135")
	token, err := authz.IssueSessionToken(secret, uuid.New(), uuid.New(), time.Hour)
	assert.NoError(t, err)

	resolver := authz.NewPrincipalResolver(&stubSessionStore{err: errors.New("down")}, nil, "root-secret-value", secret)
	auth := NewAuthenticator(resolver)

	c, _ := newAuthContext(t, "Bearer "+token)

	err = auth.Middleware()(func(c echo.Context) error { return nil })(c)
	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}

func TestGetSecurityContextMissing(t *testing.T) {
	c, _ := newAuthContext(t, "")
	assert.Nil(t, GetSecurityContext(c))
}
