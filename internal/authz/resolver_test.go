package authz_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"member-service/internal/authz"
	"member-service/internal/domain/session"
	apperrors "member-service/pkg/errors"
)

const (
	testRootSecret = "correct-horse-battery-staple-0123456789abcdef"
	testJWTSecret  = "0f2b6a91c4d8e35712fab6c09d84e1375a6b2c90d4e8f13579bdf02468ace135"
)

type fakeSessionStore struct {
	sessions map[string]*session.Session
	touched  []uuid.UUID
	err      error
}

func (f *fakeSessionStore) GetByTokenHash(_ context.Context, hash string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.sessions[hash]; ok {
		return s, nil
	}
	return nil, apperrors.NotFound("session not found")
}

func (f *fakeSessionStore) Touch(_ context.Context, id uuid.UUID) error {
	f.touched = append(f.touched, id)
	return nil
}

func newResolver(sessions *fakeSessionStore, keys authz.APIKeyTable) *authz.PrincipalResolver {
	return authz.NewPrincipalResolver(sessions, keys, testRootSecret, []byte(testJWTSecret))
}

func TestCredentialFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"no header", func(r *http.Request) {}, ""},
		{"basic auth username", func(r *http.Request) { r.SetBasicAuth("my-token", "") }, "my-token"},
		{"bearer scheme", func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc123") }, "abc123"},
		{"token scheme", func(r *http.Request) { r.Header.Set("Authorization", "Token abc123") }, "abc123"},
		{"bare credential", func(r *http.Request) { r.Header.Set("Authorization", "abc123") }, "abc123"},
		{"extra whitespace", func(r *http.Request) { r.Header.Set("Authorization", "  Bearer   abc123  ") }, "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			if got := authz.CredentialFromRequest(r); got != tt.want {
				t.Errorf("CredentialFromRequest = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestResolveAnonymous(t *testing.T) {
	resolver := newResolver(&fakeSessionStore{}, nil)

	sc, err := resolver.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if sc.Principal.Kind != authz.KindAnonymous {
		t.Errorf("expected anonymous, got %s", sc.Principal.Kind)
	}
	if sc.CredentialProvided {
		t.Error("CredentialProvided must stay false with no credential")
	}
}

func TestResolveRootSecret(t *testing.T) {
	resolver := newResolver(&fakeSessionStore{}, nil)

	sc, err := resolver.Resolve(context.Background(), testRootSecret)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if sc.Principal.Kind != authz.KindRoot {
		t.Errorf("expected root, got %s", sc.Principal.Kind)
	}
	if sc.Principal.ID != authz.RootID {
		t.Errorf("root principal must carry RootID, got %s", sc.Principal.ID)
	}
}

func TestResolveAPIKey(t *testing.T) {
	keys := authz.APIKeyTable{"service-key": {}}
	resolver := newResolver(&fakeSessionStore{}, keys)

	sc, err := resolver.Resolve(context.Background(), "service-key")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if sc.Principal.Kind != authz.KindAPIKey || sc.Principal.Key != "service-key" {
		t.Errorf("expected API key principal, got %+v", sc.Principal)
	}
}

func TestResolveSessionToken(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()

	token, err := authz.IssueSessionToken([]byte(testJWTSecret), userID, sessionID, time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	sessions := &fakeSessionStore{sessions: map[string]*session.Session{
		authz.HashToken(token): {ID: sessionID, UserID: userID},
	}}
	resolver := newResolver(sessions, nil)

	sc, err := resolver.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if sc.Principal.Kind != authz.KindUser || sc.Principal.ID != userID {
		t.Errorf("expected user principal %s, got %+v", userID, sc.Principal)
	}
	if !sc.Authenticated() {
		t.Error("resolved user must count as authenticated")
	}
}

func TestResolveUnknownCredential(t *testing.T) {
	userID := uuid.New()
	orphanToken, err := authz.IssueSessionToken([]byte(testJWTSecret), userID, uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	tests := []struct {
		name       string
		credential string
	}{
		{"garbage string", "not-a-credential"},
		{"token signed with wrong secret", mustToken(t, "b1c2d3e4f5a6978867756453423121f0e9d8c7b6a5948372615049382716abcd")},
		{"valid signature but revoked session", orphanToken},
	}

	resolver := newResolver(&fakeSessionStore{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := resolver.Resolve(context.Background(), tt.credential)
			if err != nil {
				t.Fatalf("unknown credentials must not error: %v", err)
			}
			if sc.Principal.Kind != authz.KindAnonymous {
				t.Errorf("expected anonymous, got %s", sc.Principal.Kind)
			}
			if !sc.CredentialProvided {
				t.Error("CredentialProvided must be set so the authorize stage can answer 401")
			}
		})
	}
}

func TestResolveStoreFailure(t *testing.T) {
	token, err := authz.IssueSessionToken([]byte(testJWTSecret), uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}

	resolver := newResolver(&fakeSessionStore{err: errors.New("connection reset")}, nil)
	if _, err := resolver.Resolve(context.Background(), token); err == nil {
		t.Fatal("transient store failure must surface as an error, not an anonymous principal")
	}
}

func mustToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := authz.IssueSessionToken([]byte(secret), uuid.New(), uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken returned error: %v", err)
	}
	return token
}
