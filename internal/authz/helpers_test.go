package authz_test

import (
	"context"

	"github.com/google/uuid"

	"member-service/internal/authz"
	"member-service/internal/authz/presets"
	apperrors "member-service/pkg/errors"
)

// fakeMembershipStore returns canned permissions per user/resource.
type fakeMembershipStore struct {
	perms map[string][]string
	err   error
}

func permKey(userID uuid.UUID, resource string) string {
	return userID.String() + "/" + resource
}

func (f *fakeMembershipStore) ActivePermissions(_ context.Context, userID uuid.UUID, resource string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.perms[permKey(userID, resource)], nil
}

// memStore is an in-memory RelationStore backed by plain records.
type memStore struct {
	records map[string][]authz.Record
	err     error
}

func (m *memStore) GetRecord(_ context.Context, resource string, id uuid.UUID) (authz.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, rec := range m.records[resource] {
		if rec.ID() == id {
			return rec, nil
		}
	}
	return nil, apperrors.NotFound("record not found")
}

func (m *memStore) FindByField(_ context.Context, resource, field string, value uuid.UUID) ([]authz.Record, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lookup(resource, field, value), nil
}

// lookup doubles as the RelatedLookup for in-memory filter evaluation.
func (m *memStore) lookup(resource, field string, value uuid.UUID) []authz.Record {
	var out []authz.Record
	for _, rec := range m.records[resource] {
		if ref, ok := rec.Ref(field); ok && ref == value {
			out = append(out, rec)
		}
	}
	return out
}

func testRegistry() *authz.Registry {
	return presets.MustRegistry()
}

func descriptor(r *authz.Registry, name string) *authz.ResourceDescriptor {
	d, ok := r.Descriptor(name)
	if !ok {
		panic("unknown test resource: " + name)
	}
	return d
}

func userContext(id uuid.UUID) *authz.SecurityContext {
	sc := authz.NewSecurityContext()
	sc.Principal = authz.Principal{Kind: authz.KindUser, ID: id}
	sc.CredentialProvided = true
	return sc
}

func apiKeyContext(key string) *authz.SecurityContext {
	sc := authz.NewSecurityContext()
	sc.Principal = authz.Principal{Kind: authz.KindAPIKey, Key: key}
	sc.CredentialProvided = true
	return sc
}

func rootContext() *authz.SecurityContext {
	sc := authz.NewSecurityContext()
	sc.Principal = authz.Principal{Kind: authz.KindRoot, ID: authz.RootID}
	sc.CredentialProvided = true
	return sc
}
