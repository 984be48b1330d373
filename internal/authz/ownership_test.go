package authz_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"member-service/internal/authz"
	"member-service/internal/authz/presets"
)

// fixtures builds a small arena: a group moderated by moderatorID with
// one membership for memberID.
func fixtures(moderatorID, memberID, groupID, membershipID uuid.UUID) *memStore {
	return &memStore{records: map[string][]authz.Record{
		presets.ResourceGroups: {
			{"id": groupID, "name": "chess", "moderator_id": moderatorID},
		},
		presets.ResourceGroupMemberships: {
			{"id": membershipID, "group_id": groupID, "user_id": memberID},
		},
	}}
}

func TestIsOwnerDirectField(t *testing.T) {
	userID := uuid.New()
	registry := testRegistry()
	resolver := authz.NewOwnershipResolver(&memStore{})

	signup := authz.Record{"id": uuid.New(), "user_id": userID, "event_id": uuid.New()}
	res := descriptor(registry, presets.ResourceEventSignups)

	owned, err := resolver.IsOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: userID}, res, signup)
	if err != nil {
		t.Fatalf("IsOwner returned error: %v", err)
	}
	if !owned {
		t.Error("signup with matching user_id should be owned")
	}

	owned, err = resolver.IsOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: uuid.New()}, res, signup)
	if err != nil {
		t.Fatalf("IsOwner returned error: %v", err)
	}
	if owned {
		t.Error("signup with a different user_id should not be owned")
	}
}

func TestIsOwnerManyToOneHop(t *testing.T) {
	moderatorID := uuid.New()
	memberID := uuid.New()
	groupID := uuid.New()
	membershipID := uuid.New()

	registry := testRegistry()
	store := fixtures(moderatorID, memberID, groupID, membershipID)
	resolver := authz.NewOwnershipResolver(store)
	res := descriptor(registry, presets.ResourceGroupMemberships)

	membership := store.records[presets.ResourceGroupMemberships][0]

	tests := []struct {
		name string
		who  uuid.UUID
		want bool
	}{
		{"member owns via user_id", memberID, true},
		{"moderator owns via group.moderator_id", moderatorID, true},
		{"stranger owns nothing", uuid.New(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owned, err := resolver.IsOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: tt.who}, res, membership)
			if err != nil {
				t.Fatalf("IsOwner returned error: %v", err)
			}
			if owned != tt.want {
				t.Errorf("IsOwner = %v, expected %v", owned, tt.want)
			}
		})
	}
}

func TestIsOwnerOneToManyHop(t *testing.T) {
	moderatorID := uuid.New()
	memberID := uuid.New()
	groupID := uuid.New()

	registry := testRegistry()
	store := fixtures(moderatorID, memberID, groupID, uuid.New())
	resolver := authz.NewOwnershipResolver(store)
	res := descriptor(registry, presets.ResourceGroups)

	group := store.records[presets.ResourceGroups][0]

	tests := []struct {
		name string
		who  uuid.UUID
		want bool
	}{
		{"moderator owns via moderator_id", moderatorID, true},
		{"member owns via memberships.user_id", memberID, true},
		{"stranger owns nothing", uuid.New(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owned, err := resolver.IsOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: tt.who}, res, group)
			if err != nil {
				t.Fatalf("IsOwner returned error: %v", err)
			}
			if owned != tt.want {
				t.Errorf("IsOwner = %v, expected %v", owned, tt.want)
			}
		})
	}
}

func TestIsOwnerFailsClosed(t *testing.T) {
	registry := testRegistry()
	resolver := authz.NewOwnershipResolver(&memStore{})
	userID := uuid.New()

	t.Run("dangling foreign key", func(t *testing.T) {
		// Membership referencing a group that does not exist.
		membership := authz.Record{"id": uuid.New(), "group_id": uuid.New(), "user_id": uuid.New()}
		res := descriptor(registry, presets.ResourceGroupMemberships)

		owned, err := resolver.IsOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: userID}, res, membership)
		if err != nil {
			t.Fatalf("dangling reference should not error: %v", err)
		}
		if owned {
			t.Error("dangling reference must fail closed")
		}
	})

	t.Run("deny-all resource", func(t *testing.T) {
		res := descriptor(registry, presets.ResourceAuditLog)
		owned, err := resolver.IsOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: userID}, res, authz.Record{"id": uuid.New()})
		if err != nil {
			t.Fatalf("IsOwner returned error: %v", err)
		}
		if owned {
			t.Error("deny-all resources are owned by nobody")
		}
	})

	t.Run("non-user principals own nothing", func(t *testing.T) {
		res := descriptor(registry, presets.ResourceEventSignups)
		rec := authz.Record{"id": uuid.New(), "user_id": userID}

		for _, p := range []authz.Principal{
			{Kind: authz.KindAnonymous},
			{Kind: authz.KindAPIKey, Key: "some-key"},
		} {
			owned, err := resolver.IsOwner(context.Background(), p, res, rec)
			if err != nil {
				t.Fatalf("IsOwner returned error: %v", err)
			}
			if owned {
				t.Errorf("%s principal should own nothing", p.Kind)
			}
		}
	})
}

func TestIsProspectiveOwner(t *testing.T) {
	moderatorID := uuid.New()
	groupID := uuid.New()

	registry := testRegistry()
	store := fixtures(moderatorID, uuid.New(), groupID, uuid.New())
	resolver := authz.NewOwnershipResolver(store)
	res := descriptor(registry, presets.ResourceGroupMemberships)

	// Unsaved payload: a moderator adding someone to their own group.
	payload := authz.Record{"group_id": groupID, "user_id": uuid.New()}

	owned, err := resolver.IsProspectiveOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: moderatorID}, res, payload)
	if err != nil {
		t.Fatalf("IsProspectiveOwner returned error: %v", err)
	}
	if !owned {
		t.Error("moderator should prospectively own a membership in their group")
	}

	owned, err = resolver.IsProspectiveOwner(context.Background(), authz.Principal{Kind: authz.KindUser, ID: uuid.New()}, res, payload)
	if err != nil {
		t.Fatalf("IsProspectiveOwner returned error: %v", err)
	}
	if owned {
		t.Error("stranger should not prospectively own the membership")
	}
}
