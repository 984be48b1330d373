package presets

import (
	"net/http"

	"member-service/internal/authz"
)

const (
	ResourceUsers            = "users"
	ResourceSessions         = "sessions"
	ResourceEvents           = "events"
	ResourceEventSignups     = "eventsignups"
	ResourceGroups           = "groups"
	ResourceGroupMemberships = "groupmemberships"
	ResourceJobOffers        = "joboffers"
	ResourceStudyDocuments   = "studydocuments"
	ResourceAuditLog         = "auditlog"
)

// Membership returns the resource catalog for the membership
// organization backend: method visibility and ownership declarations
// for every resource, plus the relation arena the ownership paths
// traverse.
func Membership() ([]*authz.ResourceDescriptor, map[string][]authz.Relation) {
	descriptors := []*authz.ResourceDescriptor{
		{
			Name:            ResourceUsers,
			OwnerMethods:    []string{http.MethodGet, http.MethodPatch},
			OwnerPaths:      []string{"id"},
			ResourceMethods: []string{http.MethodGet, http.MethodPost},
			ItemMethods:     []string{http.MethodGet, http.MethodPatch, http.MethodDelete},
		},
		{
			Name:            ResourceSessions,
			PublicMethods:   []string{http.MethodPost},
			OwnerMethods:    []string{http.MethodGet, http.MethodDelete},
			OwnerPaths:      []string{"user_id"},
			ResourceMethods: []string{http.MethodGet, http.MethodPost},
			ItemMethods:     []string{http.MethodGet, http.MethodDelete},
		},
		{
			Name:            ResourceEvents,
			PublicMethods:   []string{http.MethodGet},
			ResourceMethods: []string{http.MethodGet, http.MethodPost},
			ItemMethods:     []string{http.MethodGet, http.MethodPatch, http.MethodDelete},
		},
		{
			// Signing up is itself owner-scoped: the payload's user_id
			// must resolve to the caller, so nobody signs up anyone
			// else.
			Name:            ResourceEventSignups,
			OwnerMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
			OwnerPaths:      []string{"user_id"},
			ResourceMethods: []string{http.MethodGet, http.MethodPost},
			ItemMethods:     []string{http.MethodGet, http.MethodPatch, http.MethodDelete},
		},
		{
			Name:              ResourceGroups,
			RegisteredMethods: []string{http.MethodGet},
			OwnerMethods:      []string{http.MethodGet, http.MethodPatch},
			OwnerPaths:        []string{"moderator_id", "memberships.user_id"},
			ResourceMethods:   []string{http.MethodGet, http.MethodPost},
			ItemMethods:       []string{http.MethodGet, http.MethodPatch, http.MethodDelete},
		},
		{
			// Members enroll themselves; moderators enroll anyone into
			// groups they moderate.
			Name:            ResourceGroupMemberships,
			OwnerMethods:    []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			OwnerPaths:      []string{"user_id", "group.moderator_id"},
			ResourceMethods: []string{http.MethodGet, http.MethodPost},
			ItemMethods:     []string{http.MethodGet, http.MethodDelete},
		},
		{
			Name:            ResourceJobOffers,
			PublicMethods:   []string{http.MethodGet},
			ResourceMethods: []string{http.MethodGet, http.MethodPost},
			ItemMethods:     []string{http.MethodGet, http.MethodPatch, http.MethodDelete},
		},
		{
			Name:              ResourceStudyDocuments,
			RegisteredMethods: []string{http.MethodGet, http.MethodPost},
			OwnerMethods:      []string{http.MethodPatch, http.MethodDelete},
			OwnerPaths:        []string{"uploader_id"},
			ResourceMethods:   []string{http.MethodGet, http.MethodPost},
			ItemMethods:       []string{http.MethodGet, http.MethodPatch, http.MethodDelete},
		},
		{
			// Administrative sub-resource: renders 404/empty rather
			// than 403 for non-admins.
			Name:            ResourceAuditLog,
			OwnerMethods:    []string{http.MethodGet},
			DenyAll:         true,
			ResourceMethods: []string{http.MethodGet},
			ItemMethods:     []string{http.MethodGet},
		},
	}

	relations := map[string][]authz.Relation{
		ResourceSessions: {
			{Name: "user", Target: ResourceUsers, Cardinality: authz.ManyToOne, LocalField: "user_id"},
		},
		ResourceEventSignups: {
			{Name: "event", Target: ResourceEvents, Cardinality: authz.ManyToOne, LocalField: "event_id"},
			{Name: "user", Target: ResourceUsers, Cardinality: authz.ManyToOne, LocalField: "user_id"},
		},
		ResourceGroups: {
			{Name: "memberships", Target: ResourceGroupMemberships, Cardinality: authz.OneToMany, RemoteField: "group_id"},
		},
		ResourceGroupMemberships: {
			{Name: "group", Target: ResourceGroups, Cardinality: authz.ManyToOne, LocalField: "group_id"},
			{Name: "user", Target: ResourceUsers, Cardinality: authz.ManyToOne, LocalField: "user_id"},
		},
		ResourceStudyDocuments: {
			{Name: "uploader", Target: ResourceUsers, Cardinality: authz.ManyToOne, LocalField: "uploader_id"},
		},
	}

	return descriptors, relations
}

// MustRegistry compiles the membership catalog, panicking on invalid
// declarations. Used at startup.
func MustRegistry() *authz.Registry {
	descriptors, relations := Membership()
	return authz.MustNewRegistry(descriptors, relations)
}
