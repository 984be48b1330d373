package authz_test

import (
	"errors"
	"net/http"
	"testing"

	"member-service/internal/authz"
	apperrors "member-service/pkg/errors"
)

func minimalDescriptors() []*authz.ResourceDescriptor {
	return []*authz.ResourceDescriptor{
		{Name: "articles", PublicMethods: []string{http.MethodGet}},
		{Name: "authors"},
	}
}

func TestNewRegistryCompilesOwnershipPaths(t *testing.T) {
	descriptors := []*authz.ResourceDescriptor{
		{Name: "articles", OwnerMethods: []string{http.MethodPatch}, OwnerPaths: []string{"author_id", "author.manager_id"}},
		{Name: "authors"},
	}
	relations := map[string][]authz.Relation{
		"articles": {
			{Name: "author", Target: "authors", Cardinality: authz.ManyToOne, LocalField: "author_id"},
		},
	}

	registry, err := authz.NewRegistry(descriptors, relations)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	res, ok := registry.Descriptor("articles")
	if !ok {
		t.Fatal("articles descriptor missing")
	}

	plans := res.Plans()
	if len(plans) != 2 {
		t.Fatalf("expected 2 compiled plans, got %d", len(plans))
	}
	if len(plans[0].Hops) != 0 || plans[0].Field != "author_id" {
		t.Errorf("direct path compiled wrong: %+v", plans[0])
	}
	if len(plans[1].Hops) != 1 || plans[1].Hops[0].Name != "author" || plans[1].Field != "manager_id" {
		t.Errorf("hop path compiled wrong: %+v", plans[1])
	}
	if !res.HasOwnership() {
		t.Error("resource with plans should report ownership")
	}
}

func TestNewRegistryRejectsBadConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		descriptors []*authz.ResourceDescriptor
		relations   map[string][]authz.Relation
	}{
		{
			"empty resource name",
			[]*authz.ResourceDescriptor{{Name: ""}},
			nil,
		},
		{
			"invalid resource identifier",
			[]*authz.ResourceDescriptor{{Name: "Bad-Name"}},
			nil,
		},
		{
			"duplicate resource",
			[]*authz.ResourceDescriptor{{Name: "articles"}, {Name: "articles"}},
			nil,
		},
		{
			"relations for unknown resource",
			minimalDescriptors(),
			map[string][]authz.Relation{"ghosts": {{Name: "author", Target: "authors", Cardinality: authz.ManyToOne, LocalField: "author_id"}}},
		},
		{
			"relation with unknown target",
			minimalDescriptors(),
			map[string][]authz.Relation{"articles": {{Name: "author", Target: "ghosts", Cardinality: authz.ManyToOne, LocalField: "author_id"}}},
		},
		{
			"many-to-one without local field",
			minimalDescriptors(),
			map[string][]authz.Relation{"articles": {{Name: "author", Target: "authors", Cardinality: authz.ManyToOne}}},
		},
		{
			"one-to-many without remote field",
			minimalDescriptors(),
			map[string][]authz.Relation{"authors": {{Name: "articles", Target: "articles", Cardinality: authz.OneToMany}}},
		},
		{
			"unknown method in set",
			[]*authz.ResourceDescriptor{{Name: "articles", PublicMethods: []string{"FETCH"}}},
			nil,
		},
		{
			"owner path through unknown relation",
			[]*authz.ResourceDescriptor{{Name: "articles", OwnerPaths: []string{"editor.id"}}},
			nil,
		},
		{
			"empty owner path",
			[]*authz.ResourceDescriptor{{Name: "articles", OwnerPaths: []string{""}}},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authz.NewRegistry(tt.descriptors, tt.relations)
			if err == nil {
				t.Fatal("expected configuration error, got nil")
			}
			if !errors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("expected configuration error, got: %v", err)
			}
		})
	}
}

func TestMustNewRegistryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid configuration")
		}
	}()
	authz.MustNewRegistry([]*authz.ResourceDescriptor{{Name: ""}}, nil)
}

func TestRegistryResourcesKeepDeclarationOrder(t *testing.T) {
	registry, err := authz.NewRegistry(minimalDescriptors(), nil)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	resources := registry.Resources()
	if len(resources) != 2 || resources[0].Name != "articles" || resources[1].Name != "authors" {
		t.Errorf("unexpected resource order: %+v", resources)
	}
}
