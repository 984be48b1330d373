package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"

	apperrors "member-service/pkg/errors"
)

// RelationStore is the collaborator lookup used to traverse relation
// hops during ownership resolution.
type RelationStore interface {
	GetRecord(ctx context.Context, resource string, id uuid.UUID) (Record, error)
	FindByField(ctx context.Context, resource, field string, value uuid.UUID) ([]Record, error)
}

// OwnershipResolver decides whether a principal owns an item, walking
// the resource's compiled ownership plans. Ownership holds if any
// declared path resolves.
type OwnershipResolver struct {
	store RelationStore
}

func NewOwnershipResolver(store RelationStore) *OwnershipResolver {
	return &OwnershipResolver{store: store}
}

// IsOwner resolves ownership of a persisted item. Anonymous and API
// key principals own nothing; path inspection is skipped entirely.
func (o *OwnershipResolver) IsOwner(ctx context.Context, p Principal, res *ResourceDescriptor, rec Record) (bool, error) {
	if p.Kind != KindUser || res.DenyAll {
		return false, nil
	}

	for _, plan := range res.plans {
		owned, err := o.walk(ctx, p.ID, plan.Hops, plan.Field, rec)
		if err != nil {
			return false, err
		}
		if owned {
			return true, nil
		}
	}

	return false, nil
}

// IsProspectiveOwner resolves ownership of a to-be-created payload.
// One-segment paths compare the payload field directly; multi-segment
// paths resolve the prospective related record by the payload's
// foreign key. A dangling foreign key fails closed (not owner, no
// error); rejecting invalid references is the validation layer's job.
func (o *OwnershipResolver) IsProspectiveOwner(ctx context.Context, p Principal, res *ResourceDescriptor, payload Record) (bool, error) {
	return o.IsOwner(ctx, p, res, payload)
}

func (o *OwnershipResolver) walk(ctx context.Context, userID uuid.UUID, hops []Relation, field string, rec Record) (bool, error) {
	if len(hops) == 0 {
		ref, ok := rec.Ref(field)
		return ok && ref == userID, nil
	}

	hop := hops[0]
	switch hop.Cardinality {
	case ManyToOne:
		fk, ok := rec.Ref(hop.LocalField)
		if !ok {
			return false, nil
		}
		related, err := o.store.GetRecord(ctx, hop.Target, fk)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return o.walk(ctx, userID, hops[1:], field, related)

	case OneToMany:
		id := rec.ID()
		if id == uuid.Nil {
			// Unsaved payloads have no dependents yet.
			return false, nil
		}
		related, err := o.store.FindByField(ctx, hop.Target, hop.RemoteField, id)
		if err != nil {
			return false, err
		}
		for _, r := range related {
			owned, err := o.walk(ctx, userID, hops[1:], field, r)
			if err != nil {
				return false, err
			}
			if owned {
				return true, nil
			}
		}
		return false, nil
	}

	return false, nil
}
