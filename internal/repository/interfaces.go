package repository

import (
	"context"

	"github.com/google/uuid"

	"member-service/internal/authz"
	"member-service/internal/domain/session"
	"member-service/internal/domain/user"
)

// Repository interfaces used by the authorization engine and handlers.
// These are provider-side interfaces that concrete implementations
// must satisfy.

type UserRepository interface {
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, input session.CreateSessionInput) (*session.Session, error)
	GetByTokenHash(ctx context.Context, hash string) (*session.Session, error)
	Touch(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type MembershipRepository interface {
	ActivePermissions(ctx context.Context, userID uuid.UUID, resource string) ([]string, error)
}

// RecordStore is generic keyed and filtered access to resource
// collections. Filters are compiled into native query clauses so
// ownership scoping stays correct under pagination.
type RecordStore interface {
	GetRecord(ctx context.Context, resource string, id uuid.UUID) (authz.Record, error)
	FindByField(ctx context.Context, resource, field string, value uuid.UUID) ([]authz.Record, error)
	List(ctx context.Context, resource string, filter *authz.Filter, limit, offset int) ([]authz.Record, error)
	Insert(ctx context.Context, resource string, rec authz.Record) (authz.Record, error)
	Update(ctx context.Context, resource string, id uuid.UUID, patch authz.Record) (authz.Record, error)
	Delete(ctx context.Context, resource string, id uuid.UUID) error
}
