package handler

import (
	"context"

	"github.com/google/uuid"

	"member-service/internal/audit"
	"member-service/internal/authz"
	"member-service/internal/domain/session"
	"member-service/internal/domain/user"
)

// Consumer-side interfaces defined by handlers
// Each interface contains only the methods needed by the specific handler

// ResourceHandler interfaces
type RecordStore interface {
	GetRecord(ctx context.Context, resource string, id uuid.UUID) (authz.Record, error)
	List(ctx context.Context, resource string, filter *authz.Filter, limit, offset int) ([]authz.Record, error)
	Insert(ctx context.Context, resource string, rec authz.Record) (authz.Record, error)
	Update(ctx context.Context, resource string, id uuid.UUID, patch authz.Record) (authz.Record, error)
	Delete(ctx context.Context, resource string, id uuid.UUID) error
}

type DecisionAuditor interface {
	LogDecision(sc *authz.SecurityContext, resource, method string, decision authz.Decision, status audit.Status, ip, requestID string)
}

// AuthHandler interfaces
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, input user.CreateUserInput) (*user.User, error)
}

type SessionRepository interface {
	Create(ctx context.Context, input session.CreateSessionInput) (*session.Session, error)
}

// DocumentHandler interfaces
type ObjectStore interface {
	PresignUpload(ctx context.Context, objectKey, contentType string) (string, error)
	PresignDownload(ctx context.Context, objectKey string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}
