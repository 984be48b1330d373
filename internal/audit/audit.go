package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"member-service/internal/authz"
	"member-service/pkg/logger"
)

const logTimeout = 500 * time.Millisecond

// Status represents the outcome of an authorization decision
type Status string

const (
	StatusAdmitted Status = "admitted"
	StatusDenied   Status = "denied"
)

// Event is one audit trail entry for an authorization decision.
type Event struct {
	ID        uuid.UUID
	ActorKind string
	ActorID   *uuid.UUID
	Resource  string
	Method    string
	Decision  string
	Status    Status
	IPAddress string
	RequestID string
	Message   string
	CreatedAt time.Time
}

// Logger records authorization outcomes. All writes are best-effort:
// an audit failure is logged and swallowed, never surfaced to the
// caller.
type Logger struct {
	pool *pgxpool.Pool
}

func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// Log persists one audit event.
func (l *Logger) Log(ctx context.Context, event *Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO auditlog (
			id, actor_kind, actor_id, resource, method, decision,
			status, ip_address, request_id, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := l.pool.Exec(ctx, query,
		event.ID,
		event.ActorKind,
		event.ActorID,
		event.Resource,
		event.Method,
		event.Decision,
		event.Status,
		event.IPAddress,
		event.RequestID,
		logger.SanitizeLogMessage(event.Message),
		event.CreatedAt,
	)

	return err
}

// LogDecision records a decision fire-and-forget with a bounded
// timeout, detached from the request context so cancellation of the
// request does not lose the entry.
func (l *Logger) LogDecision(sc *authz.SecurityContext, resource, method string, decision authz.Decision, status Status, ip, requestID string) {
	if l == nil || l.pool == nil {
		return
	}

	event := &Event{
		ActorKind: string(sc.Principal.Kind),
		Resource:  resource,
		Method:    method,
		Decision:  decision.String(),
		Status:    status,
		IPAddress: ip,
		RequestID: requestID,
	}
	if sc.Principal.Kind == authz.KindUser || sc.Principal.Kind == authz.KindRoot {
		id := sc.Principal.ID
		event.ActorID = &id
	}

	ctx, cancel := context.WithTimeout(context.Background(), logTimeout)
	defer cancel()

	if err := l.Log(ctx, event); err != nil {
		log.Printf("audit: failed to record %s %s for %s: %v", method, resource, event.ActorKind, err)
	}
}
