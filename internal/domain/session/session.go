package session

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

type CreateSessionInput struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
}
