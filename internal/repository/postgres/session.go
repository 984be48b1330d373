package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"member-service/internal/domain/session"
	apperrors "member-service/pkg/errors"
)

type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, input session.CreateSessionInput) (*session.Session, error) {
	query := `
		INSERT INTO sessions (id, user_id, token_hash)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, created_at, last_seen_at
	`

	s := &session.Session{}
	err := r.db.Pool.QueryRow(ctx, query, input.ID, input.UserID, input.TokenHash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt, &s.LastSeenAt,
	)
	if err != nil {
		return nil, fmt.Errorf(errFailedCreateSessionFmt, err)
	}

	return s, nil
}

func (r *SessionRepository) GetByTokenHash(ctx context.Context, hash string) (*session.Session, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, last_seen_at
		FROM sessions WHERE token_hash = $1
	`

	s := &session.Session{}
	err := r.db.Pool.QueryRow(ctx, query, hash).Scan(
		&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt, &s.LastSeenAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errSessionNotFound)
		}
		return nil, fmt.Errorf(errFailedGetSessionFmt, err)
	}

	return s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID) error {
	query := "UPDATE sessions SET last_seen_at = $1 WHERE id = $2"
	if _, err := r.db.Pool.Exec(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf(errFailedTouchSessionFmt, err)
	}

	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := "DELETE FROM sessions WHERE id = $1"
	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf(errFailedDeleteSessionFmt, err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errSessionNotFound)
	}

	return nil
}
