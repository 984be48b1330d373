package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"member-service/internal/audit"
	"member-service/internal/authz"
	"member-service/internal/domain/session"
	"member-service/internal/domain/user"
	apperrors "member-service/pkg/errors"
	"member-service/pkg/password"
	"member-service/pkg/validator"
)

// Pre-computed bcrypt hash (cost 12) used to equalize timing on failed lookups.
// The actual plaintext is irrelevant — this just ensures constant-time response.
const dummyBcryptHash = "$2a$12$dWR5CQpS4zNHLavLSIr4o.P6QDQEUJKv7mJ7WekUHHqyRSRMJzH0S"

// AuthHandler overrides the generic POST routes where record creation
// needs credential handling: logging in (sessions) and creating users.
// Both still go through the decision engine first.
type AuthHandler struct {
	resources     *ResourceHandler
	userRepo      UserRepository
	sessionRepo   SessionRepository
	jwtSecret     []byte
	sessionExpiry time.Duration
}

func NewAuthHandler(resources *ResourceHandler, userRepo UserRepository, sessionRepo SessionRepository, jwtSecret []byte, sessionExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		resources:     resources,
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		jwtSecret:     jwtSecret,
		sessionExpiry: sessionExpiry,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type CreateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Login creates a session from an email/password pair. The sessions
// resource declares POST public, so the engine admits anonymous callers
// here by policy, not by route carve-out.
func (h *AuthHandler) Login(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sc, decision, done := h.resources.authorize(c, res, http.MethodPost)
		if done != nil {
			return done
		}
		if decision == authz.Deny {
			return h.resources.deny(c, sc, res, http.MethodPost)
		}

		var req LoginRequest
		if err := bindStrictJSON(c, &req); err != nil {
			return handleHTTPError(c, err)
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" || req.Password == "" {
			password.Verify("", dummyBcryptHash)
			return respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
		}

		u, err := h.userRepo.GetByEmail(ctx, req.Email)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return RespondWithMappedError(c, err)
			}
			// Run bcrypt against a dummy hash to prevent timing oracle.
			// Without this, "user not found" returns in ~1ms while
			// "wrong password" takes ~200ms, leaking email existence.
			password.Verify(req.Password, dummyBcryptHash)
			return respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
		}

		if !password.Verify(req.Password, u.PasswordHash) {
			return respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
		}

		sessionID := uuid.New()
		token, err := authz.IssueSessionToken(h.jwtSecret, u.ID, sessionID, h.sessionExpiry)
		if err != nil {
			return respondError(c, http.StatusInternalServerError, msgGenerateTokenFail)
		}

		s, err := h.sessionRepo.Create(ctx, session.CreateSessionInput{
			ID:        sessionID,
			UserID:    u.ID,
			TokenHash: authz.HashToken(token),
		})
		if err != nil {
			return respondError(c, http.StatusInternalServerError, msgCreateSessionFail)
		}

		h.resources.logDecision(c, sc, res, http.MethodPost, decision, audit.StatusAdmitted)
		return c.JSON(http.StatusCreated, LoginResponse{
			Token:     token,
			SessionID: s.ID.String(),
			UserID:    u.ID.String(),
		})
	}
}

// CreateUser overrides generic creation for the users resource so the
// password is validated and hashed instead of stored as a raw column.
func (h *AuthHandler) CreateUser(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sc, decision, done := h.resources.authorize(c, res, http.MethodPost)
		if done != nil {
			return done
		}
		if decision != authz.Admit {
			return h.resources.deny(c, sc, res, http.MethodPost)
		}

		var req CreateUserRequest
		if err := bindStrictJSON(c, &req); err != nil {
			return handleHTTPError(c, err)
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := validator.ValidateEmail(req.Email); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		if err := validator.ValidatePassword(req.Password); err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}

		passwordHash, err := password.Hash(req.Password)
		if err != nil {
			return respondError(c, http.StatusInternalServerError, msgPasswordProcessFail)
		}

		u, err := h.userRepo.Create(ctx, user.CreateUserInput{
			Email:        req.Email,
			PasswordHash: passwordHash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
		})
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				return respondError(c, http.StatusConflict, msgEmailAlreadyExists)
			}
			return respondError(c, http.StatusInternalServerError, msgCreateUserFail)
		}

		h.resources.logDecision(c, sc, res, http.MethodPost, decision, audit.StatusAdmitted)
		return c.JSON(http.StatusCreated, UserResponse{
			ID:        u.ID.String(),
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
	}
}
