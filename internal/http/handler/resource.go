package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"member-service/internal/audit"
	"member-service/internal/authz"
	"member-service/internal/http/middleware"
	apperrors "member-service/pkg/errors"
)

// ResourceHandler serves the generic collection/item endpoints for
// every registered resource. The per-resource behavior comes entirely
// from the descriptor: method visibility, ownership paths, and link
// candidates. Handlers never special-case a resource by name.
type ResourceHandler struct {
	engine   *authz.Engine
	owners   *authz.OwnershipResolver
	links    *authz.Annotator
	store    RecordStore
	auditor  DecisionAuditor
	pageSize int
}

func NewResourceHandler(engine *authz.Engine, owners *authz.OwnershipResolver, links *authz.Annotator, store RecordStore, auditor DecisionAuditor, pageSize int) *ResourceHandler {
	return &ResourceHandler{
		engine:   engine,
		owners:   owners,
		links:    links,
		store:    store,
		auditor:  auditor,
		pageSize: pageSize,
	}
}

// authorize runs the decision engine for one request. A non-nil
// response means the request was already answered (aborted); callers
// must return it unchanged.
func (h *ResourceHandler) authorize(c echo.Context, res *authz.ResourceDescriptor, method string) (*authz.SecurityContext, authz.Decision, error) {
	sc := middleware.GetSecurityContext(c)
	if sc == nil {
		return nil, authz.Deny, respondError(c, http.StatusInternalServerError, msgMissingSecurityContext)
	}

	decision, err := h.engine.Decide(c.Request().Context(), sc, res, method)
	if err != nil {
		if errors.Is(err, authz.ErrAPIKeyNoGrant) {
			h.logDecision(c, sc, res, method, authz.Deny, audit.StatusDenied)
			return nil, authz.Deny, respondError(c, http.StatusForbidden, msgAccessDenied)
		}
		return nil, authz.Deny, respondError(c, http.StatusInternalServerError, msgInternalError)
	}

	return sc, decision, nil
}

// deny answers a denied request: 401 for anonymous callers (with a
// distinct message when a credential was supplied but resolved to
// nothing), 403 for everyone else.
func (h *ResourceHandler) deny(c echo.Context, sc *authz.SecurityContext, res *authz.ResourceDescriptor, method string) error {
	h.logDecision(c, sc, res, method, authz.Deny, audit.StatusDenied)

	if !sc.Authenticated() {
		if sc.CredentialProvided {
			return respondError(c, http.StatusUnauthorized, msgInvalidCredentials)
		}
		return respondError(c, http.StatusUnauthorized, msgAuthenticationRequired)
	}

	return respondError(c, http.StatusForbidden, msgAccessDenied)
}

func (h *ResourceHandler) logDecision(c echo.Context, sc *authz.SecurityContext, res *authz.ResourceDescriptor, method string, decision authz.Decision, status audit.Status) {
	h.auditor.LogDecision(sc, res.Name, method, decision, status, c.RealIP(), middleware.GetRequestID(c))
}

// List serves GET on a collection. An ownership decision scopes the
// query with the owner filter; the store compiles it into the query
// itself, so pagination counts only visible rows.
func (h *ResourceHandler) List(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sc, decision, done := h.authorize(c, res, http.MethodGet)
		if done != nil {
			return done
		}

		var filter *authz.Filter
		switch decision {
		case authz.Admit, authz.AdmitReadOnly:
			// Unrestricted.
		case authz.RequiresOwnership:
			if !sc.Authenticated() {
				return h.deny(c, sc, res, http.MethodGet)
			}
			filter = authz.BuildOwnerFilter(sc.Principal, res)
			if filter == nil {
				// No ownership concept to scope by; nothing can be
				// shown safely.
				return h.deny(c, sc, res, http.MethodGet)
			}
		default:
			return h.deny(c, sc, res, http.MethodGet)
		}

		limit, offset := parsePagination(c, h.pageSize)
		records, err := h.store.List(ctx, res.Name, filter, limit, offset)
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		items := make([]authz.Record, 0, len(records))
		for _, rec := range records {
			items = append(items, h.annotate(ctx, sc, res, rec))
		}

		return c.JSON(http.StatusOK, map[string]any{
			jsonKeyItems: items,
			jsonKeyLinks: h.collectionLinks(ctx, sc, res),
		})
	}
}

// Get serves GET on an item. A non-owned item under an ownership
// decision renders as 404, indistinguishable from a missing record.
func (h *ResourceHandler) Get(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := parseIDParam(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		sc, decision, done := h.authorize(c, res, http.MethodGet)
		if done != nil {
			return done
		}
		if decision == authz.Deny || (decision == authz.RequiresOwnership && !sc.Authenticated()) {
			return h.deny(c, sc, res, http.MethodGet)
		}

		rec, err := h.store.GetRecord(ctx, res.Name, id)
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		if decision == authz.RequiresOwnership {
			owned, err := h.owners.IsOwner(ctx, sc.Principal, res, rec)
			if err != nil {
				return RespondWithMappedError(c, err)
			}
			if !owned {
				h.logDecision(c, sc, res, http.MethodGet, decision, audit.StatusDenied)
				return respondError(c, http.StatusNotFound, msgResourceNotFound)
			}
		}

		return c.JSON(http.StatusOK, h.annotate(ctx, sc, res, rec))
	}
}

// Create serves POST on a collection. Under an ownership decision the
// payload itself must already belong to the caller; a write that would
// create a record for someone else is rejected with 403.
func (h *ResourceHandler) Create(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sc, decision, done := h.authorize(c, res, http.MethodPost)
		if done != nil {
			return done
		}
		if decision != authz.Admit && decision != authz.RequiresOwnership {
			return h.deny(c, sc, res, http.MethodPost)
		}

		body, err := bindRecord(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		rec := authz.Record(body)
		rec[fieldID] = uuid.New()

		if decision == authz.RequiresOwnership {
			if !sc.Authenticated() {
				return h.deny(c, sc, res, http.MethodPost)
			}
			owned, err := h.owners.IsProspectiveOwner(ctx, sc.Principal, res, rec)
			if err != nil {
				return RespondWithMappedError(c, err)
			}
			if !owned {
				h.logDecision(c, sc, res, http.MethodPost, decision, audit.StatusDenied)
				return respondError(c, http.StatusForbidden, msgAccessDenied)
			}
		}

		created, err := h.store.Insert(ctx, res.Name, rec)
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		h.logDecision(c, sc, res, http.MethodPost, decision, audit.StatusAdmitted)
		return c.JSON(http.StatusCreated, h.annotate(ctx, sc, res, created))
	}
}

// Update serves PATCH on an item. Unlike reads, a non-owned write is a
// 403: the caller asked to change state, not to see it.
func (h *ResourceHandler) Update(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := parseIDParam(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		sc, decision, done := h.authorize(c, res, http.MethodPatch)
		if done != nil {
			return done
		}
		if decision != authz.Admit && decision != authz.RequiresOwnership {
			return h.deny(c, sc, res, http.MethodPatch)
		}

		if decision == authz.RequiresOwnership {
			if err := h.requireOwnedItem(c, sc, res, http.MethodPatch, id); err != nil {
				return err
			}
		}

		body, err := bindRecord(c)
		if err != nil {
			return handleHTTPError(c, err)
		}
		delete(body, fieldID)

		updated, err := h.store.Update(ctx, res.Name, id, authz.Record(body))
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		h.logDecision(c, sc, res, http.MethodPatch, decision, audit.StatusAdmitted)
		return c.JSON(http.StatusOK, h.annotate(ctx, sc, res, updated))
	}
}

// Delete serves DELETE on an item.
func (h *ResourceHandler) Delete(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := parseIDParam(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		sc, decision, done := h.authorize(c, res, http.MethodDelete)
		if done != nil {
			return done
		}
		if decision != authz.Admit && decision != authz.RequiresOwnership {
			return h.deny(c, sc, res, http.MethodDelete)
		}

		if decision == authz.RequiresOwnership {
			if err := h.requireOwnedItem(c, sc, res, http.MethodDelete, id); err != nil {
				return err
			}
		}

		if err := h.store.Delete(ctx, res.Name, id); err != nil {
			return RespondWithMappedError(c, err)
		}

		h.logDecision(c, sc, res, http.MethodDelete, decision, audit.StatusAdmitted)
		return c.NoContent(http.StatusNoContent)
	}
}

// Options answers method discovery for a collection or item without
// touching any record state.
func (h *ResourceHandler) Options(res *authz.ResourceDescriptor, item bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		sc := middleware.GetSecurityContext(c)
		if sc == nil {
			return respondError(c, http.StatusInternalServerError, msgMissingSecurityContext)
		}

		var rec authz.Record
		if item {
			id, err := parseIDParam(c)
			if err != nil {
				return handleHTTPError(c, err)
			}
			rec, err = h.store.GetRecord(ctx, res.Name, id)
			if err != nil {
				return RespondWithMappedError(c, err)
			}
		}

		methods := h.links.MethodsFor(ctx, sc, res, rec)
		c.Response().Header().Set(headerAllow, strings.Join(methods, ", "))
		return c.NoContent(http.StatusNoContent)
	}
}

// requireOwnedItem loads the item and confirms ownership for a mutating
// method. A non-nil return means the request was already answered.
func (h *ResourceHandler) requireOwnedItem(c echo.Context, sc *authz.SecurityContext, res *authz.ResourceDescriptor, method string, id uuid.UUID) error {
	ctx := c.Request().Context()

	if !sc.Authenticated() {
		return h.deny(c, sc, res, method)
	}

	rec, err := h.store.GetRecord(ctx, res.Name, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return respondError(c, http.StatusNotFound, msgResourceNotFound)
		}
		return RespondWithMappedError(c, err)
	}

	owned, err := h.owners.IsOwner(ctx, sc.Principal, res, rec)
	if err != nil {
		return RespondWithMappedError(c, err)
	}
	if !owned {
		h.logDecision(c, sc, res, method, authz.RequiresOwnership, audit.StatusDenied)
		return respondError(c, http.StatusForbidden, msgAccessDenied)
	}

	return nil
}

// annotate attaches the _links block with the methods the caller may
// use on this specific item.
func (h *ResourceHandler) annotate(ctx context.Context, sc *authz.SecurityContext, res *authz.ResourceDescriptor, rec authz.Record) authz.Record {
	rec[jsonKeyLinks] = map[string]any{
		jsonKeySelf: map[string]any{
			jsonKeyHref:    itemHref(res.Name, rec.ID()),
			jsonKeyMethods: h.links.MethodsFor(ctx, sc, res, rec),
		},
	}
	return rec
}

func (h *ResourceHandler) collectionLinks(ctx context.Context, sc *authz.SecurityContext, res *authz.ResourceDescriptor) map[string]any {
	return map[string]any{
		jsonKeySelf: map[string]any{
			jsonKeyHref:    collectionHref(res.Name),
			jsonKeyMethods: h.links.MethodsFor(ctx, sc, res, nil),
		},
	}
}

func collectionHref(resource string) string {
	return "/" + resource
}

func itemHref(resource string, id uuid.UUID) string {
	return "/" + resource + "/" + id.String()
}
