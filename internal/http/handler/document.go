package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"member-service/internal/audit"
	"member-service/internal/authz"
)

// DocumentHandler serves the object-storage endpoints for study
// documents. The records themselves go through the generic resource
// routes; these endpoints exchange an admitted record's file key for a
// time-limited object URL, and keep the bucket in sync on deletion.
type DocumentHandler struct {
	resources *ResourceHandler
	objects   ObjectStore
}

func NewDocumentHandler(resources *ResourceHandler, objects ObjectStore) *DocumentHandler {
	return &DocumentHandler{resources: resources, objects: objects}
}

type UploadURLRequest struct {
	ContentType string `json:"content_type"`
}

type PresignedURLResponse struct {
	URL string `json:"url"`
}

// DownloadURL issues a download URL for a document. Gated by the same
// GET decision as reading the record.
func (h *DocumentHandler) DownloadURL(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := parseIDParam(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		sc, decision, done := h.resources.authorize(c, res, http.MethodGet)
		if done != nil {
			return done
		}
		if decision == authz.Deny || (decision == authz.RequiresOwnership && !sc.Authenticated()) {
			return h.resources.deny(c, sc, res, http.MethodGet)
		}

		rec, err := h.resources.store.GetRecord(ctx, res.Name, id)
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		if decision == authz.RequiresOwnership {
			owned, err := h.resources.owners.IsOwner(ctx, sc.Principal, res, rec)
			if err != nil {
				return RespondWithMappedError(c, err)
			}
			if !owned {
				return respondError(c, http.StatusNotFound, msgResourceNotFound)
			}
		}

		fileKey, _ := rec[fieldFileKey].(string)
		if fileKey == "" {
			return respondError(c, http.StatusNotFound, msgResourceNotFound)
		}

		url, err := h.objects.PresignDownload(ctx, fileKey)
		if err != nil {
			return respondError(c, http.StatusInternalServerError, msgGenerateDownloadURLFail)
		}

		return c.JSON(http.StatusOK, PresignedURLResponse{URL: url})
	}
}

// UploadURL issues an upload URL for a document's content. Replacing
// content mutates the document, so it is gated by the PATCH decision
// and the ownership check that comes with it.
func (h *DocumentHandler) UploadURL(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := parseIDParam(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		sc, decision, done := h.resources.authorize(c, res, http.MethodPatch)
		if done != nil {
			return done
		}
		if decision != authz.Admit && decision != authz.RequiresOwnership {
			return h.resources.deny(c, sc, res, http.MethodPatch)
		}

		if decision == authz.RequiresOwnership {
			if err := h.resources.requireOwnedItem(c, sc, res, http.MethodPatch, id); err != nil {
				return err
			}
		}

		rec, err := h.resources.store.GetRecord(ctx, res.Name, id)
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		fileKey, _ := rec[fieldFileKey].(string)
		if fileKey == "" {
			return respondError(c, http.StatusBadRequest, msgFileKeyRequired)
		}

		var req UploadURLRequest
		if err := bindStrictJSON(c, &req); err != nil {
			return handleHTTPError(c, err)
		}

		url, err := h.objects.PresignUpload(ctx, fileKey, req.ContentType)
		if err != nil {
			return respondError(c, http.StatusInternalServerError, msgGenerateUploadURLFail)
		}

		return c.JSON(http.StatusOK, PresignedURLResponse{URL: url})
	}
}

// Delete removes a document record and then best-effort deletes its
// stored object. A failed object delete only leaves an orphaned blob,
// so it is logged rather than surfaced.
func (h *DocumentHandler) Delete(res *authz.ResourceDescriptor) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := parseIDParam(c)
		if err != nil {
			return handleHTTPError(c, err)
		}

		sc, decision, done := h.resources.authorize(c, res, http.MethodDelete)
		if done != nil {
			return done
		}
		if decision != authz.Admit && decision != authz.RequiresOwnership {
			return h.resources.deny(c, sc, res, http.MethodDelete)
		}

		if decision == authz.RequiresOwnership {
			if err := h.resources.requireOwnedItem(c, sc, res, http.MethodDelete, id); err != nil {
				return err
			}
		}

		rec, err := h.resources.store.GetRecord(ctx, res.Name, id)
		if err != nil {
			return RespondWithMappedError(c, err)
		}

		if err := h.resources.store.Delete(ctx, res.Name, id); err != nil {
			return RespondWithMappedError(c, err)
		}

		if fileKey, _ := rec[fieldFileKey].(string); fileKey != "" {
			if err := h.objects.DeleteObject(ctx, fileKey); err != nil {
				c.Logger().Errorf(errDeleteObjectFmt, fileKey, err)
			}
		}

		h.resources.logDecision(c, sc, res, http.MethodDelete, decision, audit.StatusAdmitted)
		return c.NoContent(http.StatusNoContent)
	}
}
