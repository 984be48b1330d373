package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"member-service/internal/authz"
	"member-service/internal/http/middleware"
)

// HomeHandler serves the API index: one link per registered resource,
// annotated with the methods the caller may use. Because every probe
// runs through the same engine invocation, admin flags observed on one
// resource carry over to the rest of the response.
type HomeHandler struct {
	registry *authz.Registry
	links    *authz.Annotator
}

func NewHomeHandler(registry *authz.Registry, links *authz.Annotator) *HomeHandler {
	return &HomeHandler{registry: registry, links: links}
}

func (h *HomeHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()

	sc := middleware.GetSecurityContext(c)
	if sc == nil {
		return respondError(c, http.StatusInternalServerError, msgMissingSecurityContext)
	}

	index := make(map[string]any)
	for _, res := range h.registry.Resources() {
		index[res.Name] = map[string]any{
			jsonKeyHref:    collectionHref(res.Name),
			jsonKeyMethods: h.links.MethodsFor(ctx, sc, res, nil),
		}
	}

	return c.JSON(http.StatusOK, map[string]any{jsonKeyLinks: index})
}
