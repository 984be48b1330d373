package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contentTypeJSON          = "application/json"
	maxStrictBodyBytes int64 = 1 << 20 // Keep parser bound aligned with global body limit.

	queryParamLimit  = "limit"
	queryParamOffset = "offset"
)

func bindStrictJSON(c echo.Context, dst interface{}) error {
	if !strings.HasPrefix(strings.ToLower(c.Request().Header.Get(echo.HeaderContentType)), contentTypeJSON) {
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, msgContentTypeJSONRequired)
	}

	body := io.LimitReader(c.Request().Body, maxStrictBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
	}

	return nil
}

// bindRecord decodes an arbitrary JSON object body. Unknown fields are
// allowed here; the store rejects columns the table does not have.
func bindRecord(c echo.Context) (map[string]any, error) {
	if !strings.HasPrefix(strings.ToLower(c.Request().Header.Get(echo.HeaderContentType)), contentTypeJSON) {
		return nil, echo.NewHTTPError(http.StatusUnsupportedMediaType, msgContentTypeJSONRequired)
	}

	body := io.LimitReader(c.Request().Body, maxStrictBodyBytes)
	decoder := json.NewDecoder(body)

	var rec map[string]any
	if err := decoder.Decode(&rec); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, echo.NewHTTPError(http.StatusBadRequest, msgInvalidRequestBody)
	}

	return rec, nil
}

func parseIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(paramID))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, msgInvalidResourceID)
	}
	return id, nil
}

// parsePagination reads limit/offset query parameters, clamping the
// limit to the configured page size.
func parsePagination(c echo.Context, pageSize int) (limit, offset int) {
	limit = pageSize
	if raw := c.QueryParam(queryParamLimit); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v < pageSize {
			limit = v
		}
	}
	if raw := c.QueryParam(queryParamOffset); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			offset = v
		}
	}
	return limit, offset
}
