package handlers

import (
	"context"
	"net/http"

	"mailmind/internal/models"

	"github.com/labstack/echo/v4"
)

// QueryLogStore reads back the audit log of answered questions
type QueryLogStore interface {
	ListQueryLog(ctx context.Context, limit, offset int) ([]models.QueryLogEntry, error)
}

// QueryLogHandler lists previously answered questions
// @Summary List answered questions
// @Description Returns the audit log of answered questions, newest first
// @Tags query
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.QueryLogEntry
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/queries [get]
func QueryLogHandler(store QueryLogStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, err := parsePositiveInt(c.QueryParam("limit"), defaultPageSize)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a positive integer"})
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		offset, err := parseNonNegativeInt(c.QueryParam("offset"), 0)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "offset must be a non-negative integer"})
		}

		entries, err := store.ListQueryLog(c.Request().Context(), limit, offset)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, entries)
	}
}
