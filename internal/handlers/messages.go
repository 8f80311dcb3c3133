package handlers

import (
	"context"
	"net/http"
	"strconv"

	"mailmind/internal/models"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// MessageStore is the read side of the message store used by list endpoints
type MessageStore interface {
	ListRecent(ctx context.Context, limit, offset int) ([]models.Message, error)
	ListByLabel(ctx context.Context, label string, limit, offset int) ([]models.Message, int, error)
}

// MessagesHandler lists stored messages, newest first
// @Summary List messages
// @Description Returns stored messages ordered by internal date descending, optionally filtered by label
// @Tags messages
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Param label query string false "Filter by classification label"
// @Success 200 {array} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/messages [get]
func MessagesHandler(store MessageStore) echo.HandlerFunc {
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

		if label := c.QueryParam("label"); label != "" {
			messages, _, err := store.ListByLabel(c.Request().Context(), label, limit, offset)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			}
			return c.JSON(http.StatusOK, messages)
		}

		messages, err := store.ListRecent(c.Request().Context(), limit, offset)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, messages)
	}
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 1 {
		return 0, strconv.ErrSyntax
	}
	return parsed, nil
}

func parseNonNegativeInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return 0, strconv.ErrSyntax
	}
	return parsed, nil
}
