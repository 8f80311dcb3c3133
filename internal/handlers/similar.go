package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mailmind/internal/models"
	"mailmind/internal/rag"

	"github.com/labstack/echo/v4"
)

// SimilarHandler lists messages semantically close to a given message
// @Summary Find similar messages
// @Description Returns messages whose embeddings are closest to the given message, excluding the message itself
// @Tags query
// @Produce json
// @Param id path string true "Message ID"
// @Param limit query int false "Maximum number of results"
// @Success 200 {array} models.Source
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/similar/{id} [get]
func SimilarHandler(engine QueryEngine) echo.HandlerFunc {
	return func(c echo.Context) error {
		messageID := c.Param("id")

		limit := 0
		if raw := c.QueryParam("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "limit must be a positive integer"})
			}
			limit = parsed
		}

		sources, err := engine.FindSimilar(c.Request().Context(), messageID, limit)
		if err != nil {
			switch {
			case errors.Is(err, rag.ErrNotFound):
				return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			case errors.Is(err, rag.ErrProvider):
				return c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
			default:
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			}
		}

		return c.JSON(http.StatusOK, sources)
	}
}
