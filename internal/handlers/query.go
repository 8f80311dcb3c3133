package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"mailmind/internal/cache"
	"mailmind/internal/models"
	"mailmind/internal/rag"

	"github.com/labstack/echo/v4"
)

// QueryEngine is the part of the rag engine the HTTP layer depends on
type QueryEngine interface {
	Query(ctx context.Context, question string, topK int, threshold float64) (*models.QueryResult, error)
	FindSimilar(ctx context.Context, messageID string, limit int) ([]models.Source, error)
}

// QueryHandler answers a free-text question about the mailbox
// @Summary Ask a question about the mailbox
// @Description Routes the question to classification, temporal or semantic retrieval and returns a grounded answer with cited sources
// @Tags query
// @Accept json
// @Produce json
// @Param request body models.QueryRequest true "Question"
// @Success 200 {object} models.QueryResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/query [post]
func QueryHandler(engine QueryEngine, queryCache *cache.Cache, cacheTTL time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.QueryRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body: " + err.Error()})
		}

		if strings.TrimSpace(req.Question) == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "question cannot be empty"})
		}

		// Identical questions with default knobs share a cached answer
		cacheable := queryCache != nil && cacheTTL > 0 && req.TopK == 0 && req.Threshold == 0
		cacheKey := strings.ToLower(strings.TrimSpace(req.Question))
		if cacheable {
			if cached, ok := queryCache.Get(cacheKey); ok {
				return c.JSON(http.StatusOK, cached)
			}
		}

		result, err := engine.Query(c.Request().Context(), req.Question, req.TopK, req.Threshold)
		if err != nil {
			switch {
			case errors.Is(err, rag.ErrValidation):
				return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
			case errors.Is(err, rag.ErrProvider):
				return c.JSON(http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
			default:
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
			}
		}

		if cacheable {
			queryCache.Set(cacheKey, result, cacheTTL)
		}

		return c.JSON(http.StatusOK, result)
	}
}
