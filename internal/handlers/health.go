package handlers

import (
	"context"
	"net/http"
	"time"

	"mailmind/internal/database"
	"mailmind/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
)

// HealthHandler returns the service health status
// @Summary Health check
// @Description Returns service health status
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func HealthHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Version:   version,
		})
	}
}

// DBHealthHandler checks database connectivity
// @Summary Database health check
// @Description Returns database connectivity status and latency
// @Tags health
// @Produce json
// @Success 200 {object} models.DBHealthResponse
// @Failure 503 {object} models.DBHealthResponse
// @Router /healthz/db [get]
func DBHealthHandler(db *sqlx.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return c.JSON(http.StatusServiceUnavailable, models.DBHealthResponse{
				Status:    "unhealthy",
				Timestamp: time.Now().UTC(),
				Connected: false,
				Error:     "Database connection not initialized",
			})
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		start := time.Now()
		err := database.ExecuteReadOnlyPing(ctx, db)
		latency := time.Since(start)

		if err != nil {
			return c.JSON(http.StatusServiceUnavailable, models.DBHealthResponse{
				Status:    "unhealthy",
				Timestamp: time.Now().UTC(),
				Connected: false,
				Latency:   latency,
				Error:     "Database read-only query failed: " + err.Error(),
			})
		}

		return c.JSON(http.StatusOK, models.DBHealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC(),
			Connected: true,
			Latency:   latency,
		})
	}
}

// RootHandler returns basic service information
// @Summary Service information
// @Description Returns service name, version and status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/ [get]
func RootHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "mailmind API",
			"version": version,
			"status":  "running",
		})
	}
}
