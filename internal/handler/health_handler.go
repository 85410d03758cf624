package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports database and cache reachability.
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler creates a new health handler. cache may be nil.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
	Cache    string `json:"cache" example:"ok"`
}

// Check godoc
// @Summary Health check
// @Description Returns 503 when the database is unreachable. An unreachable cache only degrades the status.
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /healthz [get]
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok", Cache: "ok"}
	if h.cache == nil || h.cache.Ping(ctx) != nil {
		resp.Status = "degraded"
		resp.Cache = "unavailable"
	}
	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Database = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
