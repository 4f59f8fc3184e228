package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stock-risk-alerts/internal/forecast"
	"stock-risk-alerts/internal/logging"
)

// Dashboarder produces the alert records for a location.
type Dashboarder interface {
	GetDashboard(ctx context.Context, locationID int) ([]forecast.AlertRecord, error)
}

// DashboardResponse is the JSON body of the dashboard endpoint.
type DashboardResponse struct {
	LocationID int                    `json:"location_id"`
	Records    []forecast.AlertRecord `json:"records"`
}

type handler struct {
	engine Dashboarder
	logger zerolog.Logger
}

// NewRouter builds the HTTP routes around the dashboard engine. An empty
// allowedOrigins list allows every origin.
func NewRouter(engine Dashboarder, allowedOrigins []string, logger zerolog.Logger) (*gin.Engine, error) {
	if engine == nil {
		return nil, errors.New("api: dashboard engine is nil")
	}
	logger = logging.Component(logger, "api")

	router := gin.New()
	router.Use(requestLogger(logger), recovery(logger), corsMiddleware(allowedOrigins))

	h := &handler{engine: engine, logger: logger}
	router.GET("/health", h.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/locations/:id/dashboard", h.dashboard)
	}

	return router, nil
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) dashboard(c *gin.Context) {
	locationID, err := strconv.Atoi(c.Param("id"))
	if err != nil || locationID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location id must be a positive integer"})
		return
	}

	records, err := h.engine.GetDashboard(c.Request.Context(), locationID)
	if err != nil {
		h.logger.Error().Err(err).Int("location_id", locationID).Msg("dashboard failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard unavailable"})
		return
	}
	if records == nil {
		records = []forecast.AlertRecord{}
	}

	c.JSON(http.StatusOK, DashboardResponse{LocationID: locationID, Records: records})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Accept", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowedOrigins
	}
	return cors.New(cfg)
}
