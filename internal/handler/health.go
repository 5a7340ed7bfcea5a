package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/middleware"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type dependencyCheck struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                     `json:"status"`
	Timestamp   time.Time                  `json:"timestamp"`
	Environment string                     `json:"environment"`
	Checks      map[string]dependencyCheck `json:"checks"`
}

// CheckHealth answers 200 when every configured dependency responds, 503
// otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      map[string]dependencyCheck{},
	}

	cfg := h.server.Config.Observability.HealthChecks
	if !cfg.Enabled {
		return c.JSON(http.StatusOK, response)
	}

	probes := map[string]func(ctx context.Context) error{
		"database": h.server.DB.Ping,
		"redis": func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		},
	}

	for _, name := range cfg.Checks {
		probe, ok := probes[name]
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
		probeStart := time.Now()
		err := probe(ctx)
		cancel()

		check := dependencyCheck{Status: "healthy", ResponseTime: time.Since(probeStart).String()}
		if err != nil {
			check.Status = "unhealthy"
			check.Error = err.Error()
			response.Status = "unhealthy"

			logger.Error().Err(err).Str("check", name).Msg("health check failed")
			h.recordFailure(name, err, time.Since(probeStart))
		}
		response.Checks[name] = check
	}

	if response.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("service unhealthy")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordFailure(check string, err error, elapsed time.Duration) {
	if app := h.server.LoggerService.GetApplication(); app != nil {
		app.RecordCustomEvent("HealthCheckError", map[string]any{
			"check_type":       check,
			"error_message":    err.Error(),
			"response_time_ms": elapsed.Milliseconds(),
		})
	}
}
