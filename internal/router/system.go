package router

import (
	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/handler"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)
	r.Static("/static", "static")
	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)

	if s.Config.IsLocal() {
		r.GET("/dev/email/:template", h.Email.Preview)
	}
}
