// Package router builds the Echo instance: global middleware, the error
// handler and every route group.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/handler"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/middleware"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/province"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, s, h)

	v1 := router.Group("/api/v1")
	registerAuthRoutes(v1, h, middlewares)
	registerProvinceRoutes(v1, h, middlewares)

	return router
}

func registerAuthRoutes(r *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	auth := r.Group("/auth/user")

	auth.POST("/send-otp", handler.Handle(h.Auth.Handler, h.Auth.SendOTP, http.StatusOK, &customer.SendOTPPayload{}),
		m.RateLimit.Limit("send_otp"))
	auth.POST("/register", handler.Handle(h.Auth.Handler, h.Auth.Register, http.StatusCreated, &customer.RegisterPayload{}),
		m.RateLimit.Limit("register"))
	auth.POST("/login", handler.Handle(h.Auth.Handler, h.Auth.Login, http.StatusOK, &customer.LoginPayload{}),
		m.RateLimit.Limit("login"))
	auth.POST("/refresh", handler.Handle(h.Auth.Handler, h.Auth.Refresh, http.StatusOK, &customer.RefreshPayload{}))

	authed := auth.Group("", m.Auth.RequireAuth)
	authed.POST("/logout", handler.Handle(h.Auth.Handler, h.Auth.Logout, http.StatusOK, &customer.EmptyPayload{}))
	authed.GET("/profile", handler.Handle(h.Auth.Handler, h.Auth.Profile, http.StatusOK, &customer.EmptyPayload{}))
}

func registerProvinceRoutes(r *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	p := h.Province
	provinces := r.Group("/province")

	provinces.GET("", handler.Handle(p.Handler, p.GetProvinces, http.StatusOK, &province.GetProvincesQuery{}))
	provinces.GET("/id/:id", handler.Handle(p.Handler, p.GetProvinceByID, http.StatusOK, &province.GetProvinceByIDPayload{}))
	provinces.GET("/code/:code", handler.Handle(p.Handler, p.GetProvinceByCode, http.StatusOK, &province.GetProvinceByCodePayload{}))

	staff := provinces.Group("", m.Auth.RequireAuth, m.Auth.RequireStaff())
	staff.POST("", handler.Handle(p.Handler, p.CreateProvince, http.StatusCreated, &province.CreateProvincePayload{}))
	staff.POST("/crawl", handler.HandleWithStatus(p.Handler, p.CrawlProvinces, &province.CrawlProvincesPayload{}))
	staff.PATCH("/id/:id", handler.Handle(p.Handler, p.UpdateProvinceByID, http.StatusOK, &province.UpdateProvinceByIDPayload{}))
	staff.PATCH("/code/:code", handler.Handle(p.Handler, p.UpdateProvinceByCode, http.StatusOK, &province.UpdateProvinceByCodePayload{}))
	staff.DELETE("/id/:id", handler.HandleNoContent(p.Handler, p.DeleteProvinceByID, http.StatusNoContent, &province.DeleteProvinceByIDPayload{}))
	staff.DELETE("/code/:code", handler.HandleNoContent(p.Handler, p.DeleteProvinceByCode, http.StatusNoContent, &province.DeleteProvinceByCodePayload{}))
	staff.DELETE("/multiple/id", handler.Handle(p.Handler, p.DeleteProvincesByIDs, http.StatusOK, &province.DeleteProvincesByIDsPayload{}))
	staff.DELETE("/multiple/code", handler.Handle(p.Handler, p.DeleteProvincesByCodes, http.StatusOK, &province.DeleteProvincesByCodesPayload{}))
}
