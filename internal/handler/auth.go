package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/service"
)

type AuthHandler struct {
	Handler
	authService *service.AuthService
}

func NewAuthHandler(s *server.Server, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		Handler:     NewHandler(s),
		authService: authService,
	}
}

func (h *AuthHandler) SendOTP(c echo.Context, payload *customer.SendOTPPayload) (*customer.SendOTPResponse, error) {
	return h.authService.SendOTP(c.Request().Context(), payload.Email)
}

func (h *AuthHandler) Register(c echo.Context, payload *customer.RegisterPayload) (*customer.AuthResponse, error) {
	return h.authService.Register(c.Request().Context(), payload)
}

func (h *AuthHandler) Login(c echo.Context, payload *customer.LoginPayload) (*customer.AuthResponse, error) {
	return h.authService.Login(c.Request().Context(), payload)
}

func (h *AuthHandler) Logout(c echo.Context, _ *customer.EmptyPayload) (*customer.MessageResponse, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}

	if err := h.authService.Logout(c.Request().Context(), userID); err != nil {
		return nil, err
	}
	return &customer.MessageResponse{Message: "Logged out"}, nil
}

func (h *AuthHandler) Refresh(c echo.Context, payload *customer.RefreshPayload) (*token.Pair, error) {
	return h.authService.Refresh(c.Request().Context(), payload.RefreshToken)
}

func (h *AuthHandler) Profile(c echo.Context, _ *customer.EmptyPayload) (*customer.Customer, error) {
	userID, err := actingUser(c)
	if err != nil {
		return nil, err
	}
	return h.authService.Profile(c.Request().Context(), userID)
}
