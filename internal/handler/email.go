package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/errs"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/email"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

// EmailHandler renders email templates with sample data. It is only routed
// in the local environment.
type EmailHandler struct {
	Handler
}

func NewEmailHandler(s *server.Server) *EmailHandler {
	return &EmailHandler{
		Handler: NewHandler(s),
	}
}

func (h *EmailHandler) Preview(c echo.Context) error {
	html, err := email.Preview(c.Param("template"))
	if err != nil {
		return errs.NewNotFoundError("Unknown email template", true, nil)
	}
	return c.HTML(http.StatusOK, html)
}
