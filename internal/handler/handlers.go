package handler

import (
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/service"
)

type Handlers struct {
	Health   *HealthHandler
	OpenAPI  *OpenAPIHandler
	Email    *EmailHandler
	Auth     *AuthHandler
	Province *ProvinceHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		OpenAPI:  NewOpenAPIHandler(s),
		Email:    NewEmailHandler(s),
		Auth:     NewAuthHandler(s, services.Auth),
		Province: NewProvinceHandler(s, services.Province, services.ProvinceImport),
	}
}
