// Package service holds the business logic between handlers and
// repositories.
package service

import (
	"github.com/google/uuid"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/job"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/provinces"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/repository"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

type Services struct {
	Auth           *AuthService
	Province       *ProvinceService
	ProvinceImport *ProvinceImporter
	Job            *job.JobService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	actingUserID, err := uuid.Parse(s.Config.Import.ActingUserID)
	if err != nil {
		return nil, err
	}

	provinceService := NewProvinceService(repos.Province, s.Job, s.Logger)

	importer := NewProvinceImporter(
		provinces.NewClient(s.Config.Import.SourceURL, s.Config.Import.FetchTimeout),
		provinceService,
		ImportOptions{
			ActingUserID: actingUserID,
			Concurrency:  s.Config.Import.Concurrency,
		},
		s.Logger,
	)

	authService := NewAuthService(
		repos.Customer,
		repos.OTP,
		repos.Session,
		s.Job,
		token.NewManager(s.Config.Auth),
		s.Config.Auth,
		s.Logger,
	)

	return &Services{
		Auth:           authService,
		Province:       provinceService,
		ProvinceImport: importer,
		Job:            s.Job,
	}, nil
}
