// Package repository holds the SQL and Redis access of the application.
//
// Repositories return driver errors wrapped with %w so callers can inspect
// them with errors.Is / errors.As (pgx.ErrNoRows, *pgconn.PgError).
package repository

import (
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

type Repositories struct {
	Province *ProvinceRepository
	Customer *CustomerRepository
	OTP      *OTPRepository
	Session  *SessionRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Province: NewProvinceRepository(s),
		Customer: NewCustomerRepository(s),
		OTP:      NewOTPRepository(s.Redis),
		Session:  NewSessionRepository(s.Redis),
	}
}
