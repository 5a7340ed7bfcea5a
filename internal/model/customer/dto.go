package customer

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
)

// ------------------------------------------------------------

type SendOTPPayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

func (p *SendOTPPayload) Validate() error {
	validate := validator.New()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return validate.Struct(p)
}

type SendOTPResponse struct {
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

// ------------------------------------------------------------

type RegisterPayload struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	FullName string  `json:"full_name" validate:"required,min=1,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
	OTP      string  `json:"otp" validate:"required,numeric,min=4,max=10"`
}

func (p *RegisterPayload) Validate() error {
	validate := validator.New()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)
	return validate.Struct(p)
}

// ------------------------------------------------------------

type LoginPayload struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=72"`
}

func (p *LoginPayload) Validate() error {
	validate := validator.New()
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	return validate.Struct(p)
}

// ------------------------------------------------------------

type RefreshPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (p *RefreshPayload) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}

// ------------------------------------------------------------

// EmptyPayload is used by endpoints that take no input.
type EmptyPayload struct{}

func (p *EmptyPayload) Validate() error {
	return nil
}

// ------------------------------------------------------------

type AuthResponse struct {
	Customer *Customer  `json:"customer"`
	Tokens   token.Pair `json:"tokens"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
