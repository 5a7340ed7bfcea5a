package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/errs"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/repository"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/sqlerr"
)

type customerRepository interface {
	CreateCustomer(ctx context.Context, params customer.CreateCustomerParams) (*customer.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*customer.Customer, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}

type otpRepository interface {
	SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error
	ConsumeOTP(ctx context.Context, email, code string) (bool, error)
}

type sessionRepository interface {
	SaveSession(ctx context.Context, userID uuid.UUID, tokenHash string, ttl time.Duration) error
	RotateSession(ctx context.Context, userID uuid.UUID, oldHash, newHash string, ttl time.Duration) (bool, error)
	DeleteSession(ctx context.Context, userID uuid.UUID) error
}

type emailQueue interface {
	EnqueueWelcomeEmail(ctx context.Context, to, fullName string) error
	EnqueueOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error
}

type AuthService struct {
	customers customerRepository
	otps      otpRepository
	sessions  sessionRepository
	emails    emailQueue
	tokens    *token.Manager
	cfg       config.AuthConfig
	logger    *zerolog.Logger

	// dummyHash is compared against when the email is unknown so both
	// failure paths of Login cost one bcrypt comparison.
	dummyHash []byte
}

func NewAuthService(
	customers customerRepository,
	otps otpRepository,
	sessions sessionRepository,
	emails emailQueue,
	tokens *token.Manager,
	cfg config.AuthConfig,
	logger *zerolog.Logger,
) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("citybus-dummy-password"), cfg.BcryptCost)

	return &AuthService{
		customers: customers,
		otps:      otps,
		sessions:  sessions,
		emails:    emails,
		tokens:    tokens,
		cfg:       cfg,
		logger:    logger,
		dummyHash: dummy,
	}
}

func invalidCredentials() *errs.HTTPError {
	e := errs.NewUnauthorizedError("Invalid email or password", true)
	e.Code = "INVALID_CREDENTIALS"
	return e
}

func invalidSession() *errs.HTTPError {
	e := errs.NewUnauthorizedError("Session is no longer valid, please log in again", true)
	e.Code = "INVALID_REFRESH_TOKEN"
	e.Action = &errs.Action{
		Type:    errs.ActionTypeReauthenticate,
		Message: "Log in again",
	}
	return e
}

// SendOTP generates a registration code for email, replacing any previous
// one, and queues its delivery.
func (s *AuthService) SendOTP(ctx context.Context, email string) (*customer.SendOTPResponse, error) {
	code, err := generateOTP(s.cfg.OTPLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate otp: %w", err)
	}

	if err := s.otps.SaveOTP(ctx, email, code, s.cfg.OTPTTL); err != nil {
		return nil, err
	}

	if err := s.emails.EnqueueOTPEmail(ctx, email, code, s.cfg.OTPTTL); err != nil {
		return nil, fmt.Errorf("failed to enqueue otp email: %w", err)
	}

	s.logger.Info().Str("event", "otp_sent").Str("email", email).Msg("otp issued")

	return &customer.SendOTPResponse{
		Message:   "A verification code has been sent to your email",
		ExpiresIn: int(s.cfg.OTPTTL.Seconds()),
	}, nil
}

// Register creates a customer account after checking the emailed code.
func (s *AuthService) Register(ctx context.Context, payload *customer.RegisterPayload) (*customer.AuthResponse, error) {
	ok, err := s.otps.ConsumeOTP(ctx, payload.Email, payload.OTP)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NewBadRequestError("Invalid or expired verification code", true, errs.Code("INVALID_OTP"),
			[]errs.FieldError{{Field: "otp", Error: "is invalid or expired"}}, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	c, err := s.customers.CreateCustomer(ctx, customer.CreateCustomerParams{
		Email:        payload.Email,
		PasswordHash: string(hash),
		FullName:     payload.FullName,
		Phone:        payload.Phone,
		Role:         customer.RoleCustomer,
	})
	if err != nil {
		if sqlerr.IsUniqueViolation(err, repository.CustomerEmailConstraint) {
			return nil, errs.NewConflictError("An account with this email already exists", true, errs.Code("EMAIL_ALREADY_REGISTERED"))
		}
		return nil, err
	}

	tokens, err := s.startSession(ctx, c)
	if err != nil {
		return nil, err
	}

	// A lost welcome email is not worth failing the registration for.
	if err := s.emails.EnqueueWelcomeEmail(ctx, c.Email, c.FullName); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", c.ID.String()).Msg("failed to enqueue welcome email")
	}

	s.logger.Info().Str("event", "customer_registered").Str("customer_id", c.ID.String()).Msg("customer registered")

	return &customer.AuthResponse{Customer: c, Tokens: tokens}, nil
}

// Login checks email and password. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, payload *customer.LoginPayload) (*customer.AuthResponse, error) {
	c, err := s.customers.GetCustomerByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(payload.Password))
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(payload.Password)); err != nil {
		s.logger.Warn().Str("event", "login_failed").Str("customer_id", c.ID.String()).Msg("wrong password")
		return nil, invalidCredentials()
	}

	tokens, err := s.startSession(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := s.customers.TouchLastLogin(ctx, c.ID); err != nil {
		s.logger.Warn().Err(err).Str("customer_id", c.ID.String()).Msg("failed to record last login")
	} else {
		now := time.Now()
		c.LastLoginAt = &now
	}

	return &customer.AuthResponse{Customer: c, Tokens: tokens}, nil
}

// Logout ends the customer's refresh session. Access tokens already issued
// stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.DeleteSession(ctx, userID)
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// be the current one of the session; it cannot be used twice.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, invalidSession()
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, invalidSession()
	}

	c, err := s.customers.GetCustomerByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invalidSession()
		}
		return nil, err
	}

	pair, err := s.tokens.Issue(subjectOf(c))
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	rotated, err := s.sessions.RotateSession(ctx, userID, token.Hash(refreshToken), token.Hash(pair.RefreshToken), s.tokens.RefreshTTL())
	if err != nil {
		return nil, err
	}
	if !rotated {
		s.logger.Warn().Str("event", "refresh_rejected").Str("customer_id", userID.String()).Msg("refresh token is not the live session")
		return nil, invalidSession()
	}

	return &pair, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*customer.Customer, error) {
	return s.customers.GetCustomerByID(ctx, userID)
}

func (s *AuthService) startSession(ctx context.Context, c *customer.Customer) (token.Pair, error) {
	pair, err := s.tokens.Issue(subjectOf(c))
	if err != nil {
		return token.Pair{}, fmt.Errorf("failed to issue tokens: %w", err)
	}

	if err := s.sessions.SaveSession(ctx, c.ID, token.Hash(pair.RefreshToken), s.tokens.RefreshTTL()); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

func subjectOf(c *customer.Customer) token.Subject {
	return token.Subject{UserID: c.ID, Email: c.Email, Role: string(c.Role)}
}

// generateOTP returns a uniformly random numeric code of n digits.
func generateOTP(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}
