package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/repository"
)

type mockCustomers struct {
	mock.Mock
}

func (m *mockCustomers) CreateCustomer(ctx context.Context, params customer.CreateCustomerParams) (*customer.Customer, error) {
	args := m.Called(ctx, params)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *mockCustomers) GetCustomerByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *mockCustomers) GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*customer.Customer)
	return c, args.Error(1)
}

func (m *mockCustomers) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockOTPs struct {
	mock.Mock
}

func (m *mockOTPs) SaveOTP(ctx context.Context, email, code string, ttl time.Duration) error {
	return m.Called(ctx, email, code, ttl).Error(0)
}

func (m *mockOTPs) ConsumeOTP(ctx context.Context, email, code string) (bool, error) {
	args := m.Called(ctx, email, code)
	return args.Bool(0), args.Error(1)
}

// memorySessions keeps refresh hashes the way the Redis store does.
type memorySessions struct {
	hashes map[uuid.UUID]string
}

func (s *memorySessions) SaveSession(ctx context.Context, userID uuid.UUID, hash string, ttl time.Duration) error {
	s.hashes[userID] = hash
	return nil
}

func (s *memorySessions) RotateSession(ctx context.Context, userID uuid.UUID, oldHash, newHash string, ttl time.Duration) (bool, error) {
	if s.hashes[userID] != oldHash {
		return false, nil
	}
	s.hashes[userID] = newHash
	return true, nil
}

func (s *memorySessions) DeleteSession(ctx context.Context, userID uuid.UUID) error {
	delete(s.hashes, userID)
	return nil
}

type mockEmailQueue struct {
	mock.Mock
}

func (m *mockEmailQueue) EnqueueWelcomeEmail(ctx context.Context, to, fullName string) error {
	return m.Called(ctx, to, fullName).Error(0)
}

func (m *mockEmailQueue) EnqueueOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error {
	return m.Called(ctx, to, code, expiresIn).Error(0)
}

type authFixture struct {
	svc       *AuthService
	customers *mockCustomers
	otps      *mockOTPs
	sessions  *memorySessions
	emails    *mockEmailQueue
	tokens    *token.Manager
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:    "access-secret-0123456789",
		RefreshSecret:   "refresh-secret-0123456789",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		OTPTTL:          5 * time.Minute,
		OTPLength:       6,
		BcryptCost:      bcrypt.MinCost,
	}
}

func newAuthFixture() *authFixture {
	cfg := testAuthConfig()
	logger := zerolog.Nop()
	f := &authFixture{
		customers: new(mockCustomers),
		otps:      new(mockOTPs),
		sessions:  &memorySessions{hashes: map[uuid.UUID]string{}},
		emails:    new(mockEmailQueue),
		tokens:    token.NewManager(cfg),
	}
	f.svc = NewAuthService(f.customers, f.otps, f.sessions, f.emails, f.tokens, cfg, &logger)
	return f
}

func existingCustomer(t *testing.T, password string) *customer.Customer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	c := &customer.Customer{
		Email:        "an@citybus.vn",
		PasswordHash: string(hash),
		FullName:     "Nguyen Van An",
		Role:         customer.RoleCustomer,
	}
	c.ID = uuid.New()
	return c
}

func TestGenerateOTP(t *testing.T) {
	code, err := generateOTP(6)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestAuthService_SendOTP(t *testing.T) {
	f := newAuthFixture()

	var saved string
	f.otps.On("SaveOTP", mock.Anything, "an@citybus.vn", mock.AnythingOfType("string"), 5*time.Minute).
		Run(func(args mock.Arguments) { saved = args.String(2) }).
		Return(nil).Once()
	f.emails.On("EnqueueOTPEmail", mock.Anything, "an@citybus.vn", mock.AnythingOfType("string"), 5*time.Minute).
		Return(nil).Once()

	res, err := f.svc.SendOTP(context.Background(), "an@citybus.vn")
	require.NoError(t, err)

	assert.Equal(t, 300, res.ExpiresIn)
	assert.Len(t, saved, 6)
	f.emails.AssertCalled(t, "EnqueueOTPEmail", mock.Anything, "an@citybus.vn", saved, 5*time.Minute)
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture()
	payload := &customer.RegisterPayload{
		Email:    "an@citybus.vn",
		Password: "correct horse",
		FullName: "Nguyen Van An",
		OTP:      "123456",
	}

	created := existingCustomer(t, payload.Password)
	f.otps.On("ConsumeOTP", mock.Anything, payload.Email, payload.OTP).Return(true, nil).Once()
	f.customers.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(p customer.CreateCustomerParams) bool {
		return p.Email == payload.Email &&
			p.Role == customer.RoleCustomer &&
			bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(payload.Password)) == nil
	})).Return(created, nil).Once()
	f.emails.On("EnqueueWelcomeEmail", mock.Anything, created.Email, created.FullName).Return(nil).Once()

	res, err := f.svc.Register(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, created.ID, res.Customer.ID)
	claims, err := f.tokens.ParseAccess(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, string(customer.RoleCustomer), claims.Role)
	assert.Equal(t, token.Hash(res.Tokens.RefreshToken), f.sessions.hashes[created.ID])

	f.customers.AssertExpectations(t)
	f.emails.AssertExpectations(t)
}

func TestAuthService_Register_InvalidOTP(t *testing.T) {
	f := newAuthFixture()
	f.otps.On("ConsumeOTP", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Once()

	_, err := f.svc.Register(context.Background(), &customer.RegisterPayload{Email: "an@citybus.vn", OTP: "000000"})
	requireHTTPError(t, err, http.StatusBadRequest, "INVALID_OTP")
	f.customers.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	f := newAuthFixture()
	f.otps.On("ConsumeOTP", mock.Anything, mock.Anything, mock.Anything).Return(true, nil).Once()
	f.customers.On("CreateCustomer", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		TableName:      "customers",
		ConstraintName: repository.CustomerEmailConstraint,
	})).Once()

	_, err := f.svc.Register(context.Background(), &customer.RegisterPayload{
		Email: "an@citybus.vn", Password: "correct horse", FullName: "An", OTP: "123456",
	})
	requireHTTPError(t, err, http.StatusConflict, "EMAIL_ALREADY_REGISTERED")
}

func TestAuthService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		f := newAuthFixture()
		c := existingCustomer(t, "correct horse")
		f.customers.On("GetCustomerByEmail", mock.Anything, c.Email).Return(c, nil).Once()
		f.customers.On("TouchLastLogin", mock.Anything, c.ID).Return(nil).Once()

		res, err := f.svc.Login(context.Background(), &customer.LoginPayload{Email: c.Email, Password: "correct horse"})
		require.NoError(t, err)
		assert.NotNil(t, res.Customer.LastLoginAt)
		assert.Equal(t, "Bearer", res.Tokens.TokenType)
		assert.Contains(t, f.sessions.hashes, c.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture()
		c := existingCustomer(t, "correct horse")
		f.customers.On("GetCustomerByEmail", mock.Anything, c.Email).Return(c, nil).Once()

		_, err := f.svc.Login(context.Background(), &customer.LoginPayload{Email: c.Email, Password: "battery staple"})
		requireHTTPError(t, err, http.StatusUnauthorized, "INVALID_CREDENTIALS")
		assert.Empty(t, f.sessions.hashes)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture()
		f.customers.On("GetCustomerByEmail", mock.Anything, "ghost@citybus.vn").
			Return(nil, fmt.Errorf("table:customers: %w", pgx.ErrNoRows)).Once()

		_, err := f.svc.Login(context.Background(), &customer.LoginPayload{Email: "ghost@citybus.vn", Password: "whatever1"})
		requireHTTPError(t, err, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	})
}

func TestAuthService_Refresh(t *testing.T) {
	f := newAuthFixture()
	c := existingCustomer(t, "correct horse")
	f.customers.On("GetCustomerByEmail", mock.Anything, c.Email).Return(c, nil)
	f.customers.On("TouchLastLogin", mock.Anything, c.ID).Return(nil)
	f.customers.On("GetCustomerByID", mock.Anything, c.ID).Return(c, nil)

	login, err := f.svc.Login(context.Background(), &customer.LoginPayload{Email: c.Email, Password: "correct horse"})
	require.NoError(t, err)

	pair, err := f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.Tokens.RefreshToken, pair.RefreshToken)
	assert.Equal(t, token.Hash(pair.RefreshToken), f.sessions.hashes[c.ID])

	// The first refresh token has been rotated away.
	_, err = f.svc.Refresh(context.Background(), login.Tokens.RefreshToken)
	requireHTTPError(t, err, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")

	// An access token is not a refresh token.
	_, err = f.svc.Refresh(context.Background(), pair.AccessToken)
	requireHTTPError(t, err, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
}

func TestAuthService_Refresh_SubjectNotAUserID(t *testing.T) {
	f := newAuthFixture()
	cfg := testAuthConfig()

	now := time.Now()
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &token.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    token.Issuer,
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Type: token.TypeRefresh,
	}).SignedString([]byte(cfg.RefreshSecret))
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), forged)
	requireHTTPError(t, err, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
	f.customers.AssertNotCalled(t, "GetCustomerByID", mock.Anything, mock.Anything)
	assert.Empty(t, f.sessions.hashes)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture()
	c := existingCustomer(t, "correct horse")
	f.customers.On("GetCustomerByID", mock.Anything, c.ID).Return(c, nil)

	pair, err := f.tokens.Issue(subjectOf(c))
	require.NoError(t, err)
	require.NoError(t, f.sessions.SaveSession(context.Background(), c.ID, token.Hash(pair.RefreshToken), time.Hour))

	require.NoError(t, f.svc.Logout(context.Background(), c.ID))
	assert.NotContains(t, f.sessions.hashes, c.ID)

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	requireHTTPError(t, err, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN")
}
