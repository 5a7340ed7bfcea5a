// Package token issues and verifies the HS256 access and refresh tokens of
// the customer auth flow.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Issuer is written to the iss claim of every token.
const Issuer = "citybus"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims are the custom claims carried by both token types.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	Type  Type   `json:"typ"`
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Pair is returned to clients after login, register and refresh.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// Subject identifies who a pair is issued for.
type Subject struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

// RefreshTTL is how long a refresh session must be kept.
func (m *Manager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue signs a new access/refresh pair for s.
func (m *Manager) Issue(s Subject) (Pair, error) {
	now := m.now()

	access := &Claims{
		RegisteredClaims: m.registered(s.UserID, now, m.accessTTL),
		Email:            s.Email,
		Role:             s.Role,
		Type:             TypeAccess,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(m.accessSecret)
	if err != nil {
		return Pair{}, err
	}

	// The refresh token only identifies the user; role and email are read
	// fresh from the database on refresh.
	refresh := &Claims{
		RegisteredClaims: m.registered(s.UserID, now, m.refreshTTL),
		Type:             TypeRefresh,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(m.refreshSecret)
	if err != nil {
		return Pair{}, err
	}

	return Pair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.accessTTL.Seconds()),
	}, nil
}

func (m *Manager) registered(userID uuid.UUID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    Issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// ParseAccess verifies an access token.
func (m *Manager) ParseAccess(tokenString string) (*Claims, error) {
	return m.parse(tokenString, m.accessSecret, TypeAccess)
}

// ParseRefresh verifies a refresh token. It does not check that the token is
// the current session; callers compare Hash(tokenString) with the stored one.
func (m *Manager) ParseRefresh(tokenString string) (*Claims, error) {
	return m.parse(tokenString, m.refreshSecret, TypeRefresh)
}

func (m *Manager) parse(tokenString string, secret []byte, expected Type) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.Type != expected {
		return nil, ErrInvalidTokenType
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Hash returns the hex SHA-256 of a token, the form refresh sessions are
// stored in.
func Hash(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
