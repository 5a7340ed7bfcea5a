package middleware

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/errs"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
)

// AuthMiddleware verifies bearer access tokens and enforces roles.
type AuthMiddleware struct {
	server *server.Server
	tokens *token.Manager
}

func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		tokens: token.NewManager(s.Config.Auth),
	}
}

// RequireAuth rejects the request with 401 unless it carries a valid access
// token. On success the user id, role and email are stored on the echo
// context and added to the request logger.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			GetLogger(c).Warn().
				Str("function", "RequireAuth").
				Dur("duration", time.Since(start)).
				Msg("missing bearer token")
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		claims, err := auth.tokens.ParseAccess(raw)
		if err != nil {
			GetLogger(c).Warn().
				Err(err).
				Str("function", "RequireAuth").
				Dur("duration", time.Since(start)).
				Msg("rejected access token")

			if errors.Is(err, token.ErrExpiredToken) {
				httpErr := errs.NewUnauthorizedError("Access token has expired", true)
				httpErr.Code = "TOKEN_EXPIRED"
				return httpErr
			}
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(UserRoleKey, claims.Role)
		c.Set(UserEmailKey, claims.Email)

		// The request logger was built before authentication ran.
		logger := GetLogger(c).With().
			Str("user_id", claims.Subject).
			Str("user_role", claims.Role).
			Logger()
		c.Set(LoggerKey, &logger)

		logger.Debug().
			Str("function", "RequireAuth").
			Dur("duration", time.Since(start)).
			Msg("user authenticated successfully")

		return next(c)
	}
}

// RequireRole allows the request only when the authenticated user has one of
// roles. It must run after RequireAuth.
func (auth *AuthMiddleware) RequireRole(roles ...customer.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := customer.Role(GetUserRole(c))
			if role == "" {
				return errs.NewUnauthorizedError("Unauthorized", false)
			}
			if !slices.Contains(roles, role) {
				GetLogger(c).Warn().
					Str("function", "RequireRole").
					Str("role", string(role)).
					Msg("insufficient role")
				return errs.NewForbiddenError("You do not have permission to perform this action", true)
			}
			return next(c)
		}
	}
}

// RequireStaff allows staff and admins.
func (auth *AuthMiddleware) RequireStaff() echo.MiddlewareFunc {
	return auth.RequireRole(customer.RoleStaff, customer.RoleAdmin)
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
