package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/handler"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/lib/token"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/model/customer"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/server"
	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/service"
)

type countingSource struct {
	fetches int
}

func (s *countingSource) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	s.fetches++
	return []json.RawMessage{}, nil
}

func newTestRouter(t *testing.T) (*echo.Echo, *countingSource, *token.Manager) {
	t.Helper()

	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server: config.ServerConfig{
				CORSAllowedOrigins: []string{"http://localhost:3000"},
				RateLimit:          config.RateLimitConfig{Rate: 10, Burst: 10, ExpiresIn: time.Minute},
			},
			Auth: config.AuthConfig{
				AccessSecret:    "access-secret-0123456789",
				RefreshSecret:   "refresh-secret-0123456789",
				AccessTokenTTL:  15 * time.Minute,
				RefreshTokenTTL: time.Hour,
			},
			Observability: config.DefaultObservabilityConfig(),
		},
		Logger: &logger,
	}

	source := &countingSource{}
	services := &service.Services{
		ProvinceImport: service.NewProvinceImporter(source, nil, service.ImportOptions{ActingUserID: uuid.New()}, &logger),
	}

	return NewRouter(s, handler.NewHandlers(s, services)), source, token.NewManager(s.Config.Auth)
}

func bearer(t *testing.T, tokens *token.Manager, role customer.Role) string {
	t.Helper()
	pair, err := tokens.Issue(token.Subject{UserID: uuid.New(), Email: "x@citybus.vn", Role: string(role)})
	require.NoError(t, err)
	return "Bearer " + pair.AccessToken
}

func send(e *echo.Echo, method, target, authorization, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCrawlRoute_RequiresStaff(t *testing.T) {
	e, source, tokens := newTestRouter(t)

	refresh, err := tokens.Issue(token.Subject{UserID: uuid.New(), Role: string(customer.RoleStaff)})
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{name: "no token", authorization: "", want: http.StatusUnauthorized},
		{name: "malformed header", authorization: "Token abc", want: http.StatusUnauthorized},
		{name: "refresh token", authorization: "Bearer " + refresh.RefreshToken, want: http.StatusUnauthorized},
		{name: "customer", authorization: bearer(t, tokens, customer.RoleCustomer), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := send(e, http.MethodPost, "/api/v1/province/crawl", tt.authorization, "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Zero(t, source.fetches, "rejected requests must not start an import")
}

func TestCrawlRoute_StaffRunsImport(t *testing.T) {
	e, source, tokens := newTestRouter(t)

	for _, role := range []customer.Role{customer.RoleStaff, customer.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			rec := send(e, http.MethodPost, "/api/v1/province/crawl", bearer(t, tokens, role), "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"totalSeen":0,"succeeded":0,"failed":0,"failures":[]}`, rec.Body.String())
		})
	}

	assert.Equal(t, 2, source.fetches)
}

func TestProvinceWriteRoutes_RejectCustomers(t *testing.T) {
	e, _, tokens := newTestRouter(t)
	customerToken := bearer(t, tokens, customer.RoleCustomer)

	routes := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/api/v1/province", `{"name":"Hanoi","codename":"ha_noi","code":1,"type":"tỉnh"}`},
		{http.MethodPatch, "/api/v1/province/code/1", `{"name":"Ha Noi"}`},
		{http.MethodDelete, "/api/v1/province/code/1", ""},
		{http.MethodDelete, "/api/v1/province/multiple/code", `{"codes":[1,2]}`},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.target, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, send(e, r.method, r.target, "", r.body).Code)
			assert.Equal(t, http.StatusForbidden, send(e, r.method, r.target, customerToken, r.body).Code)
		})
	}
}

func TestCrawlRoute_GetDoesNotImport(t *testing.T) {
	e, source, tokens := newTestRouter(t)

	rec := send(e, http.MethodGet, "/api/v1/province/crawl", bearer(t, tokens, customer.RoleStaff), "")
	assert.Contains(t, []int{http.StatusNotFound, http.StatusMethodNotAllowed}, rec.Code)
	assert.Zero(t, source.fetches)
}
