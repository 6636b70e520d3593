package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/period"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/service"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/settings"
	"github.com/31triplefirstfood-stack/nailsandbrows/internal/store"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api, _ := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}

func TestMiddlewareGeneratesRequestID(t *testing.T) {
	api, _ := newTestAPI(t, nil)

	rec := doJSON(t, api.Handler(), http.MethodGet, "/healthz", "", nil)

	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestPreflightReturnsNoContent(t *testing.T) {
	api, _ := newTestAPI(t, nil)

	rec := doJSON(t, api.Handler(), http.MethodOptions, "/api/v1/reports/aggregate", "", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api, _ := newTestAPI(t, nil)
	handler := api.Handler()

	for i := 0; i < 5; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: "bad"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: testAdminPassword})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api, _ := newTestAPI(t, nil)

	payload := `{"username":"admin","password":"` + strings.Repeat("a", 1<<20+16) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownJSONFieldsRejected(t *testing.T) {
	api, _ := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"username":"admin","password":"x","pin":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	api.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: month 13", period.ErrInvalidPeriod), http.StatusBadRequest},
		{fmt.Errorf("%w: negative", settings.ErrInvalidSettings), http.StatusBadRequest},
		{fmt.Errorf("%w: admin role required", service.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("fetch transactions: %w", store.ErrUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestAttemptLimiterIsPerClient(t *testing.T) {
	limiter := newAttemptLimiter(1, 0)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
}

func TestClientKeyStripsPort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:51234"
	assert.Equal(t, "192.0.2.10", clientKey(req))

	req.RemoteAddr = "[2001:db8::1]:443"
	assert.Equal(t, "2001:db8::1", clientKey(req))

	req.RemoteAddr = ""
	assert.Equal(t, "unknown", clientKey(req))
}
