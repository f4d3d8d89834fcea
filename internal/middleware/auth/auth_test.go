package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var testSecret = []byte("test-session-secret")

func newRouter() *echo.Echo {
	e := echo.New()
	mw := NewSessionMiddleware(testSecret)
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"id": UserID(c), "role": Role(c)})
	}, mw.RequireAuth)
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, mw.RequireAdmin)
	return e
}

func sessionCookie(t *testing.T, id uint, role models.Role) *http.Cookie {
	t.Helper()
	tok, err := tokens.NewSession(testSecret, id, role)
	require.NoError(t, err)
	return &http.Cookie{Name: tokens.CookieName, Value: tok}
}

func TestRequireAuth(t *testing.T) {
	e := newRouter()

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   int
	}{
		{name: "no cookie", want: http.StatusUnauthorized},
		{name: "garbage cookie", cookie: &http.Cookie{Name: tokens.CookieName, Value: "x.y.z"}, want: http.StatusUnauthorized},
		{name: "customer", cookie: sessionCookie(t, 7, models.RoleCustomer), want: http.StatusOK},
		{name: "unknown role", cookie: sessionCookie(t, 7, models.Role("ROOT")), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAuth_SetsIdentity(t *testing.T) {
	e := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(sessionCookie(t, 7, models.RoleCustomer))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"CUSTOMER"}`, rec.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	e := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, 7, models.RoleCustomer))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(sessionCookie(t, 1, models.RoleAdmin))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
