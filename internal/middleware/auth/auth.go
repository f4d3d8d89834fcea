package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	sessionKey = "session"
	userIDKey  = "user_id"
	roleKey    = "role"
)

type SessionMiddleware struct {
	verify echo.MiddlewareFunc
}

func NewSessionMiddleware(secret []byte) *SessionMiddleware {
	return &SessionMiddleware{
		verify: echojwt.WithConfig(echojwt.Config{
			SigningMethod: "HS256",
			ContextKey:    sessionKey,
			TokenLookup:   "cookie:" + tokens.CookieName,
			KeyFunc:       tokens.KeyFunc(secret),
			NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.SessionClaims) },
			ErrorHandler: func(c echo.Context, err error) error {
				logging.FromContext(c.Request().Context()).Warn("session_rejected", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			},
		}),
	}
}

func (m *SessionMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(setIdentity(next))
}

func (m *SessionMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.verify(setIdentity(func(c echo.Context) error {
		if Role(c) != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}))
}

func setIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tok, ok := c.Get(sessionKey).(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		claims, ok := tok.Claims.(*tokens.SessionClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		id, err := claims.UserID()
		if err != nil || id == 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		if claims.Role != models.RoleAdmin && claims.Role != models.RoleCustomer {
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}

		c.Set(userIDKey, id)
		c.Set(roleKey, claims.Role)

		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("user_id", id, "role", string(claims.Role))
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l)))
		return next(c)
	}
}

func UserID(c echo.Context) uint {
	id, _ := c.Get(userIDKey).(uint)
	return id
}

func Role(c echo.Context) models.Role {
	r, _ := c.Get(roleKey).(models.Role)
	return r
}

func IsAdmin(c echo.Context) bool {
	return Role(c) == models.RoleAdmin
}
