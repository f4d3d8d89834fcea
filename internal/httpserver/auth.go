package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc           *service.AuthService
	SessionSecret []byte
	CookieSecure  bool
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "login_error", err)
	}

	user, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	token, err := tokens.NewSession(h.SessionSecret, user.ID, user.Role)
	if err != nil {
		return fail(l, "login_error", err)
	}
	c.SetCookie(tokens.CreateCookie(tokens.CookieName, token, "/", h.CookieSecure))

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.LoginResponse{
		Message: "Login successfully",
		User:    transport.UserSummary{ID: user.ID, Name: user.Name, Role: user.Role},
	})
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.signup")

	var req transport.SignupRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "signup_error", err)
	}

	user, err := h.Svc.Signup(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "signup_error", err)
	}

	l.Info("signup_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.SignupResponse{
		Message: "User Registered successfully",
		UserID:  user.ID,
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	a := actor(c)
	user, err := h.Svc.GetContact(ctx, a, a.UserID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewContact(user))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(tokens.DeleteCookie(tokens.CookieName, "/", h.CookieSecure))
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out"})
}

func (h *AuthHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.get")

	id, ok := parseID(c.Param("id"))
	if !ok {
		l.Warn("get_user_error", "status", 400, "reason", "invalid user id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	user, err := h.Svc.GetContact(ctx, actor(c), id)
	if err != nil {
		return fail(l, "get_user_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewContact(user))
}

func (h *AuthHTTP) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_address")

	var req transport.UpdateAddressRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "update_address_error", err)
	}

	user, err := h.Svc.UpdateContact(ctx, actor(c), req.UserID, req.Address, req.Phone)
	if err != nil {
		return fail(l, "update_address_error", err)
	}

	l.Info("update_address_success")
	return c.JSON(http.StatusOK, map[string]any{
		"user_id": user.ID,
		"address": user.Address,
		"phone":   user.Phone,
	})
}
