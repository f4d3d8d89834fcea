package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	requested, ok := optionalID(c.QueryParam("user_id"))
	if !ok {
		l.Warn("get_cart_error", "status", 400, "reason", "invalid user_id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	userID, err := actor(c).TargetUser(requested)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}

	lines, err := h.Svc.Lines(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewCartLines(lines))
}

func (h *CartHTTP) Count(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.count")

	requested, ok := optionalID(c.QueryParam("user_id"))
	if !ok {
		l.Warn("cart_count_error", "status", 400, "reason", "invalid user_id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	userID, err := actor(c).TargetUser(requested)
	if err != nil {
		return fail(l, "cart_count_error", err)
	}

	n, err := h.Svc.Count(ctx, userID)
	if err != nil {
		return fail(l, "cart_count_error", err)
	}
	return c.JSON(http.StatusOK, transport.CountResponse{Count: n})
}

// Add also serves /cart/buy_now, which has the same contract.
func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.AddToCartRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	userID, err := actor(c).TargetUser(req.UserID)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	item, err := h.Svc.Add(ctx, userID, req.ProductID)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, transport.NewCartItem(item))
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_quantity")

	var req transport.UpdateQuantityRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "update_quantity_error", err)
	}

	item, err := h.Svc.SetQuantity(ctx, actor(c), req.CartItemID, *req.Quantity)
	if err != nil {
		return fail(l, "update_quantity_error", err)
	}

	l.Info("update_quantity_success", "cart_item_id", item.ID, "quantity", item.Quantity)
	return c.JSON(http.StatusOK, transport.NewCartItem(item))
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	id, ok := parseID(c.Param("cartItemId"))
	if !ok {
		l.Warn("remove_from_cart_error", "status", 400, "reason", "invalid cart item id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid cart item id")
	}

	if err := h.Svc.Remove(ctx, actor(c), id); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	requested, ok := optionalID(c.QueryParam("user_id"))
	if !ok {
		l.Warn("clear_cart_error", "status", 400, "reason", "invalid user_id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
	}
	userID, err := actor(c).TargetUser(requested)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}

	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}
