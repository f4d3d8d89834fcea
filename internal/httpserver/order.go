package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type OrderHTTP struct {
	Svc     *service.OrderService
	Reports *service.ReportService
}

func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	var req transport.CreateOrderRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "checkout_error", err)
	}
	userID, err := actor(c).TargetUser(req.UserID)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	in := service.CheckoutInput{
		UserID:  userID,
		Address: req.Address,
		Phone:   req.Phone,
		Items:   make([]service.CheckoutItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.CheckoutItem{
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
			Price:      *it.Price,
			CartItemID: it.CartItemID,
		})
	}

	order, err := h.Svc.Checkout(ctx, in)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusOK, transport.NewOrder(order))
}

func (h *OrderHTTP) ListUserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_user")

	userID, ok := parseID(c.Param("userId"))
	if !ok {
		l.Warn("list_orders_error", "status", 400, "reason", "invalid user id")
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	orders, err := h.Svc.ListForUser(ctx, actor(c), userID)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrders(orders))
}

// UpdateStatus serves PATCH /orders for both customers and admins.
func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	var req transport.UpdateStatusRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "update_status_error", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, actor(c), req.OrderID, req.Status)
	if err != nil {
		return fail(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, transport.NewOrder(order))
}

func (h *OrderHTTP) AdminListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	orders, users, err := h.Svc.ListAll(ctx)
	if err != nil {
		return fail(l, "admin_list_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewAdminOrders(orders, users))
}

// AdminSetStatus rejects any malformed request with the same message.
func (h *OrderHTTP) AdminSetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_status")

	var req transport.UpdateStatusRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		l.Warn("admin_set_status_error", "status", 400, "reason", "invalid payload", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}
	if _, err := service.ParseStatus(req.Status); err != nil {
		l.Warn("admin_set_status_error", "status", 400, "reason", "invalid payload", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid payload")
	}

	order, err := h.Svc.UpdateStatus(ctx, actor(c), req.OrderID, req.Status)
	if err != nil {
		return fail(l, "admin_set_status_error", err)
	}

	l.Info("admin_set_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, transport.NewOrder(order))
}

func (h *OrderHTTP) AdminDeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	id, ok := parseID(c.Param("id"))
	if !ok {
		l.Warn("admin_delete_order_error", "status", 400, "reason", "invalid order id")
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid order id")
	}

	if err := h.Svc.Delete(ctx, id); err != nil {
		return fail(l, "admin_delete_order_error", err)
	}

	l.Info("admin_delete_order_success", "order_id", id)
	return c.JSON(http.StatusOK, transport.SuccessResponse{Success: true})
}

func (h *OrderHTTP) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.dashboard")

	d, err := h.Reports.Dashboard(ctx)
	if err != nil {
		return fail(l, "dashboard_error", err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *OrderHTTP) Report(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.reports")

	r, err := h.Reports.Reports(ctx)
	if err != nil {
		return fail(l, "reports_error", err)
	}
	return c.JSON(http.StatusOK, r)
}
