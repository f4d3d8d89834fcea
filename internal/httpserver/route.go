package httpserver

import (
	"context"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	middleware "github.com/Skotchmaster/storefront/internal/middleware/auth"
)

type Deps struct {
	DB        *gorm.DB
	Auth      *AuthHTTP
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Order     *OrderHTTP
	Session   *middleware.SessionMiddleware
	UploadDir string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	if d.UploadDir != "" {
		e.Static("/uploads", filepath.Join(d.UploadDir, "uploads"))
	}

	requireAuth := d.Session.RequireAuth
	requireAdmin := d.Session.RequireAdmin

	auth := e.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/me", d.Auth.Me, requireAuth)

	users := e.Group("/users", requireAuth)
	users.PATCH("/address", d.Auth.UpdateAddress)
	users.GET("/:id", d.Auth.GetUser)

	e.GET("/products", d.Catalog.ListProducts)
	e.GET("/products/search", d.Catalog.SearchProducts)
	e.POST("/products", d.Catalog.CreateProduct, requireAdmin)
	e.PUT("/products", d.Catalog.UpdateProduct, requireAdmin)
	e.DELETE("/products", d.Catalog.DeleteProduct, requireAdmin)

	uploadLimit := "5M"
	if d.Catalog.MaxUploadBytes > 0 {
		uploadLimit = formatLimit(d.Catalog.MaxUploadBytes + 1<<16)
	}
	e.POST("/upload/product", d.Catalog.UploadImage, requireAdmin, echomw.BodyLimit(uploadLimit))

	cart := e.Group("/cart", requireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.GET("/count", d.Cart.Count)
	cart.POST("/add", d.Cart.Add)
	cart.POST("/buy_now", d.Cart.Add)
	cart.PATCH("/quantity", d.Cart.UpdateQuantity)
	cart.DELETE("/remove/:cartItemId", d.Cart.Remove)
	cart.DELETE("/clear", d.Cart.Clear)

	orders := e.Group("/orders", requireAuth)
	orders.POST("", d.Order.Checkout)
	orders.PATCH("", d.Order.UpdateStatus)
	orders.GET("/:userId", d.Order.ListUserOrders)

	admin := e.Group("/admin", requireAdmin)
	admin.GET("/products", d.Catalog.AdminListProducts)
	admin.GET("/orders", d.Order.AdminListOrders)
	admin.PATCH("/status", d.Order.AdminSetStatus)
	admin.DELETE("/orders/:id", d.Order.AdminDeleteOrder)
	admin.GET("/dashboard", d.Order.Dashboard)
	admin.GET("/reports", d.Order.Report)
}

func (d *Deps) ready(c echo.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

// formatLimit renders a byte count in the form echo's BodyLimit parses.
func formatLimit(n int64) string {
	const kb = 1 << 10
	return strconv.FormatInt((n+kb-1)/kb, 10) + "K"
}
