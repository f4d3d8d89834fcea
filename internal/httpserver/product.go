package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogHTTP struct {
	Svc            *service.CatalogService
	MaxUploadBytes int64
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	items, err := h.Svc.ListActive(ctx)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewProducts(items))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_products_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": transport.NewProducts(items)})
}

func (h *CatalogHTTP) AdminListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.admin_list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return fail(l, "admin_list_products_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": util.NewMeta(page, offset, limit, total),
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "create_product_error", err)
	}

	in := service.ProductInput{Name: req.Name, Price: *req.Price, Stock: *req.Stock, Image: req.Image, IsActive: req.IsActive}
	p, err := h.Svc.Create(ctx, in)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, transport.IDResponse{ID: p.ID})
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	var req transport.UpdateProductRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "update_product_error", err)
	}

	in := service.ProductInput{Name: req.Name, Price: *req.Price, Stock: *req.Stock, Image: req.Image, IsActive: req.IsActive}
	p, err := h.Svc.Update(ctx, req.ID, in)
	if err != nil {
		return fail(l, "update_product_error", err)
	}

	l.Info("update_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	var req transport.DeleteProductRequest
	if err := transport.Decode(c.Request().Body, &req); err != nil {
		return fail(l, "delete_product_error", err)
	}

	if err := h.Svc.Delete(ctx, req.ID); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", req.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Deleted!"})
}

func (h *CatalogHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.upload_image")

	if h.MaxUploadBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.MaxUploadBytes)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn("upload_image_error", "status", 413, "reason", "image too large", "error", err)
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image too large")
		}
		l.Warn("upload_image_error", "status", 400, "reason", "no image uploaded", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "No image uploaded")
	}

	f, err := fh.Open()
	if err != nil {
		return fail(l, "upload_image_error", err)
	}
	defer f.Close()

	path, err := h.Svc.UploadImage(ctx, fh.Filename, f)
	if err != nil {
		return fail(l, "upload_image_error", err)
	}

	l.Info("upload_image_success", "path", path)
	return c.JSON(http.StatusOK, transport.PathResponse{Path: path})
}
