package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecommerce/internal/logging"
	authmw "github.com/Skotchmaster/ecommerce/internal/middleware/auth"
	"github.com/Skotchmaster/ecommerce/internal/service"
	"github.com/Skotchmaster/ecommerce/internal/transport"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func productNotFound(idParam string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Product with id %s doesn't exist", idParam))
}

// parseID returns 0 for anything that is not a positive integer. No product
// has id 0, so a malformed id reads the same as a missing one.
func parseID(idParam string) uint {
	id, err := strconv.ParseUint(idParam, 10, 0)
	if err != nil {
		return 0
	}
	return uint(id)
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	items, err := h.Svc.GetProducts(ctx)
	if err != nil {
		l.Error("get_products_error", "status", 500, "reason", "cannot list products", "error", err)
		return err
	}

	l.Debug("get_products_success", "count", len(items))
	return c.JSON(http.StatusOK, transport.NewProductsResponse(items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	idParam := c.Param("id")
	id := parseID(idParam)
	if id == 0 {
		l.Warn("get_product_error", "status", 404, "reason", "id is not a positive integer", "id", idParam)
		return productNotFound(idParam)
	}

	prod, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("get_product_error", "status", 404, "reason", "product does not exist", "error", err)
			return productNotFound(idParam)
		}
		l.Error("get_product_error", "status", 500, "reason", "cannot get product", "error", err)
		return err
	}

	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid token")
	}

	var req transport.CreateProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.CreateProduct(ctx, userID, req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		l.Error("create_product_error", "status", 500, "reason", "cannot add product to db", "error", err)
		return err
	}

	l.Info("create_product_success", "product_id", prod.ID, "user_id", userID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(prod))
}

// PatchProduct serves both PUT and PATCH with the same partial-merge rules.
func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	idParam := c.Param("id")
	id := parseID(idParam)
	if id == 0 {
		l.Warn("patch_product_error", "status", 404, "reason", "id is not a positive integer", "id", idParam)
		return productNotFound(idParam)
	}

	var req transport.PatchProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("patch_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			l.Warn("patch_product_error", "status", 404, "reason", "product does not exist", "error", err)
			return productNotFound(idParam)
		}
		l.Error("patch_product_error", "status", 500, "reason", "cannot update product", "error", err)
		return err
	}

	l.Info("patch_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	userID, ok := authmw.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Missing or invalid token")
	}

	idParam := c.Param("id")
	prod, err := h.Svc.DeleteProduct(ctx, userID, parseID(idParam))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrForbidden):
			l.Warn("delete_product_error", "status", 403, "reason", "user is not an admin", "user_id", userID)
			return echo.NewHTTPError(http.StatusForbidden, "Not authorised to delete a product")
		case errors.Is(err, service.ErrNotFound):
			l.Warn("delete_product_error", "status", 404, "reason", "product does not exist", "error", err)
			return productNotFound(idParam)
		default:
			l.Error("delete_product_error", "status", 500, "reason", "cannot delete product from db", "error", err)
			return err
		}
	}

	l.Info("delete_product_success", "product_id", prod.ID, "user_id", userID)
	return c.JSON(http.StatusOK, transport.MessageResponse{
		Msg: fmt.Sprintf("Product %s has been deleted successfully", prod.Name),
	})
}
