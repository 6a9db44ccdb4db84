package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/catalog"
	"github.com/kokoleng91-netizen/shop-backend/internal/transport"
)

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_categories")

	categories, err := h.Svc.GetCategories(ctx)
	if err != nil {
		l.Error("get_categories_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list categories")
	}

	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.get_category")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_category_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	category, err := h.Svc.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			l.Warn("get_category_error", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("get_category_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get category")
	}

	return c.JSON(http.StatusOK, category)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("category_create_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	category, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		if errors.Is(err, catalog.ErrConflict) {
			l.Warn("category_create_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		l.Error("category_create_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create category")
	}

	l.Info("create_category_success", "category_id", category.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "category created successfully",
		"category": category,
	})
}

func (h *CatalogHTTP) PatchCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.patch_category")

	id, err := parseID(c)
	if err != nil {
		l.Warn("category_patch_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req transport.PatchCategoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("category_patch_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	category, err := h.Svc.PatchCategory(ctx, req, id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			l.Warn("category_patch_error", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		case errors.Is(err, catalog.ErrConflict):
			l.Warn("category_patch_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("category_patch_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update category")
		}
	}

	l.Info("patch_category_success", "category_id", category.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "category updated successfully",
		"category": category,
	})
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.delete_category")

	id, err := parseID(c)
	if err != nil {
		l.Warn("category_delete_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			l.Warn("category_delete_error", "status", 404, "reason", "category not found")
			return echo.NewHTTPError(http.StatusNotFound, "category not found")
		}
		l.Error("category_delete_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete category")
	}

	l.Info("delete_category_success", "category_id", id)
	return c.NoContent(http.StatusNoContent)
}
