package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/orders"
	"github.com/kokoleng91-netizen/shop-backend/internal/transport"
	"github.com/kokoleng91-netizen/shop-backend/internal/util"
)

// Order item routes are admin-only: the listing is a sales report and the
// patch is the historical quantity/price correction.

func (h *OrderHTTP) ListOrderItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orderitem.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Orders.ListOrderItems(ctx, offset, limit)
	if err != nil {
		l.Error("list_order_items_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list order items")
	}

	return c.JSON(http.StatusOK, pagedResponse(items, page, offset, limit, total))
}

func (h *OrderHTTP) GetOrderItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orderitem.get")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_order_item_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	item, err := h.Orders.GetOrderItem(ctx, id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			l.Warn("get_order_item_error", "status", 404, "reason", "order item not found")
			return echo.NewHTTPError(http.StatusNotFound, "order item not found")
		}
		l.Error("get_order_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order item")
	}

	return c.JSON(http.StatusOK, item)
}

func (h *OrderHTTP) CorrectOrderItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orderitem.correct")

	id, err := parseID(c)
	if err != nil {
		l.Warn("correct_order_item_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req transport.CorrectOrderItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("correct_order_item_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Orders.CorrectOrderItem(ctx, id, req.Quantity, req.UnitPrice)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			l.Warn("correct_order_item_error", "status", 404, "reason", "order item not found")
			return echo.NewHTTPError(http.StatusNotFound, "order item not found")
		case errors.Is(err, orders.ErrValidation):
			l.Warn("correct_order_item_error", "status", 422, "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		default:
			l.Error("correct_order_item_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update order item")
		}
	}

	l.Info("correct_order_item_success", "item_id", item.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "order item updated",
		"data":    item,
	})
}

func (h *OrderHTTP) DeleteOrderItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orderitem.delete")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_order_item_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	if err := h.Orders.DeleteOrderItem(ctx, id); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			l.Warn("delete_order_item_error", "status", 404, "reason", "order item not found")
			return echo.NewHTTPError(http.StatusNotFound, "order item not found")
		}
		l.Error("delete_order_item_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete order item")
	}

	l.Info("delete_order_item_success", "item_id", id)
	return c.NoContent(http.StatusNoContent)
}
