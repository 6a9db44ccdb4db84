package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	authmw "github.com/kokoleng91-netizen/shop-backend/internal/middleware/auth"
	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/checkout"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/orders"
	"github.com/kokoleng91-netizen/shop-backend/internal/transport"
	"github.com/kokoleng91-netizen/shop-backend/internal/util"
)

type OrderHTTP struct {
	Checkout *checkout.Service
	Orders   *orders.Service
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lines := make([]checkout.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, checkout.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.Checkout.PlaceOrder(ctx, userID, lines)
	if err != nil {
		var (
			iq *checkout.InvalidQuantityError
			nf *checkout.ProductNotFoundError
			is *checkout.InsufficientStockError
		)
		switch {
		case errors.Is(err, checkout.ErrEmptyOrder), errors.As(err, &iq):
			l.Warn("create_order_error", "status", 422, "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		case errors.As(err, &nf), errors.As(err, &is):
			l.Warn("create_order_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			// transaction-level failure: detail is logged, the caller gets a
			// generic message
			l.Error("create_order_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "could not place order")
		}
	}

	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "order placed successfully",
		"order":   order,
	})
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_orders")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var (
		total  int64
		result []models.Order
	)
	if authmw.Role(c) == models.RoleAdmin {
		total, result, err = h.Orders.ListAll(ctx, offset, limit)
	} else {
		total, result, err = h.Orders.ListForUser(ctx, userID, offset, limit)
	}
	if err != nil {
		l.Error("list_orders_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list orders")
	}

	return c.JSON(http.StatusOK, pagedResponse(result, page, offset, limit, total))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	userID, err := authmw.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			l.Warn("get_order_error", "status", 404, "reason", "order not found")
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("get_order_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot get order")
	}

	// an order is visible to its owner and to admins only
	if order.UserID != userID && authmw.Role(c) != models.RoleAdmin {
		l.Warn("get_order_error", "status", 403, "reason", "not the order owner")
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "id is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not an integer")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	order, err := h.Orders.UpdateStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		var it *orders.InvalidTransitionError
		switch {
		case errors.Is(err, orders.ErrNotFound):
			l.Warn("update_status_error", "status", 404, "reason", "order not found")
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		case errors.Is(err, orders.ErrUnknownStatus):
			l.Warn("update_status_error", "status", 422, "error", err)
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "unknown status")
		case errors.As(err, &it):
			l.Warn("update_status_error", "status", 409, "error", err)
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			l.Error("update_status_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update order")
		}
	}

	l.Info("update_status_success", "order_id", order.ID, "new_status", order.Status)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "order status updated",
		"order":   order,
	})
}
