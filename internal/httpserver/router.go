package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	authmw "github.com/kokoleng91-netizen/shop-backend/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	OrderHandler   *OrderHTTP
	UserHandler    *UserHTTP
	SearchHandler  *SearchHTTP
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := &authmw.JWT{Secret: d.JWTSecret}

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/refresh", d.AuthHandler.Refresh)
	v1.POST("/logout", d.AuthHandler.Logout)

	v1.GET("/search", d.SearchHandler.Search)

	v1.GET("/categories", d.CatalogHandler.GetCategories)
	v1.GET("/categories/:id", d.CatalogHandler.GetCategory)
	v1.GET("/products", d.CatalogHandler.GetProducts)
	v1.GET("/products/:id", d.CatalogHandler.GetProduct)

	authed := v1.Group("", mw.RequireLogin)
	authed.POST("/orders", d.OrderHandler.CreateOrder)
	authed.GET("/orders", d.OrderHandler.ListOrders)
	authed.GET("/orders/:id", d.OrderHandler.GetOrder)

	admin := v1.Group("/admin", mw.RequireAdmin)
	admin.POST("/categories", d.CatalogHandler.CreateCategory)
	admin.PATCH("/categories/:id", d.CatalogHandler.PatchCategory)
	admin.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory)

	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)

	admin.PATCH("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.GET("/order-items", d.OrderHandler.ListOrderItems)
	admin.GET("/order-items/:id", d.OrderHandler.GetOrderItem)
	admin.PATCH("/order-items/:id", d.OrderHandler.CorrectOrderItem)
	admin.DELETE("/order-items/:id", d.OrderHandler.DeleteOrderItem)

	admin.GET("/users", d.UserHandler.ListUsers)
	admin.GET("/users/:id", d.UserHandler.GetUser)
	admin.PATCH("/users/:id", d.UserHandler.UpdateUser)
	admin.DELETE("/users/:id", d.UserHandler.DeleteUser)
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func pagedResponse[T any](items []T, page, offset, limit int, total int64) map[string]any {
	return map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}
}
