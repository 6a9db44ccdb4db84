package transport

import "github.com/shopspring/decimal"

type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

type PatchCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateProductRequest struct {
	Name       string          `json:"name"        validate:"required,max=255"`
	Price      decimal.Decimal `json:"price"`
	StockQty   int             `json:"stock_qty"`
	CategoryID uint            `json:"category_id" validate:"required"`
	Image      *string         `json:"image"`
}

type PatchProductRequest struct {
	Name       *string          `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	StockQty   *int             `json:"stock_qty"`
	CategoryID *uint            `json:"category_id"`
	Image      *string          `json:"image"`
}

type CreateOrderItem struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderRequest struct {
	// Quantity bounds are checked by the checkout engine so it can report
	// which product carried the invalid value.
	Items []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type CorrectOrderItemRequest struct {
	Quantity  *int             `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"price"`
}

type UpdateUserRequest struct {
	RoleID uint `json:"role_id" validate:"required"`
}
