package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"not null"                 json:"username"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	RoleID       uint   `gorm:"not null"                 json:"role_id"`
	Role         *Role  `gorm:"foreignKey:RoleID"        json:"role,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role != nil && u.Role.Name == RoleAdmin
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type Category struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"unique;not null"          json:"name"`
	Description string    `json:"description"`
	Products    []Product `gorm:"foreignKey:CategoryID"    json:"products,omitempty"`
}

type Product struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"                json:"id"`
	Name       string          `gorm:"not null"                                json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"             json:"price"`
	StockQty   int             `gorm:"not null;default:0;check:stock_qty >= 0" json:"stock_qty"`
	CategoryID uint            `gorm:"index;not null"                          json:"category_id"`
	Category   *Category       `gorm:"foreignKey:CategoryID"                   json:"category,omitempty"`
	Image      *string         `json:"image,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Order struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Number      string          `gorm:"uniqueIndex;not null"        json:"number"`
	UserID      uint            `gorm:"index;not null"              json:"user_id"`
	User        *User           `gorm:"foreignKey:UserID"           json:"user,omitempty"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status      OrderStatus     `gorm:"not null"                    json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID"          json:"order_items"`
}

// OrderItem keeps a snapshot of the product at purchase time. Name, image and
// unit price are copied inside the checkout transaction and stay frozen even
// when the product row is edited later.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	OrderID      uint            `gorm:"index;not null"              json:"order_id"`
	ProductID    uint            `gorm:"index;not null"              json:"product_id"`
	ProductName  string          `gorm:"not null"                    json:"product_name"`
	ProductImage *string         `json:"product_image,omitempty"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity     int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt    time.Time       `json:"created_at"`
}
