package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/auth"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/catalog"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/checkout"
	"github.com/kokoleng91-netizen/shop-backend/internal/service/orders"
)

type testEnv struct {
	e  *echo.Echo
	db *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.RefreshToken{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))
	require.NoError(t, db.Create(&models.Role{Name: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.Role{Name: models.RoleCustomer}).Error)

	r := &repo.GormRepo{DB: db}
	secret := []byte("test-access-secret")

	authSvc := &auth.Service{
		Repo:          r,
		JWTSecret:     secret,
		RefreshSecret: []byte("test-refresh-secret"),
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: authSvc},
		CatalogHandler: &CatalogHTTP{Svc: &catalog.Service{Repo: r}},
		OrderHandler: &OrderHTTP{
			Checkout: &checkout.Service{DB: db},
			Orders:   &orders.Service{Repo: r},
		},
		UserHandler:   &UserHTTP{Repo: r},
		SearchHandler: &SearchHTTP{},
		JWTSecret:     secret,
	})

	return &testEnv{e: e, db: db}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// register + login through the real endpoints, then optionally promote to admin
func (env *testEnv) loginAs(t *testing.T, email string, admin bool) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/v1/register", "", echo.Map{
		"username": strings.Split(email, "@")[0],
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	if admin {
		var role models.Role
		require.NoError(t, env.db.Where("name = ?", models.RoleAdmin).First(&role).Error)
		require.NoError(t, env.db.Model(&models.User{}).
			Where("email = ?", email).
			Update("role_id", role.ID).Error)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/login", "", echo.Map{
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (env *testEnv) seedProduct(t *testing.T, name string, price string, stock int) *models.Product {
	t.Helper()

	category := models.Category{Name: "cat-" + name}
	require.NoError(t, env.db.Create(&category).Error)
	p := models.Product{
		Name:       name,
		Price:      decimal.RequireFromString(price),
		StockQty:   stock,
		CategoryID: category.ID,
	}
	require.NoError(t, env.db.Create(&p).Error)
	return &p
}

func TestOrdersRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", "", echo.Map{"items": []echo.Map{}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/orders", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginAs(t, "buyer@example.com", false)
	p := env.seedProduct(t, "keyboard", "5.00", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", token, echo.Map{
		"items": []echo.Map{{"product_id": p.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Message string `json:"message"`
		Order   struct {
			ID     uint   `json:"id"`
			Status string `json:"status"`
			Total  string `json:"total_amount"`
			Items  []struct {
				ProductName string `json:"product_name"`
				Quantity    int    `json:"quantity"`
			} `json:"order_items"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order placed successfully", resp.Message)
	assert.Equal(t, "pending", resp.Order.Status)
	assert.Equal(t, "10", resp.Order.Total)
	require.Len(t, resp.Order.Items, 1)
	assert.Equal(t, "keyboard", resp.Order.Items[0].ProductName)

	var fresh models.Product
	require.NoError(t, env.db.First(&fresh, p.ID).Error)
	assert.Equal(t, 8, fresh.StockQty)
}

func TestCreateOrderEndpoint_Rejections(t *testing.T) {
	env := newTestEnv(t)
	token := env.loginAs(t, "buyer@example.com", false)
	p := env.seedProduct(t, "keyboard", "5.00", 2)

	// empty items fail struct validation
	rec := env.do(t, http.MethodPost, "/api/v1/orders", token, echo.Map{"items": []echo.Map{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// zero quantity is a checkout rule violation
	rec = env.do(t, http.MethodPost, "/api/v1/orders", token, echo.Map{
		"items": []echo.Map{{"product_id": p.ID, "quantity": 0}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// unknown product
	rec = env.do(t, http.MethodPost, "/api/v1/orders", token, echo.Map{
		"items": []echo.Map{{"product_id": 9999, "quantity": 1}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// not enough stock
	rec = env.do(t, http.MethodPost, "/api/v1/orders", token, echo.Map{
		"items": []echo.Map{{"product_id": p.ID, "quantity": 3}},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var fresh models.Product
	require.NoError(t, env.db.First(&fresh, p.ID).Error)
	assert.Equal(t, 2, fresh.StockQty, "rejected orders must leave stock untouched")
}

func TestGetOrder_OwnerAndAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.loginAs(t, "owner@example.com", false)
	other := env.loginAs(t, "other@example.com", false)
	admin := env.loginAs(t, "admin@example.com", true)
	p := env.seedProduct(t, "keyboard", "5.00", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", owner, echo.Map{
		"items": []echo.Map{{"product_id": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/v1/orders/%d", created.Order.ID)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, path, other, nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, path, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/orders/9999", owner, nil).Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.loginAs(t, "buyer@example.com", false)
	admin := env.loginAs(t, "admin@example.com", true)
	p := env.seedProduct(t, "keyboard", "5.00", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", buyer, echo.Map{
		"items": []echo.Map{{"product_id": p.ID, "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Order struct {
			ID uint `json:"id"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/api/v1/admin/orders/%d/status", created.Order.ID)

	// buyers cannot touch the lifecycle
	rec = env.do(t, http.MethodPatch, path, buyer, echo.Map{"status": "processing"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPatch, path, admin, echo.Map{"status": "processing"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPatch, path, admin, echo.Map{"status": "shipped"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// processing -> pending is not a legal transition
	rec = env.do(t, http.MethodPatch, path, admin, echo.Map{"status": "pending"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAs(t, "admin@example.com", true)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/categories", admin, echo.Map{
		"name":        "peripherals",
		"description": "keyboards and mice",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// duplicate name
	rec = env.do(t, http.MethodPost, "/api/v1/admin/categories", admin, echo.Map{
		"name": "peripherals",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// public read
	rec = env.do(t, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "peripherals")

	// mutations are admin only
	rec = env.do(t, http.MethodPost, "/api/v1/admin/categories", "", echo.Map{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.loginAs(t, "admin@example.com", true)

	rec := env.do(t, http.MethodPost, "/api/v1/admin/categories", admin, echo.Map{"name": "peripherals"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var catResp struct {
		Category struct {
			ID uint `json:"id"`
		} `json:"category"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catResp))

	rec = env.do(t, http.MethodPost, "/api/v1/admin/products", admin, echo.Map{
		"name":        "keyboard",
		"price":       "49.90",
		"stock_qty":   5,
		"category_id": catResp.Category.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var prodResp struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prodResp))

	// referencing a missing category is a validation error
	rec = env.do(t, http.MethodPost, "/api/v1/admin/products", admin, echo.Map{
		"name":        "mouse",
		"price":       "9.90",
		"category_id": 9999,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// public read with pagination meta
	rec = env.do(t, http.MethodGet, "/api/v1/products?page=1&size=10", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"meta"`)
	assert.Contains(t, rec.Body.String(), "keyboard")

	rec = env.do(t, http.MethodPatch,
		fmt.Sprintf("/api/v1/admin/products/%d", prodResp.ID), admin,
		echo.Map{"stock_qty": 12})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete,
		fmt.Sprintf("/api/v1/admin/products/%d", prodResp.ID), admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/products/%d", prodResp.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderItemCorrectionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	buyer := env.loginAs(t, "buyer@example.com", false)
	admin := env.loginAs(t, "admin@example.com", true)
	p := env.seedProduct(t, "keyboard", "5.00", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", buyer, echo.Map{
		"items": []echo.Map{{"product_id": p.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var item models.OrderItem
	require.NoError(t, env.db.First(&item).Error)

	rec = env.do(t, http.MethodPatch,
		fmt.Sprintf("/api/v1/admin/order-items/%d", item.ID), admin,
		echo.Map{"quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, env.db.First(&order, item.OrderID).Error)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.00")),
		"got total %s", order.TotalAmount)
}

func TestSearchUnavailableWithoutBackend(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/search?q=keyboard", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", "", nil).Code)
}
