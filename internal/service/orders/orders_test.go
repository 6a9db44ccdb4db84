package orders

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Order{},
		&models.OrderItem{},
	))

	return &Service{Repo: &repo.GormRepo{DB: db}}, db
}

func seedOrder(t *testing.T, db *gorm.DB, status models.OrderStatus, items ...models.OrderItem) *models.Order {
	t.Helper()

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	order := models.Order{
		Number:      uuid.NewString(),
		UserID:      1,
		TotalAmount: total,
		Status:      status,
		Items:       items,
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestUpdateStatus_HappyPath(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, models.OrderStatusPending)

	got, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)

	got, err = svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)

	var persisted models.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.Equal(t, models.OrderStatusCompleted, persisted.Status)
}

func TestUpdateStatus_TerminalStatesRejectChanges(t *testing.T) {
	svc, db := newTestService(t)

	for _, terminal := range []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		order := seedOrder(t, db, terminal)

		_, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderStatusPending)
		var it *InvalidTransitionError
		require.ErrorAs(t, err, &it, "from %s", terminal)
		assert.Equal(t, terminal, it.From)
		assert.Equal(t, models.OrderStatusPending, it.To)

		var persisted models.Order
		require.NoError(t, db.First(&persisted, order.ID).Error)
		assert.Equal(t, terminal, persisted.Status)
	}
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, models.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), order.ID, models.OrderStatus("shipped"))
	require.ErrorIs(t, err, ErrUnknownStatus)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), 404, models.OrderStatusProcessing)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCorrectOrderItem_RecomputesTotal(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, models.OrderStatusPending,
		models.OrderItem{ProductID: 1, ProductName: "keyboard", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 2},
		models.OrderItem{ProductID: 2, ProductName: "mouse", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 1},
	)
	require.True(t, order.TotalAmount.Equal(decimal.RequireFromString("12.50")))

	qty := 4
	item, err := svc.CorrectOrderItem(context.Background(), order.Items[0].ID, &qty, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	var persisted models.Order
	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.True(t, persisted.TotalAmount.Equal(decimal.RequireFromString("22.50")),
		"got total %s", persisted.TotalAmount)

	price := decimal.RequireFromString("1.00")
	_, err = svc.CorrectOrderItem(context.Background(), order.Items[1].ID, nil, &price)
	require.NoError(t, err)

	require.NoError(t, db.First(&persisted, order.ID).Error)
	assert.True(t, persisted.TotalAmount.Equal(decimal.RequireFromString("21.00")),
		"got total %s", persisted.TotalAmount)
}

func TestCorrectOrderItem_Validation(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, models.OrderStatusPending,
		models.OrderItem{ProductID: 1, ProductName: "keyboard", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 2},
	)

	_, err := svc.CorrectOrderItem(context.Background(), order.Items[0].ID, nil, nil)
	require.ErrorIs(t, err, ErrValidation)

	zero := 0
	_, err = svc.CorrectOrderItem(context.Background(), order.Items[0].ID, &zero, nil)
	require.ErrorIs(t, err, ErrValidation)

	negative := decimal.RequireFromString("-1.00")
	_, err = svc.CorrectOrderItem(context.Background(), order.Items[0].ID, nil, &negative)
	require.ErrorIs(t, err, ErrValidation)

	qty := 3
	_, err = svc.CorrectOrderItem(context.Background(), 404, &qty, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteOrderItem_RecomputesTotal(t *testing.T) {
	svc, db := newTestService(t)
	order := seedOrder(t, db, models.OrderStatusPending,
		models.OrderItem{ProductID: 1, ProductName: "keyboard", UnitPrice: decimal.RequireFromString("5.00"), Quantity: 2},
		models.OrderItem{ProductID: 2, ProductName: "mouse", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 1},
	)

	require.NoError(t, svc.DeleteOrderItem(context.Background(), order.Items[1].ID))

	var persisted models.Order
	require.NoError(t, db.Preload("Items").First(&persisted, order.ID).Error)
	assert.Len(t, persisted.Items, 1)
	assert.True(t, persisted.TotalAmount.Equal(decimal.RequireFromString("10.00")),
		"got total %s", persisted.TotalAmount)

	require.ErrorIs(t, svc.DeleteOrderItem(context.Background(), 404), ErrNotFound)
}

func TestListForUser_OnlyOwnOrders(t *testing.T) {
	svc, db := newTestService(t)

	mine := models.Order{Number: uuid.NewString(), UserID: 1, TotalAmount: decimal.Zero, Status: models.OrderStatusPending}
	theirs := models.Order{Number: uuid.NewString(), UserID: 2, TotalAmount: decimal.Zero, Status: models.OrderStatusPending}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&theirs).Error)

	total, orders, err := svc.ListForUser(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	total, orders, err = svc.ListAll(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, orders, 2)
}
