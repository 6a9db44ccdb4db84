package checkout

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/mykafka"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
)

// Service is the only code path allowed to decrement product stock.
type Service struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

type Line struct {
	ProductID uint
	Quantity  int
}

// PlaceOrder converts the requested lines into a persisted order inside one
// transaction: every referenced product row is locked in ascending id order,
// stock is validated and decremented under the lock, and the order items
// snapshot name/image/price at this moment. Any failure rolls back everything.
func (s *Service) PlaceOrder(ctx context.Context, buyerID uint, lines []Line) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout.place_order", "user_id", buyerID)

	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID, Quantity: line.Quantity}
		}
	}

	locked := coalesce(lines)

	var order *models.Order
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		r := &repo.GormRepo{DB: tx}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(locked))

		for _, line := range locked {
			product, err := r.LockProduct(ctx, line.ProductID)
			if err != nil {
				if repo.IsNotFound(err) {
					return &ProductNotFoundError{ProductID: line.ProductID}
				}
				return err
			}

			if product.StockQty < line.Quantity {
				return &InsufficientStockError{
					ProductID: product.ID,
					Name:      product.Name,
					Available: product.StockQty,
					Requested: line.Quantity,
				}
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))

			if err := r.DecrementStock(ctx, product.ID, line.Quantity); err != nil {
				return err
			}

			items = append(items, models.OrderItem{
				ProductID:    product.ID,
				ProductName:  product.Name,
				ProductImage: product.Image,
				UnitPrice:    product.Price,
				Quantity:     line.Quantity,
			})
		}

		order = &models.Order{
			Number:      uuid.NewString(),
			UserID:      buyerID,
			TotalAmount: total,
			Status:      models.OrderStatusPending,
		}
		if err := r.CreateOrder(ctx, order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := r.CreateOrderItem(ctx, &items[i]); err != nil {
				return err
			}
		}
		order.Items = items

		return nil
	})

	if txErr != nil {
		if IsBusinessError(txErr) {
			l.Warn("place_order_rejected", "reason", txErr.Error())
			return nil, txErr
		}
		l.Error("place_order_failed", "error", txErr)
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, txErr)
	}

	s.publish(ctx, order)
	l.Info("place_order_success", "order_id", order.ID, "total", order.TotalAmount.String())
	return order, nil
}

// coalesce merges duplicate product ids and sorts ascending so overlapping
// checkouts always acquire row locks in the same order.
func coalesce(lines []Line) []Line {
	byProduct := make(map[uint]int, len(lines))
	for _, line := range lines {
		byProduct[line.ProductID] += line.Quantity
	}

	out := make([]Line, 0, len(byProduct))
	for id, qty := range byProduct {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (s *Service) publish(ctx context.Context, order *models.Order) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event := map[string]any{
		"type":     "order_created",
		"orderID":  order.ID,
		"userID":   order.UserID,
		"total":    order.TotalAmount.String(),
		"status":   order.Status,
		"itemsLen": len(order.Items),
	}
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicOrderEvents, fmt.Sprint(order.UserID), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
