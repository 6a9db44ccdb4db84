package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kokoleng91-netizen/shop-backend/internal/logging"
	"github.com/kokoleng91-netizen/shop-backend/internal/models"
	"github.com/kokoleng91-netizen/shop-backend/internal/mykafka"
	"github.com/kokoleng91-netizen/shop-backend/internal/repo"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrUnknownStatus = errors.New("unknown status")
	ErrValidation    = errors.New("validation")
)

type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

type Service struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

func (s *Service) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersForUser(ctx, userID, offset, limit)
}

func (s *Service) ListAll(ctx context.Context, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListAllOrders(ctx, offset, limit)
}

// UpdateStatus enforces the order lifecycle: pending -> processing -> completed,
// with cancellation allowed from pending or processing. Orders are never
// deleted; cancellation is the terminal state instead.
func (s *Service) UpdateStatus(ctx context.Context, orderID uint, next models.OrderStatus) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.update_status", "order_id", orderID)

	if !next.Valid() {
		return nil, ErrUnknownStatus
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !models.CanTransition(order.Status, next) {
		l.Warn("update_status_rejected", "from", order.Status, "to", next)
		return nil, &InvalidTransitionError{From: order.Status, To: next}
	}

	if err := s.Repo.UpdateOrderStatus(ctx, orderID, next); err != nil {
		return nil, err
	}
	order.Status = next

	s.publish(ctx, map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"userID":  order.UserID,
		"status":  next,
	}, order.UserID)

	l.Info("update_status_success", "status", next)
	return order, nil
}

func (s *Service) GetOrderItem(ctx context.Context, id uint) (*models.OrderItem, error) {
	item, err := s.Repo.GetOrderItem(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *Service) ListOrderItems(ctx context.Context, offset, limit int) (int64, []models.OrderItem, error) {
	return s.Repo.ListOrderItems(ctx, offset, limit)
}

// CorrectOrderItem is the administrative escape hatch for fixing a historical
// quantity or price. The owning order's total is recomputed in the same
// transaction so the two never drift apart.
func (s *Service) CorrectOrderItem(ctx context.Context, itemID uint, quantity *int, unitPrice *decimal.Decimal) (*models.OrderItem, error) {
	if quantity == nil && unitPrice == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if quantity != nil && *quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
	}
	if unitPrice != nil && unitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}

	var item *models.OrderItem
	txErr := s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		r := s.Repo.WithTx(tx)

		var err error
		item, err = r.GetOrderItem(ctx, itemID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}

		if quantity != nil {
			item.Quantity = *quantity
		}
		if unitPrice != nil {
			item.UnitPrice = *unitPrice
		}
		if err := r.SaveOrderItem(ctx, item); err != nil {
			return err
		}

		return recomputeTotal(ctx, r, item.OrderID)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, map[string]any{
		"type":    "order_item_corrected",
		"itemID":  item.ID,
		"orderID": item.OrderID,
	}, item.OrderID)

	return item, nil
}

// DeleteOrderItem removes a line from a historical order and recomputes the
// owning order's total.
func (s *Service) DeleteOrderItem(ctx context.Context, itemID uint) error {
	var orderID uint
	txErr := s.Repo.DB.Transaction(func(tx *gorm.DB) error {
		r := s.Repo.WithTx(tx)

		item, err := r.GetOrderItem(ctx, itemID)
		if err != nil {
			if repo.IsNotFound(err) {
				return ErrNotFound
			}
			return err
		}
		orderID = item.OrderID

		if err := r.DeleteOrderItem(ctx, itemID); err != nil {
			return err
		}
		return recomputeTotal(ctx, r, orderID)
	})
	if txErr != nil {
		return txErr
	}

	s.publish(ctx, map[string]any{
		"type":    "order_item_deleted",
		"itemID":  itemID,
		"orderID": orderID,
	}, orderID)

	return nil
}

func recomputeTotal(ctx context.Context, r *repo.GormRepo, orderID uint) error {
	order, err := r.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	total := decimal.Zero
	for _, it := range order.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	return r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("total_amount", total).Error
}

func (s *Service) publish(ctx context.Context, event map[string]any, key uint) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicOrderEvents, fmt.Sprint(key), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish error", "error", err)
	}
}
