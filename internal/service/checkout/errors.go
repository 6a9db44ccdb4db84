package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrTransactionFailed = errors.New("transaction failed")
)

type InvalidQuantityError struct {
	ProductID uint
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for product %d", e.Quantity, e.ProductID)
}

type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductID uint
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q (product %d): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

// IsBusinessError reports whether err is a checkout rule violation, as opposed
// to an infrastructure failure the caller must treat as a 5xx.
func IsBusinessError(err error) bool {
	var (
		iq *InvalidQuantityError
		nf *ProductNotFoundError
		is *InsufficientStockError
	)
	return errors.Is(err, ErrEmptyOrder) ||
		errors.As(err, &iq) ||
		errors.As(err, &nf) ||
		errors.As(err, &is)
}
