package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNoOpenRefill is returned when a fuel usage or close is attempted
	// against a tank that has no open refill.
	ErrNoOpenRefill = errors.New("tank has no open refill")

	// ErrOpenRefillExists is returned when a refill is recorded for a tank
	// that already has an open one.
	ErrOpenRefillExists = errors.New("tank already has an open refill")
)

// InsufficientStockError is returned when a withdrawal line requests more
// units than the product currently holds. The whole withdrawal is rolled
// back when any line fails.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ProductName, e.Available, e.Requested)
}

// ReturnExceedsOutstandingError is returned when a return would bring a
// withdrawal item's returned total above its withdrawn quantity.
type ReturnExceedsOutstandingError struct {
	WithdrawalItemID uint
	Outstanding      int
	Requested        int
}

func (e *ReturnExceedsOutstandingError) Error() string {
	return fmt.Sprintf("return of %d exceeds outstanding quantity %d", e.Requested, e.Outstanding)
}
