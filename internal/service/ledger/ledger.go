// Package ledger holds an equipment's stock table and enforces its quantity rules.
//
// Deduct and Add work on a table the caller already loaded and return a new
// table; the input is never modified. Callers reload through Service before a
// mutation and save right after it so the working copy never drifts from what
// the backend holds.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

var (
	// ErrKitNotFound indicates the kit is not part of the table.
	ErrKitNotFound = errors.New("kit not found")

	// ErrInsufficientStock indicates a deduction larger than the available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidAmount indicates an amount below 1 or one that cannot be represented.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Deduct removes amount units of kit. On error the returned table is the input, untouched.
func Deduct(table models.StockTable, kit string, amount int) (models.StockTable, error) {
	if amount < 1 {
		return table, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	idx := table.Index(kit)
	if idx < 0 {
		return table, fmt.Errorf("%w: %s", ErrKitNotFound, kit)
	}

	current := table.Entries[idx].Quantity
	if current < amount {
		return table, fmt.Errorf("%w: kit %s has %d, requested %d", ErrInsufficientStock, kit, current, amount)
	}

	next := table.Clone()
	next.Entries[idx].Quantity = current - amount
	return next, nil
}

// Add puts amount units on kit. On error the returned table is the input, untouched.
func Add(table models.StockTable, kit string, amount int) (models.StockTable, error) {
	if amount < 1 {
		return table, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	idx := table.Index(kit)
	if idx < 0 {
		return table, fmt.Errorf("%w: %s", ErrKitNotFound, kit)
	}

	current := table.Entries[idx].Quantity
	if current > math.MaxInt-amount {
		return table, fmt.Errorf("%w: adding %d to %s overflows", ErrInvalidAmount, amount, kit)
	}

	next := table.Clone()
	next.Entries[idx].Quantity = current + amount
	return next, nil
}

// Total sums the quantities of every entry.
func Total(table models.StockTable) int {
	return table.Total()
}
