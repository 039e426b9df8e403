// Package repository defines the storage backend contract shared by every
// persistence driver.
//
// Backends hold two tables per equipment: stock (Kit, Quantidade) and usage
// history (Kit, Frequencia). Reads of a table that was never written return an
// empty table and no error. Writes replace the whole table. Nothing here
// locks or compares versions: two writers on the same equipment race and the
// last write wins.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

var (
	// ErrMalformed indicates persisted data exists but lacks one of the expected columns.
	ErrMalformed = errors.New("malformed persisted table")

	// ErrInvalidCell indicates a table with the expected columns holding a value
	// that is not an integer. The rest of the table may be valid, so callers must
	// not replace it.
	ErrInvalidCell = errors.New("invalid persisted cell")

	// ErrUnavailable marks a read the mutation path cannot build on: anything
	// other than a table missing a column, including ErrInvalidCell.
	ErrUnavailable = errors.New("storage backend unavailable")
)

// FailureReason classifies a backend read error for logs and metrics.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrInvalidCell):
		return "invalid_cell"
	}
	return "unavailable"
}

// TableKind names the two tables persisted per equipment.
type TableKind string

const (
	TableStock   TableKind = "stock"
	TableHistory TableKind = "history"
)

// Backend persists stock and usage history tables.
type Backend interface {
	ReadStock(ctx context.Context, equipment models.Equipment) (models.StockTable, error)
	WriteStock(ctx context.Context, equipment models.Equipment, table models.StockTable) error
	ReadHistory(ctx context.Context, equipment models.Equipment) (models.UsageHistoryTable, error)
	WriteHistory(ctx context.Context, equipment models.Equipment, table models.UsageHistoryTable) error
	Close() error
}
