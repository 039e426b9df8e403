// Package usage counts how often each kit has been deducted.
//
// The counter knows nothing about quantities. It only feeds the
// frequency-of-use chart.
package usage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/metrics"
	"github.com/mamadbah2/kitledger/internal/repository"
)

// RecordDeduction increments the record of kit, appending it at 1 when absent.
// Call it only after the matching ledger deduction succeeded.
func RecordDeduction(table models.UsageHistoryTable, kit string) models.UsageHistoryTable {
	next := table.Clone()
	if idx := next.Index(kit); idx >= 0 {
		next.Records[idx].Frequency++
		return next
	}
	next.Records = append(next.Records, models.UsageRecord{Kit: kit, Frequency: 1})
	return next
}

// Service loads and saves usage history tables.
type Service struct {
	backend repository.Backend
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewService wires a usage history service. metrics may be nil.
func NewService(backend repository.Backend, recorder *metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: backend, metrics: recorder, logger: logger}
}

// Load returns the persisted history, or an empty one when nothing is persisted,
// the table is missing a column, or the read fails. Malformed tables are dropped, not repaired.
func (s *Service) Load(ctx context.Context, equipment models.Equipment) models.UsageHistoryTable {
	table, err := s.backend.ReadHistory(ctx, equipment)
	if err != nil {
		s.fallback(equipment, err)
		return models.UsageHistoryTable{Equipment: equipment}
	}
	table.Equipment = equipment
	return table
}

// LoadForUpdate is Load for mutation paths: a table missing a column is dropped,
// any other failure (an unreadable cell included) is returned as repository.ErrUnavailable.
func (s *Service) LoadForUpdate(ctx context.Context, equipment models.Equipment) (models.UsageHistoryTable, error) {
	table, err := s.backend.ReadHistory(ctx, equipment)
	switch {
	case err == nil:
		table.Equipment = equipment
		return table, nil
	case errors.Is(err, repository.ErrMalformed):
		s.fallback(equipment, err)
		return models.UsageHistoryTable{Equipment: equipment}, nil
	default:
		return models.UsageHistoryTable{}, fmt.Errorf("read usage history %s: %w: %w", equipment, repository.ErrUnavailable, err)
	}
}

// Save replaces the persisted history of equipment with table.
func (s *Service) Save(ctx context.Context, equipment models.Equipment, table models.UsageHistoryTable) error {
	table.Equipment = equipment
	if err := s.backend.WriteHistory(ctx, equipment, table); err != nil {
		return fmt.Errorf("write usage history %s: %w", equipment, err)
	}
	return nil
}

func (s *Service) fallback(equipment models.Equipment, err error) {
	reason := repository.FailureReason(err)
	s.logger.Warn("usage history discarded",
		zap.String("equipment", string(equipment)),
		zap.String("reason", reason),
		zap.Error(err))
	s.metrics.Fallback(equipment, string(repository.TableHistory), reason)
}
