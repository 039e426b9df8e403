package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/metrics"
	"github.com/mamadbah2/kitledger/internal/repository"
)

// Service loads and saves stock tables through a storage backend.
type Service struct {
	backend repository.Backend
	catalog *catalog.Catalog
	metrics *metrics.Recorder
	logger  *zap.Logger
}

// NewService wires a ledger service. metrics may be nil.
func NewService(backend repository.Backend, cat *catalog.Catalog, recorder *metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Service{backend: backend, catalog: cat, metrics: recorder, logger: logger}
}

// Catalog exposes the catalog seeding this ledger.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Load returns the persisted table, or the seeded one when nothing is persisted
// or the backend read fails. The only error is catalog.ErrUnknownEquipment.
func (s *Service) Load(ctx context.Context, equipment models.Equipment) (models.StockTable, error) {
	seed, err := s.catalog.Seed(equipment)
	if err != nil {
		return models.StockTable{}, err
	}

	table, err := s.backend.ReadStock(ctx, equipment)
	if err != nil {
		s.fallback(equipment, err)
		return seed, nil
	}
	return orSeed(equipment, table, seed), nil
}

// LoadForUpdate is Load for mutation paths: a table missing a column is still
// replaced by the seed, but any other failure, an unreadable cell included, is
// returned as repository.ErrUnavailable so a seeded table never overwrites
// rows the backend holds.
func (s *Service) LoadForUpdate(ctx context.Context, equipment models.Equipment) (models.StockTable, error) {
	seed, err := s.catalog.Seed(equipment)
	if err != nil {
		return models.StockTable{}, err
	}

	table, err := s.backend.ReadStock(ctx, equipment)
	switch {
	case err == nil:
		return orSeed(equipment, table, seed), nil
	case errors.Is(err, repository.ErrMalformed):
		s.fallback(equipment, err)
		return seed, nil
	default:
		return models.StockTable{}, fmt.Errorf("read stock %s: %w: %w", equipment, repository.ErrUnavailable, err)
	}
}

// Save replaces the persisted table of equipment with table.
func (s *Service) Save(ctx context.Context, equipment models.Equipment, table models.StockTable) error {
	table.Equipment = equipment
	if err := s.backend.WriteStock(ctx, equipment, table); err != nil {
		return fmt.Errorf("write stock %s: %w", equipment, err)
	}
	return nil
}

func (s *Service) fallback(equipment models.Equipment, err error) {
	reason := repository.FailureReason(err)
	s.logger.Warn("stock table replaced by catalog seed",
		zap.String("equipment", string(equipment)),
		zap.String("reason", reason),
		zap.Error(err))
	s.metrics.Fallback(equipment, string(repository.TableStock), reason)
}

func orSeed(equipment models.Equipment, table, seed models.StockTable) models.StockTable {
	if len(table.Entries) == 0 {
		return seed
	}
	table.Equipment = equipment
	return table
}
