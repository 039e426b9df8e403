package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
)

const (
	stockSheetPrefix   = "Estoque"
	historySheetPrefix = "Historico"
)

// Store persists each equipment table in its own worksheet.
type Store struct {
	repo   Repository
	logger *zap.Logger
}

// NewStore wraps a spreadsheet repository as a storage backend.
func NewStore(repo Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, logger: logger}
}

// WorksheetTitle names the worksheet holding a table, e.g. Estoque_Illumina.
func WorksheetTitle(kind repository.TableKind, equipment models.Equipment) string {
	prefix := stockSheetPrefix
	if kind == repository.TableHistory {
		prefix = historySheetPrefix
	}
	return fmt.Sprintf("%s_%s", prefix, equipment)
}

func (s *Store) ReadStock(ctx context.Context, equipment models.Equipment) (models.StockTable, error) {
	rows, err := s.read(ctx, WorksheetTitle(repository.TableStock, equipment))
	if err != nil {
		return models.StockTable{Equipment: equipment}, err
	}
	return repository.DecodeStock(equipment, rows)
}

func (s *Store) WriteStock(ctx context.Context, equipment models.Equipment, table models.StockTable) error {
	return s.write(ctx, WorksheetTitle(repository.TableStock, equipment), repository.EncodeStock(table), repository.ColumnQuantity)
}

func (s *Store) ReadHistory(ctx context.Context, equipment models.Equipment) (models.UsageHistoryTable, error) {
	rows, err := s.read(ctx, WorksheetTitle(repository.TableHistory, equipment))
	if err != nil {
		return models.UsageHistoryTable{Equipment: equipment}, err
	}
	return repository.DecodeHistory(equipment, rows)
}

func (s *Store) WriteHistory(ctx context.Context, equipment models.Equipment, table models.UsageHistoryTable) error {
	return s.write(ctx, WorksheetTitle(repository.TableHistory, equipment), repository.EncodeHistory(table), repository.ColumnFrequency)
}

func (s *Store) Close() error { return nil }

func (s *Store) read(ctx context.Context, title string) ([][]string, error) {
	exists, err := s.hasWorksheet(ctx, title)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	values, err := s.repo.ReadRange(ctx, quoteRange(title, "A:Z"))
	if err != nil {
		return nil, err
	}
	return repository.StringGrid(values), nil
}

// write clears the worksheet then rewrites it from A1, with the numeric column
// sent as numbers.
func (s *Store) write(ctx context.Context, title string, rows [][]string, numericColumn string) error {
	exists, err := s.hasWorksheet(ctx, title)
	if err != nil {
		return err
	}
	if !exists {
		if err := s.repo.AddSheet(ctx, title); err != nil {
			return err
		}
	}

	if err := s.repo.ClearRange(ctx, quoteRange(title, "A:Z")); err != nil {
		return err
	}
	if err := s.repo.WriteRange(ctx, quoteRange(title, "A1"), repository.CellGrid(rows, numericColumn)); err != nil {
		return err
	}

	s.logger.Debug("worksheet replaced", zap.String("title", title), zap.Int("rows", len(rows)-1))
	return nil
}

func (s *Store) hasWorksheet(ctx context.Context, title string) (bool, error) {
	titles, err := s.repo.SheetTitles(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range titles {
		if existing == title {
			return true, nil
		}
	}
	return false, nil
}

func quoteRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(title, "'", "''"), cells)
}
