package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
)

const (
	stockPrefix   = "estoque"
	historyPrefix = "historico"
)

// Store keeps one CSV file per equipment per table kind under a root directory.
type Store struct {
	root   string
	logger *zap.Logger
}

// NewStore returns a CSV backed store rooted at root, creating the directory if needed.
func NewStore(root string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if root == "" {
		root = "./data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

func (s *Store) ReadStock(_ context.Context, equipment models.Equipment) (models.StockTable, error) {
	rows, err := s.read(stockPrefix, equipment)
	if err != nil {
		return models.StockTable{Equipment: equipment}, err
	}
	return repository.DecodeStock(equipment, rows)
}

func (s *Store) WriteStock(_ context.Context, equipment models.Equipment, table models.StockTable) error {
	return s.write(stockPrefix, equipment, repository.EncodeStock(table))
}

func (s *Store) ReadHistory(_ context.Context, equipment models.Equipment) (models.UsageHistoryTable, error) {
	rows, err := s.read(historyPrefix, equipment)
	if err != nil {
		return models.UsageHistoryTable{Equipment: equipment}, err
	}
	return repository.DecodeHistory(equipment, rows)
}

func (s *Store) WriteHistory(_ context.Context, equipment models.Equipment, table models.UsageHistoryTable) error {
	return s.write(historyPrefix, equipment, repository.EncodeHistory(table))
}

func (s *Store) Close() error { return nil }

// Path returns the CSV location for a table.
func (s *Store) Path(prefix string, equipment models.Equipment) (string, error) {
	name := string(equipment)
	if strings.TrimSpace(name) == "" {
		return "", errors.New("empty equipment name")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid equipment name %q", name)
	}
	return filepath.Join(s.root, fmt.Sprintf("%s_%s.csv", prefix, name)), nil
}

func (s *Store) read(prefix string, equipment models.Equipment) ([][]string, error) {
	path, err := s.Path(prefix, equipment)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", repository.ErrMalformed, path, err)
	}
	return rows, nil
}

// write replaces the file through a temp file and rename so readers never see half a table.
func (s *Store) write(prefix string, equipment models.Equipment, rows [][]string) error {
	path, err := s.Path(prefix, equipment)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}

	s.logger.Debug("table written", zap.String("path", path), zap.Int("rows", len(rows)-1))
	return nil
}
