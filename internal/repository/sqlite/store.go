package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS stock (
	equipment  TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	kit        TEXT    NOT NULL,
	quantidade INTEGER NOT NULL,
	PRIMARY KEY (equipment, kit)
);
CREATE TABLE IF NOT EXISTS usage_history (
	equipment  TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	kit        TEXT    NOT NULL,
	frequencia INTEGER NOT NULL,
	PRIMARY KEY (equipment, kit)
);`

// Store persists stock and usage history rows in a local SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if needed) the database at path and ensures the schema.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		path = "kitledger.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) ReadStock(ctx context.Context, equipment models.Equipment) (models.StockTable, error) {
	table := models.StockTable{Equipment: equipment}
	err := s.query(ctx, `SELECT kit, quantidade FROM stock WHERE equipment = ? ORDER BY position`, equipment, func(kit string, value int) {
		table.Entries = append(table.Entries, models.StockEntry{Kit: kit, Quantity: value})
	})
	if err != nil {
		return models.StockTable{Equipment: equipment}, fmt.Errorf("select stock: %w", err)
	}
	return table, nil
}

func (s *Store) WriteStock(ctx context.Context, equipment models.Equipment, table models.StockTable) error {
	rows := make([]row, 0, len(table.Entries))
	for _, entry := range table.Entries {
		rows = append(rows, row{kit: entry.Kit, value: entry.Quantity})
	}
	return s.replace(ctx, "stock", "quantidade", equipment, rows)
}

func (s *Store) ReadHistory(ctx context.Context, equipment models.Equipment) (models.UsageHistoryTable, error) {
	table := models.UsageHistoryTable{Equipment: equipment}
	err := s.query(ctx, `SELECT kit, frequencia FROM usage_history WHERE equipment = ? ORDER BY position`, equipment, func(kit string, value int) {
		table.Records = append(table.Records, models.UsageRecord{Kit: kit, Frequency: value})
	})
	if err != nil {
		return models.UsageHistoryTable{Equipment: equipment}, fmt.Errorf("select usage history: %w", err)
	}
	return table, nil
}

func (s *Store) WriteHistory(ctx context.Context, equipment models.Equipment, table models.UsageHistoryTable) error {
	rows := make([]row, 0, len(table.Records))
	for _, record := range table.Records {
		rows = append(rows, row{kit: record.Kit, value: record.Frequency})
	}
	return s.replace(ctx, "usage_history", "frequencia", equipment, rows)
}

func (s *Store) Close() error { return s.db.Close() }

type row struct {
	kit   string
	value int
}

func (s *Store) query(ctx context.Context, stmt string, equipment models.Equipment, emit func(kit string, value int)) error {
	rows, err := s.db.QueryContext(ctx, stmt, string(equipment))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			kit   string
			value int
		)
		if err := rows.Scan(&kit, &value); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		emit(kit, value)
	}
	return rows.Err()
}

// replace deletes every row of the equipment and inserts the new table in one transaction.
func (s *Store) replace(ctx context.Context, table, valueColumn string, equipment models.Equipment, rows []row) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE equipment = ?`, table), string(equipment)); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	insert := fmt.Sprintf(`INSERT INTO %s (equipment, position, kit, %s) VALUES (?, ?, ?, ?)`, table, valueColumn)
	for i, r := range rows {
		if _, err := tx.ExecContext(ctx, insert, string(equipment), i, r.kit, r.value); err != nil {
			return fmt.Errorf("insert %s row %q: %w", table, r.kit, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}

	s.logger.Debug("table replaced", zap.String("table", table), zap.String("equipment", string(equipment)), zap.Int("rows", len(rows)))
	return nil
}
