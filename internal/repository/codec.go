package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

// Persisted column names.
const (
	ColumnKit       = "Kit"
	ColumnQuantity  = "Quantidade"
	ColumnFrequency = "Frequencia"
)

// StockHeader and HistoryHeader are the header rows written by every tabular backend.
var (
	StockHeader   = []string{ColumnKit, ColumnQuantity}
	HistoryHeader = []string{ColumnKit, ColumnFrequency}
)

// EncodeStock renders a stock table as a header row followed by one row per entry.
func EncodeStock(table models.StockTable) [][]string {
	rows := make([][]string, 0, len(table.Entries)+1)
	rows = append(rows, append([]string(nil), StockHeader...))
	for _, entry := range table.Entries {
		rows = append(rows, []string{entry.Kit, strconv.Itoa(entry.Quantity)})
	}
	return rows
}

// EncodeHistory renders a usage history table as a header row followed by one row per record.
func EncodeHistory(table models.UsageHistoryTable) [][]string {
	rows := make([][]string, 0, len(table.Records)+1)
	rows = append(rows, append([]string(nil), HistoryHeader...))
	for _, record := range table.Records {
		rows = append(rows, []string{record.Kit, strconv.Itoa(record.Frequency)})
	}
	return rows
}

// DecodeStock parses a header-first grid. An empty grid is an empty table.
func DecodeStock(equipment models.Equipment, rows [][]string) (models.StockTable, error) {
	table := models.StockTable{Equipment: equipment}
	err := decodeGrid(rows, ColumnQuantity, func(kit string, value int) {
		if table.Index(kit) >= 0 {
			return
		}
		table.Entries = append(table.Entries, models.StockEntry{Kit: kit, Quantity: value})
	})
	if err != nil {
		return models.StockTable{Equipment: equipment}, fmt.Errorf("stock %s: %w", equipment, err)
	}
	return table, nil
}

// DecodeHistory parses a header-first grid. An empty grid is an empty table.
func DecodeHistory(equipment models.Equipment, rows [][]string) (models.UsageHistoryTable, error) {
	table := models.UsageHistoryTable{Equipment: equipment}
	err := decodeGrid(rows, ColumnFrequency, func(kit string, value int) {
		if table.Index(kit) >= 0 {
			return
		}
		table.Records = append(table.Records, models.UsageRecord{Kit: kit, Frequency: value})
	})
	if err != nil {
		return models.UsageHistoryTable{Equipment: equipment}, fmt.Errorf("history %s: %w", equipment, err)
	}
	return table, nil
}

// StringGrid converts spreadsheet style cells into strings. Whole numbers
// render without exponent or decimals.
func StringGrid(values [][]interface{}) [][]string {
	rows := make([][]string, 0, len(values))
	for _, row := range values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			switch v := cell.(type) {
			case nil:
				cells = append(cells, "")
			case float64:
				cells = append(cells, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				cells = append(cells, fmt.Sprint(v))
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

// CellGrid converts a header-first string grid into spreadsheet style cells.
// Data cells under numericColumn that hold an integer become int so the
// spreadsheet stores a number rather than text.
func CellGrid(rows [][]string, numericColumn string) [][]interface{} {
	values := make([][]interface{}, 0, len(rows))
	numericIdx := -1
	for i, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for j, cell := range row {
			if i == 0 && strings.TrimSpace(cell) == numericColumn {
				numericIdx = j
			}
			if i > 0 && j == numericIdx {
				if n, err := strconv.Atoi(cell); err == nil {
					cells = append(cells, n)
					continue
				}
			}
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	return values
}

// decodeGrid walks data rows, skipping blank ones and rows without a kit name.
// Duplicate kits are reported to emit and resolved there.
func decodeGrid(rows [][]string, valueColumn string, emit func(kit string, value int)) error {
	if len(rows) == 0 {
		return nil
	}

	kitIdx, valueIdx := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case ColumnKit:
			kitIdx = i
		case valueColumn:
			valueIdx = i
		}
	}
	if kitIdx < 0 {
		return fmt.Errorf("%w: missing column %q", ErrMalformed, ColumnKit)
	}
	if valueIdx < 0 {
		return fmt.Errorf("%w: missing column %q", ErrMalformed, valueColumn)
	}

	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}

		kit := cell(row, kitIdx)
		if kit == "" {
			continue
		}

		raw := cell(row, valueIdx)
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: row %d: %s %q is not an integer", ErrInvalidCell, n+2, valueColumn, raw)
		}
		emit(kit, value)
	}

	return nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
