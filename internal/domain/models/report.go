package models

import (
	"fmt"
	"time"
)

// Report is a rendered inventory document ready for download or archiving.
type Report struct {
	Equipment   Equipment `json:"equipment"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ReportFilename follows the controle_reagentes_<equipment>.pdf convention.
func ReportFilename(equipment Equipment) string {
	return fmt.Sprintf("controle_reagentes_%s.pdf", equipment)
}

// Snapshot is the state an operator surface renders for one equipment.
type Snapshot struct {
	Equipment Equipment         `json:"equipment"`
	Stock     StockTable        `json:"stock"`
	History   UsageHistoryTable `json:"history"`
	Total     int               `json:"total"`
}
