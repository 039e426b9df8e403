// Package reporting renders inventory reports: per-kit bar charts and the
// downloadable PDF that bundles the stock table with those charts.
package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

// ErrExportFailed wraps any failure while building a report document.
var ErrExportFailed = errors.New("report export failed")

const (
	contentTypePDF = "application/pdf"

	pageMargin  = 15.0
	rowHeight   = 8.0
	kitColWidth = 120.0
	qtyColWidth = 60.0
)

// SnapshotSource loads the current tables of one equipment.
type SnapshotSource interface {
	Snapshot(ctx context.Context, equipment models.Equipment) (models.Snapshot, error)
}

// Service exports reports from freshly loaded snapshots.
type Service struct {
	source SnapshotSource
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance.
func NewService(source SnapshotSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger, now: time.Now}
}

// Export loads equipment and renders its PDF report. Load errors are returned
// as they are; rendering errors wrap ErrExportFailed and carry no bytes.
func (s *Service) Export(ctx context.Context, equipment models.Equipment) (models.Report, error) {
	snap, err := s.source.Snapshot(ctx, equipment)
	if err != nil {
		return models.Report{}, err
	}

	at := s.now()
	data, err := RenderPDF(snap, at)
	if err != nil {
		s.logger.Error("report export failed", zap.String("equipment", string(equipment)), zap.Error(err))
		return models.Report{}, err
	}

	s.logger.Info("report exported", zap.String("equipment", string(equipment)), zap.Int("bytes", len(data)))
	return models.Report{
		Equipment:   equipment,
		Filename:    models.ReportFilename(equipment),
		ContentType: contentTypePDF,
		Data:        data,
		GeneratedAt: at,
	}, nil
}

// Chart loads equipment and renders one of its bar charts as PNG.
func (s *Service) Chart(ctx context.Context, equipment models.Equipment, kind ChartKind) ([]byte, error) {
	snap, err := s.source.Snapshot(ctx, equipment)
	if err != nil {
		return nil, err
	}
	return RenderChart(snap, kind)
}

// RenderPDF builds the report document for snap.
func RenderPDF(snap models.Snapshot, at time.Time) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("%w: %v", ErrExportFailed, r)
		}
	}()

	quantityPNG, err := RenderChart(snap, ChartQuantity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	var frequencyPNG []byte
	if len(snap.History.Records) > 0 {
		if frequencyPNG, err = RenderChart(snap, ChartFrequency); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(fmt.Sprintf("Relatório de Reagentes - %s", snap.Equipment), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Relatório de Reagentes - %s", snap.Equipment)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Gerado em "+at.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(kitColWidth, rowHeight, "Kit", "1", 0, "L", true, 0, "")
	pdf.CellFormat(qtyColWidth, rowHeight, "Quantidade", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, entry := range snap.Stock.Entries {
		tint := Tint(entry.Kit)
		pdf.SetFillColor(int(tint.R), int(tint.G), int(tint.B))
		pdf.CellFormat(kitColWidth, rowHeight, tr(entry.Kit), "1", 0, "L", true, 0, "")
		pdf.CellFormat(qtyColWidth, rowHeight, fmt.Sprintf("%d", entry.Quantity), "1", 1, "C", true, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(kitColWidth, rowHeight, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(qtyColWidth, rowHeight, fmt.Sprintf("%d", snap.Total), "1", 1, "C", true, 0, "")

	placeImage(pdf, "quantity.png", quantityPNG)
	if frequencyPNG != nil {
		placeImage(pdf, "frequency.png", frequencyPNG)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	return buf.Bytes(), nil
}

// placeImage appends png at full content width, starting a new page when it
// would cross the bottom margin.
func placeImage(pdf *fpdf.Fpdf, name string, png []byte) {
	if pdf.Err() {
		return
	}

	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	if info == nil || pdf.Err() {
		return
	}

	pageW, pageH := pdf.GetPageSize()
	width := pageW - 2*pageMargin
	height := width * info.Height() / info.Width()

	pdf.Ln(6)
	if pdf.GetY()+height > pageH-pageMargin {
		pdf.AddPage()
	}
	pdf.ImageOptions(name, pageMargin, pdf.GetY(), width, height, true, opts, 0, "")
}
