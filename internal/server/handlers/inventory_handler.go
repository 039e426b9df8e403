package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/repository"
	"github.com/mamadbah2/kitledger/internal/service/commands"
	"github.com/mamadbah2/kitledger/internal/service/ledger"
	"github.com/mamadbah2/kitledger/internal/service/reporting"
)

// Reporter renders charts and PDF reports for one equipment.
type Reporter interface {
	Export(ctx context.Context, equipment models.Equipment) (models.Report, error)
	Chart(ctx context.Context, equipment models.Equipment, kind reporting.ChartKind) ([]byte, error)
}

// MutationRequest is the body of the deduct and add endpoints.
type MutationRequest struct {
	Kit    string `json:"kit" binding:"required"`
	Amount int    `json:"amount" binding:"required,gte=1"`
}

type equipmentView struct {
	Equipment models.Equipment `json:"equipment"`
	Kits      []string         `json:"kits"`
}

type stockView struct {
	Equipment models.Equipment    `json:"equipment"`
	Entries   []models.StockEntry `json:"entries"`
	Total     int                 `json:"total"`
}

type historyView struct {
	Equipment models.Equipment     `json:"equipment"`
	Records   []models.UsageRecord `json:"records"`
}

// InventoryHandler exposes the ledger commands over HTTP.
type InventoryHandler struct {
	commands commands.Dispatcher
	reports  Reporter
	catalog  *catalog.Catalog
	logger   *zap.Logger
}

// NewInventoryHandler constructs the HTTP handler adapter.
func NewInventoryHandler(dispatcher commands.Dispatcher, reports Reporter, cat *catalog.Catalog, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &InventoryHandler{commands: dispatcher, reports: reports, catalog: cat, logger: logger}
}

// ListEquipment returns every catalog equipment with its kits.
func (h *InventoryHandler) ListEquipment(c *gin.Context) {
	equipments := h.catalog.Equipments()
	views := make([]equipmentView, 0, len(equipments))
	for _, equipment := range equipments {
		kits, _ := h.catalog.Kits(equipment)
		views = append(views, equipmentView{Equipment: equipment, Kits: kits})
	}
	c.JSON(http.StatusOK, gin.H{"equipment": views})
}

// Stock returns the current stock table and its total.
func (h *InventoryHandler) Stock(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stockView{Equipment: snap.Equipment, Entries: nonNilEntries(snap.Stock.Entries), Total: snap.Total})
}

// History returns the usage history table.
func (h *InventoryHandler) History(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	records := snap.History.Records
	if records == nil {
		records = []models.UsageRecord{}
	}
	c.JSON(http.StatusOK, historyView{Equipment: snap.Equipment, Records: records})
}

// Deduct removes units of a kit and counts one usage.
func (h *InventoryHandler) Deduct(c *gin.Context) {
	h.mutate(c, h.commands.Deduct)
}

// Add puts units on a kit.
func (h *InventoryHandler) Add(c *gin.Context) {
	h.mutate(c, h.commands.Add)
}

// Chart streams a PNG bar chart; ?kind=quantity (default) or frequency.
func (h *InventoryHandler) Chart(c *gin.Context) {
	equipment, ok := h.equipment(c)
	if !ok {
		return
	}
	kind, err := reporting.ParseChartKind(c.Query("kind"))
	if err != nil {
		h.fail(c, err)
		return
	}

	png, err := h.reports.Chart(c.Request.Context(), equipment, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Report downloads the PDF report as an attachment.
func (h *InventoryHandler) Report(c *gin.Context) {
	equipment, ok := h.equipment(c)
	if !ok {
		return
	}

	report, err := h.reports.Export(c.Request.Context(), equipment)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

type mutation func(ctx context.Context, equipment models.Equipment, kit string, amount int) (commands.Outcome, error)

func (h *InventoryHandler) mutate(c *gin.Context, run mutation) {
	equipment, ok := h.equipment(c)
	if !ok {
		return
	}

	var req MutationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid mutation payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := run(c.Request.Context(), equipment, req.Kit, req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) snapshot(c *gin.Context) (models.Snapshot, bool) {
	equipment, ok := h.equipment(c)
	if !ok {
		return models.Snapshot{}, false
	}
	snap, err := h.commands.Snapshot(c.Request.Context(), equipment)
	if err != nil {
		h.fail(c, err)
		return models.Snapshot{}, false
	}
	return snap, true
}

func (h *InventoryHandler) equipment(c *gin.Context) (models.Equipment, bool) {
	equipment, err := h.catalog.Resolve(c.Param("equipment"))
	if err != nil {
		h.fail(c, err)
		return "", false
	}
	return equipment, true
}

func (h *InventoryHandler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps a command or export error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownEquipment),
		errors.Is(err, ledger.ErrKitNotFound),
		errors.Is(err, reporting.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, reporting.ErrUnknownChart):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrInvalidCell):
		return http.StatusConflict
	case errors.Is(err, repository.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func nonNilEntries(entries []models.StockEntry) []models.StockEntry {
	if entries == nil {
		return []models.StockEntry{}
	}
	return entries
}
