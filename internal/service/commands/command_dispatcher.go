// Package commands runs operator commands against one equipment at a time.
//
// Each command reloads the tables it needs from the backend, applies the
// ledger rules and persists the result before returning; nothing is cached
// between calls. There is no locking: two operators mutating the same
// equipment at once race, and whichever write lands last wins.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/config"
	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/domain/models"
	"github.com/mamadbah2/kitledger/internal/metrics"
	"github.com/mamadbah2/kitledger/internal/service/ledger"
	"github.com/mamadbah2/kitledger/internal/service/usage"
	"github.com/mamadbah2/kitledger/pkg/clients/alert"
)

// ErrInternal wraps a panic recovered while executing a command.
var ErrInternal = errors.New("internal error")

const (
	OperationDeduct = "deduct"
	OperationAdd    = "add"

	alertTimeout = 10 * time.Second
)

// Outcome carries the tables as they stand after a command. On rejection they
// are the freshly reloaded, unchanged tables.
type Outcome struct {
	Equipment models.Equipment         `json:"equipment"`
	Operation string                   `json:"operation"`
	Kit       string                   `json:"kit"`
	Amount    int                      `json:"amount"`
	Stock     models.StockTable        `json:"stock"`
	History   models.UsageHistoryTable `json:"history"`
	Total     int                      `json:"total"`
	Message   string                   `json:"message"`
}

// Dispatcher is the operation surface used by the HTTP and CLI front ends.
type Dispatcher interface {
	Snapshot(ctx context.Context, equipment models.Equipment) (models.Snapshot, error)
	Deduct(ctx context.Context, equipment models.Equipment, kit string, amount int) (Outcome, error)
	Add(ctx context.Context, equipment models.Equipment, kit string, amount int) (Outcome, error)
}

// AlertPolicy decides when a deduction triggers a low-stock alert.
type AlertPolicy struct {
	Client    alert.Client
	Threshold int
}

// NewAlertPolicy builds the webhook policy from cfg, or returns nil when alerts are disabled.
func NewAlertPolicy(cfg config.AlertConfig) *AlertPolicy {
	if !cfg.Enabled() {
		return nil
	}
	return &AlertPolicy{Client: alert.NewClient(cfg), Threshold: cfg.LowStockThreshold}
}

// Service implements the Dispatcher interface.
type Service struct {
	stock   *ledger.Service
	usage   *usage.Service
	alerts  *AlertPolicy
	metrics *metrics.Recorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewService constructs a command dispatcher. alerts and recorder may be nil.
func NewService(stock *ledger.Service, history *usage.Service, alerts *AlertPolicy, recorder *metrics.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stock:   stock,
		usage:   history,
		alerts:  alerts,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// Snapshot loads both tables for display. Backend failures fall back to defaults.
func (s *Service) Snapshot(ctx context.Context, equipment models.Equipment) (snap models.Snapshot, err error) {
	defer s.recoverInto(&err, "snapshot", equipment)

	stock, err := s.stock.Load(ctx, equipment)
	if err != nil {
		return models.Snapshot{}, err
	}
	history := s.usage.Load(ctx, equipment)

	return models.Snapshot{
		Equipment: equipment,
		Stock:     stock,
		History:   history,
		Total:     ledger.Total(stock),
	}, nil
}

// Deduct removes amount units of kit and counts one usage, persisting both tables.
func (s *Service) Deduct(ctx context.Context, equipment models.Equipment, kit string, amount int) (out Outcome, err error) {
	defer func() { s.record(equipment, OperationDeduct, err) }()
	defer s.recoverInto(&err, OperationDeduct, equipment)

	out = Outcome{Equipment: equipment, Operation: OperationDeduct, Kit: kit, Amount: amount}

	stock, err := s.stock.LoadForUpdate(ctx, equipment)
	if err != nil {
		return out, err
	}
	history, err := s.usage.LoadForUpdate(ctx, equipment)
	if err != nil {
		return out, err
	}
	out.fill(stock, history)

	next, err := ledger.Deduct(stock, kit, amount)
	if err != nil {
		s.logger.Info("deduction rejected", zap.String("equipment", string(equipment)), zap.String("kit", kit), zap.Int("amount", amount), zap.Error(err))
		return out, err
	}
	nextHistory := usage.RecordDeduction(history, kit)

	if err := s.stock.Save(ctx, equipment, next); err != nil {
		return out, err
	}
	if err := s.usage.Save(ctx, equipment, nextHistory); err != nil {
		// Stock is already written; the table reflects it even though the counter does not.
		out.fill(next, history)
		return out, err
	}

	out.fill(next, nextHistory)
	remaining := next.Entries[next.Index(kit)].Quantity
	out.Message = fmt.Sprintf("%d unidades removidas do kit %s.", amount, kit)

	s.logger.Info("stock deducted",
		zap.String("equipment", string(equipment)),
		zap.String("kit", kit),
		zap.Int("amount", amount),
		zap.Int("remaining", remaining))

	s.maybeAlert(ctx, equipment, kit, remaining)
	return out, nil
}

// Add puts amount units on kit and persists the stock table. Usage history is not touched.
func (s *Service) Add(ctx context.Context, equipment models.Equipment, kit string, amount int) (out Outcome, err error) {
	defer func() { s.record(equipment, OperationAdd, err) }()
	defer s.recoverInto(&err, OperationAdd, equipment)

	out = Outcome{Equipment: equipment, Operation: OperationAdd, Kit: kit, Amount: amount}

	stock, err := s.stock.LoadForUpdate(ctx, equipment)
	if err != nil {
		return out, err
	}
	out.fill(stock, s.usage.Load(ctx, equipment))

	next, err := ledger.Add(stock, kit, amount)
	if err != nil {
		s.logger.Info("addition rejected", zap.String("equipment", string(equipment)), zap.String("kit", kit), zap.Int("amount", amount), zap.Error(err))
		return out, err
	}

	if err := s.stock.Save(ctx, equipment, next); err != nil {
		return out, err
	}

	out.fill(next, out.History)
	out.Message = fmt.Sprintf("%d unidades adicionadas ao kit %s.", amount, kit)

	s.logger.Info("stock added", zap.String("equipment", string(equipment)), zap.String("kit", kit), zap.Int("amount", amount))
	return out, nil
}

func (o *Outcome) fill(stock models.StockTable, history models.UsageHistoryTable) {
	o.Stock = stock
	o.History = history
	o.Total = ledger.Total(stock)
}

func (s *Service) maybeAlert(ctx context.Context, equipment models.Equipment, kit string, remaining int) {
	if s.alerts == nil || s.alerts.Client == nil || remaining > s.alerts.Threshold {
		return
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, alertTimeout)
	defer cancel()

	err := s.alerts.Client.SendLowStock(ctxWithTimeout, alert.LowStockAlert{
		Equipment: string(equipment),
		Kit:       kit,
		Quantity:  remaining,
		Threshold: s.alerts.Threshold,
		At:        s.now().UTC(),
	})
	if err != nil {
		s.logger.Warn("low stock alert failed", zap.String("equipment", string(equipment)), zap.String("kit", kit), zap.Error(err))
	}
}

func (s *Service) record(equipment models.Equipment, operation string, err error) {
	switch {
	case err == nil:
		s.metrics.Mutation(equipment, operation, metrics.ResultSuccess)
	case IsRejection(err):
		s.metrics.Mutation(equipment, operation, metrics.ResultRejected)
	default:
		s.metrics.Mutation(equipment, operation, metrics.ResultError)
	}
}

// recoverInto converts a panic into ErrInternal so the caller's session survives.
func (s *Service) recoverInto(err *error, operation string, equipment models.Equipment) {
	if r := recover(); r != nil {
		s.logger.Error("command panicked",
			zap.String("operation", operation),
			zap.String("equipment", string(equipment)),
			zap.Any("panic", r),
			zap.Stack("stack"))
		*err = fmt.Errorf("%w: %s failed: %v", ErrInternal, operation, r)
	}
}

// IsRejection reports whether err is a validation outcome rather than a fault.
func IsRejection(err error) bool {
	return errors.Is(err, catalog.ErrUnknownEquipment) ||
		errors.Is(err, ledger.ErrKitNotFound) ||
		errors.Is(err, ledger.ErrInsufficientStock) ||
		errors.Is(err, ledger.ErrInvalidAmount)
}
