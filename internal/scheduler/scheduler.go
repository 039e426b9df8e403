package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitledger/internal/config"
	"github.com/mamadbah2/kitledger/internal/domain/models"
)

const (
	archiveTimeout = 2 * time.Minute
	dayLayout      = "2006-01-02"
)

// Exporter renders the report of one equipment.
type Exporter interface {
	Export(ctx context.Context, equipment models.Equipment) (models.Report, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	exporter   Exporter
	equipments []models.Equipment
	cfg        config.ReportingConfig
	location   *time.Location
	logger     *zap.Logger
}

// NewScheduler creates a scheduler that archives the reports of equipments.
func NewScheduler(cfg config.ReportingConfig, exporter Exporter, equipments []models.Equipment, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	// Standard 5-field cron (min, hour, dom, month, dow) evaluated in loc.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:       c,
		exporter:   exporter,
		equipments: equipments,
		cfg:        cfg,
		location:   loc,
		logger:     logger,
	}, nil
}

// Start schedules the archive job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.location.String()))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.archiveReports); err != nil {
		return fmt.Errorf("schedule report archive: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) archiveReports() {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	written := s.archive(ctx, time.Now().In(s.location))
	s.logger.Info("report archive finished", zap.Int("written", written), zap.Int("equipments", len(s.equipments)))
}

// archive writes one PDF per equipment under ArchiveDir/<day>/ and returns how
// many were written. A failing equipment is logged and skipped.
func (s *Scheduler) archive(ctx context.Context, now time.Time) int {
	dir := filepath.Join(s.cfg.ArchiveDir, now.Format(dayLayout))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create archive dir", zap.String("dir", dir), zap.Error(err))
		return 0
	}

	var written int
	for _, equipment := range s.equipments {
		report, err := s.exporter.Export(ctx, equipment)
		if err != nil {
			s.logger.Error("failed to export report", zap.String("equipment", string(equipment)), zap.Error(err))
			continue
		}

		path := filepath.Join(dir, report.Filename)
		if err := os.WriteFile(path, report.Data, 0o644); err != nil {
			s.logger.Error("failed to write report", zap.String("path", path), zap.Error(err))
			continue
		}
		s.logger.Info("report archived", zap.String("equipment", string(equipment)), zap.String("path", path))
		written++
	}
	return written
}
