package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitledger/internal/config"
	"github.com/mamadbah2/kitledger/internal/domain/models"
)

type fakeExporter struct {
	fail map[models.Equipment]error
}

func (f fakeExporter) Export(_ context.Context, equipment models.Equipment) (models.Report, error) {
	if err := f.fail[equipment]; err != nil {
		return models.Report{}, err
	}
	return models.Report{
		Equipment: equipment,
		Filename:  models.ReportFilename(equipment),
		Data:      []byte("%PDF-" + string(equipment)),
	}, nil
}

func TestArchiveWritesOneFilePerEquipment(t *testing.T) {
	dir := t.TempDir()
	exporter := fakeExporter{fail: map[models.Equipment]error{"PacBio": errors.New("sheet offline")}}
	s, err := NewScheduler(config.ReportingConfig{
		CronSchedule: "0 6 * * *",
		Timezone:     "UTC",
		ArchiveDir:   dir,
	}, exporter, []models.Equipment{"Illumina", "PacBio", "MiSeq"}, nil)
	require.NoError(t, err)

	written := s.archive(context.Background(), time.Date(2026, 7, 9, 6, 0, 0, 0, s.location))
	assert.Equal(t, 2, written)

	day := filepath.Join(dir, "2026-07-09")
	data, err := os.ReadFile(filepath.Join(day, "controle_reagentes_Illumina.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-Illumina", string(data))

	_, err = os.Stat(filepath.Join(day, "controle_reagentes_MiSeq.pdf"))
	assert.NoError(t, err, "a failing equipment must not stop the others")
	_, err = os.Stat(filepath.Join(day, "controle_reagentes_PacBio.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{Timezone: "Mars/Olympus"}, fakeExporter{}, nil, nil)
	assert.Error(t, err)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "every friday", Timezone: "UTC"}, fakeExporter{}, nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}
