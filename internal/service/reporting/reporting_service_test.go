package reporting

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/kitledger/internal/domain/catalog"
	"github.com/mamadbah2/kitledger/internal/domain/models"
)

type staticSource struct {
	snap models.Snapshot
	err  error
}

func (s staticSource) Snapshot(context.Context, models.Equipment) (models.Snapshot, error) {
	return s.snap, s.err
}

func illuminaSnapshot(t *testing.T) models.Snapshot {
	t.Helper()
	stock, err := catalog.Default().Seed(catalog.Illumina)
	require.NoError(t, err)
	stock.Entries[0].Quantity = 30
	stock.Entries[3].Quantity = 12
	return models.Snapshot{
		Equipment: catalog.Illumina,
		Stock:     stock,
		History: models.UsageHistoryTable{
			Equipment: catalog.Illumina,
			Records:   []models.UsageRecord{{Kit: "P1 300", Frequency: 1}},
		},
		Total: stock.Total(),
	}
}

func TestExportProducesNamedPDF(t *testing.T) {
	svc := NewService(staticSource{snap: illuminaSnapshot(t)}, nil)
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	report, err := svc.Export(context.Background(), catalog.Illumina)
	require.NoError(t, err)

	assert.Equal(t, "controle_reagentes_Illumina.pdf", report.Filename)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.Equal(t, at, report.GeneratedAt)
	assert.True(t, bytes.HasPrefix(report.Data, []byte("%PDF-")), "missing PDF header")
}

func TestExportWithoutHistorySkipsFrequencyChart(t *testing.T) {
	snap := illuminaSnapshot(t)
	snap.History.Records = nil

	withHistory, err := RenderPDF(illuminaSnapshot(t), time.Now())
	require.NoError(t, err)
	withoutHistory, err := RenderPDF(snap, time.Now())
	require.NoError(t, err)

	assert.Less(t, len(withoutHistory), len(withHistory))
}

func TestExportPassesLoadErrorsThrough(t *testing.T) {
	svc := NewService(staticSource{err: catalog.ErrUnknownEquipment}, nil)

	report, err := svc.Export(context.Background(), "Nanopore")
	assert.ErrorIs(t, err, catalog.ErrUnknownEquipment)
	assert.NotErrorIs(t, err, ErrExportFailed)
	assert.Nil(t, report.Data)
}

func TestRenderPDFFailsOnEmptyStock(t *testing.T) {
	data, err := RenderPDF(models.Snapshot{Equipment: "Empty"}, time.Now())
	assert.ErrorIs(t, err, ErrExportFailed)
	assert.Nil(t, data)
}

func TestRenderChartPNG(t *testing.T) {
	snap := illuminaSnapshot(t)
	pngHeader := []byte("\x89PNG\r\n\x1a\n")

	quantity, err := RenderChart(snap, ChartQuantity)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(quantity, pngHeader))

	frequency, err := RenderChart(snap, ChartFrequency)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(frequency, pngHeader))
}

func TestRenderChartAllZeroQuantities(t *testing.T) {
	stock, err := catalog.Default().Seed(catalog.PacBio)
	require.NoError(t, err)

	_, err = RenderChart(models.Snapshot{Equipment: catalog.PacBio, Stock: stock}, ChartQuantity)
	assert.NoError(t, err)
}

func TestRenderChartErrors(t *testing.T) {
	snap := illuminaSnapshot(t)
	snap.History.Records = nil

	_, err := RenderChart(snap, ChartFrequency)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = RenderChart(snap, "pie")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestChartLoadsSnapshot(t *testing.T) {
	svc := NewService(staticSource{err: errors.New("boom")}, nil)
	_, err := svc.Chart(context.Background(), catalog.Illumina, ChartQuantity)
	assert.EqualError(t, err, "boom")
}

func TestParseChartKind(t *testing.T) {
	kind, err := ParseChartKind("")
	require.NoError(t, err)
	assert.Equal(t, ChartQuantity, kind)

	kind, err = ParseChartKind("frequency")
	require.NoError(t, err)
	assert.Equal(t, ChartFrequency, kind)

	_, err = ParseChartKind("volume")
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestTintIsStablePastel(t *testing.T) {
	a := Tint("P1 300")
	assert.Equal(t, a, Tint("P1 300"))
	assert.NotEqual(t, a, Tint("P1 600"))

	for _, kit := range []string{"P1 300", "SMRT Cell 8M", "MagBeads", ""} {
		c := Tint(kit)
		assert.Equal(t, uint8(0xff), c.A)
		for _, v := range []uint8{c.R, c.G, c.B} {
			assert.GreaterOrEqual(t, v, uint8(190), "tint for %q is not pastel: %v", kit, c)
		}
	}
}
