package reporting

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/mamadbah2/kitledger/internal/domain/models"
)

// ChartKind selects which per-kit series a bar chart plots.
type ChartKind string

const (
	ChartQuantity  ChartKind = "quantity"
	ChartFrequency ChartKind = "frequency"
)

var (
	// ErrUnknownChart is returned for a ChartKind other than quantity or frequency.
	ErrUnknownChart = errors.New("unknown chart kind")

	// ErrNoData is returned when the requested series has no bars to plot.
	ErrNoData = errors.New("nothing to chart")
)

const (
	chartHeight     = 512
	chartMinWidth   = 512
	chartBarWidth   = 40
	chartBarSpacing = 20
)

// ParseChartKind maps a query value onto a ChartKind; empty means quantity.
func ParseChartKind(value string) (ChartKind, error) {
	switch ChartKind(value) {
	case "", ChartQuantity:
		return ChartQuantity, nil
	case ChartFrequency:
		return ChartFrequency, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChart, value)
	}
}

type bar struct {
	kit   string
	value int
}

func quantityBars(stock models.StockTable) []bar {
	bars := make([]bar, 0, len(stock.Entries))
	for _, entry := range stock.Entries {
		bars = append(bars, bar{kit: entry.Kit, value: entry.Quantity})
	}
	return bars
}

func frequencyBars(history models.UsageHistoryTable) []bar {
	bars := make([]bar, 0, len(history.Records))
	for _, record := range history.Records {
		bars = append(bars, bar{kit: record.Kit, value: record.Frequency})
	}
	return bars
}

// RenderChart draws the kind series of snap as a PNG bar chart.
func RenderChart(snap models.Snapshot, kind ChartKind) ([]byte, error) {
	switch kind {
	case ChartQuantity:
		return renderBars(fmt.Sprintf("Quantidade por kit - %s", snap.Equipment), quantityBars(snap.Stock))
	case ChartFrequency:
		return renderBars(fmt.Sprintf("Frequência de uso - %s", snap.Equipment), frequencyBars(snap.History))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, kind)
	}
}

func renderBars(title string, bars []bar) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	lo, hi := 0, 1
	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		lo = min(lo, b.value)
		hi = max(hi, b.value)
		tint := Tint(b.kit)
		values = append(values, chart.Value{
			Label: b.kit,
			Value: float64(b.value),
			Style: chart.Style{
				FillColor:   drawing.Color{R: tint.R, G: tint.G, B: tint.B, A: tint.A},
				StrokeColor: drawing.ColorFromHex("606060"),
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Bottom: 20}},
		Width:      max(chartMinWidth, len(bars)*(chartBarWidth+chartBarSpacing)+160),
		Height:     chartHeight,
		BarWidth:   chartBarWidth,
		BarSpacing: chartBarSpacing,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: float64(lo), Max: float64(hi)},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}
