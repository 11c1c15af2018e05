package chart

import (
	"fmt"
	"io"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"CandleView/internal/profit"
)

// ProfitChart paints the total-profit history as a line over a dashed zero baseline.
type ProfitChart struct {
	Width, Height int
	Palette       Palette
	Title         string
}

// NewProfitChart creates a profit chart with the default palette.
func NewProfitChart(width, height int) *ProfitChart {
	return &ProfitChart{
		Width:   width,
		Height:  height,
		Palette: DefaultPalette,
		Title:   "Total Profit (%)",
	}
}

// Chart builds the go-chart description of h. Labels count back from now.
func (p *ProfitChart) Chart(h *profit.History, now time.Time) (gochart.Chart, error) {
	n := h.Len()
	if n == 0 {
		return gochart.Chart{}, ErrNoData
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	lineColor := p.Palette.Bearish
	if h.Positive() {
		lineColor = p.Palette.Bullish
	}
	ymin, ymax := h.YRange()
	if ymax-ymin <= 0 {
		ymin, ymax = -1, 1
	}
	xmin, xmax := -0.5, float64(n)-0.5

	ticks := []gochart.Tick{{Value: xmin}}
	for i, l := range h.Labels(now) {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: l})
	}
	ticks = append(ticks, gochart.Tick{Value: xmax})

	axis := gochart.Style{FontColor: p.Palette.Text, StrokeColor: p.Palette.Axis}
	return gochart.Chart{
		Title:      p.Title,
		TitleStyle: gochart.Style{FontColor: p.Palette.Text},
		Width:      p.Width,
		Height:     p.Height,
		Background: gochart.Style{
			FillColor: p.Palette.Background,
			Padding:   gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: gochart.Style{FillColor: p.Palette.Background},
		XAxis: gochart.XAxis{
			Style: axis,
			Range: &gochart.ContinuousRange{Min: xmin, Max: xmax},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{
			Style: axis,
			Range: &gochart.ContinuousRange{Min: ymin, Max: ymax},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.1f%%", f)
				}
				return ""
			},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name: "zero",
				Style: gochart.Style{
					StrokeColor:     p.Palette.Baseline,
					StrokeWidth:     1,
					StrokeDashArray: []float64{5, 5},
				},
				XValues: []float64{xmin, xmax},
				YValues: []float64{0, 0},
			},
			gochart.ContinuousSeries{
				Name: "profit",
				Style: gochart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2,
					DotColor:    lineColor,
					DotWidth:    4,
				},
				XValues: xs,
				YValues: h.Rates(),
			},
		},
	}, nil
}

// Write paints h.
func (p *ProfitChart) Write(w io.Writer, format Format, h *profit.History, now time.Time) error {
	ch, err := p.Chart(h, now)
	if err != nil {
		return err
	}
	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render profit chart: %w", err)
	}
	return nil
}

// WriteFile paints h into path.
func (p *ProfitChart) WriteFile(path string, format Format, h *profit.History, now time.Time) error {
	return writeFileAtomic(path, func(w io.Writer) error { return p.Write(w, format, h, now) })
}
