package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CandleView/internal/marker"
	"CandleView/internal/model"
	"CandleView/internal/profit"
	"CandleView/internal/render"
)

func twoCandles() []model.OHLCSample {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.OHLCSample{
		{Index: 0, OpenTime: t0, Open: 10, High: 12, Low: 9, Close: 11},
		{Index: 1, OpenTime: t0.Add(time.Hour), Open: 11, High: 11.5, Low: 8, Close: 8.5},
	}
}

func TestParseModeAndFormat(t *testing.T) {
	m, err := ParseMode(" Line ")
	require.NoError(t, err)
	assert.Equal(t, ModeLine, m)
	_, err = ParseMode("bars")
	assert.Error(t, err)

	f, err := ParseFormat("PNG")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestCanvasWriteBeforeUpdate(t *testing.T) {
	c := NewCanvas(800, 600, render.DefaultHalfWidth)

	var buf bytes.Buffer
	assert.ErrorIs(t, c.Write(&buf, FormatSVG), ErrNoData)
	_, err := c.Viewport()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCanvasUpdateCachesPrimitives(t *testing.T) {
	c := NewCanvas(800, 600, 0.3)
	c.Update(twoCandles())

	prims, b := c.Primitives()
	assert.Len(t, prims, 4)
	assert.Equal(t, render.Bounds{XMin: 0, XMax: 1, YMin: 8, YMax: 12}, b)

	vp, err := c.Viewport()
	require.NoError(t, err)
	assert.InDelta(t, -0.3, vp.XMin, 1e-9)
	assert.InDelta(t, 1.3, vp.XMax, 1e-9)
	assert.Equal(t, 8.0, vp.YMin)
	assert.Equal(t, 12.0, vp.YMax)
}

func TestViewportFlatPrice(t *testing.T) {
	vp := viewport(render.Bounds{XMin: 0, XMax: 0, YMin: 5, YMax: 5}, 0.3)
	assert.Equal(t, 4.0, vp.YMin)
	assert.Equal(t, 6.0, vp.YMax)
	assert.InDelta(t, 0.6, vp.Width(), 1e-9)
}

func TestCanvasWriteCandleSVG(t *testing.T) {
	c := NewCanvas(800, 600, 0.3)
	c.Update(twoCandles())
	c.SetPriceLabel("BTC/USDT: 8.5")
	c.SetTimeLabel("2024-01-01(월) 09:00:00")

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatSVG))
	svg := buf.String()

	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, DefaultPalette.Bullish.String())
	assert.Contains(t, svg, DefaultPalette.Bearish.String())
	assert.Contains(t, svg, "BTC/USDT: 8.5")
}

func TestCanvasWriteLineMode(t *testing.T) {
	c := NewCanvas(800, 600, 0.3)
	c.Update(twoCandles())
	c.SetMode(ModeLine)
	assert.Equal(t, ModeLine, c.Mode())

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatSVG))
	assert.Contains(t, buf.String(), DefaultPalette.Line.String())
	assert.NotContains(t, buf.String(), DefaultPalette.Bearish.String())
}

func TestCanvasWithMarkers(t *testing.T) {
	c := NewCanvas(800, 600, 0.3)
	samples := twoCandles()
	c.Update(samples)

	var set marker.Set
	require.NoError(t, set.Add(0, 10, model.LongOpen))
	ok, err := set.Place(samples, samples[1].OpenTime.Add(time.Minute), 9, model.LongClose)
	require.NoError(t, err)
	require.True(t, ok)
	c.SetMarkers(set.Markers())

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatSVG))
	assert.Contains(t, buf.String(), fromRGBA(marker.LightGreen).String())
}

func TestCanvasWritePNG(t *testing.T) {
	c := NewCanvas(400, 300, 0.3)
	c.Update(twoCandles())

	var buf bytes.Buffer
	require.NoError(t, c.Write(&buf, FormatPNG))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestCanvasWriteFileKeepsOldOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chart.svg")
	c := NewCanvas(800, 600, 0.3)

	require.ErrorIs(t, c.WriteFile(path, FormatSVG), ErrNoData)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	c.Update(twoCandles())
	require.NoError(t, c.WriteFile(path, FormatSVG))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestXTicksSpanViewport(t *testing.T) {
	samples := make([]model.OHLCSample, 20)
	vp := render.Bounds{XMin: -0.3, XMax: 19.3}
	ticks := xTicks(samples, vp)

	assert.Equal(t, -0.3, ticks[0].Value)
	assert.Equal(t, 19.3, ticks[len(ticks)-1].Value)
	assert.LessOrEqual(t, len(ticks), maxXTicks+2)
	assert.Equal(t, "0", ticks[1].Label)
}

func TestProfitChart(t *testing.T) {
	h := profit.NewHistory(7)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, r := range []float64{1.5, -0.5, 2.0} {
		h.Push(profit.Point{Day: day.AddDate(0, 0, i), Rate: r})
	}
	p := NewProfitChart(600, 300)

	ch, err := p.Chart(h, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, "03-01", ch.XAxis.Ticks[1].Label)
	assert.Equal(t, "03-03", ch.XAxis.Ticks[3].Label)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf, FormatSVG, h, day))
	assert.Contains(t, buf.String(), DefaultPalette.Bullish.String())
	assert.Contains(t, buf.String(), "stroke-dasharray")
}

func TestProfitChartEmpty(t *testing.T) {
	p := NewProfitChart(600, 300)
	_, err := p.Chart(profit.NewHistory(7), time.Now())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestProfitChartAllZero(t *testing.T) {
	h := profit.NewHistory(7)
	h.Push(profit.Point{Rate: 0})
	p := NewProfitChart(600, 300)

	var buf bytes.Buffer
	require.NoError(t, p.Write(&buf, FormatSVG, h, time.Now()))
}
