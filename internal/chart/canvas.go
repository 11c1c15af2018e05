// Package chart paints rendered candles, trade markers and the profit history
// into SVG or PNG files.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	gochart "github.com/wcharczuk/go-chart/v2"

	"CandleView/internal/marker"
	"CandleView/internal/model"
	"CandleView/internal/render"
)

// ErrNoData is returned when painting before any candles have arrived.
var ErrNoData = errors.New("chart: no data")

// Mode selects candle or close-line drawing.
type Mode string

const (
	ModeCandle Mode = "candle"
	ModeLine   Mode = "line"
)

// ParseMode accepts "candle" or "line".
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCandle:
		return ModeCandle, nil
	case ModeLine:
		return ModeLine, nil
	}
	return "", fmt.Errorf("unknown chart mode %q", s)
}

// Format is the output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat accepts "svg" or "png".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unknown chart format %q", s)
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatPNG {
		return gochart.PNG
	}
	return gochart.SVG
}

const maxXTicks = 6

// Canvas keeps the latest rendered candles and labels and paints them on demand.
type Canvas struct {
	mu sync.RWMutex

	Width, Height int
	HalfWidth     float64
	Palette       Palette

	mode       Mode
	samples    []model.OHLCSample
	primitives []render.Primitive
	line       []render.Point
	bounds     render.Bounds
	markers    []marker.Marker
	priceLabel string
	timeLabel  string
}

// NewCanvas creates a canvas in candle mode.
func NewCanvas(width, height int, halfWidth float64) *Canvas {
	return &Canvas{
		Width:     width,
		Height:    height,
		HalfWidth: render.ClampHalfWidth(halfWidth),
		Palette:   DefaultPalette,
		mode:      ModeCandle,
	}
}

// Update renders a new candle sequence. It replaces the previous one.
func (c *Canvas) Update(samples []model.OHLCSample) {
	prims, b := render.Render(samples, c.HalfWidth)
	line, _ := render.RenderLine(samples)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples[:0:0], samples...)
	c.primitives = prims
	c.line = line
	c.bounds = b
}

// Primitives returns the cached primitives and their bounds.
func (c *Canvas) Primitives() ([]render.Primitive, render.Bounds) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primitives, c.bounds
}

func (c *Canvas) SetMode(m Mode) {
	c.mu.Lock()
	c.mode = m
	c.mu.Unlock()
}

func (c *Canvas) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *Canvas) SetPriceLabel(s string) {
	c.mu.Lock()
	c.priceLabel = s
	c.mu.Unlock()
}

func (c *Canvas) SetTimeLabel(s string) {
	c.mu.Lock()
	c.timeLabel = s
	c.mu.Unlock()
}

// SetMarkers replaces the trade markers.
func (c *Canvas) SetMarkers(ms []marker.Marker) {
	c.mu.Lock()
	c.markers = append([]marker.Marker(nil), ms...)
	c.mu.Unlock()
}

// Viewport returns the data range to show: the bounds widened by one half
// width on x, and by 1 on y when the price range is flat.
func (c *Canvas) Viewport() (render.Bounds, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.samples) == 0 {
		return render.Bounds{}, ErrNoData
	}
	return viewport(c.bounds, c.HalfWidth), nil
}

func viewport(b render.Bounds, halfWidth float64) render.Bounds {
	lo, hi := math.Min(b.YMin, b.YMax), math.Max(b.YMin, b.YMax)
	if hi-lo <= 0 || math.IsNaN(hi-lo) {
		lo, hi = lo-1, hi+1
	}
	return render.Bounds{
		XMin: b.XMin - halfWidth,
		XMax: b.XMax + halfWidth,
		YMin: lo,
		YMax: hi,
	}
}

// Chart builds the go-chart description of the current state.
func (c *Canvas) Chart() (gochart.Chart, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.samples) == 0 {
		return gochart.Chart{}, ErrNoData
	}
	vp := viewport(c.bounds, c.HalfWidth)

	var series []gochart.Series
	if c.mode == ModeLine {
		xs := make([]float64, len(c.line))
		ys := make([]float64, len(c.line))
		for i, p := range c.line {
			xs[i], ys[i] = p.X, p.Y
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    "close",
			Style:   gochart.Style{StrokeColor: c.Palette.Line, StrokeWidth: 2},
			XValues: xs,
			YValues: ys,
		})
	} else {
		series = append(series, CandleSeries{
			Name:       "candles",
			Primitives: c.primitives,
			Palette:    c.Palette,
		})
	}
	if len(c.markers) > 0 {
		series = append(series, MarkerSeries{Name: "trades", Markers: c.markers})
	}

	axis := gochart.Style{FontColor: c.Palette.Text, StrokeColor: c.Palette.Axis}
	timeLabel := c.timeLabel
	palette := c.Palette

	return gochart.Chart{
		Title:      c.priceLabel,
		TitleStyle: gochart.Style{FontColor: c.Palette.Text},
		Width:      c.Width,
		Height:     c.Height,
		Background: gochart.Style{
			FillColor: c.Palette.Background,
			Padding:   gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: gochart.Style{FillColor: c.Palette.Background},
		XAxis: gochart.XAxis{
			Style: axis,
			Range: &gochart.ContinuousRange{Min: vp.XMin, Max: vp.XMax},
			Ticks: xTicks(c.samples, vp),
		},
		YAxis: gochart.YAxis{
			Style: axis,
			Range: &gochart.ContinuousRange{Min: vp.YMin, Max: vp.YMax},
		},
		Series: series,
		Elements: []gochart.Renderable{
			func(r gochart.Renderer, box gochart.Box, defaults gochart.Style) {
				if timeLabel == "" {
					return
				}
				gochart.Style{FontColor: palette.Text, FontSize: 10}.InheritFrom(defaults).WriteTextOptionsToRenderer(r)
				tb := r.MeasureText(timeLabel)
				r.Text(timeLabel, box.Right-tb.Width(), box.Top-tb.Height())
			},
		},
	}, nil
}

// xTicks labels up to maxXTicks candles with their open time. The first and
// last ticks sit on the viewport edges because go-chart derives the x range
// from explicit ticks.
func xTicks(samples []model.OHLCSample, vp render.Bounds) []gochart.Tick {
	ticks := []gochart.Tick{{Value: vp.XMin}}
	step := (len(samples) + maxXTicks - 1) / maxXTicks
	if step < 1 {
		step = 1
	}
	for i := 0; i < len(samples); i += step {
		label := strconv.Itoa(i)
		if t := samples[i].OpenTime; !t.IsZero() {
			label = t.Format("01-02 15:04")
		}
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: label})
	}
	return append(ticks, gochart.Tick{Value: vp.XMax})
}

// Write paints the current state.
func (c *Canvas) Write(w io.Writer, format Format) error {
	ch, err := c.Chart()
	if err != nil {
		return err
	}
	if err := ch.Render(format.provider(), w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WriteFile paints into path, replacing it only once painting succeeded.
func (c *Canvas) WriteFile(path string, format Format) error {
	return writeFileAtomic(path, func(w io.Writer) error { return c.Write(w, format) })
}

func writeFileAtomic(path string, paint func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := paint(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
