package chart

import (
	"errors"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"CandleView/internal/marker"
	"CandleView/internal/render"
)

// CandleSeries paints wick and body primitives onto a go-chart canvas.
type CandleSeries struct {
	Name       string
	Primitives []render.Primitive
	Palette    Palette
}

func (cs CandleSeries) GetName() string             { return cs.Name }
func (cs CandleSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (cs CandleSeries) GetStyle() gochart.Style {
	return gochart.Style{StrokeColor: cs.Palette.Bullish}
}

func (cs CandleSeries) Validate() error {
	if len(cs.Primitives) == 0 {
		return errors.New("candle series: no primitives")
	}
	return nil
}

func (cs CandleSeries) Render(r gochart.Renderer, box gochart.Box, xr, yr gochart.Range, _ gochart.Style) {
	const wick = 1.0
	px := func(v float64) int { return box.Left + xr.Translate(v) }
	py := func(v float64) int { return box.Bottom - yr.Translate(v) }

	for _, p := range cs.Primitives {
		col := cs.Palette.Tone(p.Tone())
		switch v := p.(type) {
		case render.Wick:
			x := px(v.X)
			r.SetStrokeColor(col)
			r.SetStrokeWidth(wick)
			r.MoveTo(x, py(v.YLow))
			r.LineTo(x, py(v.YHigh))
			r.Stroke()
		case render.Body:
			left, right := v.XSpan()
			low, high := v.Rect()
			x0, x1 := px(left), px(right)
			y0, y1 := py(low), py(high)
			if x1 <= x0 {
				x1 = x0 + 1
			}
			// doji
			if y0 == y1 {
				y1 = y0 - 1
			}
			r.SetFillColor(col)
			r.SetStrokeColor(col)
			r.SetStrokeWidth(1)
			r.MoveTo(x0, y1)
			r.LineTo(x1, y1)
			r.LineTo(x1, y0)
			r.LineTo(x0, y0)
			r.Close()
			r.FillStroke()
		}
	}
	r.ResetStyle()
}

// MarkerSeries paints trade markers as filled glyphs without an outline.
type MarkerSeries struct {
	Name    string
	Markers []marker.Marker
}

func (ms MarkerSeries) GetName() string             { return ms.Name }
func (ms MarkerSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (ms MarkerSeries) GetStyle() gochart.Style {
	return gochart.Style{FillColor: fromRGBA(marker.Green)}
}
func (ms MarkerSeries) Validate() error { return nil }

func (ms MarkerSeries) Render(r gochart.Renderer, box gochart.Box, xr, yr gochart.Range, _ gochart.Style) {
	for _, m := range ms.Markers {
		x := box.Left + xr.Translate(m.X)
		y := box.Bottom - yr.Translate(m.Y)
		size := m.Size
		if size <= 0 {
			size = marker.DefaultSize
		}
		col := fromRGBA(m.Style.Fill)
		r.SetFillColor(col)
		r.SetStrokeColor(col)
		r.SetStrokeWidth(0)

		pts := glyph(m.Style.Symbol, x, y, float64(size))
		if len(pts) == 0 {
			continue
		}
		r.MoveTo(pts[0][0], pts[0][1])
		for _, p := range pts[1:] {
			r.LineTo(p[0], p[1])
		}
		r.Close()
		r.Fill()
	}
	r.ResetStyle()
}

// glyph returns the outline of a marker of the given size centred on (x, y).
func glyph(sym marker.Symbol, x, y int, size float64) [][2]int {
	h := size / 2
	switch sym {
	case marker.TriangleUp:
		return [][2]int{
			{x, y - int(h)},
			{x + int(h), y + int(h)},
			{x - int(h), y + int(h)},
		}
	case marker.TriangleDown:
		return [][2]int{
			{x, y + int(h)},
			{x + int(h), y - int(h)},
			{x - int(h), y - int(h)},
		}
	case marker.Hexagon:
		pts := make([][2]int, 6)
		for i := range pts {
			a := math.Pi / 3 * float64(i)
			pts[i] = [2]int{
				x + int(math.Round(h*math.Cos(a))),
				y + int(math.Round(h*math.Sin(a))),
			}
		}
		return pts
	}
	return nil
}
