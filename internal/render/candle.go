// Package render turns OHLC samples into toolkit-neutral drawing primitives.
//
// Nothing here touches I/O or shared state; hosts call Render once per new
// sample sequence and decide themselves whether to cache the result.
package render

import (
	"fmt"
	"math"

	"CandleView/internal/model"
)

const (
	// DefaultHalfWidth makes a body cover 60% of the slot between two candles.
	DefaultHalfWidth = 0.3
	// MinHalfWidth is what non-positive half widths are clamped to.
	MinHalfWidth = 1e-6
)

// Color classifies a candle by direction. Hosts map it to a display color.
type Color int

const (
	Bullish Color = iota
	Bearish
)

func (c Color) String() string {
	if c == Bearish {
		return "bearish"
	}
	return "bullish"
}

// Classify returns Bullish when close >= open.
func Classify(open, close float64) Color {
	if close >= open {
		return Bullish
	}
	return Bearish
}

// Primitive is either a Wick or a Body.
type Primitive interface {
	primitive()
	// Tone is the primitive's classification.
	Tone() Color
}

// Wick is the vertical high-low line of a candle.
type Wick struct {
	X     float64
	YLow  float64
	YHigh float64
	Color Color
}

// Body is the open-close rectangle of a candle. YOpen and YClose are kept in
// that order, so YOpen > YClose for a bearish candle.
type Body struct {
	X         float64
	YOpen     float64
	YClose    float64
	HalfWidth float64
	Color     Color
}

func (Wick) primitive() {}
func (Body) primitive() {}

func (w Wick) Tone() Color { return w.Color }
func (b Body) Tone() Color { return b.Color }

// XSpan returns the left and right edges of the body.
func (b Body) XSpan() (left, right float64) {
	return b.X - b.HalfWidth, b.X + b.HalfWidth
}

// Rect returns the body's vertical extent with low <= high, for drawing
// APIs that do not accept negative heights.
func (b Body) Rect() (low, high float64) {
	return math.Min(b.YOpen, b.YClose), math.Max(b.YOpen, b.YClose)
}

// Bounds is the data-space box covering a rendered sequence.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Empty reports whether b is the zero-area box at the origin.
func (b Bounds) Empty() bool {
	return b == Bounds{}
}

// Width and Height are the extents of the box.
func (b Bounds) Width() float64 { return b.XMax - b.XMin }

// ConfigurationError reports a rendering parameter that a host should reject
// when loading its configuration.
type ConfigurationError struct {
	Field string
	Value float64
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("render: %s must be positive, got %v", e.Field, e.Value)
}

// ValidateHalfWidth rejects non-positive or NaN body half widths.
func ValidateHalfWidth(halfWidth float64) error {
	if math.IsNaN(halfWidth) || math.IsInf(halfWidth, 0) || halfWidth <= 0 {
		return &ConfigurationError{Field: "body_half_width", Value: halfWidth}
	}
	return nil
}

// ClampHalfWidth returns halfWidth, or MinHalfWidth when it is not a
// positive finite number.
func ClampHalfWidth(halfWidth float64) float64 {
	if ValidateHalfWidth(halfWidth) != nil {
		return MinHalfWidth
	}
	return halfWidth
}

// Render emits a wick and a body per sample, using the sample's position in
// the slice as its x coordinate, and the bounds of the whole sequence.
// A non-positive halfWidth is clamped to MinHalfWidth.
func Render(samples []model.OHLCSample, halfWidth float64) ([]Primitive, Bounds) {
	prims := make([]Primitive, 0, 2*len(samples))
	if len(samples) == 0 {
		return prims, Bounds{}
	}
	hw := ClampHalfWidth(halfWidth)

	for i, s := range samples {
		x := float64(i)
		c := Classify(s.Open, s.Close)
		prims = append(prims,
			Wick{X: x, YLow: s.Low, YHigh: s.High, Color: c},
			Body{X: x, YOpen: s.Open, YClose: s.Close, HalfWidth: hw, Color: c},
		)
	}
	return prims, bounds(samples)
}

// Point is a vertex of the close-price line.
type Point struct {
	X, Y float64
}

// RenderLine emits the close-price polyline over the same x positions and
// bounds as Render.
func RenderLine(samples []model.OHLCSample) ([]Point, Bounds) {
	pts := make([]Point, len(samples))
	if len(samples) == 0 {
		return pts, Bounds{}
	}
	for i, s := range samples {
		pts[i] = Point{X: float64(i), Y: s.Close}
	}
	return pts, bounds(samples)
}

func bounds(samples []model.OHLCSample) Bounds {
	b := Bounds{
		XMin: 0,
		XMax: float64(len(samples) - 1),
		YMin: samples[0].Low,
		YMax: samples[0].High,
	}
	for _, s := range samples[1:] {
		b.YMin = math.Min(b.YMin, s.Low)
		b.YMax = math.Max(b.YMax, s.High)
	}
	return b
}
