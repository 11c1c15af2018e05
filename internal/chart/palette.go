package chart

import (
	"image/color"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"CandleView/internal/render"
)

// Palette holds the colors used to paint a chart.
type Palette struct {
	Bullish    drawing.Color
	Bearish    drawing.Color
	Line       drawing.Color
	Background drawing.Color
	Text       drawing.Color
	Axis       drawing.Color
	Baseline   drawing.Color
}

// DefaultPalette is the dark dashboard look.
var DefaultPalette = Palette{
	Bullish:    drawing.ColorFromHex("4CAF50"),
	Bearish:    drawing.ColorFromHex("F44336"),
	Line:       drawing.ColorFromHex("42A5F5"),
	Background: drawing.ColorFromHex("2f3b54"),
	Text:       drawing.ColorFromHex("FFFFFF"),
	Axis:       drawing.ColorFromHex("8C96AA"),
	Baseline:   drawing.ColorFromHex("BDBDBD"),
}

// Tone maps a candle classification to its color.
func (p Palette) Tone(c render.Color) drawing.Color {
	if c == render.Bullish {
		return p.Bullish
	}
	return p.Bearish
}

func fromRGBA(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
