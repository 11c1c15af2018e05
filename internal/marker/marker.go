// Package marker maps simulated trade events to chart marker glyphs.
package marker

import (
	"errors"
	"fmt"
	"image/color"
	"sort"
	"time"

	"CandleView/internal/model"
)

// DefaultSize is the marker size in pixels.
const DefaultSize = 15

// ErrUnknownTradeType is returned for labels other than {LONG,SHORT}_{OPEN,CLOSE}.
var ErrUnknownTradeType = errors.New("unknown trade type")

// Symbol is a marker glyph.
type Symbol string

const (
	TriangleUp   Symbol = "triangle-up"
	TriangleDown Symbol = "triangle-down"
	Hexagon      Symbol = "hexagon"
)

// Style is the glyph and fill used for one trade type.
type Style struct {
	Symbol Symbol
	Fill   color.RGBA
}

var (
	Green      = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LightGreen = color.RGBA{R: 144, G: 238, B: 144, A: 255}
	Red        = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	LightRed   = color.RGBA{R: 255, G: 182, B: 193, A: 255}
)

var styles = map[model.TradeType]Style{
	model.LongOpen:   {Symbol: TriangleUp, Fill: Green},
	model.LongClose:  {Symbol: Hexagon, Fill: LightGreen},
	model.ShortOpen:  {Symbol: TriangleDown, Fill: Red},
	model.ShortClose: {Symbol: Hexagon, Fill: LightRed},
}

// StyleFor looks up the marker style of a trade type.
func StyleFor(t model.TradeType) (Style, error) {
	side, action, err := t.Split()
	if err != nil {
		return Style{}, fmt.Errorf("%w: %v", ErrUnknownTradeType, err)
	}
	return styles[model.NewTradeType(side, action)], nil
}

// Marker is one glyph positioned in chart data space.
type Marker struct {
	X     float64
	Y     float64
	Type  model.TradeType
	Style Style
	Size  int
}

// Set is an ordered collection of markers.
type Set struct {
	markers []Marker
}

// Add appends a marker at (x, y).
func (s *Set) Add(x, y float64, t model.TradeType) error {
	st, err := StyleFor(t)
	if err != nil {
		return err
	}
	s.markers = append(s.markers, Marker{X: x, Y: y, Type: t, Style: st, Size: DefaultSize})
	return nil
}

// Place adds a marker on the candle that was open at time at. Trades
// earlier than the first candle are dropped and reported as false.
func (s *Set) Place(samples []model.OHLCSample, at time.Time, price float64, t model.TradeType) (bool, error) {
	idx := IndexAt(samples, at)
	if idx < 0 {
		return false, nil
	}
	if err := s.Add(float64(idx), price, t); err != nil {
		return false, err
	}
	return true, nil
}

// Markers returns a copy of the collected markers.
func (s *Set) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Len returns the number of markers.
func (s *Set) Len() int { return len(s.markers) }

// FromEvents places a marker for every event that falls within samples.
// Events with an unknown type are skipped and reported in the joined error.
func FromEvents(samples []model.OHLCSample, events []model.TradeEvent) ([]Marker, error) {
	var (
		set  Set
		errs []error
	)
	for _, ev := range events {
		if _, err := set.Place(samples, ev.At, ev.Price, ev.Type); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ev.TradeID, err))
		}
	}
	return set.Markers(), errors.Join(errs...)
}

// IndexAt returns the position of the last sample whose open time is not
// after at, or -1 when at precedes every sample.
func IndexAt(samples []model.OHLCSample, at time.Time) int {
	i := sort.Search(len(samples), func(i int) bool {
		return samples[i].OpenTime.After(at)
	})
	return i - 1
}
