// Package profit tracks the rolling total-profit history and the profit-rate summary.
package profit

import (
	"math"
	"time"
)

// DefaultDays is how many daily points the history keeps.
const DefaultDays = 7

// Point is one daily total-profit rate, in percent.
type Point struct {
	Day  time.Time
	Rate float64
}

// History is a fixed-size window of the most recent points.
type History struct {
	size   int
	points []Point
}

// NewHistory creates a history holding at most size points.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultDays
	}
	return &History{size: size}
}

// Push appends a point and evicts the oldest one when the window is full.
// A point for the same day as the newest one replaces it.
func (h *History) Push(p Point) {
	if n := len(h.points); n > 0 && SameDay(h.points[n-1].Day, p.Day) {
		h.points[n-1] = p
		return
	}
	h.points = append(h.points, p)
	if len(h.points) > h.size {
		h.points = h.points[len(h.points)-h.size:]
	}
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Rates returns the window's values, oldest first.
func (h *History) Rates() []float64 {
	out := make([]float64, len(h.points))
	for i, p := range h.points {
		out[i] = p.Rate
	}
	return out
}

// Len returns the number of points held.
func (h *History) Len() int { return len(h.points) }

// Last returns the newest rate, or 0 when empty.
func (h *History) Last() float64 {
	if len(h.points) == 0 {
		return 0
	}
	return h.points[len(h.points)-1].Rate
}

// Positive reports whether the newest rate is >= 0. It selects the line color.
func (h *History) Positive() bool {
	return h.Last() >= 0
}

// Labels returns an MM-DD label per point, counting back one day per point
// from now so the newest point is labelled with today.
func (h *History) Labels(now time.Time) []string {
	n := len(h.points)
	labels := make([]string, n)
	for i := range labels {
		labels[i] = now.AddDate(0, 0, -(n - 1 - i)).Format("01-02")
	}
	return labels
}

// YRange returns the y axis range: the data range widened to include 0 and
// padded by 10% on both sides.
func (h *History) YRange() (min, max float64) {
	min, max = 0, 0
	for _, p := range h.points {
		min = math.Min(min, p.Rate)
		max = math.Max(max, p.Rate)
	}
	pad := (max - min) * 0.1
	return min - pad, max + pad
}
