package profit

import (
	"errors"
	"fmt"
	"time"
)

// Rates is the profit-rate summary shown next to the chart, in percent.
type Rates struct {
	MyRate  float64
	Daily   float64
	Weekly  float64
	Monthly float64
	Yearly  float64
	Total   float64
}

// Row is one labelled line of the summary.
type Row struct {
	Label    string
	Rate     float64
	Text     string
	Positive bool
}

// RowLabels are the summary labels in display order.
var RowLabels = []string{"My Rate", "Daily", "Weekly", "Monthly", "Yearly", "Total"}

// Rows renders the summary as six signed, two-decimal percentages.
func (r Rates) Rows() []Row {
	values := []float64{r.MyRate, r.Daily, r.Weekly, r.Monthly, r.Yearly, r.Total}
	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row{
			Label:    RowLabels[i],
			Rate:     v,
			Text:     fmt.Sprintf("%+.2f%%", v),
			Positive: v >= 0,
		}
	}
	return rows
}

// EquityPoint is an account equity snapshot.
type EquityPoint struct {
	At     time.Time
	Equity float64
}

// ChangeSince returns the percent change from the last snapshot taken at or
// before cutoff to current.
func ChangeSince(points []EquityPoint, cutoff time.Time, current float64) (float64, error) {
	if len(points) == 0 {
		return 0, errors.New("no equity snapshots provided")
	}
	ref := -1
	for i, p := range points {
		if p.At.After(cutoff) {
			break
		}
		ref = i
	}
	if ref < 0 {
		return 0, fmt.Errorf("no snapshot at or before %s", cutoff.Format(time.RFC3339))
	}
	base := points[ref].Equity
	if base == 0 {
		return 0, errors.New("reference equity is zero")
	}
	return (current - base) / base * 100, nil
}

// ComputeRates derives the windowed rates from chronologically ordered
// snapshots. Windows without a reference snapshot fall back to the oldest
// one, so a young account reports its whole history. myRate is passed
// through as the ledger's own return.
func ComputeRates(points []EquityPoint, now time.Time, current, myRate float64) Rates {
	r := Rates{MyRate: myRate}
	if len(points) == 0 {
		return r
	}
	window := func(cutoff time.Time) float64 {
		v, err := ChangeSince(points, cutoff, current)
		if err != nil {
			v, _ = ChangeSince(points, points[0].At, current)
		}
		return v
	}
	r.Daily = window(now.AddDate(0, 0, -1))
	r.Weekly = window(now.AddDate(0, 0, -7))
	r.Monthly = window(now.AddDate(0, -1, 0))
	r.Yearly = window(now.AddDate(-1, 0, 0))
	r.Total = window(points[0].At)
	return r
}
