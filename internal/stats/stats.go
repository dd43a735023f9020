// internal/stats/stats.go
//
// Results view: turns a player's result history into one chart series per
// grid size.
//
//   window: day | week | month | year   (how far back from now)
//   mode:   average (mean attempts per day) | best (highest score per day)

package stats

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/robalobadob/memory/internal/game"
)

type Window string

const (
	Day   Window = "day"
	Week  Window = "week"
	Month Window = "month"
	Year  Window = "year"
)

type Mode string

const (
	Average Mode = "average"
	Best    Mode = "best"
)

var (
	ErrWindow = errors.New("unknown window")
	ErrMode   = errors.New("unknown mode")
)

// Point is one day on the chart.
type Point struct {
	Date  string  `json:"x"` // YYYY-MM-DD
	Value float64 `json:"y"`
}

// Series is the line for one grid size.
type Series struct {
	GridSize int     `json:"gridSize"`
	Label    string  `json:"label"`
	Points   []Point `json:"points"`
}

// Chart is the full results view.
type Chart struct {
	Window Window   `json:"window"`
	Mode   Mode     `json:"mode"`
	Unit   string   `json:"unit"` // time axis unit
	Series []Series `json:"series"`
}

// Start returns the earliest instant the window includes.
func (w Window) Start(now time.Time) (time.Time, error) {
	switch w {
	case Day:
		return now.AddDate(0, 0, -1), nil
	case Week:
		return now.AddDate(0, 0, -7), nil
	case Month:
		return now.AddDate(0, -1, 0), nil
	case Year:
		return now.AddDate(-1, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrWindow, string(w))
}

// Unit is the time-axis unit that suits the window.
func (w Window) Unit() string {
	switch w {
	case Day:
		return "hour"
	case Week:
		return "day"
	case Month:
		return "week"
	case Year:
		return "month"
	}
	return ""
}

// Build filters results to the window and aggregates them per day for each
// supported grid size. Empty window/mode default to month/average.
func Build(results []game.Result, w Window, m Mode, now time.Time) (Chart, error) {
	if w == "" {
		w = Month
	}
	if m == "" {
		m = Average
	}
	if m != Average && m != Best {
		return Chart{}, fmt.Errorf("%w: %q", ErrMode, string(m))
	}
	start, err := w.Start(now)
	if err != nil {
		return Chart{}, err
	}

	type agg struct {
		total, count int
		best         int
	}
	byGrid := map[int]map[string]*agg{}
	for _, r := range results {
		t := r.Time()
		if t.IsZero() || t.Before(start) || t.After(now) {
			continue
		}
		day := t.UTC().Format("2006-01-02")
		if byGrid[r.GridSize] == nil {
			byGrid[r.GridSize] = map[string]*agg{}
		}
		a := byGrid[r.GridSize][day]
		if a == nil {
			a = &agg{best: r.Score}
			byGrid[r.GridSize][day] = a
		}
		a.total += r.Attempts
		a.count++
		if r.Score > a.best {
			a.best = r.Score
		}
	}

	chart := Chart{Window: w, Mode: m, Unit: w.Unit()}
	for _, g := range game.GridSizes {
		s := Series{GridSize: g, Label: game.GridLabel(g), Points: []Point{}}
		for day, a := range byGrid[g] {
			v := float64(a.best)
			if m == Average {
				v = float64(a.total) / float64(a.count)
			}
			s.Points = append(s.Points, Point{Date: day, Value: v})
		}
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].Date < s.Points[j].Date })
		chart.Series = append(chart.Series, s)
	}
	return chart, nil
}

// Sample generates demo history: two results per grid size for every day
// from `from` to `to` inclusive, sorted by date.
func Sample(from, to time.Time, rng *rand.Rand) []game.Result {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	var out []game.Result
	for d := from.UTC(); !d.After(to.UTC()); d = d.AddDate(0, 0, 1) {
		for _, g := range game.GridSizes {
			for i := 0; i < 2; i++ {
				attempts := rng.IntN(g) + g - 4
				out = append(out, game.Result{
					Date:     d.Format(time.RFC3339),
					Attempts: attempts,
					GridSize: g,
					Score:    game.Score(g, attempts),
				})
			}
		}
	}
	return out
}
