package srs

import (
	"fmt"
	"math"
	"time"
)

// Previews holds the human-readable interval that each rating would produce
// for the currently displayed card. Used to label rating buttons.
type Previews struct {
	Again string `json:"again"`
	Hard  string `json:"hard"`
	Good  string `json:"good"`
	Easy  string `json:"easy"`
}

// PreviewIntervals renders the would-be interval for all four ratings, e.g.
// {Again: "1m", Hard: "6m", Good: "10m", Easy: "4d"}. It runs the same
// transition as Next speculatively and mutates nothing.
func (s *Scheduler) PreviewIntervals(card Card, now time.Time) (Previews, error) {
	cards, err := s.Preview(card, now)
	if err != nil {
		return Previews{}, err
	}
	return Previews{
		Again: FormatInterval(cards[Again].DueAt.Sub(now)),
		Hard:  FormatInterval(cards[Hard].DueAt.Sub(now)),
		Good:  FormatInterval(cards[Good].DueAt.Sub(now)),
		Easy:  FormatInterval(cards[Easy].DueAt.Sub(now)),
	}, nil
}

// FormatInterval renders a scheduling interval compactly: minutes under an
// hour, hours under a day, whole days under a month, then months and years
// with one decimal.
func FormatInterval(d time.Duration) string {
	switch {
	case d < time.Hour:
		m := int(math.Round(d.Minutes()))
		if m < 1 {
			m = 1
		}
		return fmt.Sprintf("%dm", m)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(math.Round(d.Hours())))
	}
	days := math.Round(d.Hours() / 24)
	switch {
	case days < 30:
		return fmt.Sprintf("%dd", int(days))
	case days < 365:
		return fmt.Sprintf("%.1fmo", days/30)
	}
	return fmt.Sprintf("%.1fy", days/365)
}
