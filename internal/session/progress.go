package session

// Progress partitions the queue into display segments: completed entries,
// pending again-retries, unseen new cards, and remaining reviews. It is a
// pure projection of (position, queue) — identical queue state always
// yields identical progress.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Again     int `json:"again"`
	New       int `json:"new"`
	Review    int `json:"review"`

	CompletedPct float64 `json:"completed_pct"`
	AgainPct     float64 `json:"again_pct"`
	NewPct       float64 `json:"new_pct"`
	ReviewPct    float64 `json:"review_pct"`
}

// Progress computes the current progress segments.
func (s *Session) Progress() Progress {
	p := Progress{
		Total:     len(s.queue),
		Completed: s.index,
	}
	for _, e := range s.queue[min(s.index, len(s.queue)):] {
		switch {
		case e.againRequeue:
			p.Again++
		case e.card.IsNew():
			p.New++
		default:
			p.Review++
		}
	}
	if p.Total == 0 {
		return p
	}
	total := float64(p.Total)
	p.CompletedPct = float64(p.Completed) / total
	p.AgainPct = float64(p.Again) / total
	p.NewPct = float64(p.New) / total
	p.ReviewPct = float64(p.Review) / total
	return p
}
