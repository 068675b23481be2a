package srs

import "time"

// Card is the scheduling record for a single flashcard. It carries only the
// state the scheduler needs; card content lives with the record store.
type Card struct {
	ID           string    `json:"id"`
	DueAt        time.Time `json:"due_at"`
	IntervalDays float64   `json:"interval_days"` // under 1.0 while in learning steps
	EaseFactor   float64   `json:"ease_factor"`
	Repetitions  int       `json:"repetitions"` // consecutive non-lapse reviews
	Lapses       int       `json:"lapses"`
	Stage        Stage     `json:"stage"`
	Step         int       `json:"step"` // learning step index; meaningful only in StageLearning
	CreatedAt    time.Time `json:"created_at"`
}

// NewCard creates a never-reviewed card, due immediately.
func NewCard(id string, now time.Time) Card {
	return Card{
		ID:        id,
		DueAt:     now,
		Stage:     StageNew,
		CreatedAt: now,
	}
}

// IsNew reports whether the card has never been reviewed.
func (c Card) IsNew() bool {
	return c.Stage == StageNew
}

// Due reports whether the card is eligible for review at the given time.
func (c Card) Due(now time.Time) bool {
	return !now.Before(c.DueAt)
}

// normalize clamps a possibly-corrupt record into valid ranges. Reviewing
// must never be blocked by a bad record, so malformed state is corrected
// rather than rejected.
func (c *Card) normalize(opts Options) {
	if c.IntervalDays < 0 {
		c.IntervalDays = 0
	}
	if c.Stage != StageNew && c.EaseFactor < opts.EaseFloor {
		c.EaseFactor = opts.EaseFloor
	}
	if c.Repetitions < 0 {
		c.Repetitions = 0
	}
	if c.Lapses < 0 {
		c.Lapses = 0
	}
	if !c.Stage.isValid() {
		c.Stage = StageNew
	}
	if c.Step < 0 || c.Step >= len(opts.LearningSteps) {
		c.Step = 0
	}
}
