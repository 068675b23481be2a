package srs

import (
	"fmt"
	"math"
	"time"
)

// Options configures a Scheduler. Zero values are filled with defaults by
// NewScheduler; see field comments for the defaults.
type Options struct {
	EaseFloor              float64         // minimum ease factor; zero → 1.3
	StartEase              float64         // ease assigned on first review; zero → 2.5
	HardMultiplier         float64         // review-stage Hard interval multiplier; zero → 1.2
	EasyBonus              float64         // multiplier on top of ease for Easy; zero → 1.3
	LapsePenalty           float64         // ease deduction on a lapse; zero → 0.2
	HardPenalty            float64         // ease deduction on review-stage Hard; zero → 0.15
	EasyReward             float64         // ease increase on Easy; zero → 0.15
	LearningSteps          []time.Duration // sub-day steps; nil → [1m, 10m]
	GraduatingIntervalDays float64         // interval on graduating via Good; zero → 1
	EasyIntervalDays       float64         // interval on graduating via Easy; zero → 4
	MaximumIntervalDays    float64         // cap on review intervals; zero → 36500
}

// DefaultOptions returns the documented default scheduling options.
func DefaultOptions() Options {
	return Options{
		EaseFloor:              1.3,
		StartEase:              2.5,
		HardMultiplier:         1.2,
		EasyBonus:              1.3,
		LapsePenalty:           0.2,
		HardPenalty:            0.15,
		EasyReward:             0.15,
		LearningSteps:          []time.Duration{time.Minute, 10 * time.Minute},
		GraduatingIntervalDays: 1,
		EasyIntervalDays:       4,
		MaximumIntervalDays:    36500,
	}
}

// Scheduler computes a card's next scheduling state from a rating. It holds
// no mutable state and is safe for concurrent use.
type Scheduler struct {
	opts Options
}

// NewScheduler creates a Scheduler. Zero-value option fields are filled with
// defaults; out-of-range values return an error.
func NewScheduler(opts Options) (*Scheduler, error) {
	def := DefaultOptions()
	if opts.EaseFloor == 0 {
		opts.EaseFloor = def.EaseFloor
	}
	if opts.StartEase == 0 {
		opts.StartEase = def.StartEase
	}
	if opts.HardMultiplier == 0 {
		opts.HardMultiplier = def.HardMultiplier
	}
	if opts.EasyBonus == 0 {
		opts.EasyBonus = def.EasyBonus
	}
	if opts.LapsePenalty == 0 {
		opts.LapsePenalty = def.LapsePenalty
	}
	if opts.HardPenalty == 0 {
		opts.HardPenalty = def.HardPenalty
	}
	if opts.EasyReward == 0 {
		opts.EasyReward = def.EasyReward
	}
	if opts.LearningSteps == nil {
		opts.LearningSteps = def.LearningSteps
	}
	if opts.GraduatingIntervalDays == 0 {
		opts.GraduatingIntervalDays = def.GraduatingIntervalDays
	}
	if opts.EasyIntervalDays == 0 {
		opts.EasyIntervalDays = def.EasyIntervalDays
	}
	if opts.MaximumIntervalDays == 0 {
		opts.MaximumIntervalDays = def.MaximumIntervalDays
	}

	if opts.EaseFloor < 1 {
		return nil, fmt.Errorf("%w: ease floor %v below 1", ErrInvalidOptions, opts.EaseFloor)
	}
	if opts.StartEase < opts.EaseFloor {
		return nil, fmt.Errorf("%w: start ease %v below floor %v", ErrInvalidOptions, opts.StartEase, opts.EaseFloor)
	}
	if opts.MaximumIntervalDays < 1 {
		return nil, fmt.Errorf("%w: maximum interval %v below 1 day", ErrInvalidOptions, opts.MaximumIntervalDays)
	}
	for _, step := range opts.LearningSteps {
		if step <= 0 || step >= 24*time.Hour {
			return nil, fmt.Errorf("%w: learning step %v not in (0, 24h)", ErrInvalidOptions, step)
		}
	}
	return &Scheduler{opts: opts}, nil
}

// Options returns the scheduler's effective options.
func (s *Scheduler) Options() Options {
	return s.opts
}

// Next computes the card's state after the given rating at the given time.
// The input card is not mutated. It fails only on an invalid rating;
// malformed card state is clamped to valid ranges first.
func (s *Scheduler) Next(card Card, rating Rating, now time.Time) (Card, error) {
	if !rating.IsValid() {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	c := card
	c.normalize(s.opts)

	switch c.Stage {
	case StageNew:
		s.firstReview(&c, rating, now)
	case StageLearning:
		s.learningReview(&c, rating, now)
	default:
		s.reviewStageReview(&c, rating, now)
	}
	return c, nil
}

// Preview returns the card that would result from each rating, without
// mutating or persisting anything.
func (s *Scheduler) Preview(card Card, now time.Time) (map[Rating]Card, error) {
	out := make(map[Rating]Card, len(AllRatings))
	for _, r := range AllRatings {
		c, err := s.Next(card, r, now)
		if err != nil {
			return nil, err
		}
		out[r] = c
	}
	return out, nil
}

// firstReview handles a card's very first rating: New transitions to
// Learning (or straight to Review on Easy) with ease seeded at StartEase.
func (s *Scheduler) firstReview(c *Card, rating Rating, now time.Time) {
	c.EaseFactor = s.opts.StartEase
	c.Stage = StageLearning
	c.Step = 0
	steps := s.opts.LearningSteps

	switch rating {
	case Again:
		s.placeInStep(c, steps[0], now)
	case Hard:
		s.placeInStep(c, hardStep(steps, 0), now)
	case Good:
		if len(steps) > 1 {
			c.Step = 1
			s.placeInStep(c, steps[1], now)
			return
		}
		s.graduate(c, s.opts.GraduatingIntervalDays, now)
	case Easy:
		s.graduate(c, s.opts.EasyIntervalDays, now)
	}
}

func (s *Scheduler) learningReview(c *Card, rating Rating, now time.Time) {
	steps := s.opts.LearningSteps
	switch rating {
	case Again:
		c.Lapses++
		c.Repetitions = 0
		c.Step = 0
		s.placeInStep(c, steps[0], now)
	case Hard:
		s.placeInStep(c, hardStep(steps, c.Step), now)
	case Good:
		next := c.Step + 1
		if next >= len(steps) {
			s.graduate(c, s.opts.GraduatingIntervalDays, now)
			return
		}
		c.Step = next
		s.placeInStep(c, steps[next], now)
	case Easy:
		s.graduate(c, s.opts.EasyIntervalDays, now)
	}
}

func (s *Scheduler) reviewStageReview(c *Card, rating Rating, now time.Time) {
	switch rating {
	case Again:
		c.Lapses++
		c.Repetitions = 0
		c.EaseFactor = s.clampEase(c.EaseFactor - s.opts.LapsePenalty)
		c.Stage = StageLearning
		c.Step = 0
		s.placeInStep(c, s.opts.LearningSteps[0], now)
	case Hard:
		c.EaseFactor = s.clampEase(c.EaseFactor - s.opts.HardPenalty)
		s.setReviewInterval(c, c.IntervalDays*s.opts.HardMultiplier, now)
	case Good:
		c.Repetitions++
		s.setReviewInterval(c, c.IntervalDays*c.EaseFactor, now)
	case Easy:
		c.Repetitions++
		s.setReviewInterval(c, c.IntervalDays*c.EaseFactor*s.opts.EasyBonus, now)
		c.EaseFactor = s.clampEase(c.EaseFactor + s.opts.EasyReward)
	}
}

// placeInStep schedules a sub-day learning step. The interval is recorded in
// fractional days so the record keeps a single interval unit.
func (s *Scheduler) placeInStep(c *Card, step time.Duration, now time.Time) {
	c.IntervalDays = step.Hours() / 24.0
	c.DueAt = now.Add(step)
}

// graduate moves a card out of the learning steps into the review cycle.
func (s *Scheduler) graduate(c *Card, days float64, now time.Time) {
	c.Stage = StageReview
	c.Step = 0
	c.Repetitions = 1
	s.setReviewInterval(c, days, now)
}

// setReviewInterval applies the review-stage numeric policy: round to the
// nearest whole day, at least one, capped at the maximum.
func (s *Scheduler) setReviewInterval(c *Card, days float64, now time.Time) {
	days = math.Round(days)
	if days < 1 {
		days = 1
	}
	if days > s.opts.MaximumIntervalDays {
		days = s.opts.MaximumIntervalDays
	}
	c.IntervalDays = days
	c.DueAt = now.Add(time.Duration(days * 24 * float64(time.Hour)))
}

// clampEase enforces the ease floor and keeps ease arithmetic at two decimal
// places so repeated updates don't drift.
func (s *Scheduler) clampEase(ease float64) float64 {
	ease = math.Round(ease*100) / 100
	if ease < s.opts.EaseFloor {
		return s.opts.EaseFloor
	}
	return ease
}

// hardStep is the interval for repeating a learning step on Hard: half again
// the only step when there is just one, the midpoint of the first two steps
// at step zero, otherwise the current step unchanged.
func hardStep(steps []time.Duration, step int) time.Duration {
	if step == 0 && len(steps) == 1 {
		return time.Duration(float64(steps[0]) * 1.5)
	}
	if step == 0 && len(steps) >= 2 {
		return (steps[0] + steps[1]) / 2
	}
	if step >= len(steps) {
		step = len(steps) - 1
	}
	return steps[step]
}
