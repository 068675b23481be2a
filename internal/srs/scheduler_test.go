package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNow(t *testing.T) time.Time {
	t.Helper()
	now, err := time.Parse(time.RFC3339, "2025-06-01T12:00:00Z")
	require.NoError(t, err)
	return now
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler(Options{})
	require.NoError(t, err)
	return s
}

func reviewCard(interval float64, ease float64) Card {
	return Card{
		ID:           "card-1",
		IntervalDays: interval,
		EaseFactor:   ease,
		Repetitions:  2,
		Stage:        StageReview,
	}
}

func TestFirstReviewTransitions(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := NewCard("card-1", now.Add(-time.Hour))

	tests := []struct {
		name      string
		rating    Rating
		wantStage Stage
		wantDue   time.Time
	}{
		{"again enters first step", Again, StageLearning, now.Add(time.Minute)},
		{"hard lands between steps", Hard, StageLearning, now.Add(5*time.Minute + 30*time.Second)},
		{"good advances to second step", Good, StageLearning, now.Add(10 * time.Minute)},
		{"easy graduates immediately", Easy, StageReview, now.Add(4 * 24 * time.Hour)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Next(card, tc.rating, now)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStage, got.Stage)
			assert.Equal(t, tc.wantDue, got.DueAt)
			assert.Equal(t, 2.5, got.EaseFactor)
		})
	}
}

func TestLearningGraduation(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := Card{ID: "card-1", Stage: StageLearning, Step: 1, EaseFactor: 2.5}

	got, err := s.Next(card, Good, now)
	require.NoError(t, err)
	assert.Equal(t, StageReview, got.Stage)
	assert.Equal(t, 1.0, got.IntervalDays)
	assert.Equal(t, 1, got.Repetitions)
	assert.Equal(t, now.Add(24*time.Hour), got.DueAt)
}

func TestLearningAgainRestartsSteps(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := Card{ID: "card-1", Stage: StageLearning, Step: 1, EaseFactor: 2.5, Lapses: 1}

	got, err := s.Next(card, Again, now)
	require.NoError(t, err)
	assert.Equal(t, StageLearning, got.Stage)
	assert.Equal(t, 0, got.Step)
	assert.Equal(t, 0, got.Repetitions)
	assert.Equal(t, 2, got.Lapses)
	assert.Equal(t, now.Add(time.Minute), got.DueAt)
}

func TestReviewStageTransitions(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := reviewCard(10, 2.0)

	t.Run("again lapses to learning with sub-day due", func(t *testing.T) {
		got, err := s.Next(card, Again, now)
		require.NoError(t, err)
		assert.Equal(t, StageLearning, got.Stage)
		assert.Equal(t, 0, got.Repetitions)
		assert.Equal(t, card.Lapses+1, got.Lapses)
		assert.Equal(t, 1.8, got.EaseFactor)
		assert.True(t, got.DueAt.Sub(now) < 24*time.Hour)
	})

	t.Run("hard grows mildly and docks ease", func(t *testing.T) {
		got, err := s.Next(card, Hard, now)
		require.NoError(t, err)
		assert.Equal(t, 12.0, got.IntervalDays)
		assert.Equal(t, 1.85, got.EaseFactor)
		assert.Equal(t, StageReview, got.Stage)
	})

	t.Run("good multiplies by ease", func(t *testing.T) {
		got, err := s.Next(card, Good, now)
		require.NoError(t, err)
		assert.Equal(t, 20.0, got.IntervalDays)
		assert.Equal(t, 2.0, got.EaseFactor)
		assert.Equal(t, card.Repetitions+1, got.Repetitions)
	})

	t.Run("easy adds the bonus and rewards ease", func(t *testing.T) {
		got, err := s.Next(card, Easy, now)
		require.NoError(t, err)
		assert.Equal(t, 26.0, got.IntervalDays)
		assert.Equal(t, 2.15, got.EaseFactor)
		assert.Equal(t, card.Repetitions+1, got.Repetitions)
	})
}

func TestEaseNeverDropsBelowFloor(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)

	cards := []Card{
		reviewCard(1, 1.3),
		reviewCard(10, 1.35),
		reviewCard(100, 2.5),
		{ID: "x", Stage: StageLearning, EaseFactor: 1.3},
		NewCard("y", now),
	}
	for _, card := range cards {
		for _, rating := range AllRatings {
			got, err := s.Next(card, rating, now)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got.EaseFactor, 1.3,
				"card %q rated %s", card.ID, rating)
		}
	}
}

func TestEasyNeverShorterThanGood(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)

	for _, interval := range []float64{1, 2, 5, 10, 50, 365} {
		for _, ease := range []float64{1.3, 1.8, 2.5, 3.2} {
			card := reviewCard(interval, ease)
			good, err := s.Next(card, Good, now)
			require.NoError(t, err)
			easy, err := s.Next(card, Easy, now)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, easy.IntervalDays, good.IntervalDays,
				"interval %v ease %v", interval, ease)
		}
	}
}

// A new card rated Good three times walks New → Learning → Review and ends
// with a day-scale interval.
func TestThreeGoodsGraduate(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := NewCard("card-1", now)

	card, err := s.Next(card, Good, now)
	require.NoError(t, err)
	assert.Equal(t, StageLearning, card.Stage)

	now = card.DueAt
	card, err = s.Next(card, Good, now)
	require.NoError(t, err)
	assert.Equal(t, StageReview, card.Stage)
	assert.Equal(t, 1.0, card.IntervalDays)

	now = card.DueAt
	card, err = s.Next(card, Good, now)
	require.NoError(t, err)
	assert.Equal(t, StageReview, card.Stage)
	assert.GreaterOrEqual(t, card.IntervalDays, 1.0)
	assert.Equal(t, 2, card.Repetitions)
}

func TestMalformedRecordIsClamped(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := Card{
		ID:           "corrupt",
		IntervalDays: -5,
		EaseFactor:   0.4,
		Repetitions:  -2,
		Lapses:       -1,
		Stage:        StageReview,
		Step:         99,
	}

	got, err := s.Next(card, Good, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.IntervalDays, 1.0)
	assert.GreaterOrEqual(t, got.EaseFactor, 1.3)
	assert.GreaterOrEqual(t, got.Repetitions, 0)
	assert.GreaterOrEqual(t, got.Lapses, 0)
}

func TestMaximumIntervalCap(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := reviewCard(30000, 2.5)

	got, err := s.Next(card, Easy, now)
	require.NoError(t, err)
	assert.Equal(t, 36500.0, got.IntervalDays)
}

func TestInvalidRating(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)

	_, err := s.Next(NewCard("card-1", now), Rating(7), now)
	assert.ErrorIs(t, err, ErrInvalidRating)
}

func TestPreviewDoesNotMutate(t *testing.T) {
	s := newTestScheduler(t)
	now := testNow(t)
	card := reviewCard(10, 2.0)
	orig := card

	first, err := s.Preview(card, now)
	require.NoError(t, err)
	second, err := s.Preview(card, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, orig, card)
	assert.Len(t, first, 4)
}

func TestNewSchedulerValidation(t *testing.T) {
	_, err := NewScheduler(Options{EaseFloor: 0.5})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = NewScheduler(Options{LearningSteps: []time.Duration{36 * time.Hour}})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = NewScheduler(Options{StartEase: 1.1})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
