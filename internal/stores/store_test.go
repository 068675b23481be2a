package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/esheagren/pluck-sub000/internal/srs"
)

// forEachStore runs the same contract against every CardStore implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store CardStore)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
	t.Run("sqlite", func(t *testing.T) {
		store, err := OpenSQLite(":memory:")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
		fn(t, store)
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, openTestPostgres(t))
	})
}

func atTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

func TestAddAndListNewCards(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		older, err := store.AddCards(ctx, "ada",
			[]CardContent{{Front: "hola", Back: "hello"}}, now.Add(-time.Hour))
		is.NoErr(err)
		newer, err := store.AddCards(ctx, "ada",
			[]CardContent{{Front: "adiós", Back: "goodbye"}}, now)
		is.NoErr(err)

		fresh, err := store.NewCards(ctx, "ada")
		is.NoErr(err)
		is.Equal(len(fresh), 2)
		// Oldest creation first.
		is.Equal(fresh[0].ID, older[0].ID)
		is.Equal(fresh[1].ID, newer[0].ID)
		is.True(fresh[0].IsNew())

		// New cards never surface as due, whatever their due date says.
		due, err := store.DueCards(ctx, "ada", now.Add(24*time.Hour))
		is.NoErr(err)
		is.Equal(len(due), 0)

		count, err := store.CardCount(ctx, "ada")
		is.NoErr(err)
		is.Equal(count, 2)
	})
}

func TestUpdateCardRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		cards, err := store.AddCards(ctx, "ada",
			[]CardContent{{Front: "hola", Back: "hello"}}, now)
		is.NoErr(err)

		card := cards[0]
		card.Stage = srs.StageReview
		card.EaseFactor = 2.35
		card.IntervalDays = 12
		card.Repetitions = 3
		card.Lapses = 1
		card.DueAt = now.Add(-time.Minute).UTC()
		err = store.UpdateCard(ctx, "ada", card, ReviewLogItem{
			Rating:       srs.Good,
			RatedAt:      now,
			FirstReview:  true,
			IntervalDays: card.IntervalDays,
			EaseFactor:   card.EaseFactor,
			Stage:        card.Stage,
		})
		is.NoErr(err)

		due, err := store.DueCards(ctx, "ada", now)
		is.NoErr(err)
		is.Equal(len(due), 1)
		got := due[0]
		is.Equal(got.ID, card.ID)
		is.Equal(got.Stage, srs.StageReview)
		is.Equal(got.EaseFactor, 2.35)
		is.Equal(got.IntervalDays, 12.0)
		is.Equal(got.Repetitions, 3)
		is.Equal(got.Lapses, 1)
		is.True(got.DueAt.Equal(card.DueAt))

		// The card left the new pile.
		fresh, err := store.NewCards(ctx, "ada")
		is.NoErr(err)
		is.Equal(len(fresh), 0)
	})
}

func TestUpdateUnknownCard(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		card := srs.NewCard("missing", now)
		err := store.UpdateCard(ctx, "ada", card, ReviewLogItem{Rating: srs.Good, RatedAt: now})
		is.True(errors.Is(err, ErrNotFound))
	})
}

func TestDueCardsOrderAndFilter(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		cards, err := store.AddCards(ctx, "ada", []CardContent{
			{Front: "a"}, {Front: "b"}, {Front: "c"},
		}, now.Add(-48*time.Hour))
		is.NoErr(err)

		dues := []time.Time{
			now.Add(-time.Minute),     // second
			now.Add(-time.Hour),       // first
			now.Add(30 * time.Minute), // not yet due
		}
		for i, card := range cards {
			card.Stage = srs.StageReview
			card.EaseFactor = 2.5
			card.IntervalDays = 1
			card.DueAt = dues[i].UTC()
			is.NoErr(store.UpdateCard(ctx, "ada", card, ReviewLogItem{
				Rating: srs.Good, RatedAt: now.Add(-24 * time.Hour), Stage: card.Stage,
			}))
		}

		due, err := store.DueCards(ctx, "ada", now)
		is.NoErr(err)
		is.Equal(len(due), 2)
		is.Equal(due[0].ID, cards[1].ID)
		is.Equal(due[1].ID, cards[0].ID)
	})
}

func TestNewCardsReviewedTodayDayBoundary(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		cards, err := store.AddCards(ctx, "ada", []CardContent{
			{Front: "a"}, {Front: "b"}, {Front: "c"},
		}, now.Add(-48*time.Hour))
		is.NoErr(err)

		rate := func(card srs.Card, at time.Time, first bool) {
			card.Stage = srs.StageLearning
			is.NoErr(store.UpdateCard(ctx, "ada", card, ReviewLogItem{
				Rating: srs.Good, RatedAt: at.UTC(), FirstReview: first, Stage: card.Stage,
			}))
		}
		rate(cards[0], atTime(t, "2025-06-01T00:30:00Z"), true)  // today
		rate(cards[1], atTime(t, "2025-05-31T23:30:00Z"), true)  // yesterday
		rate(cards[2], atTime(t, "2025-06-01T08:00:00Z"), false) // not a first review

		count, err := store.NewCardsReviewedToday(ctx, "ada", now)
		is.NoErr(err)
		is.Equal(count, 1)
	})
}

func TestDeleteCard(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		cards, err := store.AddCards(ctx, "ada",
			[]CardContent{{Front: "hola", Back: "hello"}}, now)
		is.NoErr(err)
		card := cards[0]
		card.Stage = srs.StageLearning
		is.NoErr(store.UpdateCard(ctx, "ada", card, ReviewLogItem{
			Rating: srs.Good, RatedAt: now, FirstReview: true, Stage: card.Stage,
		}))

		is.NoErr(store.DeleteCard(ctx, "ada", card.ID))
		is.True(errors.Is(store.DeleteCard(ctx, "ada", card.ID), ErrNotFound))

		_, err = store.Content(ctx, "ada", card.ID)
		is.True(errors.Is(err, ErrNotFound))
		count, err := store.CardCount(ctx, "ada")
		is.NoErr(err)
		is.Equal(count, 0)

		// The review log went with the card.
		reviewed, err := store.NewCardsReviewedToday(ctx, "ada", now)
		is.NoErr(err)
		is.Equal(reviewed, 0)
	})
}

func TestContent(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		cards, err := store.AddCards(ctx, "ada",
			[]CardContent{{Front: "hola", Back: "hello"}}, now)
		is.NoErr(err)

		content, err := store.Content(ctx, "ada", cards[0].ID)
		is.NoErr(err)
		is.Equal(content, CardContent{Front: "hola", Back: "hello"})

		_, err = store.Content(ctx, "ada", "missing")
		is.True(errors.Is(err, ErrNotFound))
	})
}

func TestUsersAreIsolated(t *testing.T) {
	forEachStore(t, func(t *testing.T, store CardStore) {
		is := is.New(t)
		ctx := context.Background()
		now := atTime(t, "2025-06-01T12:00:00Z")

		_, err := store.AddCards(ctx, "ada",
			[]CardContent{{Front: "hola"}}, now)
		is.NoErr(err)

		fresh, err := store.NewCards(ctx, "grace")
		is.NoErr(err)
		is.Equal(len(fresh), 0)
		count, err := store.CardCount(ctx, "grace")
		is.NoErr(err)
		is.Equal(count, 0)
	})
}

func TestDayStartUTC(t *testing.T) {
	is := is.New(t)
	start := dayStartUTC(atTime(t, "2025-06-01T23:59:59Z"))
	is.True(start.Equal(atTime(t, "2025-06-01T00:00:00Z")))
	// Non-UTC inputs normalize to the UTC day.
	est := time.FixedZone("EST", -5*3600)
	start = dayStartUTC(time.Date(2025, 6, 1, 22, 0, 0, 0, est)) // 03:00 UTC June 2
	is.True(start.Equal(atTime(t, "2025-06-02T00:00:00Z")))
}
