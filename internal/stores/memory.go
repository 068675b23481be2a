package stores

import (
	"context"
	"sort"
	"time"

	"github.com/esheagren/pluck-sub000/internal/srs"
)

type memCard struct {
	card    srs.Card
	content CardContent
}

type memReview struct {
	cardID string
	item   ReviewLogItem
}

// Memory is an in-memory CardStore. It backs tests and offline sessions; it
// is not safe for concurrent use.
type Memory struct {
	cards   map[string]map[string]*memCard // userID → cardID → card
	reviews map[string][]memReview         // userID → log
}

var _ CardStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cards:   map[string]map[string]*memCard{},
		reviews: map[string][]memReview{},
	}
}

func (m *Memory) DueCards(ctx context.Context, userID string, now time.Time) ([]srs.Card, error) {
	var out []srs.Card
	for _, mc := range m.cards[userID] {
		if mc.card.IsNew() || !mc.card.Due(now) {
			continue
		}
		out = append(out, mc.card)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) NewCards(ctx context.Context, userID string) ([]srs.Card, error) {
	var out []srs.Card
	for _, mc := range m.cards[userID] {
		if mc.card.IsNew() {
			out = append(out, mc.card)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateCard(ctx context.Context, userID string, card srs.Card, review ReviewLogItem) error {
	mc, ok := m.cards[userID][card.ID]
	if !ok {
		return ErrNotFound
	}
	mc.card = card
	m.reviews[userID] = append(m.reviews[userID], memReview{cardID: card.ID, item: review})
	return nil
}

func (m *Memory) NewCardsReviewedToday(ctx context.Context, userID string, now time.Time) (int, error) {
	start := dayStartUTC(now)
	count := 0
	for _, r := range m.reviews[userID] {
		if r.item.FirstReview && !r.item.RatedAt.Before(start) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) AddCards(ctx context.Context, userID string, contents []CardContent, now time.Time) ([]srs.Card, error) {
	if m.cards[userID] == nil {
		m.cards[userID] = map[string]*memCard{}
	}
	out := make([]srs.Card, len(contents))
	for i, content := range contents {
		card := srs.NewCard(newCardID(), now)
		m.cards[userID][card.ID] = &memCard{card: card, content: content}
		out[i] = card
	}
	return out, nil
}

func (m *Memory) DeleteCard(ctx context.Context, userID, cardID string) error {
	if _, ok := m.cards[userID][cardID]; !ok {
		return ErrNotFound
	}
	delete(m.cards[userID], cardID)
	logs := m.reviews[userID][:0]
	for _, r := range m.reviews[userID] {
		if r.cardID != cardID {
			logs = append(logs, r)
		}
	}
	m.reviews[userID] = logs
	return nil
}

func (m *Memory) Content(ctx context.Context, userID, cardID string) (CardContent, error) {
	mc, ok := m.cards[userID][cardID]
	if !ok {
		return CardContent{}, ErrNotFound
	}
	return mc.content, nil
}

func (m *Memory) CardCount(ctx context.Context, userID string) (int, error) {
	return len(m.cards[userID]), nil
}
