package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/esheagren/pluck-sub000/internal/srs"
)

// Postgres is a CardStore backed by a shared Postgres database. Cards may be
// reviewed from several devices; the store is last-write-wins on the card
// record.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ CardStore = (*Postgres)(nil)

// NewPostgres wraps an existing connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// OpenPostgres connects to dburi and verifies the connection.
func OpenPostgres(ctx context.Context, dburi string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dburi)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres store: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// MigrateUp applies all pending migrations from sourceURL (for example
// "file://db/migrations") against dburi. A no-op when already current.
func MigrateUp(sourceURL, dburi string) error {
	m, err := migrate.New(sourceURL, dburi)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func toPGTimestamp(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Valid: true, Time: t}
}

func (p *Postgres) DueCards(ctx context.Context, userID string, now time.Time) ([]srs.Card, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, due_at, interval_days, ease_factor, repetitions, lapses, stage, step, created_at
		FROM cards
		WHERE user_id = $1 AND stage != $2 AND due_at <= $3
		ORDER BY due_at, id`,
		userID, int(srs.StageNew), toPGTimestamp(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPGCards(rows)
}

func (p *Postgres) NewCards(ctx context.Context, userID string) ([]srs.Card, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, due_at, interval_days, ease_factor, repetitions, lapses, stage, step, created_at
		FROM cards
		WHERE user_id = $1 AND stage = $2
		ORDER BY created_at, id`,
		userID, int(srs.StageNew))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPGCards(rows)
}

func scanPGCards(rows pgx.Rows) ([]srs.Card, error) {
	var out []srs.Card
	for rows.Next() {
		var c srs.Card
		var stage int
		var dueAt, createdAt pgtype.Timestamptz
		if err := rows.Scan(&c.ID, &dueAt, &c.IntervalDays, &c.EaseFactor,
			&c.Repetitions, &c.Lapses, &stage, &c.Step, &createdAt); err != nil {
			return nil, err
		}
		c.Stage = srs.Stage(stage)
		c.DueAt = dueAt.Time
		c.CreatedAt = createdAt.Time
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) UpdateCard(ctx context.Context, userID string, card srs.Card, review ReviewLogItem) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE cards
		SET due_at = $1, interval_days = $2, ease_factor = $3, repetitions = $4, lapses = $5, stage = $6, step = $7
		WHERE user_id = $8 AND id = $9`,
		toPGTimestamp(card.DueAt), card.IntervalDays, card.EaseFactor, card.Repetitions,
		card.Lapses, int(card.Stage), card.Step, userID, card.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO review_log (user_id, card_id, rating, rated_at, first_review, interval_days, ease_factor, stage)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, card.ID, int(review.Rating), toPGTimestamp(review.RatedAt), review.FirstReview,
		review.IntervalDays, review.EaseFactor, int(review.Stage))
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) NewCardsReviewedToday(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM review_log
		WHERE user_id = $1 AND first_review AND rated_at >= $2`,
		userID, toPGTimestamp(dayStartUTC(now))).Scan(&count)
	return count, err
}

func (p *Postgres) AddCards(ctx context.Context, userID string, contents []CardContent, now time.Time) ([]srs.Card, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out := make([]srs.Card, len(contents))
	for i, content := range contents {
		card := srs.NewCard(newCardID(), now.UTC())
		_, err := tx.Exec(ctx, `
			INSERT INTO cards (user_id, id, front, back, due_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			userID, card.ID, content.Front, content.Back,
			toPGTimestamp(card.DueAt), toPGTimestamp(card.CreatedAt))
		if err != nil {
			return nil, err
		}
		out[i] = card
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) DeleteCard(ctx context.Context, userID, cardID string) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM cards WHERE user_id = $1 AND id = $2`, userID, cardID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx,
		`DELETE FROM review_log WHERE user_id = $1 AND card_id = $2`, userID, cardID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *Postgres) Content(ctx context.Context, userID, cardID string) (CardContent, error) {
	var content CardContent
	err := p.pool.QueryRow(ctx,
		`SELECT front, back FROM cards WHERE user_id = $1 AND id = $2`,
		userID, cardID).Scan(&content.Front, &content.Back)
	if errors.Is(err, pgx.ErrNoRows) {
		return CardContent{}, ErrNotFound
	}
	return content, err
}

func (p *Postgres) CardCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM cards WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
