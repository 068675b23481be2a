package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/esheagren/pluck-sub000/internal/srs"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cards (
	user_id TEXT NOT NULL,
	id TEXT NOT NULL,
	front TEXT NOT NULL DEFAULT '',
	back TEXT NOT NULL DEFAULT '',
	due_at TIMESTAMP NOT NULL,
	interval_days REAL NOT NULL DEFAULT 0,
	ease_factor REAL NOT NULL DEFAULT 0,
	repetitions INTEGER NOT NULL DEFAULT 0,
	lapses INTEGER NOT NULL DEFAULT 0,
	stage INTEGER NOT NULL DEFAULT 0,
	step INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS cards_user_due ON cards (user_id, stage, due_at);
CREATE TABLE IF NOT EXISTS review_log (
	user_id TEXT NOT NULL,
	card_id TEXT NOT NULL,
	rating INTEGER NOT NULL,
	rated_at TIMESTAMP NOT NULL,
	first_review INTEGER NOT NULL DEFAULT 0,
	interval_days REAL NOT NULL,
	ease_factor REAL NOT NULL,
	stage INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS review_log_user_rated ON review_log (user_id, rated_at);
`

// SQLite is a CardStore backed by a local SQLite file, for single-user use.
type SQLite struct {
	db *sql.DB
}

var _ CardStore = (*SQLite)(nil)

// OpenSQLite opens (and if necessary creates) the card store at the given
// path. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// One connection keeps ":memory:" on a single database and sidesteps
	// SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) DueCards(ctx context.Context, userID string, now time.Time) ([]srs.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, due_at, interval_days, ease_factor, repetitions, lapses, stage, step, created_at
		FROM cards
		WHERE user_id = ? AND stage != ? AND due_at <= ?
		ORDER BY due_at, id`,
		userID, int(srs.StageNew), now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

func (s *SQLite) NewCards(ctx context.Context, userID string) ([]srs.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, due_at, interval_days, ease_factor, repetitions, lapses, stage, step, created_at
		FROM cards
		WHERE user_id = ? AND stage = ?
		ORDER BY created_at, id`,
		userID, int(srs.StageNew))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

func scanCards(rows *sql.Rows) ([]srs.Card, error) {
	var out []srs.Card
	for rows.Next() {
		var c srs.Card
		var stage int
		if err := rows.Scan(&c.ID, &c.DueAt, &c.IntervalDays, &c.EaseFactor,
			&c.Repetitions, &c.Lapses, &stage, &c.Step, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Stage = srs.Stage(stage)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateCard(ctx context.Context, userID string, card srs.Card, review ReviewLogItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE cards
		SET due_at = ?, interval_days = ?, ease_factor = ?, repetitions = ?, lapses = ?, stage = ?, step = ?
		WHERE user_id = ? AND id = ?`,
		card.DueAt.UTC(), card.IntervalDays, card.EaseFactor, card.Repetitions,
		card.Lapses, int(card.Stage), card.Step, userID, card.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_log (user_id, card_id, rating, rated_at, first_review, interval_days, ease_factor, stage)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, card.ID, int(review.Rating), review.RatedAt.UTC(), review.FirstReview,
		review.IntervalDays, review.EaseFactor, int(review.Stage))
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) NewCardsReviewedToday(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_log
		WHERE user_id = ? AND first_review = 1 AND rated_at >= ?`,
		userID, dayStartUTC(now)).Scan(&count)
	return count, err
}

func (s *SQLite) AddCards(ctx context.Context, userID string, contents []CardContent, now time.Time) ([]srs.Card, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	out := make([]srs.Card, len(contents))
	for i, content := range contents {
		card := srs.NewCard(newCardID(), now.UTC())
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cards (user_id, id, front, back, due_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			userID, card.ID, content.Front, content.Back, card.DueAt, card.CreatedAt)
		if err != nil {
			return nil, err
		}
		out[i] = card
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) DeleteCard(ctx context.Context, userID, cardID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM cards WHERE user_id = ? AND id = ?`, userID, cardID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM review_log WHERE user_id = ? AND card_id = ?`, userID, cardID); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) Content(ctx context.Context, userID, cardID string) (CardContent, error) {
	var content CardContent
	err := s.db.QueryRowContext(ctx,
		`SELECT front, back FROM cards WHERE user_id = ? AND id = ?`,
		userID, cardID).Scan(&content.Front, &content.Back)
	if errors.Is(err, sql.ErrNoRows) {
		return CardContent{}, ErrNotFound
	}
	return content, err
}

func (s *SQLite) CardCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE user_id = ?`, userID).Scan(&count)
	return count, err
}
