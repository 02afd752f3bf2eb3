package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/d4n3436/fergun/core/logger"
	"github.com/jmoiron/sqlx"
)

// BlacklistEntry is a user barred from running commands.
type BlacklistEntry struct {
	UserID    int64     `db:"user_id"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

// BlacklistStore persists blacklisted users.
type BlacklistStore struct {
	db *sqlx.DB
}

// NewBlacklistStore wraps db.
func NewBlacklistStore(db *sqlx.DB) *BlacklistStore {
	return &BlacklistStore{db: db}
}

const addBlacklistSQL = `
INSERT INTO blacklist (user_id, reason, created_at)
VALUES ($1, $2, now())
ON CONFLICT (user_id) DO UPDATE SET reason = EXCLUDED.reason`

// Add blacklists userID, replacing the reason of an existing entry.
func (s *BlacklistStore) Add(ctx context.Context, userID int64, reason string) error {
	if _, err := s.db.ExecContext(ctx, addBlacklistSQL, userID, reason); err != nil {
		return fmt.Errorf("database: blacklist add %d: %w", userID, err)
	}
	logger.Info(ctx, "db", "blacklist.add",
		slog.Int64("target_user_id", userID),
	)
	return nil
}

// Remove lifts the blacklist on userID and reports whether an entry existed.
func (s *BlacklistStore) Remove(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blacklist WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("database: blacklist remove %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("database: blacklist remove %d: %w", userID, err)
	}
	logger.Info(ctx, "db", "blacklist.remove",
		slog.Int64("target_user_id", userID),
		slog.Bool("existed", n > 0),
	)
	return n > 0, nil
}

// Get returns the entry for userID.
func (s *BlacklistStore) Get(ctx context.Context, userID int64) (BlacklistEntry, bool, error) {
	var e BlacklistEntry
	err := s.db.GetContext(ctx, &e, `SELECT user_id, reason, created_at FROM blacklist WHERE user_id = $1`, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return BlacklistEntry{}, false, nil
	case err != nil:
		return BlacklistEntry{}, false, fmt.Errorf("database: blacklist get %d: %w", userID, err)
	}
	return e, true, nil
}

// IsBlacklisted reports whether userID has an entry.
func (s *BlacklistStore) IsBlacklisted(ctx context.Context, userID int64) (bool, error) {
	_, ok, err := s.Get(ctx, userID)
	return ok, err
}

// List returns every entry, newest first.
func (s *BlacklistStore) List(ctx context.Context) ([]BlacklistEntry, error) {
	var out []BlacklistEntry
	if err := s.db.SelectContext(ctx, &out, `SELECT user_id, reason, created_at FROM blacklist ORDER BY created_at DESC, user_id`); err != nil {
		return nil, fmt.Errorf("database: blacklist list: %w", err)
	}
	return out, nil
}
