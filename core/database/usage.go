package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/d4n3436/fergun/core/logger"
	"github.com/jmoiron/sqlx"
)

// CommandUsage is one row of the command usage counter.
type CommandUsage struct {
	Command    string    `db:"command"`
	Uses       int64     `db:"uses"`
	LastUsedAt time.Time `db:"last_used_at"`
}

// UsageStore counts how often each command ran.
type UsageStore struct {
	db *sqlx.DB
}

// NewUsageStore wraps db.
func NewUsageStore(db *sqlx.DB) *UsageStore {
	return &UsageStore{db: db}
}

const incrementUsageSQL = `
INSERT INTO command_usage (command, uses, last_used_at)
VALUES ($1, 1, now())
ON CONFLICT (command) DO UPDATE
SET uses = command_usage.uses + 1, last_used_at = now()`

// Increment adds one use of command.
func (s *UsageStore) Increment(ctx context.Context, command string) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, incrementUsageSQL, command); err != nil {
		return fmt.Errorf("database: increment usage of %q: %w", command, err)
	}
	logger.Debug(ctx, "db", "usage.increment",
		slog.String("command", command),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}

// Top returns up to limit commands ordered by use count, most used first.
// A non-positive limit returns every command.
func (s *UsageStore) Top(ctx context.Context, limit int) ([]CommandUsage, error) {
	query := `SELECT command, uses, last_used_at FROM command_usage ORDER BY uses DESC, command ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	var out []CommandUsage
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("database: top usage: %w", err)
	}
	return out, nil
}
