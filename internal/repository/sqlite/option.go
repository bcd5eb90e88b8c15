package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/userlocale/internal/repository"
)

var _ repository.OptionRepository = (*DB)(nil)

// GetOption returns a site option; found=false when it was never set.
func (db *DB) GetOption(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM site_options WHERE key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite: reading option %s: %w", key, err)
	}
	return value, true, nil
}

// SetOption creates or overwrites a site option.
func (db *DB) SetOption(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO site_options (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("sqlite: writing option %s: %w", key, err)
	}
	return nil
}
