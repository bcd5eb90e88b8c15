package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/repository"
)

var _ repository.AttributeRepository = (*DB)(nil)

// GetUserAttribute returns the value stored for (userID, key).
//
// A missing row is not an error: found=false covers both "never set" and
// "no such user". A stored empty string comes back as ("", true).
func (db *DB) GetUserAttribute(ctx context.Context, userID, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM user_attributes WHERE user_id = ? AND key = ?`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("sqlite: reading attribute %s for user %s: %w", key, userID, err)
	}
	return value, true, nil
}

// SetUserAttribute writes (userID, key) = value in a single statement.
//
// ON CONFLICT DO UPDATE makes the write atomic per key: concurrent saves for
// the same user resolve as last-writer-wins with no read-modify-write window.
// The foreign key rejects attributes for users that do not exist; that
// comes back as apperror.ErrNotFound.
func (db *DB) SetUserAttribute(ctx context.Context, userID, key, value string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_attributes (user_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, userID, key, value, time.Now())
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.NotFound("user", userID)
		}
		return fmt.Errorf("sqlite: writing attribute %s for user %s: %w", key, userID, err)
	}
	return nil
}
