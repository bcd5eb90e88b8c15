package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/model"
	"github.com/sakif/userlocale/internal/repository"
)

var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, github_id, login, email, avatar_url, role, password_hash, created_at, updated_at`

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Upsert inserts user or refreshes the stored account it matches.
//
// GitHub accounts match on github_id, local accounts (GitHubID == 0) on
// login. A matched account keeps its ID and CreatedAt, and keeps its role
// and password hash unless user supplies new ones. On return user holds
// the stored record. A login already taken by another account is
// apperror.ErrConflict.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: upserting user %q: %w", user.Login, err)
	}
	defer tx.Rollback()

	match, arg := "login = ?", any(user.Login)
	if user.GitHubID != 0 {
		match, arg = "github_id = ?", user.GitHubID
	}
	existing, err := scanUser(ctx, tx, match, arg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = insertUser(ctx, tx, user)
	case err != nil:
		return fmt.Errorf("sqlite: looking up user %q: %w", user.Login, err)
	default:
		err = updateUser(ctx, tx, existing, user)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Login)
		}
		return fmt.Errorf("sqlite: saving user %q: %w", user.Login, err)
	}
	return tx.Commit()
}

func insertUser(ctx context.Context, tx *sql.Tx, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = model.RoleSubscriber
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, nullableGitHubID(user.GitHubID), user.Login, user.Email, user.AvatarURL,
		user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

func updateUser(ctx context.Context, tx *sql.Tx, existing, user *model.User) error {
	user.ID = existing.ID
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now().UTC()
	if user.Role == "" {
		user.Role = existing.Role
	}
	if user.PasswordHash == "" {
		user.PasswordHash = existing.PasswordHash
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE users
		    SET login = ?, email = ?, avatar_url = ?, role = ?, password_hash = ?, updated_at = ?
		  WHERE id = ?`,
		user.Login, user.Email, user.AvatarURL, user.Role, user.PasswordHash, user.UpdatedAt, user.ID,
	)
	return err
}

// GetUserByID returns apperror.ErrNotFound for unknown IDs.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, "id = ?", id)
}

// GetUserByLogin returns apperror.ErrNotFound for unknown logins.
func (db *DB) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	return db.getUser(ctx, "login = ?", login)
}

// SetRole changes a user's role.
func (db *DB) SetRole(ctx context.Context, id, role string) error {
	return db.execOnUser(ctx, id, "setting role",
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now().UTC(), id)
}

// DeleteUser removes the account. Its attributes, the locale preference
// among them, go with it through ON DELETE CASCADE.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	return db.execOnUser(ctx, id, "deleting", `DELETE FROM users WHERE id = ?`, id)
}

func (db *DB) execOnUser(ctx context.Context, id, doing, query string, args ...any) error {
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: %s user %s: %w", doing, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: %s user %s: %w", doing, id, err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func (db *DB) getUser(ctx context.Context, where string, key string) (*model.User, error) {
	u, err := scanUser(ctx, db.conn, where, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperror.NotFound("user", key)
	case err != nil:
		return nil, fmt.Errorf("sqlite: getting user %q: %w", key, err)
	}
	return u, nil
}

// scanUser returns sql.ErrNoRows unchanged so callers choose how to report it.
func scanUser(ctx context.Context, q rowQuerier, where string, arg any) (*model.User, error) {
	var (
		u        model.User
		githubID sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(
		&u.ID, &githubID, &u.Login, &u.Email, &u.AvatarURL,
		&u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

// nullableGitHubID stores local accounts with a NULL github_id, which the
// UNIQUE constraint does not compare.
func nullableGitHubID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}
