// Package repository declares the storage contracts the service layer depends on.
// The sqlite package implements all of them on a single *sqlite.DB.
package repository

import (
	"context"

	"github.com/sakif/userlocale/internal/model"
)

// UserRepository reads and writes user accounts.
type UserRepository interface {
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)
	SetRole(ctx context.Context, id, role string) error
	DeleteUser(ctx context.Context, id string) error
}

// AttributeRepository is the host's generic per-user key/value storage.
//
// GetUserAttribute returns found=false (and no error) when the user has no
// value for key, including when the user does not exist. SetUserAttribute
// overwrites any previous value atomically.
type AttributeRepository interface {
	GetUserAttribute(ctx context.Context, userID, key string) (value string, found bool, err error)
	SetUserAttribute(ctx context.Context, userID, key, value string) error
}

// OptionRepository stores site-wide settings.
type OptionRepository interface {
	GetOption(ctx context.Context, key string) (value string, found bool, err error)
	SetOption(ctx context.Context, key, value string) error
}
