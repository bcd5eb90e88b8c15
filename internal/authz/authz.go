// Package authz answers "may this user do that" questions for the host.
//
// The rules are the host platform's, not the locale service's: a user may
// edit their own profile, administrators may edit anyone's, and only
// administrators may change site settings.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/model"
)

// UserLookup is the slice of the user repository the authorizer needs.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Authorizer checks capabilities against stored user roles.
type Authorizer struct {
	users UserLookup
}

// New creates an Authorizer.
func New(users UserLookup) *Authorizer {
	return &Authorizer{users: users}
}

// CanEditUserProfile reports whether actorID may edit targetID's profile.
//
// Unknown actors are denied. An unknown target is still editable by an
// administrator; the write itself will then fail in storage.
func (a *Authorizer) CanEditUserProfile(ctx context.Context, actorID, targetID string) (bool, error) {
	if actorID == "" || targetID == "" {
		return false, nil
	}
	if actorID == targetID {
		return true, nil
	}
	return a.isAdministrator(ctx, actorID)
}

// CanManageOptions reports whether actorID may change site-wide settings.
func (a *Authorizer) CanManageOptions(ctx context.Context, actorID string) (bool, error) {
	if actorID == "" {
		return false, nil
	}
	return a.isAdministrator(ctx, actorID)
}

func (a *Authorizer) isAdministrator(ctx context.Context, userID string) (bool, error) {
	u, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("authz: loading user %s: %w", userID, err)
	}
	return u.IsAdministrator(), nil
}
