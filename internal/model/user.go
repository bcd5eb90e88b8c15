// Package model defines the data structures used throughout the application.
package model

import "time"

// Roles understood by the authorization layer.
//
// The host platform only distinguishes two capability levels for this service:
// administrators may edit any user's profile and the site settings, everyone
// else may only edit their own profile.
const (
	RoleAdministrator = "administrator"
	RoleSubscriber    = "subscriber"
)

// User represents a registered user account.
//
// Users sign in either through GitHub OAuth (GitHubID set) or, for the
// bootstrap administrator, with a local password (PasswordHash set). ID is
// an internal xid either way.
//
// GitHubID 0 means "no GitHub account"; GitHub never issues it.
type User struct {
	ID           string    `json:"id"        db:"id"`
	GitHubID     int64     `json:"githubId"  db:"github_id"`
	Login        string    `json:"login"     db:"login"`
	Email        string    `json:"email"     db:"email"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	Role         string    `json:"role"      db:"role"`
	PasswordHash string    `json:"-"         db:"password_hash"` // never serialised
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAdministrator reports whether the user holds the administrator role.
func (u *User) IsAdministrator() bool {
	return u != nil && u.Role == RoleAdministrator
}
