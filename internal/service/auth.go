package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/model"
	"github.com/sakif/userlocale/internal/repository"
)

// AuthService turns sign-ins into users and session tokens.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users       repository.UserRepository
	tokens      *auth.TokenService
	passwords   *auth.PasswordService
	adminLogins map[string]struct{}
	logger      *slog.Logger
}

// NewAuthService creates an AuthService. GitHub logins listed in adminLogins
// are given the administrator role when they sign in.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	adminLogins []string,
	logger *slog.Logger,
) *AuthService {
	admins := make(map[string]struct{}, len(adminLogins))
	for _, l := range adminLogins {
		admins[strings.ToLower(l)] = struct{}{}
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		passwords:   passwords,
		adminLogins: admins,
		logger:      logger,
	}
}

// AuthResult bundles the signed-in user with their session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// LoginOrRegisterGitHub upserts the GitHub user and issues a session token.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if _, ok := s.adminLogins[strings.ToLower(ghUser.Login)]; ok {
		user.Role = model.RoleAdministrator
	}

	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
		slog.String("role", user.Role),
	)

	return s.issue(user)
}

// LoginLocal signs in an account that has a local password.
// Unknown logins and wrong passwords produce the same error.
func (s *AuthService) LoginLocal(ctx context.Context, login, password string) (*AuthResult, error) {
	invalid := apperror.Unauthorized("invalid login or password")

	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up %q: %w", login, err)
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Warn("local login rejected", slog.String("login", user.Login))
		return nil, invalid
	}

	s.logger.Info("user authenticated locally", slog.String("userID", user.ID))
	return s.issue(user)
}

// EnsureAdmin creates or refreshes the bootstrap administrator account.
func (s *AuthService) EnsureAdmin(ctx context.Context, login, password string) (*model.User, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, apperror.ValidationFailed("login", "admin login and password are required")
	}
	hash, err := s.passwords.Hash(password)
	switch {
	case errors.Is(err, auth.ErrPasswordTooShort), errors.Is(err, auth.ErrPasswordTooLong):
		return nil, apperror.ValidationFailed("password", strings.TrimPrefix(err.Error(), "auth: "))
	case err != nil:
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		Login:        login,
		Role:         model.RoleAdministrator,
		PasswordHash: hash,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: saving admin %q: %w", login, err)
	}
	s.logger.Info("bootstrap administrator ready", slog.String("userID", user.ID), slog.String("login", login))
	return user, nil
}

// SetRole changes the role of the user with the given login.
func (s *AuthService) SetRole(ctx context.Context, login, role string) (*model.User, error) {
	if role != model.RoleAdministrator && role != model.RoleSubscriber {
		return nil, apperror.ValidationFailed("role", fmt.Sprintf("unknown role %q", role))
	}
	user, err := s.users.GetUserByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRole(ctx, user.ID, role); err != nil {
		return nil, fmt.Errorf("service/auth: setting role: %w", err)
	}
	user.Role = role
	return user, nil
}

// DeleteUser removes the account with the given login. Its locale
// preference is removed with it.
func (s *AuthService) DeleteUser(ctx context.Context, login string) (*model.User, error) {
	user, err := s.users.GetUserByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		return nil, err
	}
	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("service/auth: deleting user %s: %w", user.ID, err)
	}
	s.logger.Info("user deleted", slog.String("userID", user.ID), slog.String("login", user.Login))
	return user, nil
}

// GetUserByID returns the user for the given internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID must not be empty")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}

// GetUserByLogin returns the user with the given login.
func (s *AuthService) GetUserByLogin(ctx context.Context, login string) (*model.User, error) {
	return s.users.GetUserByLogin(ctx, strings.TrimSpace(login))
}

// ValidateToken validates a session token and returns its user ID.
func (s *AuthService) ValidateToken(tokenStr string) (string, error) {
	userID, err := s.tokens.Validate(tokenStr)
	if err != nil {
		return "", fmt.Errorf("service/auth: %w", err)
	}
	return userID, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
