// Package service contains the business rules of the locale service.
//
//	Handler / CLI  →  Service  →  Repository
//
// Services accept plain values (user IDs, locale strings), never HTTP types,
// and return apperror values that the handler layer maps to status codes.
// Repositories and the authorizer are injected as interfaces so tests can
// substitute in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/model"
	"github.com/sakif/userlocale/internal/repository"
)

// ProfileAuthorizer decides who may edit whose profile.
type ProfileAuthorizer interface {
	CanEditUserProfile(ctx context.Context, actorID, targetID string) (bool, error)
}

// PreferenceService is the preference store: one locale string per user,
// kept in the host's per-user attribute storage under model.UserLocaleKey.
type PreferenceService struct {
	attrs  repository.AttributeRepository
	authz  ProfileAuthorizer
	logger *slog.Logger
}

// NewPreferenceService creates a PreferenceService.
func NewPreferenceService(attrs repository.AttributeRepository, authz ProfileAuthorizer, logger *slog.Logger) *PreferenceService {
	return &PreferenceService{
		attrs:  attrs,
		authz:  authz,
		logger: logger,
	}
}

// Get returns the stored preference for userID.
//
// Unknown users and users who never chose a language both come back as
// Found=false with no error. Only storage failures are errors.
func (s *PreferenceService) Get(ctx context.Context, userID string) (model.UserLocalePreference, error) {
	pref := model.UserLocalePreference{UserID: userID}
	if userID == "" {
		return pref, nil
	}

	value, found, err := s.attrs.GetUserAttribute(ctx, userID, model.UserLocaleKey)
	if err != nil {
		return pref, fmt.Errorf("reading locale preference: %w", err)
	}
	pref.Locale = value
	pref.Found = found
	return pref, nil
}

// Set stores locale as targetID's preference on behalf of actorID.
//
// The write happens only if actorID may edit targetID's profile; otherwise
// apperror.ErrForbidden is returned and storage is untouched. An empty locale
// is a valid value meaning "use the site default". Anything else must be a
// well-formed locale identifier. Availability is not checked here: an
// installed locale may be removed later and the stored value stays valid.
func (s *PreferenceService) Set(ctx context.Context, targetID, localeID, actorID string) error {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return apperror.ValidationFailed("user_id", "target user is required")
	}

	allowed, err := s.authz.CanEditUserProfile(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("checking profile permission: %w", err)
	}
	if !allowed {
		s.logger.Warn("locale preference write denied",
			slog.String("actor", actorID),
			slog.String("target", targetID),
		)
		return apperror.Forbidden("you are not allowed to edit this user's profile")
	}

	localeID = strings.TrimSpace(localeID)
	if localeID != "" {
		if _, err := locale.ParseID(localeID); err != nil {
			return apperror.ValidationFailed(model.UserLocaleKey, "locale is not a valid language identifier")
		}
	}

	if err := s.attrs.SetUserAttribute(ctx, targetID, model.UserLocaleKey, localeID); err != nil {
		s.logger.Error("failed to save locale preference",
			slog.String("target", targetID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("saving locale preference: %w", err)
	}

	s.logger.Info("locale preference saved",
		slog.String("actor", actorID),
		slog.String("target", targetID),
		slog.String("locale", localeID),
	)
	return nil
}
