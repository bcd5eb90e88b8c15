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

// OptionsAuthorizer decides who may change site-wide settings.
type OptionsAuthorizer interface {
	CanManageOptions(ctx context.Context, actorID string) (bool, error)
}

// SettingsService owns the site default locale, the value the general
// settings page edits and the candidate every request starts from.
type SettingsService struct {
	options  repository.OptionRepository
	authz    OptionsAuthorizer
	catalog  *locale.Catalog
	fallback string
	logger   *slog.Logger
}

// NewSettingsService creates a SettingsService. fallback is used until a
// site locale has been stored, and whenever storage cannot be read.
func NewSettingsService(
	options repository.OptionRepository,
	authz OptionsAuthorizer,
	catalog *locale.Catalog,
	fallback string,
	logger *slog.Logger,
) *SettingsService {
	return &SettingsService{
		options:  options,
		authz:    authz,
		catalog:  catalog,
		fallback: fallback,
		logger:   logger,
	}
}

// EnsureDefaults stores the fallback site locale if none is set yet.
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	_, found, err := s.options.GetOption(ctx, model.SiteLocaleKey)
	if err != nil {
		return fmt.Errorf("reading site locale: %w", err)
	}
	if found {
		return nil
	}
	if err := s.options.SetOption(ctx, model.SiteLocaleKey, s.fallback); err != nil {
		return fmt.Errorf("seeding site locale: %w", err)
	}
	s.logger.Info("site locale initialised", slog.String("locale", s.fallback))
	return nil
}

// SiteLocale returns the site default locale. It never fails.
func (s *SettingsService) SiteLocale(ctx context.Context) string {
	value, found, err := s.options.GetOption(ctx, model.SiteLocaleKey)
	if err != nil {
		s.logger.Warn("reading site locale failed, using fallback",
			slog.String("error", err.Error()),
		)
		return s.fallback
	}
	if !found || value == "" {
		return s.fallback
	}
	return value
}

// SetSiteLocale changes the site default locale. Only administrators may do
// this, and only to an installed locale.
func (s *SettingsService) SetSiteLocale(ctx context.Context, actorID, localeID string) error {
	allowed, err := s.authz.CanManageOptions(ctx, actorID)
	if err != nil {
		return fmt.Errorf("checking settings permission: %w", err)
	}
	if !allowed {
		return apperror.Forbidden("you are not allowed to manage site settings")
	}

	localeID = strings.TrimSpace(localeID)
	if !s.catalog.Contains(localeID) {
		return apperror.ValidationFailed(model.SiteLocaleKey, fmt.Sprintf("locale %q is not installed", localeID))
	}

	if err := s.options.SetOption(ctx, model.SiteLocaleKey, localeID); err != nil {
		return fmt.Errorf("saving site locale: %w", err)
	}

	s.logger.Info("site locale changed",
		slog.String("actor", actorID),
		slog.String("locale", localeID),
	)
	return nil
}
