package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/model"
	"github.com/sakif/userlocale/internal/service"
)

// SiteSettings reads and changes the site default locale.
type SiteSettings interface {
	SiteLocale(ctx context.Context) string
	SetSiteLocale(ctx context.Context, actorID, localeID string) error
}

// SettingsHandler serves the general settings page, where administrators
// pick the site language. The page always renders in the site locale.
type SettingsHandler struct {
	settings SiteSettings
	users    UserReader
	authz    service.OptionsAuthorizer
	catalog  *locale.Catalog
	page     *template.Template
	logger   *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler and parses its template.
func NewSettingsHandler(
	settings SiteSettings,
	users UserReader,
	authz service.OptionsAuthorizer,
	catalog *locale.Catalog,
	logger *slog.Logger,
) (*SettingsHandler, error) {
	page, err := parsePage("settings")
	if err != nil {
		return nil, err
	}
	return &SettingsHandler{
		settings: settings,
		users:    users,
		authz:    authz,
		catalog:  catalog,
		page:     page,
		logger:   logger,
	}, nil
}

// HandleSettings renders the site language form.
//
// HTTP: GET /admin/options-general.php
func (h *SettingsHandler) HandleSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authorize(w, r)
	if !ok {
		return
	}

	data := newPageData(r, actor)
	data.Title = data.T.GeneralSettings
	data.Action = "/admin/options-general.php"
	data.Options = h.catalog.Options(h.settings.SiteLocale(r.Context()))

	renderPage(w, h.logger, h.page, data)
}

// HandleSaveSettings changes the site language.
//
// HTTP: POST /admin/options-general.php   form: site_locale
func (h *SettingsHandler) HandleSaveSettings(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.authorize(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		pageError(w, apperror.ValidationFailed(model.SiteLocaleKey, "malformed form body"))
		return
	}

	if err := h.settings.SetSiteLocale(r.Context(), actor.ID, r.PostForm.Get(model.SiteLocaleKey)); err != nil {
		pageError(w, err)
		return
	}
	redirectUpdated(w, r, "/admin/options-general.php", nil)
}

func (h *SettingsHandler) authorize(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	actor, err := loadActor(r, h.users)
	if err != nil {
		pageError(w, err)
		return nil, false
	}
	allowed, err := h.authz.CanManageOptions(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("checking settings permission", slog.String("error", err.Error()))
		pageError(w, err)
		return nil, false
	}
	if !allowed {
		pageError(w, apperror.Forbidden("you are not allowed to manage site settings"))
		return nil, false
	}
	return actor, true
}
