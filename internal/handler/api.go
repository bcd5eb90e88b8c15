package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/middleware"
	"github.com/sakif/userlocale/internal/model"
	"github.com/sakif/userlocale/internal/service"
)

// LocaleStater reports how the locale of a request was resolved and what a
// user has stored.
type LocaleStater interface {
	State(ctx context.Context, req service.ResolveRequest) (model.LocaleState, error)
	Preference(ctx context.Context, userID string) (model.UserLocalePreference, error)
}

// LocaleAPIHandler exposes locale preferences as JSON.
//
// ROUTES:
//   - GET /api/locales              → installed locales
//   - GET /api/me/locale            → effective locale, preference, site default
//   - PUT /api/users/{id}/locale    → set a user's preference
type LocaleAPIHandler struct {
	provider service.LocaleProvider
	state    LocaleStater
	site     middleware.SiteLocaler
	catalog  *locale.Catalog
	logger   *slog.Logger
}

// NewLocaleAPIHandler creates a LocaleAPIHandler.
func NewLocaleAPIHandler(
	provider service.LocaleProvider,
	state LocaleStater,
	site middleware.SiteLocaler,
	catalog *locale.Catalog,
	logger *slog.Logger,
) *LocaleAPIHandler {
	return &LocaleAPIHandler{
		provider: provider,
		state:    state,
		site:     site,
		catalog:  catalog,
		logger:   logger,
	}
}

// LocaleInfo describes one installed locale.
type LocaleInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Lang  string `json:"lang"`
}

// SetLocaleRequest is the body of PUT /api/users/{id}/locale.
// An empty Locale selects the site default.
type SetLocaleRequest struct {
	Locale string `json:"locale"`
}

// HandleListLocales returns the installed locales.
//
// HTTP: GET /api/locales
func (h *LocaleAPIHandler) HandleListLocales(w http.ResponseWriter, r *http.Request) {
	ids := h.catalog.Available()
	out := make([]LocaleInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, LocaleInfo{ID: id, Label: h.catalog.Label(id), Lang: locale.LangAttr(id)})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleMyLocale reports the caller's locale state.
//
// HTTP: GET /api/me/locale
// Auth: required
func (h *LocaleAPIHandler) HandleMyLocale(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	st, err := h.state.State(r.Context(), service.ResolveRequest{
		Candidate: h.site.SiteLocale(r.Context()),
		UserID:    userID,
		PageID:    middleware.PageFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("loading locale state", slog.String("userID", userID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleSetUserLocale stores a user's preference.
//
// HTTP: PUT /api/users/{id}/locale
// Auth: required. Callers may set their own preference; administrators
// may set anyone's. Anyone else gets 403 and nothing is written.
func (h *LocaleAPIHandler) HandleSetUserLocale(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	targetID := chi.URLParam(r, "id")

	var req SetLocaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be JSON with a locale field"))
		return
	}

	if err := h.provider.SavePreference(r.Context(), targetID, req.Locale, actorID); err != nil {
		writeError(w, err)
		return
	}

	// Answer with the stored row, not the request, so normalisation lives
	// in one place.
	stored, err := h.state.Preference(r.Context(), targetID)
	if err != nil {
		h.logger.Error("reading back locale preference", slog.String("target", targetID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
