package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/model"
	"github.com/sakif/userlocale/internal/service"
)

// PreferenceReader reads a user's stored locale preference.
type PreferenceReader interface {
	Get(ctx context.Context, userID string) (model.UserLocalePreference, error)
}

// ProfileHandler serves the "Preferred Language" field on a user's own
// profile page and on the page an administrator uses to edit another user.
//
// ROUTES:
//   - GET/POST /admin/profile.php                 → own profile
//   - GET/POST /admin/user-edit.php?user_id={id}  → someone else's profile
//
// The save goes through service.LocaleProvider, which enforces the
// edit-profile permission. The handler only translates the outcome.
type ProfileHandler struct {
	provider service.LocaleProvider
	prefs    PreferenceReader
	users    UserReader
	authz    service.ProfileAuthorizer
	catalog  *locale.Catalog
	page     *template.Template
	logger   *slog.Logger
}

// NewProfileHandler creates a ProfileHandler and parses its template.
func NewProfileHandler(
	provider service.LocaleProvider,
	prefs PreferenceReader,
	users UserReader,
	authz service.ProfileAuthorizer,
	catalog *locale.Catalog,
	logger *slog.Logger,
) (*ProfileHandler, error) {
	page, err := parsePage("profile")
	if err != nil {
		return nil, err
	}
	return &ProfileHandler{
		provider: provider,
		prefs:    prefs,
		users:    users,
		authz:    authz,
		catalog:  catalog,
		page:     page,
		logger:   logger,
	}, nil
}

// HandleProfile renders the signed-in user's own profile form.
//
// HTTP: GET /admin/profile.php
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r, h.users)
	if err != nil {
		pageError(w, err)
		return
	}
	h.render(w, r, actor, actor, "/admin/profile.php")
}

// HandleUserEdit renders another user's profile form.
//
// HTTP: GET /admin/user-edit.php?user_id={id}
//
// Opening your own ID here redirects to profile.php.
func (h *ProfileHandler) HandleUserEdit(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.loadEditTarget(w, r)
	if !ok {
		return
	}
	if target.ID == actor.ID {
		http.Redirect(w, r, "/admin/profile.php", http.StatusSeeOther)
		return
	}

	allowed, err := h.authz.CanEditUserProfile(r.Context(), actor.ID, target.ID)
	if err != nil {
		h.logger.Error("checking profile permission", slog.String("error", err.Error()))
		pageError(w, err)
		return
	}
	if !allowed {
		pageError(w, apperror.Forbidden("you are not allowed to edit this user"))
		return
	}

	h.render(w, r, actor, target, userEditPath(target.ID))
}

// HandleSaveProfile stores the submitted preference for the signed-in user.
//
// HTTP: POST /admin/profile.php   form: user_locale
func (h *ProfileHandler) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	actor, err := loadActor(r, h.users)
	if err != nil {
		pageError(w, err)
		return
	}
	if !h.save(w, r, actor.ID, actor.ID) {
		return
	}
	redirectUpdated(w, r, "/admin/profile.php", nil)
}

// HandleSaveUserEdit stores the submitted preference for another user.
//
// HTTP: POST /admin/user-edit.php?user_id={id}   form: user_locale
func (h *ProfileHandler) HandleSaveUserEdit(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.loadEditTarget(w, r)
	if !ok {
		return
	}
	if !h.save(w, r, target.ID, actor.ID) {
		return
	}
	redirectUpdated(w, r, "/admin/user-edit.php", url.Values{"user_id": {target.ID}})
}

// save runs the profile-save path. A denied or invalid submission changes
// nothing and is answered with 403 or 400.
func (h *ProfileHandler) save(w http.ResponseWriter, r *http.Request, targetID, actorID string) bool {
	if err := r.ParseForm(); err != nil {
		pageError(w, apperror.ValidationFailed(model.UserLocaleKey, "malformed form body"))
		return false
	}
	value := r.PostForm.Get(model.UserLocaleKey)

	if err := h.provider.SavePreference(r.Context(), targetID, value, actorID); err != nil {
		status, _, _ := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("saving locale preference",
				slog.String("targetID", targetID),
				slog.String("error", err.Error()),
			)
		}
		pageError(w, err)
		return false
	}
	return true
}

func (h *ProfileHandler) loadEditTarget(w http.ResponseWriter, r *http.Request) (actor, target *model.User, ok bool) {
	targetID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if targetID == "" {
		pageError(w, apperror.ValidationFailed("user_id", "user_id is required"))
		return nil, nil, false
	}

	actor, err := loadActor(r, h.users)
	if err != nil {
		pageError(w, err)
		return nil, nil, false
	}
	target, err = h.users.GetUserByID(r.Context(), targetID)
	if err != nil {
		pageError(w, err)
		return nil, nil, false
	}
	return actor, target, true
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, actor, subject *model.User, action string) {
	pref, err := h.prefs.Get(r.Context(), subject.ID)
	if err != nil {
		h.logger.Error("loading locale preference",
			slog.String("userID", subject.ID),
			slog.String("error", err.Error()),
		)
		pageError(w, err)
		return
	}

	data := newPageData(r, actor)
	data.Title = data.T.Profile
	data.Action = action
	data.Subject = subject
	data.Options = h.catalog.Options(pref.Locale)
	data.HasSelection = h.catalog.Contains(pref.Locale)

	renderPage(w, h.logger, h.page, data)
}

func userEditPath(userID string) string {
	return "/admin/user-edit.php?" + url.Values{"user_id": {userID}}.Encode()
}
