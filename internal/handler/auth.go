package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/userlocale/internal/apperror"
	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler manages sign-in and sign-out.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code for a user, issue the session cookie
//   - HandleLoginPage      → sign-in form
//   - HandleLocalLogin     → password sign-in for the bootstrap administrator
//   - HandleLogout         → clear the session cookie
//   - HandleMe             → return the signed-in user
//
// github is nil when GitHub sign-in is not configured; the server then
// does not route to the GitHub handlers.
type AuthHandler struct {
	github *auth.GitHubProvider
	auth   *service.AuthService
	page   *template.Template
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler and parses the sign-in template.
func NewAuthHandler(github *auth.GitHubProvider, authService *service.AuthService, logger *slog.Logger) (*AuthHandler, error) {
	page, err := parsePage("login")
	if err != nil {
		return nil, err
	}
	return &AuthHandler{
		github: github,
		auth:   authService,
		page:   page,
		logger: logger,
	}, nil
}

// HandleLoginPage renders the sign-in form in the site locale.
//
// HTTP: GET /auth/login?redirect_to=/admin/...
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, r.URL.Query().Get(auth.RedirectParam), false)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, returnTo string, failed bool) {
	data := newPageData(r, nil)
	data.Title = data.T.LogIn
	data.GitHub = h.github != nil
	data.Failed = failed
	data.Return = auth.SafeRedirect(returnTo, "")
	renderPageStatus(w, h.logger, h.page, status, data)
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state value goes into a short-lived HttpOnly cookie and the
// authorization URL; the callback rejects any request where they differ.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Upsert the user and issue a session token
//  4. Set the session cookie and send the user to their profile
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != state.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.auth.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		// A GitHub login that collides with a local account is a 409.
		if errors.Is(err, apperror.ErrConflict) {
			pageError(w, err)
			return
		}
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	auth.SetSessionCookie(w, result.Token, r.TLS != nil)
	http.Redirect(w, r, "/admin/profile.php", http.StatusSeeOther)
}

// HandleLocalLogin signs in with a login and password. Rejected
// credentials re-render the form with a 401.
//
// HTTP: POST /auth/login   form: login, password, redirect_to
func (h *AuthHandler) HandleLocalLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		pageError(w, apperror.ValidationFailed("login", "malformed form body"))
		return
	}

	returnTo := r.PostForm.Get(auth.RedirectParam)
	result, err := h.auth.LoginLocal(r.Context(), r.PostForm.Get("login"), r.PostForm.Get("password"))
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		h.renderLogin(w, r, http.StatusUnauthorized, returnTo, true)
		return
	case err != nil:
		h.logger.Error("local login failed", slog.String("error", err.Error()))
		pageError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, r.TLS != nil)
	http.Redirect(w, r, auth.SafeRedirect(returnTo, "/admin/profile.php"), http.StatusSeeOther)
}

// HandleLogout clears the session cookie and returns to the sign-in form.
//
// HTTP: POST /auth/logout
//
// An issued token stays valid until it expires; only the cookie is removed.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

// HandleMe returns the signed-in user.
//
// HTTP: GET /api/me
// Auth: required
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: loading user", slog.String("userID", userID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
