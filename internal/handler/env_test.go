package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/authz"
	"github.com/sakif/userlocale/internal/handler"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/middleware"
	"github.com/sakif/userlocale/internal/model"
	sqliteRepo "github.com/sakif/userlocale/internal/repository/sqlite"
	"github.com/sakif/userlocale/internal/service"
)

// testEnv wires the real services over an in-memory database. Users:
//   - u1: subscriber, no preference
//   - u2: subscriber, prefers de_DE
//   - u3: subscriber, prefers en_GB
//   - editor: subscriber with no rights over other users
//   - admin: administrator, prefers fr_FR
type testEnv struct {
	db       *sqliteRepo.DB
	prefs    *service.PreferenceService
	resolver *service.LocaleResolver
	settings *service.SettingsService
	authSvc  *service.AuthService

	profile  *handler.ProfileHandler
	site     *handler.SettingsHandler
	api      *handler.LocaleAPIHandler
	authH    *handler.AuthHandler
	tokens   *auth.TokenService
	catalog  *locale.Catalog

	u1, u2, u3, editor, admin *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	catalog, err := locale.NewCatalog([]string{"en_US", "en_GB", "de_DE", "fr_FR", "ja"})
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789")
	require.NoError(t, err)

	az := authz.New(db)
	e := &testEnv{db: db, tokens: tokens, catalog: catalog}
	e.prefs = service.NewPreferenceService(db, az, logger)
	e.resolver = service.NewLocaleResolver(e.prefs, service.NewPageExemption(handler.PageGeneralSettings), logger)
	e.settings = service.NewSettingsService(db, az, catalog, "en_US", logger)
	require.NoError(t, e.settings.EnsureDefaults(ctx))
	e.authSvc = service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), nil, logger)

	e.profile, err = handler.NewProfileHandler(e.resolver, e.prefs, db, az, catalog, logger)
	require.NoError(t, err)
	e.site, err = handler.NewSettingsHandler(e.settings, db, az, catalog, logger)
	require.NoError(t, err)
	e.api = handler.NewLocaleAPIHandler(e.resolver, e.resolver, e.settings, catalog, logger)
	e.authH, err = handler.NewAuthHandler(
		auth.NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback"),
		e.authSvc, logger,
	)
	require.NoError(t, err)

	e.u1 = e.createUser(t, 1, "u1", model.RoleSubscriber, "")
	e.u2 = e.createUser(t, 2, "u2", model.RoleSubscriber, "de_DE")
	e.u3 = e.createUser(t, 3, "u3", model.RoleSubscriber, "en_GB")
	e.editor = e.createUser(t, 4, "editor", model.RoleSubscriber, "")
	e.admin = e.createUser(t, 5, "admin", model.RoleAdministrator, "fr_FR")
	return e
}

func (e *testEnv) createUser(t *testing.T, githubID int64, login, role, pref string) *model.User {
	t.Helper()
	ctx := context.Background()
	u := &model.User{GitHubID: githubID, Login: login, Role: role}
	require.NoError(t, e.db.Upsert(ctx, u))
	if pref != "" {
		require.NoError(t, e.db.SetUserAttribute(ctx, u.ID, model.UserLocaleKey, pref))
	}
	return u
}

func (e *testEnv) storedLocale(t *testing.T, userID string) (string, bool) {
	t.Helper()
	v, found, err := e.db.GetUserAttribute(context.Background(), userID, model.UserLocaleKey)
	require.NoError(t, err)
	return v, found
}

// request describes one call through the locale middleware.
type request struct {
	method  string
	pattern string // chi route pattern; defaults to the target's path
	target  string
	page    string
	actor   string
	form    url.Values
	json    string
}

func (e *testEnv) serve(t *testing.T, h http.HandlerFunc, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.json != "":
		body = strings.NewReader(req.json)
		contentType = "application/json"
	}

	httpReq := httptest.NewRequest(req.method, req.target, body)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.actor != "" {
		httpReq = httpReq.WithContext(auth.WithUserID(httpReq.Context(), req.actor))
	}

	pattern := req.pattern
	if pattern == "" {
		pattern = httpReq.URL.Path
	}

	r := chi.NewRouter()
	r.Use(middleware.Localize(e.resolver, e.settings, req.page))
	r.MethodFunc(req.method, pattern, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)
	return rec
}
