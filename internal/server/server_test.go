package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/userlocale/internal/config"
	"github.com/sakif/userlocale/internal/model"
)

func testConfig() config.Config {
	return config.Config{
		Port:          8080,
		DBPath:        ":memory:",
		JWTSecret:     "server-test-secret-0123456789",
		SiteLocale:    "en_US",
		Locales:       []string{"en_US", "de_DE", "ja"},
		ExemptPages:   []string{"options-general.php"},
		AdminLogin:    "root",
		AdminPassword: "root-password",
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*httptest.Server, *http.Client) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return ts, &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestServer_ProfileFlow(t *testing.T) {
	ts, client := newTestServer(t, testConfig())

	// Anonymous visitors are sent to the sign-in form.
	resp, err := client.Get(ts.URL + "/admin/profile.php")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/auth/login", resp.Request.URL.Path)
	assert.Equal(t, "/admin/profile.php", resp.Request.URL.Query().Get("redirect_to"))
	resp.Body.Close()

	// Sign in; the redirect lands on the profile page in the site locale.
	resp, err = client.PostForm(ts.URL+"/auth/login", url.Values{"login": {"root"}, "password": {"root-password"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "en-US", resp.Header.Get("Content-Language"))
	assert.Contains(t, readBody(t, resp), "Preferred Language")

	// Choose Japanese.
	resp, err = client.PostForm(ts.URL+"/admin/profile.php", url.Values{"user_locale": {"ja"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ja", resp.Header.Get("Content-Language"))
	assert.Contains(t, readBody(t, resp), "優先言語")

	// General settings still render in the site language.
	resp, err = client.Get(ts.URL + "/admin/options-general.php")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "en-US", resp.Header.Get("Content-Language"))
	assert.Contains(t, readBody(t, resp), "General Settings")

	// The API reports how the locale was resolved.
	resp, err = client.Get(ts.URL + "/api/me/locale")
	require.NoError(t, err)
	var state model.LocaleState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	resp.Body.Close()
	assert.Equal(t, model.LocaleState{Effective: "ja", Preference: "ja", SiteDefault: "en_US"}, state)
}

func TestServer_PublicRoutes(t *testing.T) {
	ts, client := newTestServer(t, testConfig())

	resp, err := client.Get(ts.URL + "/api/locales")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var locales []map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&locales))
	resp.Body.Close()
	assert.Len(t, locales, 3)

	resp, err = client.Get(ts.URL + "/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Log In")
	assert.NotContains(t, body, "/auth/github/login", "GitHub sign-in is not configured")
}

func TestServer_AuthDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	cfg.AdminLogin, cfg.AdminPassword = "", ""
	ts, client := newTestServer(t, cfg)

	resp, err := client.Get(ts.URL + "/auth/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/admin/profile.php")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestNewComponents_SeedsSiteLocaleAndAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	c, err := NewComponents(ctx, testConfig(), logger)
	require.NoError(t, err)
	defer c.DB.Close()

	assert.Equal(t, "en_US", c.Settings.SiteLocale(ctx))

	admin, err := c.Auth.GetUserByLogin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, admin.IsAdministrator())
}

func TestNewComponents_RejectsBadCatalog(t *testing.T) {
	cfg := testConfig()
	cfg.Locales = []string{"not a locale"}

	_, err := NewComponents(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
