package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGitHubAPI struct {
	user       GitHubUser
	userStatus int
	emails     []githubEmail
}

// fakeGitHub serves the token endpoint, /user and /user/emails.
func fakeGitHub(t *testing.T, api fakeGitHubAPI) *GitHubProvider {
	t.Helper()
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if r.Header.Get("Authorization") != "Bearer gho_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return false
		}
		return true
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "gho_test",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		w.WriteHeader(api.userStatus)
		json.NewEncoder(w).Encode(api.user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		if api.emails == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(api.emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return newGitHubProvider("client", "secret", "http://localhost/auth/github/callback",
		oauth2.Endpoint{
			AuthURL:  srv.URL + "/login/oauth/authorize",
			TokenURL: srv.URL + "/login/oauth/access_token",
		},
		srv.URL+"/",
	)
}

func TestGitHubProvider_AuthURL(t *testing.T) {
	p := NewGitHubProvider("client-id", "secret", "http://localhost:8080/auth/github/callback")

	u := p.AuthURL("state-123")
	assert.True(t, strings.HasPrefix(u, "https://github.com/login/oauth/authorize"))
	assert.Contains(t, u, "state=state-123")
	assert.Contains(t, u, "client_id=client-id")
}

func TestGitHubProvider_Exchange(t *testing.T) {
	p := fakeGitHub(t, fakeGitHubAPI{
		user:       GitHubUser{ID: 42, Login: "octocat", Email: "octo@example.com"},
		userStatus: http.StatusOK,
	})

	u, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, "octocat", u.Login)
	assert.Equal(t, "octo@example.com", u.Email)
}

func TestGitHubProvider_HiddenEmail(t *testing.T) {
	t.Run("primary verified address is used", func(t *testing.T) {
		p := fakeGitHub(t, fakeGitHubAPI{
			user:       GitHubUser{ID: 42, Login: "octocat"},
			userStatus: http.StatusOK,
			emails: []githubEmail{
				{Email: "old@example.com", Verified: true},
				{Email: "unverified@example.com", Primary: true},
				{Email: "main@example.com", Primary: true, Verified: true},
			},
		})

		u, err := p.Exchange(context.Background(), "code")
		require.NoError(t, err)
		assert.Equal(t, "main@example.com", u.Email)
	})

	t.Run("emails endpoint failure is not fatal", func(t *testing.T) {
		p := fakeGitHub(t, fakeGitHubAPI{
			user:       GitHubUser{ID: 42, Login: "octocat"},
			userStatus: http.StatusOK,
		})

		u, err := p.Exchange(context.Background(), "code")
		require.NoError(t, err)
		assert.Empty(t, u.Email)
	})
}

func TestGitHubProvider_ExchangeRejectsBadProfile(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		p := fakeGitHub(t, fakeGitHubAPI{user: GitHubUser{ID: 42}, userStatus: http.StatusBadGateway})
		_, err := p.Exchange(context.Background(), "code")
		assert.Error(t, err)
	})

	t.Run("zero id", func(t *testing.T) {
		p := fakeGitHub(t, fakeGitHubAPI{user: GitHubUser{Login: "ghost"}, userStatus: http.StatusOK})
		_, err := p.Exchange(context.Background(), "code")
		assert.Error(t, err)
	})
}
