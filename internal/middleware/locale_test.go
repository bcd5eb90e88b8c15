package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/service"
)

type recordingResolver struct {
	calls []service.ResolveRequest
	prefs map[string]string
}

func (r *recordingResolver) Resolve(_ context.Context, req service.ResolveRequest) string {
	r.calls = append(r.calls, req)
	if p, ok := r.prefs[req.UserID]; ok {
		return p
	}
	return req.Candidate
}

type staticSite string

func (s staticSite) SiteLocale(context.Context) string { return string(s) }

func TestLocalize_ResolvesOncePerRequest(t *testing.T) {
	resolver := &recordingResolver{prefs: map[string]string{"U2": "de_DE"}}

	var gotLocale, gotPage string
	h := Localize(resolver, staticSite("en_US"), "profile.php")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotPage = PageFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/profile.php", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), "U2"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "de_DE", gotLocale)
	assert.Equal(t, "profile.php", gotPage)
	assert.Equal(t, "de-DE", rec.Header().Get("Content-Language"))
	if assert.Len(t, resolver.calls, 1) {
		assert.Equal(t, service.ResolveRequest{Candidate: "en_US", UserID: "U2", PageID: "profile.php"}, resolver.calls[0])
	}
}

func TestLocalize_AnonymousRequest(t *testing.T) {
	resolver := &recordingResolver{}

	var gotLocale string
	h := Localize(resolver, staticSite("ja"), "index.php")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "ja", gotLocale)
	if assert.Len(t, resolver.calls, 1) {
		assert.Empty(t, resolver.calls[0].UserID)
	}
}

func TestLocaleFromContext_Unset(t *testing.T) {
	assert.Empty(t, LocaleFromContext(context.Background()))
	assert.Empty(t, PageFromContext(context.Background()))
}
