package middleware

import (
	"context"
	"net/http"

	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/service"
)

type contextKey string

const (
	localeKey contextKey = "locale"
	pageKey   contextKey = "page"
)

// Resolver picks the effective locale for a request.
type Resolver interface {
	Resolve(ctx context.Context, req service.ResolveRequest) string
}

// SiteLocaler supplies the site default locale, the candidate every
// request starts from.
type SiteLocaler interface {
	SiteLocale(ctx context.Context) string
}

// Localize resolves the effective locale once for the request, before the
// handler renders anything, and stores it with pageID in the context.
//
// It must run after auth.OptionalAuth or auth.RequireAuth so the user ID is
// already known. The locale is also advertised in Content-Language.
func Localize(resolver Resolver, site SiteLocaler, pageID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID, _ := auth.UserIDFromContext(ctx)

			effective := resolver.Resolve(ctx, service.ResolveRequest{
				Candidate: site.SiteLocale(ctx),
				UserID:    userID,
				PageID:    pageID,
			})

			w.Header().Set("Content-Language", locale.LangAttr(effective))
			ctx = context.WithValue(ctx, localeKey, effective)
			ctx = context.WithValue(ctx, pageKey, pageID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext returns the locale Localize resolved, or "" when the
// request did not pass through it.
func LocaleFromContext(ctx context.Context) string {
	id, _ := ctx.Value(localeKey).(string)
	return id
}

// PageFromContext returns the page ID of the current request.
func PageFromContext(ctx context.Context) string {
	id, _ := ctx.Value(pageKey).(string)
	return id
}
