package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// contextKey is unexported so only this package can read or write the user ID.
type contextKey string

const userIDKey contextKey = "userID"

// CookieName is the cookie carrying the session JWT.
const CookieName = "token"

// RedirectParam carries the page to return to after signing in.
const RedirectParam = "redirect_to"

// RequireAuth lets a request through only with a valid session cookie and
// hands everything else to denied. A nil denied answers with a JSON 401,
// and a nil TokenService denies every request.
//
// It only establishes identity. Whether the user may act on a given
// profile is decided by the authz package.
func RequireAuth(tokens *TokenService, denied http.Handler) func(http.Handler) http.Handler {
	if denied == nil {
		denied = http.HandlerFunc(unauthorizedJSON)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			if err != nil {
				denied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), sess.UserID)))
		})
	}
}

// RedirectToLogin sends page requests to loginPath with the current URL in
// redirect_to. Requests other than GET and HEAD get a plain 401, since a
// form post cannot be replayed after signing in.
func RedirectToLogin(loginPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "valid authentication required", http.StatusUnauthorized)
			return
		}
		target := url.URL{Path: loginPath, RawQuery: url.Values{RedirectParam: {r.URL.RequestURI()}}.Encode()}
		http.Redirect(w, r, target.String(), http.StatusSeeOther)
	})
}

// SafeRedirect returns target when it is a path on this site and fallback
// otherwise, so redirect_to cannot send a signed-in user elsewhere.
func SafeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return target
}

// OptionalAuth attaches the user ID when a valid cookie is present and lets
// anonymous requests through. A stale session is reissued and a cookie that
// no longer validates is cleared. A nil TokenService treats every request
// as anonymous.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := extractSession(r, tokens)
			switch {
			case err == nil:
				if sess.Stale(tokens.now()) {
					// Renewal failure keeps the current cookie until it expires.
					if fresh, err := tokens.Generate(sess.UserID); err == nil {
						SetSessionCookie(w, fresh, r.TLS != nil)
					}
				}
				r = r.WithContext(WithUserID(r.Context(), sess.UserID))
			case errors.Is(err, ErrTokenExpired), errors.Is(err, ErrInvalidToken):
				ClearSessionCookie(w)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a context carrying an authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// SetSessionCookie stores a freshly issued token on the response.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, sessionCookie(token, int(SessionTTL.Seconds()), secure))
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, sessionCookie("", -1, false))
}

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

var (
	errAuthDisabled = errors.New("auth: authentication is disabled")
	errNoSession    = errors.New("auth: no session cookie")
)

func extractSession(r *http.Request, tokens *TokenService) (Session, error) {
	if tokens == nil {
		return Session{}, errAuthDisabled
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, errNoSession
	}
	return tokens.Parse(cookie.Value)
}

func unauthorizedJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
