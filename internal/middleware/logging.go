// Package middleware holds the HTTP middleware that runs around every page
// and API handler: request logging and per-request locale resolution.
//
// ORDER MATTERS
// The server installs them as
//
//	RequestID → RealIP → Logger → Recoverer → OptionalAuth → ... → Localize(page)
//
// Logger sits outside Localize, so it sees the Content-Language header
// Localize set on the way in, and outside Recoverer, so a panic is logged
// as the 500 Recoverer wrote. Localize sits inside OptionalAuth because the
// resolver needs the signed-in user ID.
//
// ONE LOG LINE PER REQUEST
//
//	level=WARN msg="request completed" method=POST path=/admin/user-edit.php
//	  status=403 duration=1.2ms bytes=44 locale=de-DE request_id=host/abc-000012
//
// Level follows the status: Info below 400, Warn for 4xx, Error for 5xx.
//
// Middleware wraps a handler to add behaviour before and after it runs:
//
//	func MyMiddleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // before
//	        next.ServeHTTP(w, r)
//	        // after
//	    })
//	}
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// responseWriter records the status code and body size, which
// http.ResponseWriter does not expose once written.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger returns an HTTP middleware that logs each completed request.
//
// The locale attribute is read from the Content-Language header that
// Localize sets, so it is empty for routes that are not localised.
// Server errors log at Error and client errors at Warn. The request ID is
// present when chi's RequestID middleware runs first.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rw.written),
				slog.String("locale", rw.Header().Get("Content-Language")),
			}
			if id := chimiddleware.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			logger.LogAttrs(r.Context(), levelFor(rw.statusCode), "request completed", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
