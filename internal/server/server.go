// Package server is the composition root: it builds the storage, services
// and handlers from a config.Config, mounts the routes and runs the HTTP
// server until it is told to stop.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB ─┬─ authz.Authorizer
//	           ├─ PreferenceService ── LocaleResolver (service.LocaleProvider)
//	           ├─ SettingsService (site locale)
//	           └─ AuthService
//
// Handlers receive services, services receive repository interfaces, and
// nothing below this package knows how the others were constructed.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/authz"
	"github.com/sakif/userlocale/internal/config"
	"github.com/sakif/userlocale/internal/handler"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/middleware"
	sqliteRepo "github.com/sakif/userlocale/internal/repository/sqlite"
	"github.com/sakif/userlocale/internal/service"
)

// Components are the wired services shared by the HTTP server and the CLI.
type Components struct {
	DB          *sqliteRepo.DB
	Catalog     *locale.Catalog
	Authz       *authz.Authorizer
	Preferences *service.PreferenceService
	Resolver    *service.LocaleResolver
	Settings    *service.SettingsService
	Auth        *service.AuthService
	Tokens      *auth.TokenService // nil when auth is disabled
}

// NewComponents opens the database and builds every service. It seeds the
// site locale and, when configured, the bootstrap administrator.
// The caller owns DB and must close it.
func NewComponents(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Components, error) {
	catalog, err := locale.NewCatalog(cfg.Locales)
	if err != nil {
		return nil, fmt.Errorf("building locale catalog: %w", err)
	}
	if !catalog.Contains(cfg.SiteLocale) {
		logger.Warn("site locale is not installed", slog.String("locale", cfg.SiteLocale))
	}

	var tokens *auth.TokenService
	if cfg.AuthEnabled() {
		if tokens, err = auth.NewTokenService(cfg.JWTSecret); err != nil {
			return nil, err
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	az := authz.New(db)
	prefs := service.NewPreferenceService(db, az, logger)
	c := &Components{
		DB:          db,
		Catalog:     catalog,
		Authz:       az,
		Preferences: prefs,
		Resolver:    service.NewLocaleResolver(prefs, service.NewPageExemption(cfg.ExemptPages...), logger),
		Settings:    service.NewSettingsService(db, az, catalog, cfg.SiteLocale, logger),
		Auth:        service.NewAuthService(db, tokens, auth.NewPasswordService(), cfg.AdminGitHub, logger),
		Tokens:      tokens,
	}

	if err := c.Settings.EnsureDefaults(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if cfg.AdminLogin != "" {
		if _, err := c.Auth.EnsureAdmin(ctx, cfg.AdminLogin, cfg.AdminPassword); err != nil {
			db.Close()
			return nil, err
		}
	}
	return c, nil
}

// Server is the HTTP server and the components it owns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	comps  *Components
}

// New builds the components and mounts all routes.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	comps, err := NewComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		comps:  comps,
	}
	if err := s.setupRoutes(); err != nil {
		comps.DB.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	if !cfg.AuthEnabled() {
		logger.Warn("USERLOCALE_JWT_SECRET not set: sign-in is disabled and every visitor is anonymous")
	}
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.comps.DB.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET       /                               → redirect to the profile page
//	GET/POST  /auth/login?redirect_to=        → sign-in form, local sign-in
//	POST      /auth/logout                    → sign out
//	GET       /auth/github/login, /callback   → GitHub sign-in (when configured)
//	GET/POST  /admin/profile.php              → own language preference
//	GET/POST  /admin/user-edit.php?user_id=   → another user's preference
//	GET/POST  /admin/options-general.php      → site language (administrators)
//	GET       /api/locales                    → installed locales
//	GET       /api/me, /api/me/locale         → signed-in user and locale state
//	PUT       /api/users/{id}/locale          → set a preference
//
// The /auth routes are only mounted when auth is enabled. OptionalAuth runs
// for every request, so the user ID is known before any Localize middleware
// resolves the page locale.
func (s *Server) setupRoutes() error {
	c := s.comps

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.OptionalAuth(c.Tokens))

	profile, err := handler.NewProfileHandler(c.Resolver, c.Preferences, c.Auth, c.Authz, c.Catalog, s.logger)
	if err != nil {
		return err
	}
	settings, err := handler.NewSettingsHandler(c.Settings, c.Auth, c.Authz, c.Catalog, s.logger)
	if err != nil {
		return err
	}
	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}
	authHandler, err := handler.NewAuthHandler(github, c.Auth, s.logger)
	if err != nil {
		return err
	}
	api := handler.NewLocaleAPIHandler(c.Resolver, c.Resolver, c.Settings, c.Catalog, s.logger)

	localize := func(pageID string) func(http.Handler) http.Handler {
		return middleware.Localize(c.Resolver, c.Settings, pageID)
	}

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/profile.php", http.StatusSeeOther)
	})

	if c.Tokens != nil {
		s.router.Route("/auth", func(r chi.Router) {
			r.With(localize("")).Get("/login", authHandler.HandleLoginPage)
			r.Post("/login", authHandler.HandleLocalLogin)
			r.Post("/logout", authHandler.HandleLogout)
			if github != nil {
				r.Get("/github/login", authHandler.HandleGitHubLogin)
				r.Get("/github/callback", authHandler.HandleGitHubCallback)
			}
		})
	}

	// Without auth there is no sign-in form to send visitors to.
	var toLogin http.Handler
	if c.Tokens != nil {
		toLogin = auth.RedirectToLogin("/auth/login")
	}

	s.router.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth(c.Tokens, toLogin))

		r.With(localize(handler.PageProfile)).Get("/profile.php", profile.HandleProfile)
		r.With(localize(handler.PageProfile)).Post("/profile.php", profile.HandleSaveProfile)
		r.With(localize(handler.PageUserEdit)).Get("/user-edit.php", profile.HandleUserEdit)
		r.With(localize(handler.PageUserEdit)).Post("/user-edit.php", profile.HandleSaveUserEdit)
		r.With(localize(handler.PageGeneralSettings)).Get("/options-general.php", settings.HandleSettings)
		r.With(localize(handler.PageGeneralSettings)).Post("/options-general.php", settings.HandleSaveSettings)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/locales", api.HandleListLocales)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(c.Tokens, nil))
			r.Get("/me", authHandler.HandleMe)
			r.With(localize("")).Get("/me/locale", api.HandleMyLocale)
			r.Put("/users/{id}/locale", api.HandleSetUserLocale)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT or SIGTERM, then drains
// in-flight requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("siteLocale", s.config.SiteLocale),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
