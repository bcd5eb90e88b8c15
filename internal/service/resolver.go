package service

import (
	"context"
	"log/slog"

	"github.com/sakif/userlocale/internal/model"
)

// LocaleProvider is the contract the host's request pipeline calls.
//
// Resolve runs once per request before any content is localised;
// SavePreference runs once per profile-save submission.
type LocaleProvider interface {
	Resolve(ctx context.Context, req ResolveRequest) string
	SavePreference(ctx context.Context, targetID, localeID, actorID string) error
}

// ResolveRequest carries everything Resolve needs about the current request.
type ResolveRequest struct {
	// Candidate is the locale the host would use without this service,
	// normally the site default.
	Candidate string
	// UserID is the authenticated user, empty for anonymous requests.
	UserID string
	// PageID identifies the page being rendered.
	PageID string
}

// PageExemption names the pages that must render in the site locale no
// matter what the viewer prefers.
//
// It exists for the general settings page: that page edits the site default
// locale, and showing it in the admin's personal language makes the admin
// believe the personal language is the site setting. This is a provisional
// workaround tied to page identity, kept as a separate policy so it can be
// replaced by a check on what the page does rather than what it is called.
type PageExemption struct {
	pages map[string]struct{}
}

// NewPageExemption exempts the given page IDs.
func NewPageExemption(pageIDs ...string) PageExemption {
	p := PageExemption{pages: make(map[string]struct{}, len(pageIDs))}
	for _, id := range pageIDs {
		if id != "" {
			p.pages[id] = struct{}{}
		}
	}
	return p
}

// Exempt reports whether pageID always uses the site locale.
func (p PageExemption) Exempt(pageID string) bool {
	_, ok := p.pages[pageID]
	return ok
}

// LocaleResolver picks the effective locale for each request and routes
// profile saves to the preference store. It holds no per-request state:
// a saved preference applies from the very next request.
type LocaleResolver struct {
	prefs  *PreferenceService
	exempt PageExemption
	logger *slog.Logger
}

var _ LocaleProvider = (*LocaleResolver)(nil)

// NewLocaleResolver creates a LocaleResolver.
func NewLocaleResolver(prefs *PreferenceService, exempt PageExemption, logger *slog.Logger) *LocaleResolver {
	return &LocaleResolver{
		prefs:  prefs,
		exempt: exempt,
		logger: logger,
	}
}

// Resolve returns the effective locale for one request. It never fails:
// whenever the user's preference cannot be used, the candidate is returned.
// Stored values are not checked against the installed locales; rendering
// falls back on its own if it cannot honour one.
func (r *LocaleResolver) Resolve(ctx context.Context, req ResolveRequest) string {
	if req.UserID == "" {
		return req.Candidate
	}
	if r.exempt.Exempt(req.PageID) {
		return req.Candidate
	}

	pref, err := r.prefs.Get(ctx, req.UserID)
	if err != nil {
		r.logger.Warn("locale preference lookup failed, using candidate",
			slog.String("userID", req.UserID),
			slog.String("error", err.Error()),
		)
		return req.Candidate
	}

	// An empty stored value is the explicit "site default" choice.
	if !pref.Found || pref.Locale == "" || pref.Locale == req.Candidate {
		return req.Candidate
	}
	return pref.Locale
}

// SavePreference stores a profile-form submission.
func (r *LocaleResolver) SavePreference(ctx context.Context, targetID, localeID, actorID string) error {
	return r.prefs.Set(ctx, targetID, localeID, actorID)
}

// Preference returns what is stored for userID.
func (r *LocaleResolver) Preference(ctx context.Context, userID string) (model.UserLocalePreference, error) {
	return r.prefs.Get(ctx, userID)
}

// State reports the effective locale alongside its inputs, for the API.
func (r *LocaleResolver) State(ctx context.Context, req ResolveRequest) (model.LocaleState, error) {
	pref, err := r.prefs.Get(ctx, req.UserID)
	if err != nil {
		return model.LocaleState{}, err
	}
	return model.LocaleState{
		Effective:   r.Resolve(ctx, req),
		Preference:  pref.Locale,
		SiteDefault: req.Candidate,
	}, nil
}
