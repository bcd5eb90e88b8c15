// Package handler contains the HTTP handlers of the locale service: the
// admin pages that carry the language dropdowns, the sign-in flow and the
// JSON API.
//
// Handlers parse the request, call a service, and write the response. They
// hold no business rules; authorization and validation live in the service
// layer and come back as apperror values.
package handler

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sakif/userlocale/internal/auth"
	"github.com/sakif/userlocale/internal/locale"
	"github.com/sakif/userlocale/internal/middleware"
	"github.com/sakif/userlocale/internal/model"
)

// Page identifiers. The resolver sees these, never URL paths, so routes can
// move without touching the general settings exemption.
const (
	PageProfile         = "profile.php"
	PageUserEdit        = "user-edit.php"
	PageGeneralSettings = "options-general.php"
)

//go:embed templates/*.html
var templateFS embed.FS

// parsePage parses base.html together with one content template.
func parsePage(name string) (*template.Template, error) {
	tmpl, err := template.New(name).
		Funcs(template.FuncMap{"langAttr": locale.LangAttr}).
		ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
	if err != nil {
		return nil, fmt.Errorf("handler: parsing %s template: %w", name, err)
	}
	return tmpl, nil
}

// UserReader loads users for page headers and edit targets.
type UserReader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// labels are the interface strings of one page, already translated.
type labels struct {
	PreferredLanguage string
	SiteDefault       string
	SiteLanguage      string
	SaveChanges       string
	Profile           string
	GeneralSettings   string
	SettingsSaved     string
	LogIn             string
	Username          string
	Password          string
	LoginFailed       string
}

func labelsFor(localeID string) labels {
	p := locale.Printer(localeID)
	return labels{
		PreferredLanguage: p.Sprintf(locale.MsgPreferredLanguage),
		SiteDefault:       p.Sprintf(locale.MsgSiteDefault),
		SiteLanguage:      p.Sprintf(locale.MsgSiteLanguage),
		SaveChanges:       p.Sprintf(locale.MsgSaveChanges),
		Profile:           p.Sprintf(locale.MsgProfile),
		GeneralSettings:   p.Sprintf(locale.MsgGeneralSettings),
		SettingsSaved:     p.Sprintf(locale.MsgSettingsSaved),
		LogIn:             p.Sprintf(locale.MsgLogIn),
		Username:          p.Sprintf(locale.MsgUsername),
		Password:          p.Sprintf(locale.MsgPassword),
		LoginFailed:       p.Sprintf(locale.MsgLoginFailed),
	}
}

// pageData is what base.html and the content templates render.
type pageData struct {
	Lang     string
	Title    string
	T        labels
	SignedIn bool
	IsAdmin  bool
	Updated  bool
	GitHub   bool
	Failed   bool
	Return   string

	Action       string
	Subject      *model.User
	Options      []locale.Option
	HasSelection bool
}

// newPageData fills the fields every page shares. The locale comes from
// middleware.Localize, which has already run for this request. actor is
// nil on the sign-in page.
func newPageData(r *http.Request, actor *model.User) pageData {
	localeID := middleware.LocaleFromContext(r.Context())
	return pageData{
		Lang:     locale.LangAttr(localeID),
		T:        labelsFor(localeID),
		SignedIn: actor != nil,
		IsAdmin:  actor != nil && actor.IsAdministrator(),
		Updated:  r.URL.Query().Get("updated") == "1",
	}
}

// loadActor returns the signed-in user. Routes using it sit behind
// auth.RequireAuth.
func loadActor(r *http.Request, users UserReader) (*model.User, error) {
	actorID, _ := auth.UserIDFromContext(r.Context())
	return users.GetUserByID(r.Context(), actorID)
}

// renderPage executes the page into a buffer first so a template error
// never leaves a half-written page behind.
func renderPage(w http.ResponseWriter, logger *slog.Logger, tmpl *template.Template, data pageData) {
	renderPageStatus(w, logger, tmpl, http.StatusOK, data)
}

func renderPageStatus(w http.ResponseWriter, logger *slog.Logger, tmpl *template.Template, status int, data pageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		logger.Error("template execution failed", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// redirectUpdated sends the browser back to the form with the saved notice.
func redirectUpdated(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("updated", "1")
	target := url.URL{Path: path, RawQuery: query.Encode()}
	http.Redirect(w, r, target.String(), http.StatusSeeOther)
}
