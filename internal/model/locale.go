package model

// UserLocaleKey is the per-user attribute slot the locale preference lives in.
const UserLocaleKey = "user_locale"

// SiteLocaleKey is the site option holding the site-wide default locale.
const SiteLocaleKey = "site_locale"

// UserLocalePreference is a user's stored display-language choice.
//
// Found distinguishes "never set" from "set to the empty string". An empty
// Locale with Found=true means the user explicitly chose the site default.
type UserLocalePreference struct {
	UserID string `json:"userId"`
	Locale string `json:"locale"`
	Found  bool   `json:"found"`
}

// LocaleState describes how the locale was resolved for one request.
// It is derived per request and never stored.
type LocaleState struct {
	Effective   string `json:"effective"`
	Preference  string `json:"preference"`
	SiteDefault string `json:"siteDefault"`
}
