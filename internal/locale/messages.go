package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Interface strings rendered by this service. The English text is the key.
const (
	MsgPreferredLanguage = "Preferred Language"
	MsgSiteDefault       = "Site Default"
	MsgSiteLanguage      = "Site Language"
	MsgSaveChanges       = "Save Changes"
	MsgProfile           = "Profile"
	MsgGeneralSettings   = "General Settings"
	MsgSettingsSaved     = "Settings saved."
	MsgLogIn             = "Log In"
	MsgUsername          = "Username"
	MsgPassword          = "Password"
	MsgLoginFailed       = "Unknown username or incorrect password."
)

var translations = map[language.Tag]map[string]string{
	language.German: {
		MsgPreferredLanguage: "Bevorzugte Sprache",
		MsgSiteDefault:       "Standard der Website",
		MsgSiteLanguage:      "Sprache der Website",
		MsgSaveChanges:       "Änderungen speichern",
		MsgProfile:           "Profil",
		MsgGeneralSettings:   "Allgemeine Einstellungen",
		MsgSettingsSaved:     "Einstellungen gespeichert.",
		MsgLogIn:             "Anmelden",
		MsgUsername:          "Benutzername",
		MsgPassword:          "Passwort",
		MsgLoginFailed:       "Unbekannter Benutzername oder falsches Passwort.",
	},
	language.French: {
		MsgPreferredLanguage: "Langue préférée",
		MsgSiteDefault:       "Langue du site par défaut",
		MsgSiteLanguage:      "Langue du site",
		MsgSaveChanges:       "Enregistrer les modifications",
		MsgProfile:           "Profil",
		MsgGeneralSettings:   "Réglages généraux",
		MsgSettingsSaved:     "Réglages enregistrés.",
		MsgLogIn:             "Se connecter",
		MsgUsername:          "Identifiant",
		MsgPassword:          "Mot de passe",
		MsgLoginFailed:       "Identifiant inconnu ou mot de passe incorrect.",
	},
	language.Spanish: {
		MsgPreferredLanguage: "Idioma preferido",
		MsgSiteDefault:       "Predeterminado del sitio",
		MsgSiteLanguage:      "Idioma del sitio",
		MsgSaveChanges:       "Guardar cambios",
		MsgProfile:           "Perfil",
		MsgGeneralSettings:   "Ajustes generales",
		MsgSettingsSaved:     "Ajustes guardados.",
		MsgLogIn:             "Acceder",
		MsgUsername:          "Nombre de usuario",
		MsgPassword:          "Contraseña",
		MsgLoginFailed:       "Nombre de usuario desconocido o contraseña incorrecta.",
	},
	language.Japanese: {
		MsgPreferredLanguage: "優先言語",
		MsgSiteDefault:       "サイトのデフォルト",
		MsgSiteLanguage:      "サイトの言語",
		MsgSaveChanges:       "変更を保存",
		MsgProfile:           "プロフィール",
		MsgGeneralSettings:   "一般設定",
		MsgSettingsSaved:     "設定を保存しました。",
		MsgLogIn:             "ログイン",
		MsgUsername:          "ユーザー名",
		MsgPassword:          "パスワード",
		MsgLoginFailed:       "ユーザー名が不明か、パスワードが間違っています。",
	},
	language.BrazilianPortuguese: {
		MsgPreferredLanguage: "Idioma preferido",
		MsgSiteDefault:       "Padrão do site",
		MsgSiteLanguage:      "Idioma do site",
		MsgSaveChanges:       "Salvar alterações",
		MsgProfile:           "Perfil",
		MsgGeneralSettings:   "Configurações gerais",
		MsgSettingsSaved:     "Configurações salvas.",
		MsgLogIn:             "Acessar",
		MsgUsername:          "Nome de usuário",
		MsgPassword:          "Senha",
		MsgLoginFailed:       "Nome de usuário desconhecido ou senha incorreta.",
	},
}

var uiCatalog = mustBuildCatalog()

func mustBuildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, text := range msgs {
			if err := b.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Printer returns a message printer for a locale identifier. Locales without
// translations print the English keys.
func Printer(id string) *message.Printer {
	tag, err := ParseID(id)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag, message.Catalog(uiCatalog))
}
