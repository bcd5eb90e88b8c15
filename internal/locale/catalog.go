// Package locale holds the installed-locale catalog and the small set of
// translated interface strings this service renders itself.
//
// Locale identifiers use the host platform's underscore form ("fr_FR", "ja").
// They are mapped to BCP 47 tags from golang.org/x/text/language only for
// validation, display names, and the HTML lang attribute; the stored and
// resolved values stay in the host's form.
package locale

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// maxIDLength bounds submitted identifiers before they reach the parser.
const maxIDLength = 35

// idPattern is the host's identifier shape: language, optional script,
// optional region, optional free-form variant. Examples: "ja", "pt_BR",
// "zh_Hant_TW", "de_DE_formal", "pt_PT_ao90".
var idPattern = regexp.MustCompile(`^([a-z]{2,3}(?:_[A-Z][a-z]{3})?(?:_(?:[A-Z]{2}|[0-9]{3}))?)(?:_([0-9A-Za-z]+))?$`)

// ParseID validates a locale identifier and returns its BCP 47 tag.
//
// The variant ("formal", "ao90") is a host convention, not a BCP 47
// subtag, so it is left out of the tag. Subtags that are well formed but
// not in the registry still yield a best-effort tag.
func ParseID(id string) (language.Tag, error) {
	base, _, err := splitID(id)
	if err != nil {
		return language.Und, err
	}
	tag, err := language.Parse(strings.ReplaceAll(base, "_", "-"))
	var unknown language.ValueError
	if err != nil && !errors.As(err, &unknown) {
		return language.Und, fmt.Errorf("locale: parsing %q: %w", id, err)
	}
	return tag, nil
}

// splitID checks id against idPattern and splits off its variant.
func splitID(id string) (base, variant string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", errors.New("locale: empty identifier")
	}
	if len(id) > maxIDLength {
		return "", "", fmt.Errorf("locale: identifier %q is too long", id)
	}
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return "", "", fmt.Errorf("locale: identifier %q is not of the form ll[_Ssss][_RR][_variant]", id)
	}
	return m[1], m[2], nil
}

// LangAttr converts a locale identifier to the value used in <html lang>.
// Unparseable identifiers fall back to "en".
func LangAttr(id string) string {
	tag, err := ParseID(id)
	if err != nil {
		return "en"
	}
	return tag.String()
}

// Option is one entry of a language dropdown.
type Option struct {
	ID       string
	Label    string
	Selected bool
}

// Catalog is the set of locales installed on the host.
type Catalog struct {
	ids  []string
	tags map[string]language.Tag
}

// NewCatalog builds a catalog from installed locale identifiers. Duplicates
// are dropped; any malformed identifier is an error.
func NewCatalog(ids []string) (*Catalog, error) {
	c := &Catalog{tags: make(map[string]language.Tag, len(ids))}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, dup := c.tags[id]; dup {
			continue
		}
		tag, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		c.tags[id] = tag
		c.ids = append(c.ids, id)
	}
	if len(c.ids) == 0 {
		return nil, fmt.Errorf("locale: catalog needs at least one locale")
	}
	sort.Strings(c.ids)
	return c, nil
}

// Available returns the installed locale identifiers in sorted order.
func (c *Catalog) Available() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Contains reports whether id is installed.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.tags[id]
	return ok
}

// Label returns the native display name of an installed locale, e.g.
// "Deutsch (Deutschland)" for de_DE and "Deutsch (Deutschland) (formal)"
// for de_DE_formal. Unknown identifiers are returned as-is.
func (c *Catalog) Label(id string) string {
	tag, ok := c.tags[id]
	if !ok {
		return id
	}
	name := display.Self.Name(tag)
	if name == "" {
		return id
	}
	if _, variant, _ := splitID(id); variant != "" {
		name = fmt.Sprintf("%s (%s)", name, variant)
	}
	return name
}

// Options builds the dropdown for the profile form. The selected value is
// only honoured when it is installed; anything else selects nothing, which
// the form shows as the site default entry.
func (c *Catalog) Options(selected string) []Option {
	if !c.Contains(selected) {
		selected = ""
	}
	opts := make([]Option, 0, len(c.ids))
	for _, id := range c.ids {
		opts = append(opts, Option{
			ID:       id,
			Label:    c.Label(id),
			Selected: id == selected,
		})
	}
	return opts
}
