// Package i18n renders user-facing error messages from per-locale catalogs.
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the catalog used when no requested locale matches.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var localeFS embed.FS

// Code is a machine-readable error code (kept as a string to avoid an import
// cycle with the errors package).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   map[string]*Catalog
	matcher    language.Matcher
	tags       []language.Tag
	loadOnce   sync.Once
	loadErr    error
)

// GetCatalog returns the catalog best matching locale, which may be a single
// BCP 47 tag or an Accept-Language header value. It falls back to en-US.
func GetCatalog(locale string) *Catalog {
	ensureLoaded()
	resolved := ResolveLocale(locale)

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	if c, ok := catalogs[resolved]; ok {
		return c
	}
	return catalogs[BaseLocale]
}

// ResolveLocale negotiates locale against the embedded catalogs.
func ResolveLocale(locale string) string {
	ensureLoaded()
	requested := strings.TrimSpace(locale)
	if requested == "" {
		return BaseLocale
	}

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	if _, ok := catalogs[requested]; ok {
		return requested
	}
	prefs, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(prefs) == 0 {
		return BaseLocale
	}
	for _, pref := range prefs {
		if _, ok := catalogs[pref.String()]; ok {
			return pref.String()
		}
	}
	_, index, confidence := matcher.Match(prefs...)
	if confidence == language.No {
		return BaseLocale
	}
	return tags[index].String()
}

// Locales lists the locales with a registered catalog.
func Locales() []string {
	ensureLoaded()
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	out := make([]string, 0, len(catalogs))
	for locale := range catalogs {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// LoadError reports a failure while parsing the embedded catalogs.
func LoadError() error {
	ensureLoaded()
	return loadErr
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found, and to the raw
// template when it fails to parse or execute.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers or replaces the catalog for locale.
func RegisterCatalog(locale string, cat *Catalog) {
	ensureLoaded()
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
	rebuildMatcherLocked()
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{locale: locale, messages: cloned}
}

// ParseCatalog decodes a YAML mapping of code to message template.
func ParseCatalog(locale string, data []byte) (*Catalog, error) {
	messages := map[Code]string{}
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", locale, err)
	}
	return NewCatalog(locale, messages), nil
}

func ensureLoaded() {
	loadOnce.Do(func() {
		loaded, err := loadCatalogs(localeFS, "locales")
		catalogsMu.Lock()
		defer catalogsMu.Unlock()
		catalogs = loaded
		loadErr = err
		if _, ok := catalogs[BaseLocale]; !ok {
			catalogs[BaseLocale] = NewCatalog(BaseLocale, nil)
		}
		rebuildMatcherLocked()
	})
}

func loadCatalogs(fsys fs.FS, root string) (map[string]*Catalog, error) {
	out := map[string]*Catalog{}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return out, fmt.Errorf("read locales: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".yaml" {
			continue
		}
		locale := strings.TrimSuffix(name, ".yaml")
		data, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return out, fmt.Errorf("read %s: %w", name, err)
		}
		cat, err := ParseCatalog(locale, data)
		if err != nil {
			return out, err
		}
		out[locale] = cat
	}
	return out, nil
}

// rebuildMatcherLocked keeps the base locale first so it wins ties.
func rebuildMatcherLocked() {
	names := make([]string, 0, len(catalogs))
	for locale := range catalogs {
		if locale != BaseLocale {
			names = append(names, locale)
		}
	}
	sort.Strings(names)
	tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, name := range names {
		tag, err := language.Parse(name)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	matcher = language.NewMatcher(tags)
}
