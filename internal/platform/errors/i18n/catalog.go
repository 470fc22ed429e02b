// Package i18n provides internationalization support for error messages.
package i18n

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// BaseLocale is the canonical source locale for error messages.
const BaseLocale = "en-US"

// unknownCode duplicates errors.CodeUnknown to avoid an import cycle.
const unknownCode = "UNKNOWN"

// entry is one printf-style message whose arguments are read, in order,
// from the error metadata keys listed in args.
type entry struct {
	format string
	args   []string
}

// Catalog maps error codes to message entries for a specific locale.
type Catalog struct {
	locale  string
	tag     language.Tag
	entries map[string]entry
}

var (
	catalogs = []*Catalog{enUSCatalog, ptBRCatalog}
	matcher  language.Matcher
)

func init() {
	tags := make([]language.Tag, 0, len(catalogs))
	for _, c := range catalogs {
		c.tag = language.MustParse(c.locale)
		for code, e := range c.entries {
			if err := message.SetString(c.tag, code, e.format); err != nil {
				panic(fmt.Sprintf("register %s message %s: %v", c.locale, code, err))
			}
		}
		tags = append(tags, c.tag)
	}
	matcher = language.NewMatcher(tags)
}

// GetCatalog returns the catalog best matching locale.
// Falls back to en-US if the locale is empty, malformed, or unsupported.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		return catalogs[0]
	}
	tag, err := language.Parse(requested)
	if err != nil {
		return catalogs[0]
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return catalogs[0]
	}
	return catalogs[index]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Has reports whether the catalog carries a message for code.
func (c *Catalog) Has(code string) bool {
	_, ok := c.entries[code]
	return ok
}

// Format renders the localized message for code, pulling arguments from
// metadata. Integer metadata is formatted with locale digit grouping.
// Unknown codes render the catalog's generic message.
func (c *Catalog) Format(code string, metadata map[string]string) string {
	e, ok := c.entries[code]
	if !ok {
		code = unknownCode
		e = c.entries[code]
	}
	args := make([]any, 0, len(e.args))
	for _, key := range e.args {
		value := metadata[key]
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			args = append(args, n)
			continue
		}
		args = append(args, value)
	}
	return message.NewPrinter(c.tag).Sprintf(code, args...)
}

// Format resolves the catalog for locale and renders code with metadata.
// It returns the resolved locale alongside the message.
func Format(locale, code string, metadata map[string]string) (string, string) {
	c := GetCatalog(locale)
	return c.Locale(), c.Format(code, metadata)
}
