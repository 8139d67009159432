package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// ParseLanguage parses and validates a BCP 47 language tag.
// Underscored locale forms such as "pt_BR" are accepted. An empty tag defaults to pt-BR.
func ParseLanguage(tag string) (language.Tag, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return language.BrazilianPortuguese, nil
	}
	// Strip encoding suffixes such as ".UTF-8"
	tag = strings.SplitN(tag, ".", 2)[0]
	tag = strings.Replace(tag, "_", "-", 1)

	parsed, err := language.Parse(tag)
	if err != nil {
		return language.Und, fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	return parsed, nil
}

// LanguageTag returns the parsed render language, or pt-BR when invalid.
func (c *RenderConfig) LanguageTag() language.Tag {
	tag, err := ParseLanguage(c.Language)
	if err != nil {
		return language.BrazilianPortuguese
	}
	return tag
}

// HTMLLang returns the value for the lang attribute of rendered pages.
func (c *RenderConfig) HTMLLang() string {
	return c.LanguageTag().String()
}
