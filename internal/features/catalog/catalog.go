// Package catalog holds the news categories the Mini App offers and their labels.
package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	msgcatalog "golang.org/x/text/message/catalog"

	apperrors "news-miniapp-gateway/internal/common/errors"
)

const (
	Sport   = "sport"
	First   = "first"
	History = "history"
	Tver    = "tver"
)

// Category is a category type with its label in the requested language.
type Category struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

var labels = map[language.Tag]map[string]string{
	language.Russian: {
		Sport:   "Спорт",
		First:   "Движение первые",
		History: "Моя история",
		Tver:    "Тверь",
	},
	language.English: {
		Sport:   "Sport",
		First:   "Movement of the First",
		History: "My History",
		Tver:    "Tver",
	},
}

// Catalog is safe for concurrent use once built.
type Catalog struct {
	types     []string
	supported []language.Tag
	matcher   language.Matcher
	messages  *msgcatalog.Builder
}

// New builds the catalog. Russian is the default language.
// It panics if a built-in label cannot be registered.
func New() *Catalog {
	supported := []language.Tag{language.Russian, language.English}
	builder := msgcatalog.NewBuilder(msgcatalog.Fallback(language.Russian))
	for tag, byType := range labels {
		for t, label := range byType {
			if err := builder.SetString(tag, messageKey(t), label); err != nil {
				panic(fmt.Sprintf("catalog: label %s/%s: %v", tag, t, err))
			}
		}
	}

	return &Catalog{
		types:     []string{Sport, First, History, Tver},
		supported: supported,
		matcher:   language.NewMatcher(supported),
		messages:  builder,
	}
}

func messageKey(categoryType string) string {
	return "category." + categoryType
}

// Types returns the category types in display order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.types))
	copy(out, c.types)
	return out
}

func (c *Catalog) IsKnown(categoryType string) bool {
	for _, t := range c.types {
		if t == categoryType {
			return true
		}
	}
	return false
}

// Match picks the supported language for the first usable preference. Preferences are
// Telegram language codes or Accept-Language headers.
func (c *Catalog) Match(preferences ...string) language.Tag {
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, idx, conf := c.matcher.Match(tags...)
		if conf == language.No {
			continue
		}
		return c.supported[idx]
	}
	return c.supported[0]
}

// Label returns the label of categoryType; unknown types are returned as is.
func (c *Catalog) Label(categoryType string, tag language.Tag) string {
	if !c.IsKnown(categoryType) {
		return categoryType
	}
	return message.NewPrinter(tag, message.Catalog(c.messages)).Sprintf(messageKey(categoryType))
}

// List returns every category labelled for tag.
func (c *Catalog) List(tag language.Tag) []Category {
	return c.Labelled(c.types, tag)
}

// Labelled labels the given category types, keeping their order.
func (c *Catalog) Labelled(types []string, tag language.Tag) []Category {
	printer := message.NewPrinter(tag, message.Catalog(c.messages))
	out := make([]Category, 0, len(types))
	for _, t := range types {
		label := t
		if c.IsKnown(t) {
			label = printer.Sprintf(messageKey(t))
		}
		out = append(out, Category{Type: t, Label: label})
	}
	return out
}

// Normalize validates a category selection: it must be non-empty and known. Duplicates
// are dropped, the first occurrence keeps its place.
func (c *Catalog) Normalize(types []string) ([]string, error) {
	seen := make(map[string]struct{}, len(types))
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !c.IsKnown(t) {
			return nil, apperrors.NewValidationError("categories", fmt.Sprintf("unknown category %q", t)).
				WithDetail("allowed", c.Types())
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, apperrors.NewValidationError("categories", "select at least one category")
	}
	return out, nil
}

// Require returns CATEGORY_NOT_FOUND for types the app does not offer.
func (c *Catalog) Require(categoryType string) error {
	if c.IsKnown(categoryType) {
		return nil
	}
	return apperrors.New(apperrors.ErrCodeCategoryNotFound, "Category not found").
		WithDetail("category", categoryType)
}
