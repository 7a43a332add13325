package entity

import (
	"sort"
	"time"
)

// LocalizedText is the title/body pair for one push language.
type LocalizedText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// DailyContent is one item from the push content pool.
type DailyContent struct {
	ID        string                   `json:"id"`
	IsActive  bool                     `json:"is_active"`
	Localized map[string]LocalizedText `json:"localized"` // language code -> text
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// fallbackLanguage is used when a device's push language has no translation.
const fallbackLanguage = "en"

// Localize returns the text for the requested language, falling back to
// English and then to the lexicographically first available language so that
// the same content always renders the same way for a given device.
func (c *DailyContent) Localize(language string) LocalizedText {
	if text, ok := c.Localized[language]; ok {
		return text
	}
	if text, ok := c.Localized[fallbackLanguage]; ok {
		return text
	}

	languages := make([]string, 0, len(c.Localized))
	for lang := range c.Localized {
		languages = append(languages, lang)
	}
	if len(languages) == 0 {
		return LocalizedText{}
	}
	sort.Strings(languages)

	return c.Localized[languages[0]]
}
