// Package i18n resolves message references into localized user-facing text.
package i18n

import (
	"fmt"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/vi"
	ut "github.com/go-playground/universal-translator"
)

// Languages supported by the catalog, fallback first.
var Languages = []string{"en", "vi"}

var messages = map[string]map[string]string{
	"en": {
		"local_storage_exception": "Failed to read or write data to local storage",
		"save_data_err":           "Could not save your settings. Please try again.",
		"settings_saved":          "Settings saved successfully",
	},
	"vi": {
		"local_storage_exception": "Không thể đọc hoặc ghi dữ liệu vào bộ nhớ cục bộ",
		"save_data_err":           "Không thể lưu cài đặt. Vui lòng thử lại.",
		"settings_saved":          "Đã lưu cài đặt thành công",
	},
}

// Catalog holds one translator per supported language.
type Catalog struct {
	uni      *ut.UniversalTranslator
	fallback ut.Translator
}

// New builds the catalog. defaultLang is used when a requested language is
// not supported; it must be one of Languages.
func New(defaultLang string) (*Catalog, error) {
	supported := []locales.Translator{en.New(), vi.New()}

	var fallback locales.Translator
	for _, l := range supported {
		if l.Locale() == defaultLang {
			fallback = l
		}
	}
	if fallback == nil {
		return nil, fmt.Errorf("unsupported default language %q", defaultLang)
	}

	uni := ut.New(fallback, supported...)
	for lang, msgs := range messages {
		trans, _ := uni.GetTranslator(lang)
		for key, text := range msgs {
			if err := trans.Add(key, text, false); err != nil {
				return nil, fmt.Errorf("register %s/%s: %w", lang, key, err)
			}
		}
	}

	return &Catalog{
		uni:      uni,
		fallback: uni.GetFallback(),
	}, nil
}

// Translator returns the first supported translator among langs, or the
// default one.
func (c *Catalog) Translator(langs ...string) ut.Translator {
	if trans, found := c.uni.FindTranslator(langs...); found {
		return trans
	}
	return c.fallback
}

// Message renders id in the best language among langs. Unknown ids are
// returned verbatim.
func (c *Catalog) Message(id string, langs ...string) string {
	text, err := c.Translator(langs...).T(id)
	if err != nil {
		return id
	}
	return text
}
