package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for issue codes.
// data provides the values substituted into the message template (for
// example "label", "limit" or "peers").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	if t.lang == "ja" {
		if tmpl, ok := ja[code]; ok {
			return Render(tmpl, data)
		}
	}
	if tmpl, ok := en[code]; ok {
		return Render(tmpl, data)
	}
	if label, ok := data["label"]; ok {
		return `"` + label + `" failed ` + code
	}
	return code
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
// Codes missing from the ja dictionary fall back to en.
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). Passing nil restores the English dictionary.
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}

// Render substitutes {{name}} placeholders in tmpl with values from data.
// Unknown placeholders are left untouched.
func Render(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{{") {
		return tmpl
	}
	var b strings.Builder
	b.Grow(len(tmpl))
	for {
		start := strings.Index(tmpl, "{{")
		if start < 0 {
			b.WriteString(tmpl)
			break
		}
		end := strings.Index(tmpl[start:], "}}")
		if end < 0 {
			b.WriteString(tmpl)
			break
		}
		end += start
		name := tmpl[start+2 : end]
		b.WriteString(tmpl[:start])
		if v, ok := data[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(tmpl[start : end+2])
		}
		tmpl = tmpl[end+2:]
	}
	return b.String()
}
