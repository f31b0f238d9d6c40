package structs

import (
	"fmt"
	"strings"
)

// TagItem is one comma-separated entry of a classkema struct tag:
// name, or name=arg1|arg2.
type TagItem struct {
	Name string
	Args []string
}

// ParseTag splits a struct tag value into items. A backslash escapes the
// next character, so `pattern=^a\,b$` and `valid=a\|b|c` keep their
// separators.
func ParseTag(tag string) ([]TagItem, error) {
	var items []TagItem
	for _, raw := range splitEscaped(tag, ',') {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, value, hasValue := cutUnescaped(raw, '=')
		name = strings.TrimSpace(unescape(name))
		if name == "" {
			return nil, fmt.Errorf("empty tag entry %q", raw)
		}
		item := TagItem{Name: name}
		if hasValue {
			for _, a := range splitEscaped(value, '|') {
				item.Args = append(item.Args, unescape(a))
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func splitEscaped(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func cutUnescaped(s string, sep byte) (before, after string, found bool) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// unescape drops the backslash before ',', '|', '=' and '\'. Other
// backslashes (regexp escapes such as \d) are kept.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && strings.IndexByte(`,|=\`, s[i+1]) >= 0 {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
