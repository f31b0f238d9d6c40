package rule

import (
	"strconv"
	"strings"
)

// path is the chain of object keys (string) and array indexes (int) leading
// to the value under validation.
type path []any

func (p path) field(name string) path { return append(p[:len(p):len(p)], name) }
func (p path) index(i int) path       { return append(p[:len(p):len(p)], i) }

// pointer renders p as an RFC 6901 JSON Pointer; the root is "/".
func (p path) pointer() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		switch s := seg.(type) {
		case int:
			b.WriteString(strconv.Itoa(s))
		case string:
			// escape '~' -> '~0', '/' -> '~1' per RFC6901
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1"))
		}
	}
	return b.String()
}

// label renders p the way messages refer to it: "a.b[0].c", or "value" at
// the root.
func (p path) label() string {
	if len(p) == 0 {
		return "value"
	}
	var b strings.Builder
	for i, seg := range p {
		switch s := seg.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s))
			b.WriteByte(']')
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s)
		}
	}
	return b.String()
}
