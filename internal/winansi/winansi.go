// Package winansi encodes text for simple PDF fonts using WinAnsiEncoding.
package winansi

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Replacement is written for runes WinAnsiEncoding cannot represent.
const Replacement = '?'

// Encode converts s to WinAnsi (Windows-1252) bytes.
func Encode(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = Replacement
		}
		out = append(out, b)
	}
	return out
}

// Literal returns s as a PDF literal string, including the parentheses.
func Literal(s string) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, b := range Encode(s) {
		switch b {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		case '\r':
			sb.WriteString(`\r`)
		case '\n':
			sb.WriteString(`\n`)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}
