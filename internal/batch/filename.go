package batch

import (
	"path/filepath"
	"strings"
	"unicode"
)

// OutputName builds the download name "<original-stem>_<batch-number>.pdf".
func OutputName(original, batchNumber string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		base = "document"
	}
	return base + "_" + sanitize(strings.TrimSpace(batchNumber)) + ".pdf"
}

// sanitize replaces characters that are unsafe in file names.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"':
			return '_'
		case unicode.IsControl(r):
			return '_'
		default:
			return r
		}
	}, s)
}
