// Package mimeutil holds small MIME header helpers shared by the binding.
package mimeutil

import (
	"mime"
	"net/url"
	"strings"
)

// DispositionFilename extracts the filename from a Content-Disposition
// header. The RFC 5987 filename* form wins over plain filename. Returns ""
// when the header is absent or carries no name.
func DispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	if name := params["filename"]; name != "" {
		return name
	}
	return ""
}

// EncodeDispositionFilename renders an attachment Content-Disposition value
// for the given filename, emitting the RFC 5987 form alongside the plain one
// when the name is not ASCII-safe.
func EncodeDispositionFilename(filename string) string {
	if filename == "" {
		return "attachment"
	}
	if isTokenSafe(filename) {
		return `attachment; filename="` + filename + `"`
	}
	return "attachment; filename*=UTF-8''" + url.PathEscape(filename)
}

func isTokenSafe(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e || strings.ContainsRune(`"\`, r) {
			return false
		}
	}
	return true
}
