package uploadkit

import (
	"mime"
	"strings"
)

// Content types the pipeline and fetcher treat specially.
const (
	MIMEOctetStream        = "application/octet-stream"
	MIMEMultipartForm      = "multipart/form-data"
	MIMEApplicationJSON    = "application/json"
	MIMEFormURLEncoded     = "application/x-www-form-urlencoded"
	defaultFetchedFilename = "image"
)

// NormalizeMediaType strips parameters and lowercases a Content-Type value.
// It returns "" when v does not parse.
func NormalizeMediaType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}

// IsMultipart reports whether a Content-Type value names a multipart body
// carrying a boundary.
func IsMultipart(contentType string) bool {
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mt, "multipart/") {
		return false
	}
	return params["boundary"] != ""
}

// IsImageMIME returns true if the content type is an image type
func IsImageMIME(contentType string) bool {
	return strings.HasPrefix(NormalizeMediaType(contentType), "image/")
}
