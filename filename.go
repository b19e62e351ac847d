package uploadkit

import (
	"mime"
	"net/url"
	"path"
	"strings"
	"unicode"
)

// MaxFilenameLength bounds a sanitized filename, extension excluded.
const MaxFilenameLength = 100

// extensionAliases lists spellings that count as already carrying an
// extension.
var extensionAliases = map[string][]string{
	"jpg":  {"jpg", "jpeg", "jpe"},
	"tif":  {"tif", "tiff"},
	"tiff": {"tif", "tiff"},
	"mid":  {"mid", "midi"},
}

// FilenameFromDisposition returns the filename parameter of a
// Content-Disposition header with percent-escapes decoded, or "".
// RFC 2231 filename* values take precedence over filename.
func FilenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}

	var name string
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
	} else if idx := strings.Index(header, "filename="); idx != -1 {
		name = header[idx+len("filename="):]
		if semi := strings.IndexByte(name, ';'); semi != -1 {
			name = name[:semi]
		}
		name = strings.Trim(strings.TrimSpace(name), `"`)
	}
	if name == "" {
		return ""
	}

	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return baseName(name)
}

// filenameFromURL returns the last non-empty path segment of u.
func filenameFromURL(u *url.URL) string {
	return baseName(u.Path)
}

func baseName(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	b := path.Base(p)
	if b == "." || b == "/" {
		return ""
	}
	return b
}

// SanitizeFilename keeps ASCII letters, digits, '.', '-', '_' and spaces,
// turns each run of whitespace into a single underscore and truncates to
// MaxFilenameLength. The result may be empty.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		switch {
		case r == ' ':
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)),
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
		inSpace = false
		if b.Len() >= MaxFilenameLength {
			break
		}
	}

	s := b.String()
	if len(s) > MaxFilenameLength {
		s = s[:MaxFilenameLength]
	}
	return s
}

// remoteFilename picks, sanitizes and extends the name of a fetched file.
func remoteFilename(disposition string, u *url.URL, ext string) string {
	name := FilenameFromDisposition(disposition)
	if name == "" {
		name = filenameFromURL(u)
	}
	name = SanitizeFilename(name)
	if strings.Trim(name, "._-") == "" {
		name = defaultFetchedFilename
	}
	return withExtension(name, ext)
}

// withExtension appends "."+ext unless name already ends in it.
func withExtension(name, ext string) string {
	if ext == "" {
		return name
	}
	lower := strings.ToLower(name)
	aliases, ok := extensionAliases[ext]
	if !ok {
		aliases = []string{ext}
	}
	for _, a := range aliases {
		if strings.HasSuffix(lower, "."+a) {
			return name
		}
	}
	return name + "." + ext
}
