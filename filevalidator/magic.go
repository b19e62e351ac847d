package filevalidator

import (
	"bytes"
)

// Signature is the outcome of content sniffing. Both fields are empty when
// the leading bytes match no known signature.
type Signature struct {
	MIME      string
	Extension string
}

// Known reports whether the content matched a signature.
func (s Signature) Known() bool {
	return s.MIME != ""
}

// MagicSignature defines a file type signature
type MagicSignature struct {
	MIME      string
	Extension string
	Offset    int    // Offset from start of file
	Magic     []byte // Magic bytes to match
}

// magicSignatures is ordered by specificity (most specific first).
// Text formats are deliberately absent: they carry no reliable signature.
var magicSignatures = []MagicSignature{
	// Images
	{MIME: "image/jpeg", Extension: "jpg", Magic: []byte{0xFF, 0xD8, 0xFF}},
	{MIME: "image/png", Extension: "png", Magic: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{MIME: "image/gif", Extension: "gif", Magic: []byte("GIF87a")},
	{MIME: "image/gif", Extension: "gif", Magic: []byte("GIF89a")},
	{MIME: "application/x-riff", Extension: "riff", Magic: []byte("RIFF")}, // WebP, WAV or AVI; see refine
	{MIME: "image/tiff", Extension: "tif", Magic: []byte{0x49, 0x49, 0x2A, 0x00}},
	{MIME: "image/tiff", Extension: "tif", Magic: []byte{0x4D, 0x4D, 0x00, 0x2A}},
	{MIME: "image/x-icon", Extension: "ico", Magic: []byte{0x00, 0x00, 0x01, 0x00}},
	{MIME: "image/heic", Extension: "heic", Offset: 4, Magic: []byte("ftypheic")},
	{MIME: "image/heic", Extension: "heic", Offset: 4, Magic: []byte("ftypmif1")},
	{MIME: "image/avif", Extension: "avif", Offset: 4, Magic: []byte("ftypavif")},
	{MIME: "image/bmp", Extension: "bmp", Magic: []byte("BM")},

	// Documents
	{MIME: "application/pdf", Extension: "pdf", Magic: []byte("%PDF-")},

	// Archives
	{MIME: "application/zip", Extension: "zip", Magic: []byte{0x50, 0x4B, 0x03, 0x04}},
	{MIME: "application/zip", Extension: "zip", Magic: []byte{0x50, 0x4B, 0x05, 0x06}},
	{MIME: "application/zip", Extension: "zip", Magic: []byte{0x50, 0x4B, 0x07, 0x08}},
	{MIME: "application/gzip", Extension: "gz", Magic: []byte{0x1F, 0x8B}},
	{MIME: "application/x-tar", Extension: "tar", Offset: 257, Magic: []byte("ustar")},
	{MIME: "application/x-rar-compressed", Extension: "rar", Magic: []byte("Rar!\x1a\x07\x00")},
	{MIME: "application/x-rar-compressed", Extension: "rar", Magic: []byte("Rar!\x1a\x07\x01\x00")},
	{MIME: "application/x-7z-compressed", Extension: "7z", Magic: []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}},
	{MIME: "application/x-bzip2", Extension: "bz2", Magic: []byte("BZh")},
	{MIME: "application/x-xz", Extension: "xz", Magic: []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}},

	// Audio
	{MIME: "audio/mpeg", Extension: "mp3", Magic: []byte("ID3")},
	{MIME: "audio/flac", Extension: "flac", Magic: []byte("fLaC")},
	{MIME: "audio/ogg", Extension: "ogg", Magic: []byte("OggS")},
	{MIME: "audio/midi", Extension: "mid", Magic: []byte("MThd")},

	// Video
	{MIME: "video/webm", Extension: "webm", Magic: []byte{0x1A, 0x45, 0xDF, 0xA3}},
	{MIME: "video/quicktime", Extension: "mov", Offset: 4, Magic: []byte("ftypqt  ")},
	{MIME: "video/3gpp", Extension: "3gp", Offset: 4, Magic: []byte("ftyp3g")},
	{MIME: "video/mp4", Extension: "mp4", Offset: 4, Magic: []byte("ftyp")},
	{MIME: "video/x-flv", Extension: "flv", Magic: []byte("FLV")},

	// Markup with a declaration
	{MIME: "application/xml", Extension: "xml", Magic: []byte("<?xml")},

	// Executables
	{MIME: "application/x-msdownload", Extension: "exe", Magic: []byte("MZ")},
	{MIME: "application/x-mach-binary", Extension: "macho", Magic: []byte{0xCF, 0xFA, 0xED, 0xFE}},
	{MIME: "application/x-mach-binary", Extension: "macho", Magic: []byte{0xCE, 0xFA, 0xED, 0xFE}},
	{MIME: "application/x-executable", Extension: "elf", Magic: []byte{0x7F, 'E', 'L', 'F'}},

	// Fonts
	{MIME: "font/woff", Extension: "woff", Magic: []byte("wOFF")},
	{MIME: "font/woff2", Extension: "woff2", Magic: []byte("wOF2")},
	{MIME: "font/otf", Extension: "otf", Magic: []byte("OTTO")},
	{MIME: "font/ttf", Extension: "ttf", Magic: []byte{0x00, 0x01, 0x00, 0x00, 0x00}},
}

// SniffLength is the number of leading bytes Sniff looks at.
const SniffLength = 4100

// Sniff identifies the content type of data from its leading bytes only.
// It never consults a filename or declared type; an unrecognised signature
// yields the zero Signature.
func Sniff(data []byte) Signature {
	if len(data) > SniffLength {
		data = data[:SniffLength]
	}

	for _, sig := range magicSignatures {
		end := sig.Offset + len(sig.Magic)
		if end > len(data) {
			continue
		}
		if bytes.Equal(data[sig.Offset:end], sig.Magic) {
			return refine(data, Signature{MIME: sig.MIME, Extension: sig.Extension})
		}
	}

	if looksLikeSVG(data) {
		return Signature{MIME: "image/svg+xml", Extension: "svg"}
	}
	return Signature{}
}

// refine handles containers whose first signature is shared by several formats.
func refine(data []byte, sig Signature) Signature {
	switch sig.MIME {
	case "application/xml":
		if looksLikeSVG(data) {
			return Signature{MIME: "image/svg+xml", Extension: "svg"}
		}

	case "application/x-riff":
		if len(data) >= 12 {
			switch string(data[8:12]) {
			case "WEBP":
				return Signature{MIME: "image/webp", Extension: "webp"}
			case "WAVE":
				return Signature{MIME: "audio/wav", Extension: "wav"}
			case "AVI ":
				return Signature{MIME: "video/x-msvideo", Extension: "avi"}
			}
		}

	case "application/zip":
		switch {
		case bytes.Contains(data, []byte("word/")):
			return Signature{MIME: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Extension: "docx"}
		case bytes.Contains(data, []byte("xl/")):
			return Signature{MIME: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Extension: "xlsx"}
		case bytes.Contains(data, []byte("ppt/")):
			return Signature{MIME: "application/vnd.openxmlformats-officedocument.presentationml.presentation", Extension: "pptx"}
		}

	case "video/mp4":
		if len(data) >= 12 {
			switch string(data[8:12]) {
			case "M4A ":
				return Signature{MIME: "audio/mp4", Extension: "m4a"}
			case "M4V ":
				return Signature{MIME: "video/x-m4v", Extension: "m4v"}
			}
		}

	case "video/webm":
		// EBML is shared with Matroska; the doctype sits in the first header bytes.
		if bytes.Contains(data[:min(len(data), 64)], []byte("matroska")) {
			return Signature{MIME: "video/x-matroska", Extension: "mkv"}
		}
	}
	return sig
}

// looksLikeSVG reports whether the root element is <svg>. Only an XML
// declaration, processing instructions, comments and a doctype may precede it.
func looksLikeSVG(data []byte) bool {
	head := bytes.TrimLeft(data[:min(len(data), SniffLength)], " \t\r\n\xef\xbb\xbf")
	for {
		var end []byte
		switch {
		case bytes.HasPrefix(head, []byte("<?")):
			end = []byte("?>")
		case bytes.HasPrefix(head, []byte("<!--")):
			end = []byte("-->")
		case hasPrefixFold(head, "<!doctype"):
			end = []byte(">")
			if i, j := bytes.IndexByte(head, '['), bytes.IndexByte(head, '>'); i >= 0 && i < j {
				end = []byte("]>")
			}
		default:
			return isSVGRoot(head)
		}
		i := bytes.Index(head, end)
		if i < 0 {
			return false
		}
		head = bytes.TrimLeft(head[i+len(end):], " \t\r\n")
	}
}

func isSVGRoot(head []byte) bool {
	if !bytes.HasPrefix(head, []byte("<svg")) || len(head) == len("<svg") {
		return false
	}
	switch head[len("<svg")] {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && bytes.EqualFold(b[:len(prefix)], []byte(prefix))
}

// IsExecutableMIME returns true if the MIME type indicates an executable
func IsExecutableMIME(mime string) bool {
	switch mime {
	case "application/x-msdownload", "application/x-msdos-program",
		"application/x-executable", "application/x-mach-binary",
		"application/x-sharedlib", "application/x-dosexec":
		return true
	}
	return false
}
