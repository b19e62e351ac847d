package uploadkit

import (
	"github.com/gobeaver/uploadkit/filevalidator"
)

// FieldNameFromURL is the FileRecord.FieldName of files produced by
// FetchAsFile rather than by a multipart field.
const FieldNameFromURL = "url"

// FileRecord is one validated-or-validatable file, produced by Ingest or
// FetchAsFile. It owns Buffer; the producer keeps no reference after
// handing it out, and nothing mutates it afterwards.
type FileRecord struct {
	// Buffer is the complete file content.
	Buffer []byte

	// Size is len(Buffer).
	Size int64

	// Filename is the best-effort original name.
	Filename string

	// MimeType is the declared (multipart) or sniffed (remote) content type.
	MimeType string

	// FieldName is the multipart field name, or FieldNameFromURL.
	FieldName string

	// Extension is the sniffed extension without a dot, empty when unknown.
	Extension string

	// Width and Height are set only when the buffer decoded as an image.
	// Zero means absent, not a zero-pixel image; check HasDimensions.
	Width  int
	Height int

	// Checksum is the hex xxhash64 of Buffer.
	Checksum string
}

// NewFileRecord builds a record from a completed buffer, probing image
// dimensions and sniffing the extension on the way.
func NewFileRecord(buf []byte, filename, mimeType, fieldName string) *FileRecord {
	rec := &FileRecord{
		Buffer:    buf,
		Size:      int64(len(buf)),
		Filename:  filename,
		MimeType:  mimeType,
		FieldName: fieldName,
		Extension: filevalidator.Sniff(buf).Extension,
		Checksum:  fingerprint(buf),
	}
	if dims, ok := filevalidator.ProbeImageDimensions(buf); ok {
		rec.Width, rec.Height = dims.Width, dims.Height
	}
	return rec
}

// HasDimensions reports whether Width and Height were detected.
func (r *FileRecord) HasDimensions() bool {
	return r.Width > 0 && r.Height > 0
}

// Content implements filevalidator.File
func (r *FileRecord) Content() []byte { return r.Buffer }

// DeclaredMIME implements filevalidator.File
func (r *FileRecord) DeclaredMIME() string { return r.MimeType }

// ImageDimensions implements filevalidator.HasDimensions
func (r *FileRecord) ImageDimensions() (filevalidator.Dimensions, bool) {
	return filevalidator.Dimensions{Width: r.Width, Height: r.Height}, r.HasDimensions()
}

// Validate checks the record against each validator in order and returns
// the first failure as an ErrValidation *Error.
func (r *FileRecord) Validate(validators ...filevalidator.Validator) error {
	for _, v := range validators {
		if err := v.Validate(r); err != nil {
			return validationFailed("validate", err)
		}
	}
	return nil
}
