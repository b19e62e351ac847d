package filevalidator

import (
	"math"
	"strconv"
)

// Size constants for easier file size configuration
const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
)

// RuleSet is a declarative validation policy. Unset fields always pass, so
// the zero RuleSet accepts every file.
type RuleSet struct {
	// MaxFileSize is the maximum allowed size in bytes. Zero means no ceiling.
	MaxFileSize int64

	// FileType is matched against the declared MIME type of the file.
	FileType Pattern

	// EnforceSignature additionally requires the sniffed content type to
	// match AllowedSignature.
	EnforceSignature bool

	// AllowedSignature is matched against the sniffed MIME type. Required
	// when EnforceSignature is set.
	AllowedSignature Pattern

	// Dimensions bounds image width, height and pixel count.
	Dimensions DimensionRule
}

// Check reports whether the rule set can be evaluated.
func (r RuleSet) Check() error {
	if r.MaxFileSize < 0 {
		return &ValidationError{
			Type:    ErrorTypeConfig,
			Message: "maximum file size must not be negative",
			Actual:  strconv.FormatInt(r.MaxFileSize, 10),
		}
	}
	if r.EnforceSignature && r.AllowedSignature == nil {
		return &ValidationError{
			Type:    ErrorTypeConfig,
			Message: "signature enforcement requires an allowed signature",
		}
	}
	return nil
}

// FormatMegabytes renders a byte count in megabytes rounded to two decimals,
// e.g. "10MB" or "0.5MB". Counts below 0.01MB are rendered in bytes.
func FormatMegabytes(size int64) string {
	v := math.Round(float64(size)/float64(MB)*100) / 100
	if v == 0 && size != 0 {
		return strconv.FormatInt(size, 10) + " bytes"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "MB"
}
