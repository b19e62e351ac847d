package filevalidator

import (
	"errors"
	"regexp"
)

// Builder provides a fluent API for constructing validators
type Builder struct {
	rules RuleSet
	errs  []error
}

// NewBuilder creates a builder with no rules configured
func NewBuilder() *Builder {
	return &Builder{}
}

// --- Size ---

// MaxSize sets the maximum allowed file size
func (b *Builder) MaxSize(size int64) *Builder {
	b.rules.MaxFileSize = size
	return b
}

// --- Declared type ---

// FileType matches the declared MIME type against a textual pattern
// (see ParsePattern)
func (b *Builder) FileType(pattern string) *Builder {
	p, err := ParsePattern(pattern)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.rules.FileType = p
	return b
}

// FileTypeRegexp matches the declared MIME type against a regular expression
func (b *Builder) FileTypeRegexp(re *regexp.Regexp) *Builder {
	b.rules.FileType = Regexp(re)
	return b
}

// --- Signature ---

// EnforceSignature requires the sniffed content type to match pattern
func (b *Builder) EnforceSignature(pattern string) *Builder {
	p, err := ParsePattern(pattern)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.rules.EnforceSignature = true
	b.rules.AllowedSignature = p
	return b
}

// EnforceSignatureRegexp requires the sniffed content type to match re
func (b *Builder) EnforceSignatureRegexp(re *regexp.Regexp) *Builder {
	b.rules.EnforceSignature = true
	b.rules.AllowedSignature = Regexp(re)
	return b
}

// --- Dimensions ---

// MaxDimensions bounds image width and height
func (b *Builder) MaxDimensions(width, height int) *Builder {
	b.rules.Dimensions.MaxWidth = width
	b.rules.Dimensions.MaxHeight = height
	return b
}

// MinDimensions sets the smallest acceptable image width and height
func (b *Builder) MinDimensions(width, height int) *Builder {
	b.rules.Dimensions.MinWidth = width
	b.rules.Dimensions.MinHeight = height
	return b
}

// MaxPixels bounds width*height
func (b *Builder) MaxPixels(pixels int) *Builder {
	b.rules.Dimensions.MaxPixels = pixels
	return b
}

// RuleSet returns the rules configured so far
func (b *Builder) RuleSet() RuleSet {
	return b.rules
}

// Build creates the validator. Pattern parse errors and invalid rule
// combinations are reported here.
func (b *Builder) Build() (*FileValidator, error) {
	if len(b.errs) > 0 {
		return nil, &ValidationError{
			Type:    ErrorTypeConfig,
			Message: errors.Join(b.errs...).Error(),
		}
	}
	return New(b.rules)
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *FileValidator {
	v, err := b.Build()
	if err != nil {
		panic(err)
	}
	return v
}

// --- Presets ---

// ForImages accepts images up to 10MB whose declared type and content
// signature are both images, within 10000x10000 and 50 megapixels.
func ForImages() *Builder {
	return NewBuilder().
		MaxSize(10*MB).
		FileType(string(AllowAllImages)).
		EnforceSignature(string(AllowAllImages)).
		MaxDimensions(10000, 10000).
		MaxPixels(50_000_000)
}

// ForDocuments accepts office documents, PDFs and plain text up to 50MB
func ForDocuments() *Builder {
	return NewBuilder().
		MaxSize(50 * MB).
		FileType(string(AllowAllDocuments))
}

// Empty has no rules; its validator accepts every file
func Empty() *Builder {
	return NewBuilder()
}
