package filevalidator

import (
	"bytes"
	"io"
)

// File is the view of an upload the validator needs.
type File interface {
	// Content returns the full file bytes.
	Content() []byte

	// DeclaredMIME returns the client-declared (or otherwise assigned) MIME type.
	DeclaredMIME() string
}

// HasDimensions is implemented by files that already carry probed image
// dimensions, sparing the validator a second probe.
type HasDimensions interface {
	ImageDimensions() (Dimensions, bool)
}

// Validator checks files against a fixed RuleSet.
type Validator interface {
	// Validate returns nil when f satisfies every configured rule, or the
	// first *ValidationError in the order size, declared type, signature,
	// dimensions.
	Validate(f File) error

	// ValidateBytes validates raw content with a declared MIME type
	ValidateBytes(content []byte, declaredMIME string) error

	// ValidateReader buffers r and validates the result
	ValidateReader(r io.Reader, declaredMIME string) error

	// Rules returns the rule set the validator enforces
	Rules() RuleSet
}

// FileValidator implements the Validator interface
type FileValidator struct {
	rules RuleSet
}

// New creates a validator for rules, rejecting rule sets that cannot be
// evaluated (see RuleSet.Check).
func New(rules RuleSet) (*FileValidator, error) {
	if err := rules.Check(); err != nil {
		return nil, err
	}
	return &FileValidator{rules: rules}, nil
}

// MustNew is like New but panics on an invalid rule set.
func MustNew(rules RuleSet) *FileValidator {
	v, err := New(rules)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks f against rules in a single call. An invalid
// rule set is reported as an ErrorTypeConfig error.
func Validate(f File, rules RuleSet) error {
	v, err := New(rules)
	if err != nil {
		return err
	}
	return v.Validate(f)
}

// Validate implements Validator. Checks short-circuit on the first failure.
func (v *FileValidator) Validate(f File) error {
	content := f.Content()
	size := int64(len(content))

	if v.rules.MaxFileSize > 0 && size > v.rules.MaxFileSize {
		return sizeError(v.rules.MaxFileSize, size)
	}

	if v.rules.FileType != nil && !v.rules.FileType.Match(f.DeclaredMIME()) {
		return mimeError(v.rules.FileType, f.DeclaredMIME())
	}

	if v.rules.EnforceSignature {
		sig := Sniff(content)
		if !sig.Known() || !v.rules.AllowedSignature.Match(sig.MIME) {
			return signatureError(v.rules.AllowedSignature, sig.MIME)
		}
	}

	if !v.rules.Dimensions.IsZero() {
		var (
			dims Dimensions
			ok   bool
		)
		if d, has := f.(HasDimensions); has {
			dims, ok = d.ImageDimensions()
		} else {
			dims, ok = ProbeImageDimensions(content)
		}
		if err := v.rules.Dimensions.check(dims, ok); err != nil {
			return err
		}
	}

	return nil
}

// ValidateBytes implements Validator
func (v *FileValidator) ValidateBytes(content []byte, declaredMIME string) error {
	return v.Validate(bytesFile{content: content, mime: declaredMIME})
}

// ValidateReader implements Validator. The read is capped one byte past the
// size ceiling so an oversized stream is never fully buffered.
func (v *FileValidator) ValidateReader(r io.Reader, declaredMIME string) error {
	if v.rules.MaxFileSize > 0 {
		r = io.LimitReader(r, v.rules.MaxFileSize+1)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	return v.ValidateBytes(buf.Bytes(), declaredMIME)
}

// Rules implements Validator
func (v *FileValidator) Rules() RuleSet {
	return v.rules
}

type bytesFile struct {
	content []byte
	mime    string
}

func (f bytesFile) Content() []byte      { return f.content }
func (f bytesFile) DeclaredMIME() string { return f.mime }
