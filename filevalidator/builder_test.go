package filevalidator

import (
	"regexp"
	"testing"
)

func TestBuilder_Chaining(t *testing.T) {
	v, err := NewBuilder().
		MaxSize(5*MB).
		FileType("image/*").
		EnforceSignature("image/{png,jpeg}").
		MaxDimensions(800, 600).
		MinDimensions(10, 10).
		MaxPixels(400000).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	r := v.Rules()
	if r.MaxFileSize != 5*MB {
		t.Errorf("MaxFileSize = %d, want %d", r.MaxFileSize, 5*MB)
	}
	if r.FileType == nil || r.FileType.String() != "image/*" {
		t.Errorf("FileType = %v, want image/*", r.FileType)
	}
	if !r.EnforceSignature || r.AllowedSignature.String() != "image/{png,jpeg}" {
		t.Errorf("AllowedSignature = %v, want image/{png,jpeg}", r.AllowedSignature)
	}
	want := DimensionRule{MinWidth: 10, MinHeight: 10, MaxWidth: 800, MaxHeight: 600, MaxPixels: 400000}
	if r.Dimensions != want {
		t.Errorf("Dimensions = %+v, want %+v", r.Dimensions, want)
	}
}

func TestBuilder_Regexp(t *testing.T) {
	v := NewBuilder().
		FileTypeRegexp(regexp.MustCompile(`^image/`)).
		EnforceSignatureRegexp(regexp.MustCompile(`^image/png$`)).
		MustBuild()

	if err := v.ValidateBytes(pngMagic, "image/png"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestBuilder_PatternErrorSurfacesAtBuild(t *testing.T) {
	_, err := NewBuilder().FileType("/[bad/").Build()
	if !IsErrorOfType(err, ErrorTypeConfig) {
		t.Errorf("Expected %s error, got %v", ErrorTypeConfig, err)
	}
}

func TestNewBuilder_IsEmpty(t *testing.T) {
	r := NewBuilder().RuleSet()
	if r.MaxFileSize != 0 || r.FileType != nil || r.EnforceSignature || !r.Dimensions.IsZero() {
		t.Errorf("Expected empty rule set, got %+v", r)
	}
}

func TestForImages(t *testing.T) {
	v := ForImages().MustBuild()

	png := encodePNG(t, 4, 4)
	if err := v.ValidateBytes(png, "image/png"); err != nil {
		t.Errorf("Expected PNG to pass, got %v", err)
	}

	if err := v.ValidateBytes([]byte("%PDF-1.4"), "image/png"); !IsErrorOfType(err, ErrorTypeSignature) {
		t.Errorf("Expected signature error for disguised PDF, got %v", err)
	}

	if err := v.ValidateBytes(png, "application/pdf"); !IsErrorOfType(err, ErrorTypeMIME) {
		t.Errorf("Expected mime error for wrong declared type, got %v", err)
	}

	smaller := ForImages().MaxSize(10).MustBuild()
	if err := smaller.ValidateBytes(png, "image/png"); !IsErrorOfType(err, ErrorTypeSize) {
		t.Errorf("Expected size error after override, got %v", err)
	}
}

func TestForDocuments(t *testing.T) {
	v := ForDocuments().MustBuild()
	if err := v.ValidateBytes([]byte("%PDF-1.4"), "application/pdf"); err != nil {
		t.Errorf("Expected PDF to pass, got %v", err)
	}
	if err := v.ValidateBytes(pngMagic, "image/png"); !IsErrorOfType(err, ErrorTypeMIME) {
		t.Errorf("Expected mime error, got %v", err)
	}
}
