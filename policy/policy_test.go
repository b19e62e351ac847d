package policy

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gobeaver/uploadkit/filevalidator"
)

const sampleYAML = `
policies:
  avatars:
    preset: images
    maxFileSize: 2 MiB
    dimensions:
      maxWidth: 64
      maxHeight: 64
  scans:
    maxFileSize: 20971520
    fileType: application/pdf
    allowedSignature: application/pdf
  loose:
    preset: images
    enforceSignature: false
  raw:
    fileType: "/^application\\/(octet-stream|x-binary)$/"
`

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	cat, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := cat.Names(); !reflect.DeepEqual(got, []string{"avatars", "loose", "raw", "scans"}) {
		t.Errorf("Unexpected names %v", got)
	}

	avatars, ok := cat.Lookup("avatars")
	if !ok {
		t.Fatal("Expected avatars policy")
	}
	rules := avatars.Rules()
	if rules.MaxFileSize != 2*filevalidator.MB {
		t.Errorf("Expected 2 MiB, got %d", rules.MaxFileSize)
	}
	if !rules.EnforceSignature || rules.AllowedSignature == nil {
		t.Error("Expected the images preset to enforce signatures")
	}
	if err := avatars.ValidateBytes(pngOf(t, 32, 32), "image/png"); err != nil {
		t.Errorf("Expected small avatar to pass, got %v", err)
	}
	if err := avatars.ValidateBytes(pngOf(t, 65, 10), "image/png"); !filevalidator.IsErrorOfType(err, filevalidator.ErrorTypeDimensions) {
		t.Errorf("Expected dimension failure, got %v", err)
	}

	scans, _ := cat.Lookup("scans")
	if r := scans.Rules(); !r.EnforceSignature || r.MaxFileSize != 20*filevalidator.MB {
		t.Errorf("Expected allowedSignature to imply enforcement, got %+v", r)
	}

	loose, _ := cat.Lookup("loose")
	if loose.Rules().EnforceSignature {
		t.Error("Expected explicit enforceSignature: false to override the preset")
	}

	raw, _ := cat.Lookup("raw")
	if err := raw.ValidateBytes([]byte{1}, "application/x-binary"); err != nil {
		t.Errorf("Expected regexp pattern to match, got %v", err)
	}

	if _, ok := cat.Lookup("missing"); ok {
		t.Error("Expected unknown policy lookup to fail")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"not yaml", "policies: [", "parse policies"},
		{"empty", "policies: {}", "no policies"},
		{"unknown preset", "policies:\n  a:\n    preset: videos\n", `policy "a": unknown preset`},
		{"bad size", "policies:\n  a:\n    maxFileSize: lots\n", "line 3"},
		{"bad pattern", "policies:\n  a:\n    fileType: \"/(/\"\n", `policy "a": fileType`},
		{"enforce without target", "policies:\n  a:\n    enforceSignature: true\n", `policy "a"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuiltin(t *testing.T) {
	cat := Builtin()
	if got := cat.Names(); !reflect.DeepEqual(got, []string{"any", "documents", "images"}) {
		t.Errorf("Unexpected builtin names %v", got)
	}
	anyPolicy, _ := cat.Lookup("any")
	if err := anyPolicy.ValidateBytes([]byte("whatever"), ""); err != nil {
		t.Errorf("Expected 'any' to accept everything, got %v", err)
	}
	images, _ := cat.Lookup("images")
	if err := images.ValidateBytes([]byte("%PDF-1.4"), "image/png"); err == nil {
		t.Error("Expected 'images' to reject a PDF")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	cat, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cat.Len() != 4 {
		t.Errorf("Expected 4 policies, got %d", cat.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
