package filevalidator

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

// BenchmarkSniff benchmarks signature detection on a short header
func BenchmarkSniff(b *testing.B) {
	data := append(append([]byte(nil), pngMagic...), make([]byte, 504)...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sniff(data)
	}
}

// BenchmarkSniff_Unknown benchmarks the full table walk for unrecognised content
func BenchmarkSniff_Unknown(b *testing.B) {
	data := bytes.Repeat([]byte("lorem ipsum "), 400)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sniff(data)
	}
}

// BenchmarkProbeImageDimensions benchmarks header-only decoding of a large PNG
func BenchmarkProbeImageDimensions(b *testing.B) {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewGray(image.Rect(0, 0, 2000, 2000))); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ProbeImageDimensions(data)
	}
}

// BenchmarkValidate_Images benchmarks the image preset against a 1MB payload
func BenchmarkValidate_Images(b *testing.B) {
	v := ForImages().MustBuild()
	data := append(append([]byte(nil), pngMagic...), make([]byte, 1<<20)...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.ValidateBytes(data, "image/png")
	}
}
