package filevalidator

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"regexp"
	"strconv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// ProbeImageDimensions reads the image header in data and reports its pixel
// size. It decodes only what image.DecodeConfig needs. Any failure, including
// truncated or non-image content, reports ok == false.
func ProbeImageDimensions(data []byte) (dims Dimensions, ok bool) {
	if len(data) == 0 {
		return Dimensions{}, false
	}

	// Third-party decoders may panic on hostile headers; probing is best-effort.
	defer func() {
		if recover() != nil {
			dims, ok = Dimensions{}, false
		}
	}()

	if looksLikeSVG(data) {
		return probeSVG(data)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return Dimensions{}, false
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, true
}

var (
	svgTagPattern     = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	svgWidthPattern   = regexp.MustCompile(`\swidth\s*=\s*["']\s*([0-9.]+)(px)?\s*["']`)
	svgHeightPattern  = regexp.MustCompile(`\sheight\s*=\s*["']\s*([0-9.]+)(px)?\s*["']`)
	svgViewBoxPattern = regexp.MustCompile(`\sviewBox\s*=\s*["']\s*[-0-9.]+[\s,]+[-0-9.]+[\s,]+([0-9.]+)[\s,]+([0-9.]+)\s*["']`)
)

// probeSVG takes width/height attributes of the root element, falling back to
// the viewBox, and scales a missing side by the viewBox aspect ratio.
func probeSVG(data []byte) (Dimensions, bool) {
	tag := svgTagPattern.Find(data[:min(len(data), 64*1024)])
	if tag == nil {
		return Dimensions{}, false
	}

	width := svgLength(svgWidthPattern, tag)
	height := svgLength(svgHeightPattern, tag)

	var vbWidth, vbHeight float64
	if m := svgViewBoxPattern.FindSubmatch(tag); m != nil {
		vbWidth, _ = strconv.ParseFloat(string(m[1]), 64)
		vbHeight, _ = strconv.ParseFloat(string(m[2]), 64)
	}

	switch {
	case width > 0 && height > 0:
	case width > 0 && vbWidth > 0 && vbHeight > 0:
		height = width * vbHeight / vbWidth
	case height > 0 && vbWidth > 0 && vbHeight > 0:
		width = height * vbWidth / vbHeight
	default:
		width, height = vbWidth, vbHeight
	}

	w, h := int(math.Round(width)), int(math.Round(height))
	if w <= 0 || h <= 0 {
		return Dimensions{}, false
	}
	return Dimensions{Width: w, Height: h}, true
}

func svgLength(p *regexp.Regexp, tag []byte) float64 {
	m := p.FindSubmatch(tag)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return 0
	}
	return v
}

// DimensionRule bounds image dimensions. Zero fields are unconstrained.
type DimensionRule struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
	MaxPixels int
}

// IsZero reports whether no bound is configured.
func (r DimensionRule) IsZero() bool {
	return r == DimensionRule{}
}

func (r DimensionRule) check(dims Dimensions, ok bool) *ValidationError {
	if r.IsZero() {
		return nil
	}
	if !ok {
		return &ValidationError{
			Type:    ErrorTypeDimensions,
			Message: "image dimensions could not be determined",
		}
	}

	fail := func(msg string, expected, actual int) *ValidationError {
		return &ValidationError{
			Type:     ErrorTypeDimensions,
			Message:  msg,
			Expected: strconv.Itoa(expected),
			Actual:   strconv.Itoa(actual),
		}
	}

	if r.MaxWidth > 0 && dims.Width > r.MaxWidth {
		return fail(fmt.Sprintf("image width %d exceeds maximum %d", dims.Width, r.MaxWidth), r.MaxWidth, dims.Width)
	}
	if r.MaxHeight > 0 && dims.Height > r.MaxHeight {
		return fail(fmt.Sprintf("image height %d exceeds maximum %d", dims.Height, r.MaxHeight), r.MaxHeight, dims.Height)
	}
	if r.MinWidth > 0 && dims.Width < r.MinWidth {
		return fail(fmt.Sprintf("image width %d below minimum %d", dims.Width, r.MinWidth), r.MinWidth, dims.Width)
	}
	if r.MinHeight > 0 && dims.Height < r.MinHeight {
		return fail(fmt.Sprintf("image height %d below minimum %d", dims.Height, r.MinHeight), r.MinHeight, dims.Height)
	}
	// decompression bomb protection
	if pixels := dims.Width * dims.Height; r.MaxPixels > 0 && pixels > r.MaxPixels {
		return fail(fmt.Sprintf("total pixels %d exceeds maximum %d", pixels, r.MaxPixels), r.MaxPixels, pixels)
	}
	return nil
}
