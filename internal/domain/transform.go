package domain

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultQuality = 92
	MinQuality     = 1
	MaxQuality     = 100
)

// Size limits for sources and targets. A decoded NRGBA buffer is four bytes
// per pixel, so MaxPixels caps one working image at about 160 MiB.
const (
	MaxDimension = 16384
	MaxPixels    = 40_000_000
)

type OutputFormat string

const (
	FormatJPEG OutputFormat = "jpeg"
	FormatPNG  OutputFormat = "png"
	FormatWebP OutputFormat = "webp"
)

func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	default:
		return "", false
	}
}

func (f OutputFormat) Valid() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP:
		return true
	default:
		return false
	}
}

// Extension is the file extension used for download names.
func (f OutputFormat) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

func (f OutputFormat) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

func (f OutputFormat) Lossy() bool {
	return f == FormatJPEG || f == FormatWebP
}

type TransformRequest struct {
	Source          []byte
	TargetWidth     int
	TargetHeight    int
	RotationDegrees int
	OutputFormat    OutputFormat
	Quality         int
}

func (r TransformRequest) Validate() error {
	if len(r.Source) == 0 {
		return fmt.Errorf("%w: source image is required", ErrInvalidParameter)
	}
	if r.TargetWidth < 0 {
		return fmt.Errorf("%w: width must be >= 0, got %d", ErrInvalidParameter, r.TargetWidth)
	}
	if r.TargetHeight < 0 {
		return fmt.Errorf("%w: height must be >= 0, got %d", ErrInvalidParameter, r.TargetHeight)
	}
	if r.TargetWidth > MaxDimension || r.TargetHeight > MaxDimension {
		return fmt.Errorf("%w: width and height must be <= %d, got %dx%d", ErrInvalidParameter, MaxDimension, r.TargetWidth, r.TargetHeight)
	}
	if err := CheckPixels(r.TargetWidth, r.TargetHeight); err != nil {
		return fmt.Errorf("%w: target %w", ErrInvalidParameter, err)
	}
	if !ValidRotation(r.RotationDegrees) {
		return fmt.Errorf("%w: rotation must be one of 0, 90, 180, 270, got %d", ErrInvalidParameter, r.RotationDegrees)
	}
	if !r.OutputFormat.Valid() {
		return fmt.Errorf("%w: unsupported output format %q", ErrInvalidParameter, r.OutputFormat)
	}
	if r.Quality < MinQuality || r.Quality > MaxQuality {
		return fmt.Errorf("%w: quality must be in [%d, %d], got %d", ErrInvalidParameter, MinQuality, MaxQuality, r.Quality)
	}
	return nil
}

func ValidRotation(deg int) bool {
	return deg >= 0 && deg < 360 && deg%90 == 0
}

var errTooManyPixels = errors.New("exceeds pixel limit")

// CheckPixels reports whether a w x h image fits within MaxPixels. Zero
// axes are not checked here; callers resolve them against the source first.
func CheckPixels(w, h int) error {
	if w > MaxDimension || h > MaxDimension {
		return fmt.Errorf("%dx%d %w: axis above %d", w, h, errTooManyPixels, MaxDimension)
	}
	if int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%dx%d %w of %d", w, h, errTooManyPixels, MaxPixels)
	}
	return nil
}
