package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/dunamismax/imagetools/internal/domain"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

type Transformer interface {
	Transform(ctx context.Context, req domain.TransformRequest) (Output, error)
}

type Output struct {
	Data         []byte
	Format       domain.OutputFormat
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// resolveDimensions maps a zero target axis to the matching source axis.
// Each axis is resolved independently; aspect ratio is not preserved.
func resolveDimensions(srcW, srcH, targetW, targetH int) (int, int) {
	w, h := targetW, targetH
	if w == 0 {
		w = srcW
	}
	if h == 0 {
		h = srcH
	}
	return w, h
}

// checkSource reads only the image header and rejects sources whose decoded
// buffer would exceed domain.MaxPixels.
func checkSource(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return checkSourceSize(cfg.Width, cfg.Height)
}

func checkSourceSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: source image has invalid dimensions", domain.ErrDecode)
	}
	if err := domain.CheckPixels(w, h); err != nil {
		return fmt.Errorf("%w: source %w", domain.ErrDecode, err)
	}
	return nil
}

// checkTarget applies the pixel limit after zero axes took the source size.
func checkTarget(w, h int) error {
	if err := domain.CheckPixels(w, h); err != nil {
		return fmt.Errorf("%w: target %w", domain.ErrInvalidParameter, err)
	}
	return nil
}
