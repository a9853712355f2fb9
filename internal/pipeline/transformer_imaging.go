package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/dunamismax/imagetools/internal/domain"
)

var errWebPUnsupported = fmt.Errorf("%w: webp export requires the govips build", domain.ErrEncode)

// imagingTransformer is the pure Go transformer. It cannot encode WebP.
type imagingTransformer struct{}

func (t imagingTransformer) Transform(ctx context.Context, req domain.TransformRequest) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	if req.OutputFormat == domain.FormatWebP {
		return Output{}, errWebPUnsupported
	}
	if err := checkSource(req.Source); err != nil {
		return Output{}, err
	}

	src, err := imaging.Decode(bytes.NewReader(req.Source), imaging.AutoOrientation(true))
	if err != nil {
		return Output{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return Output{}, fmt.Errorf("%w: source image has invalid dimensions", domain.ErrDecode)
	}

	w, h := resolveDimensions(srcW, srcH, req.TargetWidth, req.TargetHeight)
	if err := checkTarget(w, h); err != nil {
		return Output{}, err
	}

	var out *image.NRGBA
	if w == srcW && h == srcH {
		out = imaging.Clone(src)
	} else {
		out = imaging.Resize(src, w, h, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	out = rotateClockwise(out, req.RotationDegrees)

	data, err := encodeImage(out, req.OutputFormat, req.Quality)
	if err != nil {
		return Output{}, err
	}

	b := out.Bounds()
	return Output{
		Data:         data,
		Format:       req.OutputFormat,
		Width:        b.Dx(),
		Height:       b.Dy(),
		SourceWidth:  srcW,
		SourceHeight: srcH,
	}, nil
}

// imaging rotates counter-clockwise.
func rotateClockwise(img *image.NRGBA, degrees int) *image.NRGBA {
	switch degrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img *image.NRGBA, format domain.OutputFormat, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case domain.FormatJPEG:
		b := img.Bounds()
		flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
		if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", domain.ErrEncode, err)
		}
	case domain.FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("%w: png: %v", domain.ErrEncode, err)
		}
	case domain.FormatWebP:
		return nil, errWebPUnsupported
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q", domain.ErrEncode, format)
	}

	return buf.Bytes(), nil
}
