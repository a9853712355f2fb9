//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/imagetools/internal/domain"
)

type govipsTransformer struct{}

func (t govipsTransformer) Transform(ctx context.Context, req domain.TransformRequest) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	if err := checkSource(req.Source); err != nil {
		return Output{}, err
	}

	img, err := vips.NewImageFromBuffer(req.Source)
	if err != nil {
		return Output{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	defer img.Close()

	if err := img.AutoRotate(); err != nil {
		return Output{}, fmt.Errorf("%w: auto-rotate: %v", domain.ErrDecode, err)
	}

	srcW, srcH := img.Width(), img.Height()
	if err := checkSourceSize(srcW, srcH); err != nil {
		return Output{}, err
	}

	w, h := resolveDimensions(srcW, srcH, req.TargetWidth, req.TargetHeight)
	if err := checkTarget(w, h); err != nil {
		return Output{}, err
	}
	if w != srcW || h != srcH {
		hScale := float64(w) / float64(srcW)
		vScale := float64(h) / float64(srcH)
		if err := img.ResizeWithVScale(hScale, vScale, vips.KernelLanczos3); err != nil {
			return Output{}, fmt.Errorf("resize image: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	if angle, ok := vipsAngle(req.RotationDegrees); ok {
		if err := img.Rotate(angle); err != nil {
			return Output{}, fmt.Errorf("rotate image: %w", err)
		}
	}

	data, err := exportGovipsImage(img, req.OutputFormat, req.Quality)
	if err != nil {
		return Output{}, err
	}

	return Output{
		Data:         data,
		Format:       req.OutputFormat,
		Width:        img.Width(),
		Height:       img.Height(),
		SourceWidth:  srcW,
		SourceHeight: srcH,
	}, nil
}

// libvips rotates clockwise.
func vipsAngle(degrees int) (vips.Angle, bool) {
	switch degrees {
	case 90:
		return vips.Angle90, true
	case 180:
		return vips.Angle180, true
	case 270:
		return vips.Angle270, true
	default:
		return vips.Angle0, false
	}
}

func exportGovipsImage(img *vips.ImageRef, format domain.OutputFormat, quality int) ([]byte, error) {
	switch format {
	case domain.FormatJPEG:
		if img.HasAlpha() {
			if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
				return nil, fmt.Errorf("%w: flatten alpha: %v", domain.ErrEncode, err)
			}
		}
		params := vips.NewJpegExportParams()
		params.Quality = quality
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("%w: jpeg: %v", domain.ErrEncode, err)
		}
		return data, nil
	case domain.FormatPNG:
		params := vips.NewPngExportParams()
		data, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("%w: png: %v", domain.ErrEncode, err)
		}
		return data, nil
	case domain.FormatWebP:
		params := vips.NewWebpExportParams()
		params.Quality = quality
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("%w: webp: %v", domain.ErrEncode, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: unsupported output format %q", domain.ErrEncode, format)
	}
}
