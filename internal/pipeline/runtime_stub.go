//go:build !govips || !cgo

package pipeline

import "github.com/dunamismax/imagetools/internal/domain"

const runtimeName = "imaging"

var outputFormats = []domain.OutputFormat{domain.FormatJPEG, domain.FormatPNG}

func Startup() error {
	return nil
}

func Shutdown() {}

func newTransformer() (Transformer, error) {
	return imagingTransformer{}, nil
}
