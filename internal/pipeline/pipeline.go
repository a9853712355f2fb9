package pipeline

import (
	"context"
	"fmt"
	"slices"

	"github.com/dunamismax/imagetools/internal/domain"
)

type Result struct {
	Output
	SourceBytes int
}

// Pipeline decodes, resizes, rotates and re-encodes one image per Run.
// It holds no per-request state and may be shared by many sessions.
type Pipeline struct {
	transformer Transformer
}

func New() (*Pipeline, error) {
	transformer, err := newTransformer()
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}
	return &Pipeline{transformer: transformer}, nil
}

func NewWithTransformer(t Transformer) *Pipeline {
	return &Pipeline{transformer: t}
}

// Runtime names the image backend compiled into this binary.
func Runtime() string {
	return runtimeName
}

// OutputFormats lists the formats the compiled runtime can encode.
func OutputFormats() []domain.OutputFormat {
	return slices.Clone(outputFormats)
}

func SupportsFormat(f domain.OutputFormat) bool {
	return slices.Contains(outputFormats, f)
}

func (p *Pipeline) Run(ctx context.Context, req domain.TransformRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	out, err := p.transformer.Transform(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("transform to %s: %w", req.OutputFormat, err)
	}

	return Result{Output: out, SourceBytes: len(req.Source)}, nil
}
