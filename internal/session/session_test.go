package session

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/dunamismax/imagetools/internal/pipeline"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeTools map[string]domain.ToolDescriptor

func (f fakeTools) GetBySlug(slug string) (domain.ToolDescriptor, error) {
	tool, ok := f[slug]
	if !ok {
		return domain.ToolDescriptor{}, fmt.Errorf("%w: tool %q", domain.ErrNotFound, slug)
	}
	return tool, nil
}

func testTools() fakeTools {
	tools := fakeTools{}
	for _, tool := range []domain.ToolDescriptor{
		{ID: "convert-001", Slug: "png-to-jpg", Name: "PNG to JPG", Category: "convert", Tier: domain.Tier1,
			Preset: domain.Preset{OutputFormat: domain.FormatJPEG}},
		{ID: "edit-001", Slug: "rotate-image", Name: "Rotate Image", Category: "edit", Tier: domain.Tier1,
			Preset: domain.Preset{RotationDegrees: 90}},
		{ID: "resize-001", Slug: "resize-image", Name: "Resize Image", Category: "resize", Tier: domain.Tier1},
		{ID: "compress-001", Slug: "compress-jpg-to-100kb", Name: "Compress JPG to 100KB", Category: "compress", Tier: domain.Tier2,
			Preset: domain.Preset{OutputFormat: domain.FormatJPEG, Quality: 60}},
	} {
		tools[tool.Slug] = tool
	}
	return tools
}

// fakeRunner records requests. When release is set, Run blocks until it is
// closed or ctx is done.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []domain.TransformRequest
	err     error
	started chan struct{}
	release chan struct{}
}

func newBlockingRunner() *fakeRunner {
	return &fakeRunner{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (f *fakeRunner) Run(ctx context.Context, req domain.TransformRequest) (pipeline.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	err := f.err
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return pipeline.Result{}, ctx.Err()
		}
	}
	if err != nil {
		return pipeline.Result{}, err
	}

	return pipeline.Result{
		Output: pipeline.Output{
			Data:   []byte("transformed"),
			Format: req.OutputFormat,
			Width:  10,
			Height: 10,
		},
		SourceBytes: len(req.Source),
	}, nil
}

func (f *fakeRunner) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeRunner) requests() []domain.TransformRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.TransformRequest(nil), f.calls...)
}

// panicRunner panics on every call.
type panicRunner struct{}

func (panicRunner) Run(context.Context, domain.TransformRequest) (pipeline.Result, error) {
	panic("decoder exploded")
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestManager(t *testing.T, runner Runner, cfg Config) *Manager {
	t.Helper()
	m := NewManager(discardLogger(), testTools(), runner, cfg)
	t.Cleanup(m.Close)
	return m
}

func openSession(t *testing.T, m *Manager, slug string) *Controller {
	t.Helper()
	c, err := m.Open(slug)
	require.NoError(t, err)
	return c
}

func uploadPNG(t *testing.T, c *Controller, w, h int) {
	t.Helper()
	_, err := c.Upload(Upload{Filename: "photo.png", DeclaredType: "image/png", Data: testPNG(t, w, h)})
	require.NoError(t, err)
}

func testPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

func intPtr(v int) *int {
	return &v
}
