package session

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"testing"
	"time"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/dunamismax/imagetools/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadMovesIdleToUploaded(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})
	c := openSession(t, m, "resize-image")

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, "resize-image", snap.ToolSlug)

	data := testPNG(t, 8, 8)
	snap, err = c.Upload(Upload{Filename: "a.png", DeclaredType: "image/png", Data: data})
	require.NoError(t, err)
	assert.Equal(t, StateUploaded, snap.State)
	require.NotNil(t, snap.Upload)
	assert.Equal(t, "a.png", snap.Upload.Filename)
	assert.Equal(t, "image/png", snap.Upload.ContentType)
	assert.Equal(t, len(data), snap.Upload.Bytes)

	_, err = c.Upload(Upload{Filename: "b.png", DeclaredType: "image/png", Data: data})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name     string
		upload   func(t *testing.T) Upload
		maxBytes int64
		tooLarge bool
	}{
		{
			name: "declared type outside allowlist",
			upload: func(t *testing.T) Upload {
				return Upload{Filename: "doc.pdf", DeclaredType: "application/pdf", Data: testPNG(t, 4, 4)}
			},
		},
		{
			name: "content does not match an image",
			upload: func(t *testing.T) Upload {
				return Upload{Filename: "fake.png", DeclaredType: "image/png", Data: []byte("definitely not an image")}
			},
		},
		{
			name: "empty file",
			upload: func(t *testing.T) Upload {
				return Upload{Filename: "empty.png", DeclaredType: "image/png"}
			},
		},
		{
			name: "over the size ceiling",
			upload: func(t *testing.T) Upload {
				return Upload{Filename: "big.png", DeclaredType: "image/png", Data: testPNG(t, 64, 64)}
			},
			maxBytes: 32,
			tooLarge: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, &fakeRunner{}, Config{MaxUploadBytes: tt.maxBytes})
			c := openSession(t, m, "resize-image")

			snap, err := c.Upload(tt.upload(t))
			require.ErrorIs(t, err, domain.ErrUploadRejected)
			if tt.tooLarge {
				assert.ErrorIs(t, err, domain.ErrUploadTooLarge)
			}
			assert.Equal(t, StateIdle, snap.State)
			assert.Nil(t, snap.Upload)
		})
	}
}

func TestUploadAcceptsUndeclaredAndAliasedTypes(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})

	c := openSession(t, m, "resize-image")
	snap, err := c.Upload(Upload{Filename: "noext", Data: testPNG(t, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", snap.Upload.ContentType)

	c = openSession(t, m, "resize-image")
	snap, err = c.Upload(Upload{Filename: "photo.jpg", DeclaredType: "image/jpg", Data: testJPEG(t, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", snap.Upload.ContentType)

	c = openSession(t, m, "resize-image")
	snap, err = c.Upload(Upload{Filename: "blob", DeclaredType: "application/octet-stream", Data: testPNG(t, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, "image/png", snap.Upload.ContentType)
}

func TestProcessWithPipelineProducesDownload(t *testing.T) {
	p, err := pipeline.New()
	require.NoError(t, err)

	m := newTestManager(t, p, Config{})
	c := openSession(t, m, "png-to-jpg")
	uploadPNG(t, c, 500, 300)

	snap, err := c.Process(context.Background(), Params{Width: intPtr(250), Height: intPtr(150)})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 250, snap.Result.Width)
	assert.Equal(t, 150, snap.Result.Height)
	assert.Equal(t, 500, snap.Result.SourceWidth)
	assert.Equal(t, "png-to-jpg.jpg", snap.Result.Filename)

	artifact, err := c.Download()
	require.NoError(t, err)
	assert.Equal(t, "png-to-jpg.jpg", artifact.Filename)
	assert.Equal(t, "image/jpeg", artifact.ContentType)

	img, err := jpeg.Decode(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	assert.Equal(t, 250, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())

	again, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, again.State)
}

func TestProcessInvalidParameterReturnsToUploaded(t *testing.T) {
	p, err := pipeline.New()
	require.NoError(t, err)

	m := newTestManager(t, p, Config{})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 20, 20)

	snap, err := c.Process(context.Background(), Params{Format: "gif"})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, StateUploaded, snap.State)
	assert.NotEmpty(t, snap.LastError)

	snap, err = c.Process(context.Background(), Params{Rotation: intPtr(45)})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, StateUploaded, snap.State)

	snap, err = c.Process(context.Background(), Params{Width: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
	assert.Empty(t, snap.LastError)
}

func TestProcessOversizedTargetReturnsToUploaded(t *testing.T) {
	p, err := pipeline.New()
	require.NoError(t, err)

	m := newTestManager(t, p, Config{})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 20, 20)

	snap, err := c.Process(context.Background(), Params{Width: intPtr(1 << 40), Height: intPtr(1 << 40)})
	require.ErrorIs(t, err, domain.ErrInvalidParameter)
	assert.Equal(t, StateUploaded, snap.State)
	assert.NotEmpty(t, snap.LastError)
}

func TestProcessRecoversFromRunnerPanic(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := newTestManager(t, panicRunner{}, Config{MaxActiveTransforms: 1})
	m.env.now = clock.Now
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 8, 8)

	snap, err := c.Process(context.Background(), Params{})
	require.ErrorIs(t, err, domain.ErrDecode)
	assert.Equal(t, StateUploaded, snap.State)
	assert.Contains(t, snap.LastError, "panicked")
	assert.Empty(t, m.env.slots, "slot must be released")

	// A second attempt is not rejected as busy and can take the only slot.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = c.Process(ctx, Params{})
	require.ErrorIs(t, err, domain.ErrDecode)
	assert.NotErrorIs(t, err, domain.ErrSessionBusy)

	clock.Advance(DefaultSessionTTL + time.Minute)
	assert.True(t, c.expired(clock.Now(), DefaultSessionTTL))
}

func TestProcessKeepsUploadedFormatWithoutPreset(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(t, runner, Config{})

	c := openSession(t, m, "resize-image")
	_, err := c.Upload(Upload{Filename: "photo.jpg", DeclaredType: "image/jpeg", Data: testJPEG(t, 8, 8)})
	require.NoError(t, err)
	snap, err := c.Process(context.Background(), Params{})
	require.NoError(t, err)
	assert.Equal(t, "resize-image.jpg", snap.Result.Filename)

	assert.Equal(t, domain.FormatJPEG, keepFormat(&UploadInfo{ContentType: "image/jpeg"}))
	assert.Equal(t, domain.FormatPNG, keepFormat(&UploadInfo{ContentType: "image/gif"}))
	assert.Equal(t, domain.FormatPNG, keepFormat(&UploadInfo{ContentType: "image/bmp"}))
	assert.Equal(t, domain.FormatPNG, keepFormat(nil))
	if pipeline.SupportsFormat(domain.FormatWebP) {
		assert.Equal(t, domain.FormatWebP, keepFormat(&UploadInfo{ContentType: "image/webp"}))
	} else {
		assert.Equal(t, domain.FormatPNG, keepFormat(&UploadInfo{ContentType: "image/webp"}))
	}

	reqs := runner.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, domain.FormatJPEG, reqs[0].OutputFormat)
}

func TestProcessFailureKeepsUploadForRetry(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("transform to png: %w", domain.ErrDecode)}
	m := newTestManager(t, runner, Config{})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 8, 8)

	snap, err := c.Process(context.Background(), Params{})
	require.ErrorIs(t, err, domain.ErrDecode)
	assert.Equal(t, StateUploaded, snap.State)
	assert.Contains(t, snap.LastError, "decode")
	require.NotNil(t, snap.Upload)

	runner.setErr(nil)
	snap, err = c.Process(context.Background(), Params{})
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
	assert.Len(t, runner.requests(), 2)
}

func TestProcessStateGuards(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})
	c := openSession(t, m, "resize-image")

	_, err := c.Process(context.Background(), Params{})
	assert.ErrorIs(t, err, domain.ErrNoImage)

	_, err = c.Download()
	assert.ErrorIs(t, err, domain.ErrNoResult)

	_, err = c.ChangeImage()
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	uploadPNG(t, c, 8, 8)
	_, err = c.Download()
	assert.ErrorIs(t, err, domain.ErrNoResult)

	_, err = c.Process(context.Background(), Params{})
	require.NoError(t, err)

	_, err = c.Process(context.Background(), Params{})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestProcessMergesToolPreset(t *testing.T) {
	runner := &fakeRunner{}
	m := newTestManager(t, runner, Config{})

	compress := openSession(t, m, "compress-jpg-to-100kb")
	uploadPNG(t, compress, 8, 8)
	_, err := compress.Process(context.Background(), Params{})
	require.NoError(t, err)

	resize := openSession(t, m, "resize-image")
	uploadPNG(t, resize, 8, 8)
	_, err = resize.Process(context.Background(), Params{})
	require.NoError(t, err)

	rotate := openSession(t, m, "rotate-image")
	uploadPNG(t, rotate, 8, 8)
	_, err = rotate.Process(context.Background(), Params{})
	require.NoError(t, err)

	override := openSession(t, m, "compress-jpg-to-100kb")
	uploadPNG(t, override, 8, 8)
	_, err = override.Process(context.Background(), Params{
		Width:    intPtr(100),
		Rotation: intPtr(180),
		Format:   "PNG",
		Quality:  intPtr(80),
	})
	require.NoError(t, err)

	reqs := runner.requests()
	require.Len(t, reqs, 4)

	assert.Equal(t, domain.FormatJPEG, reqs[0].OutputFormat)
	assert.Equal(t, 60, reqs[0].Quality)

	assert.Equal(t, domain.FormatPNG, reqs[1].OutputFormat)
	assert.Equal(t, domain.DefaultQuality, reqs[1].Quality)
	assert.Zero(t, reqs[1].TargetWidth)
	assert.Zero(t, reqs[1].RotationDegrees)

	assert.Equal(t, 90, reqs[2].RotationDegrees)

	assert.Equal(t, domain.FormatPNG, reqs[3].OutputFormat)
	assert.Equal(t, 80, reqs[3].Quality)
	assert.Equal(t, 100, reqs[3].TargetWidth)
	assert.Equal(t, 180, reqs[3].RotationDegrees)
}

func TestProcessWhileProcessingIsRejected(t *testing.T) {
	runner := newBlockingRunner()
	m := newTestManager(t, runner, Config{})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 8, 8)

	done := make(chan error, 1)
	go func() {
		_, err := c.Process(context.Background(), Params{})
		done <- err
	}()
	<-runner.started

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, snap.State)

	_, err = c.Process(context.Background(), Params{})
	assert.ErrorIs(t, err, domain.ErrSessionBusy)

	close(runner.release)
	require.NoError(t, <-done)

	snap, err = c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, snap.State)
	assert.Len(t, runner.requests(), 1)
}

func TestChangeImageDuringProcessingDiscardsResult(t *testing.T) {
	runner := newBlockingRunner()
	m := newTestManager(t, runner, Config{})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 8, 8)

	done := make(chan error, 1)
	go func() {
		_, err := c.Process(context.Background(), Params{})
		done <- err
	}()
	<-runner.started

	snap, err := c.ChangeImage()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Upload)

	close(runner.release)
	assert.ErrorIs(t, <-done, domain.ErrSuperseded)

	snap, err = c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Result)

	_, err = c.Download()
	assert.ErrorIs(t, err, domain.ErrNoResult)
}

func TestStartOverCancelsInFlightTransform(t *testing.T) {
	runner := newBlockingRunner()
	m := newTestManager(t, runner, Config{MaxActiveTransforms: 1})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 8, 8)

	done := make(chan error, 1)
	go func() {
		_, err := c.Process(context.Background(), Params{})
		done <- err
	}()
	<-runner.started

	_, err := c.StartOver()
	require.NoError(t, err)

	// release is never closed: only cancellation lets the runner return.
	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded transform kept running")
	}
	assert.Empty(t, m.env.slots)

	other := openSession(t, m, "resize-image")
	uploadPNG(t, other, 8, 8)
	go func() {
		_, err := other.Process(context.Background(), Params{})
		done <- err
	}()
	<-runner.started
	close(runner.release)
	require.NoError(t, <-done)
}

func TestStartOverFromAnyState(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})
	c := openSession(t, m, "resize-image")

	snap, err := c.StartOver()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)

	uploadPNG(t, c, 8, 8)
	_, err = c.Process(context.Background(), Params{})
	require.NoError(t, err)

	snap, err = c.StartOver()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Nil(t, snap.Upload)
	assert.Nil(t, snap.Result)

	_, err = c.Download()
	assert.ErrorIs(t, err, domain.ErrNoResult)

	uploadPNG(t, c, 8, 8)
	snap, err = c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, StateUploaded, snap.State)
}

func TestTransformSlotsAreShared(t *testing.T) {
	runner := newBlockingRunner()
	m := newTestManager(t, runner, Config{MaxActiveTransforms: 1})

	first := openSession(t, m, "resize-image")
	uploadPNG(t, first, 8, 8)
	second := openSession(t, m, "resize-image")
	uploadPNG(t, second, 8, 8)

	done := make(chan error, 1)
	go func() {
		_, err := first.Process(context.Background(), Params{})
		done <- err
	}()
	<-runner.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	snap, err := second.Process(ctx, Params{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateUploaded, snap.State)
	assert.NotEmpty(t, snap.LastError)
	assert.Len(t, runner.requests(), 1)

	close(runner.release)
	require.NoError(t, <-done)
}

func TestClosedControllerRejectsEverything(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})
	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 8, 8)

	c.Close()
	c.Close()

	_, err := c.Snapshot()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.Upload(Upload{Data: testPNG(t, 2, 2)})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.Process(context.Background(), Params{})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.ChangeImage()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.StartOver()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
	_, err = c.Download()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestUsageFor(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	usage := usageFor("s-1", "resize-image", pipeline.Result{
		Output:      pipeline.Output{Data: make([]byte, 300), Width: 10, Height: 20},
		SourceBytes: 1_000,
	}, 250*time.Millisecond, now)

	assert.Equal(t, "s-1", usage.SessionID)
	assert.Equal(t, "resize-image", usage.ToolSlug)
	assert.Equal(t, int64(200), usage.PixelsProcessed)
	assert.Equal(t, int64(700), usage.BytesSaved)
	assert.Equal(t, int64(250), usage.ComputeTimeMS)
	assert.Equal(t, now, usage.CreatedAt)

	grown := usageFor("s-1", "resize-image", pipeline.Result{
		Output:      pipeline.Output{Data: make([]byte, 2_000)},
		SourceBytes: 1_000,
	}, 0, now)
	assert.Zero(t, grown.BytesSaved)
	assert.Equal(t, int64(1), grown.ComputeTimeMS)
}
