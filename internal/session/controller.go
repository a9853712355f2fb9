package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/dunamismax/imagetools/internal/pipeline"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type State string

const (
	StateIdle       State = "idle"
	StateUploaded   State = "uploaded"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
)

const fallbackFormat = domain.FormatPNG

// Runner executes one transform. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req domain.TransformRequest) (pipeline.Result, error)
}

// Params are the user-chosen transform settings. Nil fields fall back to the
// tool preset.
type Params struct {
	Width    *int   `json:"width,omitempty"`
	Height   *int   `json:"height,omitempty"`
	Rotation *int   `json:"rotation,omitempty"`
	Format   string `json:"format,omitempty"`
	Quality  *int   `json:"quality,omitempty"`
}

// Artifact is a finished file ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

type UploadInfo struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
}

type ResultInfo struct {
	Filename     string `json:"filename"`
	Format       string `json:"format"`
	ContentType  string `json:"content_type"`
	Bytes        int    `json:"bytes"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
}

// Snapshot is a point-in-time copy of a controller's observable state.
type Snapshot struct {
	ID        string      `json:"id"`
	ToolSlug  string      `json:"tool_slug"`
	State     State       `json:"state"`
	Upload    *UploadInfo `json:"upload,omitempty"`
	Result    *ResultInfo `json:"result,omitempty"`
	LastError string      `json:"last_error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// env is shared by every controller a Manager creates.
type env struct {
	runner         Runner
	slots          chan struct{}
	metrics        *metrics
	tracer         trace.Tracer
	logger         logrus.FieldLogger
	maxUploadBytes int64
	now            func() time.Time
}

func (e *env) acquire(ctx context.Context) error {
	select {
	case e.slots <- struct{}{}:
		e.metrics.activeTransforms.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *env) release() {
	<-e.slots
	e.metrics.activeTransforms.Dec()
}

// Controller is the state machine behind one tool page visit:
// idle -> uploaded -> processing -> completed, with changeImage and
// startOver leading back to idle.
//
// Every mutation bumps generation. A transform started under an older
// generation has its result discarded.
type Controller struct {
	id     string
	tool   domain.ToolDescriptor
	env    *env
	logger logrus.FieldLogger

	mu         sync.Mutex
	state      State
	generation uint64
	closed     bool
	source     []byte
	upload     *UploadInfo
	result     *pipeline.Result
	lastErr    string
	lastActive time.Time
	cancelRun  context.CancelFunc
}

func newController(id string, tool domain.ToolDescriptor, e *env) *Controller {
	return &Controller{
		id:   id,
		tool: tool,
		env:  e,
		logger: e.logger.WithFields(logrus.Fields{
			"session_id": id,
			"tool":       tool.Slug,
		}),
		state:      StateIdle,
		lastActive: e.now(),
	}
}

func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) Tool() domain.ToolDescriptor {
	return c.tool.Clone()
}

// Upload stores a validated image. Allowed only from idle.
func (c *Controller) Upload(u Upload) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, domain.ErrSessionClosed
	}
	if c.state != StateIdle {
		return c.snapshotLocked(), fmt.Errorf("%w: upload requires idle, session is %s", domain.ErrInvalidState, c.state)
	}

	contentType, reason, err := validateUpload(u, c.env.maxUploadBytes)
	if err != nil {
		c.env.metrics.uploadsRejectedTotal.WithLabelValues(reason).Inc()
		c.logger.WithError(err).WithField("filename", u.Filename).Warn("upload rejected")
		return c.snapshotLocked(), err
	}

	c.generation++
	c.source = u.Data
	c.upload = &UploadInfo{
		Filename:    u.Filename,
		ContentType: contentType,
		Bytes:       len(u.Data),
	}
	c.result = nil
	c.lastErr = ""
	c.state = StateUploaded
	c.touchLocked()

	c.logger.WithFields(logrus.Fields{
		"content_type": contentType,
		"bytes":        len(u.Data),
	}).Debug("image uploaded")
	return c.snapshotLocked(), nil
}

// ChangeImage drops the current image and result and returns to idle.
func (c *Controller) ChangeImage() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, domain.ErrSessionClosed
	}
	if c.state == StateIdle {
		return c.snapshotLocked(), fmt.Errorf("%w: no image to change", domain.ErrInvalidState)
	}

	c.resetLocked()
	return c.snapshotLocked(), nil
}

// StartOver returns to idle from any state.
func (c *Controller) StartOver() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, domain.ErrSessionClosed
	}

	c.resetLocked()
	return c.snapshotLocked(), nil
}

// Process runs the pipeline on the uploaded image. The transform itself runs
// without holding the controller lock so Snapshot, ChangeImage and StartOver
// stay responsive.
func (c *Controller) Process(ctx context.Context, params Params) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, domain.ErrSessionClosed
	}
	switch c.state {
	case StateProcessing:
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, domain.ErrSessionBusy
	case StateIdle:
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, domain.ErrNoImage
	case StateCompleted:
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, fmt.Errorf("%w: result already produced, start over or change image", domain.ErrInvalidState)
	}

	req := c.buildRequest(params)
	generation := c.generation
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelRun = cancel
	c.state = StateProcessing
	c.lastErr = ""
	c.touchLocked()
	c.mu.Unlock()

	result, err := c.transform(runCtx, req)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, fmt.Errorf("%w: session closed during transform", domain.ErrSuperseded)
	}
	if c.generation != generation {
		c.logger.Debug("discarding superseded transform result")
		return c.snapshotLocked(), domain.ErrSuperseded
	}

	c.cancelRun = nil
	c.touchLocked()
	if err != nil {
		c.state = StateUploaded
		c.lastErr = err.Error()
		return c.snapshotLocked(), err
	}

	c.generation++
	c.result = &result
	c.state = StateCompleted
	return c.snapshotLocked(), nil
}

// Download returns the finished artifact. Allowed only from completed.
func (c *Controller) Download() (Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Artifact{}, domain.ErrSessionClosed
	}
	if c.state != StateCompleted || c.result == nil {
		return Artifact{}, domain.ErrNoResult
	}

	c.touchLocked()
	return Artifact{
		Filename:    artifactFilename(c.tool.Slug, c.result.Format),
		ContentType: c.result.Format.ContentType(),
		Data:        c.result.Data,
	}, nil
}

func (c *Controller) Snapshot() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Snapshot{}, domain.ErrSessionClosed
	}
	return c.snapshotLocked(), nil
}

// Close discards all session data. In-flight work is superseded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.resetLocked()
	c.closed = true
}

func (c *Controller) expired(now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state == StateProcessing {
		return false
	}
	return now.Sub(c.lastActive) > ttl
}

func (c *Controller) transform(ctx context.Context, req domain.TransformRequest) (pipeline.Result, error) {
	startedAt := time.Now()
	format := metricFormat(req.OutputFormat)
	outcome := "failed"

	ctx, span := c.env.tracer.Start(ctx, "session.process", trace.WithAttributes(
		attribute.String("session.id", c.id),
		attribute.String("tool.slug", c.tool.Slug),
		attribute.String("transform.format", format),
		attribute.Int("transform.width", req.TargetWidth),
		attribute.Int("transform.height", req.TargetHeight),
		attribute.Int("transform.rotation", req.RotationDegrees),
		attribute.Int("transform.source_bytes", len(req.Source)),
	))
	defer span.End()
	defer func() {
		c.env.metrics.transformDuration.WithLabelValues(format, outcome).Observe(time.Since(startedAt).Seconds())
		c.env.metrics.transformsTotal.WithLabelValues(format, outcome).Inc()
	}()

	if err := c.env.acquire(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no processing slot")
		return pipeline.Result{}, fmt.Errorf("wait for processing slot: %w", err)
	}
	defer c.env.release()

	result, err := c.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transform failed")
		c.logger.WithError(err).Warn("transform failed")
		return pipeline.Result{}, err
	}

	outcome = "succeeded"
	span.SetAttributes(attribute.Int("transform.output_bytes", len(result.Data)))
	span.SetStatus(codes.Ok, "processed")

	usage := usageFor(c.id, c.tool.Slug, result, time.Since(startedAt), c.env.now())
	c.env.metrics.recordUsage(usage)
	c.logger.WithFields(logrus.Fields{
		"format":      result.Format,
		"width":       result.Width,
		"height":      result.Height,
		"bytes":       len(result.Data),
		"bytes_saved": usage.BytesSaved,
		"compute_ms":  usage.ComputeTimeMS,
	}).Info("Processed image")
	return result, nil
}

// run calls the runner and turns a panic into an error so the session can
// leave the processing state.
func (c *Controller) run(ctx context.Context, req domain.TransformRequest) (result pipeline.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("transform panicked")
			err = fmt.Errorf("%w: transform panicked: %v", domain.ErrDecode, r)
		}
	}()
	return c.env.runner.Run(ctx, req)
}

// buildRequest merges params over the tool preset.
func (c *Controller) buildRequest(params Params) domain.TransformRequest {
	preset := c.tool.Preset

	req := domain.TransformRequest{
		Source:          c.source,
		TargetWidth:     preset.Width,
		TargetHeight:    preset.Height,
		RotationDegrees: preset.RotationDegrees,
		OutputFormat:    preset.OutputFormat,
		Quality:         preset.Quality,
	}
	if params.Width != nil {
		req.TargetWidth = *params.Width
	}
	if params.Height != nil {
		req.TargetHeight = *params.Height
	}
	if params.Rotation != nil {
		req.RotationDegrees = *params.Rotation
	}
	if raw := strings.TrimSpace(params.Format); raw != "" {
		if format, ok := domain.ParseOutputFormat(raw); ok {
			req.OutputFormat = format
		} else {
			// Left invalid so validation reports it.
			req.OutputFormat = domain.OutputFormat(raw)
		}
	}
	if req.OutputFormat == "" {
		req.OutputFormat = keepFormat(c.upload)
	}
	if params.Quality != nil {
		req.Quality = *params.Quality
	}
	if params.Quality == nil && req.Quality == 0 {
		req.Quality = domain.DefaultQuality
	}
	return req
}

// keepFormat picks the uploaded image's own format when the runtime can
// encode it, otherwise png.
func keepFormat(upload *UploadInfo) domain.OutputFormat {
	if upload == nil {
		return fallbackFormat
	}
	f, ok := domain.ParseOutputFormat(strings.TrimPrefix(upload.ContentType, "image/"))
	if !ok || !pipeline.SupportsFormat(f) {
		return fallbackFormat
	}
	return f
}

func (c *Controller) resetLocked() {
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	c.generation++
	c.source = nil
	c.upload = nil
	c.result = nil
	c.lastErr = ""
	c.state = StateIdle
	c.touchLocked()
}

func (c *Controller) touchLocked() {
	c.lastActive = c.env.now()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        c.id,
		ToolSlug:  c.tool.Slug,
		State:     c.state,
		LastError: c.lastErr,
		UpdatedAt: c.lastActive,
	}
	if c.upload != nil {
		upload := *c.upload
		snap.Upload = &upload
	}
	if c.result != nil {
		snap.Result = &ResultInfo{
			Filename:     artifactFilename(c.tool.Slug, c.result.Format),
			Format:       string(c.result.Format),
			ContentType:  c.result.Format.ContentType(),
			Bytes:        len(c.result.Data),
			Width:        c.result.Width,
			Height:       c.result.Height,
			SourceWidth:  c.result.SourceWidth,
			SourceHeight: c.result.SourceHeight,
		}
	}
	return snap
}

func artifactFilename(slug string, format domain.OutputFormat) string {
	return slug + "." + format.Extension()
}

func metricFormat(format domain.OutputFormat) string {
	if !format.Valid() {
		return "invalid"
	}
	return string(format)
}
