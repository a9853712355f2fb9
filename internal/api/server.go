package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dunamismax/imagetools/internal/catalog"
	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/dunamismax/imagetools/internal/pipeline"
	"github.com/dunamismax/imagetools/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

const (
	uploadField       = "image"
	multipartOverhead = 1 << 20
)

var errMissingUploadField = fmt.Errorf("multipart field %q is required", uploadField)

type Options struct {
	RateLimiter           RateLimiter
	RateLimitUserIDHeader string
	Tracer                trace.Tracer
	Gatherers             []prometheus.Gatherer
}

type Server struct {
	logger                logrus.FieldLogger
	catalog               *catalog.Registry
	sessions              *session.Manager
	rateLimiter           RateLimiter
	rateLimitUserIDHeader string
	tracer                trace.Tracer
	metrics               *metrics
	gatherers             prometheus.Gatherers
	mux                   *http.ServeMux
}

func NewServer(logger logrus.FieldLogger, registry *catalog.Registry, sessions *session.Manager, opts Options) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if strings.TrimSpace(opts.RateLimitUserIDHeader) == "" {
		opts.RateLimitUserIDHeader = "X-User-ID"
	}

	m := newMetrics()
	gatherers := prometheus.Gatherers{m.registry, sessions.Gatherer()}
	gatherers = append(gatherers, opts.Gatherers...)

	s := &Server{
		logger:                logger,
		catalog:               registry,
		sessions:              sessions,
		rateLimiter:           opts.RateLimiter,
		rateLimitUserIDHeader: opts.RateLimitUserIDHeader,
		tracer:                opts.Tracer,
		metrics:               m,
		gatherers:             gatherers,
		mux:                   http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.withTracing(s.metrics.withHTTPMetrics(s.withRequestLogging(s.withRateLimit(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherers, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("GET /v1/categories", s.handleListCategories)
	s.mux.HandleFunc("GET /v1/tools", s.handleListTools)
	s.mux.HandleFunc("GET /v1/tools/{slug}", s.handleGetTool)
	s.mux.HandleFunc("POST /v1/tools/{slug}/sessions", s.handleOpenSession)

	s.mux.HandleFunc("GET /v1/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /v1/sessions/{id}", s.handleDestroySession)
	s.mux.HandleFunc("POST /v1/sessions/{id}/image", s.handleUploadImage)
	s.mux.HandleFunc("DELETE /v1/sessions/{id}/image", s.handleChangeImage)
	s.mux.HandleFunc("POST /v1/sessions/{id}/process", s.handleProcess)
	s.mux.HandleFunc("GET /v1/sessions/{id}/download", s.handleDownload)
	s.mux.HandleFunc("POST /v1/sessions/{id}/reset", s.handleStartOver)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type categoryResponse struct {
	domain.CategoryDescriptor
	Style     domain.StyleVariant `json:"style"`
	ToolCount int                 `json:"tool_count"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	categories := s.catalog.Categories()
	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			CategoryDescriptor: c,
			Style:              c.Color.Style(),
			ToolCount:          s.catalog.CountByCategory(c.ID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": out})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	categoryID := strings.TrimSpace(query.Get("category"))
	q := query.Get("q")

	tier, ok := domain.ParseTier(query.Get("tier"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown tier %q", query.Get("tier"))})
		return
	}
	if categoryID != "" {
		if _, err := s.catalog.Category(categoryID); err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
	}

	var tools []domain.ToolDescriptor
	switch {
	case strings.TrimSpace(q) != "":
		tools = s.catalog.Search(q)
		if categoryID != "" {
			tools = inCategory(tools, categoryID)
		}
	case categoryID != "":
		tools = s.catalog.ListByCategory(categoryID)
	default:
		tools = s.catalog.Tools()
	}
	tools = catalog.FilterByTier(tools, tier)

	writeJSON(w, http.StatusOK, map[string]any{
		"tools": tools,
		"count": len(tools),
	})
}

func inCategory(tools []domain.ToolDescriptor, categoryID string) []domain.ToolDescriptor {
	out := make([]domain.ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		if t.Category == categoryID {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) handleGetTool(w http.ResponseWriter, r *http.Request) {
	tool, err := s.catalog.GetBySlug(r.PathValue("slug"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tool not found"})
		return
	}

	resp := map[string]any{
		"tool":      tool,
		"available": toolAvailable(tool),
		"runtime":   currentRuntime(),
	}
	if c, err := s.catalog.Category(tool.Category); err == nil {
		resp["category"] = categoryResponse{
			CategoryDescriptor: c,
			Style:              c.Color.Style(),
			ToolCount:          s.catalog.CountByCategory(c.ID),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	c, err := s.sessions.Open(r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "tool not found"})
			return
		}
		s.writeError(w, r, err)
		return
	}

	snap, err := c.Snapshot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/sessions/"+c.ID())
	tool := c.Tool()
	writeJSON(w, http.StatusCreated, map[string]any{
		"session":   snap,
		"tool":      tool,
		"available": toolAvailable(tool),
		"runtime":   currentRuntime(),
		"links":     sessionLinks(c.ID()),
	})
}

type runtimeResponse struct {
	Name          string                `json:"name"`
	OutputFormats []domain.OutputFormat `json:"output_formats"`
}

func currentRuntime() runtimeResponse {
	return runtimeResponse{Name: pipeline.Runtime(), OutputFormats: pipeline.OutputFormats()}
}

// toolAvailable is false when the tool's preset format cannot be encoded by
// the compiled runtime, e.g. webp tools in the pure Go build.
func toolAvailable(tool domain.ToolDescriptor) bool {
	f := tool.Preset.OutputFormat
	return f == "" || pipeline.SupportsFormat(f)
}

func sessionLinks(sessionID string) map[string]string {
	base := "/v1/sessions/" + sessionID
	return map[string]string{
		"self":     base,
		"image":    base + "/image",
		"process":  base + "/process",
		"download": base + "/download",
		"reset":    base + "/reset",
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	snap, err := c.Snapshot()
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleDestroySession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	maxBytes := s.sessions.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	upload, err := readUploadPart(r, maxBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.writeError(w, r, fmt.Errorf("%w: %w: request body exceeds %d bytes", domain.ErrUploadRejected, domain.ErrUploadTooLarge, maxBytes))
		case errors.Is(err, errMissingUploadField):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart body: " + err.Error()})
		}
		return
	}

	snap, err := c.Upload(upload)
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

// readUploadPart streams the multipart body and keeps only the image part,
// in memory. Other parts are discarded.
func readUploadPart(r *http.Request, maxBytes int64) (session.Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return session.Upload{}, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return session.Upload{}, errMissingUploadField
		}
		if err != nil {
			return session.Upload{}, err
		}
		if part.FormName() != uploadField {
			if _, err := io.Copy(io.Discard, part); err != nil {
				return session.Upload{}, err
			}
			continue
		}

		// One byte past the ceiling is enough for the controller to reject it.
		data, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
		_ = part.Close()
		if err != nil {
			return session.Upload{}, err
		}
		return session.Upload{
			Filename:     part.FileName(),
			DeclaredType: part.Header.Get("Content-Type"),
			Data:         data,
		}, nil
	}
}

func (s *Server) handleChangeImage(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	snap, err := c.ChangeImage()
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var params session.Params
	if err := decodeJSON(r, &params); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	snap, err := c.Process(r.Context(), params)
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	artifact, err := c.Download()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		s.logger.WithError(err).WithField("session_id", c.ID()).Warn("download write failed")
	}
}

func (s *Server) handleStartOver(w http.ResponseWriter, r *http.Request) {
	c, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	snap, err := c.StartOver()
	s.writeSnapshot(w, r, http.StatusOK, snap, err)
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	c, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return c, true
}

// writeSnapshot reports err with the session state attached so clients can
// render the current step alongside the message.
func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request, status int, snap session.Snapshot, err error) {
	if err == nil {
		writeJSON(w, status, map[string]any{"session": snap})
		return
	}

	code, message := s.errorResponse(r, err)
	body := map[string]any{"error": message}
	if snap.ID != "" {
		body["session"] = snap
	}
	writeJSON(w, code, body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := s.errorResponse(r, err)
	writeJSON(w, code, map[string]string{"error": message})
}

func (s *Server) errorResponse(r *http.Request, err error) (int, string) {
	code := statusForError(err)
	switch code {
	case http.StatusNotFound:
		return code, "session not found"
	case http.StatusInternalServerError:
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		return code, "internal error"
	default:
		return code, err.Error()
	}
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUploadRejected),
		errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrEncode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrSessionBusy),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrNoImage),
		errors.Is(err, domain.ErrNoResult),
		errors.Is(err, domain.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, into any) error {
	const maxBodyBytes = 1 << 20
	limited := io.LimitReader(r.Body, maxBodyBytes)
	decoder := json.NewDecoder(limited)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON body: multiple JSON values are not allowed")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
