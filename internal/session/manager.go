package session

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/dunamismax/imagetools/internal/id"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const (
	DefaultSessionTTL    = 30 * time.Minute
	DefaultSweepInterval = time.Minute
)

// ToolLookup resolves a tool slug. *catalog.Registry satisfies it.
type ToolLookup interface {
	GetBySlug(slug string) (domain.ToolDescriptor, error)
}

type Config struct {
	MaxUploadBytes      int64
	SessionTTL          time.Duration
	MaxActiveTransforms int
}

func DefaultMaxActiveTransforms() int {
	return max(1, runtime.NumCPU()/2)
}

// Manager owns every open tool page session.
type Manager struct {
	logger logrus.FieldLogger
	tools  ToolLookup
	ttl    time.Duration
	env    *env

	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager(logger logrus.FieldLogger, tools ToolLookup, runner Runner, cfg Config) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.MaxActiveTransforms <= 0 {
		cfg.MaxActiveTransforms = DefaultMaxActiveTransforms()
	}

	return &Manager{
		logger: logger,
		tools:  tools,
		ttl:    cfg.SessionTTL,
		env: &env{
			runner:         runner,
			slots:          make(chan struct{}, cfg.MaxActiveTransforms),
			metrics:        newMetrics(),
			tracer:         otel.Tracer("github.com/dunamismax/imagetools/internal/session"),
			logger:         logger,
			maxUploadBytes: cfg.MaxUploadBytes,
			now:            time.Now,
		},
		sessions: make(map[string]*Controller),
	}
}

// Gatherer exposes the session metrics for the API's /metrics endpoint.
func (m *Manager) Gatherer() prometheus.Gatherer {
	return m.env.metrics.registry
}

func (m *Manager) MaxUploadBytes() int64 {
	return m.env.maxUploadBytes
}

// Open starts a new session for the tool with the given slug.
func (m *Manager) Open(slug string) (*Controller, error) {
	tool, err := m.tools.GetBySlug(slug)
	if err != nil {
		return nil, err
	}

	c := newController(id.New(), tool, m.env)

	m.mu.Lock()
	m.sessions[c.ID()] = c
	count := len(m.sessions)
	m.mu.Unlock()

	m.env.metrics.sessionsActive.Set(float64(count))
	m.logger.WithFields(logrus.Fields{
		"session_id": c.ID(),
		"tool":       tool.Slug,
	}).Debug("session opened")
	return c, nil
}

func (m *Manager) Get(sessionID string) (*Controller, error) {
	m.mu.RLock()
	c, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: session %q", domain.ErrNotFound, sessionID)
	}
	return c, nil
}

// Destroy closes and forgets a session.
func (m *Manager) Destroy(sessionID string) error {
	m.mu.Lock()
	c, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: session %q", domain.ErrNotFound, sessionID)
	}

	c.Close()
	m.env.metrics.sessionsActive.Set(float64(count))
	m.logger.WithField("session_id", sessionID).Debug("session closed")
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL and returns
// how many were removed. Sessions with a transform in flight are kept.
func (m *Manager) Sweep() int {
	now := m.env.now()

	m.mu.Lock()
	var expired []*Controller
	for sessionID, c := range m.sessions {
		if c.expired(now, m.ttl) {
			expired = append(expired, c)
			delete(m.sessions, sessionID)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	if len(expired) > 0 {
		m.env.metrics.sessionsExpiredTotal.Add(float64(len(expired)))
		m.env.metrics.sessionsActive.Set(float64(count))
		m.logger.WithField("expired", len(expired)).Info("swept idle sessions")
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close destroys every open session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Controller)
	m.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
	m.env.metrics.sessionsActive.Set(0)
}
