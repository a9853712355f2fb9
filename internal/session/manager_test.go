package session

import (
	"context"
	"testing"
	"time"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerOpenGetDestroy(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})

	_, err := m.Open("no-such-tool")
	require.ErrorIs(t, err, domain.ErrNotFound)

	c := openSession(t, m, "png-to-jpg")
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, "png-to-jpg", c.Tool().Slug)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)

	other := openSession(t, m, "png-to-jpg")
	assert.NotEqual(t, c.ID(), other.ID())

	require.NoError(t, m.Destroy(c.ID()))
	assert.Equal(t, 1, m.Len())

	_, err = m.Get(c.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, m.Destroy(c.ID()), domain.ErrNotFound)

	_, err = c.Snapshot()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

func TestManagerDefaults(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})
	assert.Equal(t, DefaultMaxUploadBytes, m.MaxUploadBytes())
	assert.Equal(t, DefaultSessionTTL, m.ttl)
	assert.Equal(t, DefaultMaxActiveTransforms(), cap(m.env.slots))
	assert.GreaterOrEqual(t, DefaultMaxActiveTransforms(), 1)
}

func TestManagerSweepExpiresIdleSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, &fakeRunner{}, Config{SessionTTL: 10 * time.Minute})
	m.env.now = clock.Now

	stale := openSession(t, m, "resize-image")
	clock.Advance(8 * time.Minute)
	fresh := openSession(t, m, "resize-image")

	clock.Advance(3 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, err := m.Get(stale.ID())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = stale.Snapshot()
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	uploadPNG(t, fresh, 4, 4)
	clock.Advance(9 * time.Minute)
	assert.Zero(t, m.Sweep())
	_, err = m.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestManagerSweepKeepsSessionsWithTransformInFlight(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	runner := newBlockingRunner()
	m := newTestManager(t, runner, Config{SessionTTL: time.Minute})
	m.env.now = clock.Now

	c := openSession(t, m, "resize-image")
	uploadPNG(t, c, 4, 4)

	done := make(chan error, 1)
	go func() {
		_, err := c.Process(context.Background(), Params{})
		done <- err
	}()
	<-runner.started

	clock.Advance(time.Hour)
	assert.Zero(t, m.Sweep())

	close(runner.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, m.Len())
}

func TestManagerRunStopsWithContext(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{SessionTTL: time.Nanosecond})
	openSession(t, m, "resize-image")

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx, time.Millisecond)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestManagerGathererExportsSessionMetrics(t *testing.T) {
	m := newTestManager(t, &fakeRunner{}, Config{})
	openSession(t, m, "resize-image")

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		if family.GetName() != "imagetools_sessions_active" {
			continue
		}
		found = true
		require.Len(t, family.GetMetric(), 1)
		assert.Equal(t, 1.0, family.GetMetric()[0].GetGauge().GetValue())
	}
	assert.True(t, found, "sessions gauge missing from gatherer")
}
