//go:build govips && cgo

package pipeline

import (
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/imagetools/internal/domain"
)

const runtimeName = "govips"

var outputFormats = []domain.OutputFormat{domain.FormatJPEG, domain.FormatPNG, domain.FormatWebP}

var (
	startupOnce sync.Once
	shutdownMu  sync.Mutex
	started     bool
)

// Startup initializes libvips once per process. Session buffers are small and
// short lived, so the operation cache stays modest.
func Startup() error {
	startupOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelWarning)
		vips.Startup(&vips.Config{
			ConcurrencyLevel: 0,
			MaxCacheFiles:    0,
			MaxCacheMem:      64 * 1024 * 1024,
			MaxCacheSize:     50,
		})

		shutdownMu.Lock()
		started = true
		shutdownMu.Unlock()
	})
	return nil
}

func Shutdown() {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()
	if !started {
		return
	}
	vips.Shutdown()
	started = false
}

func newTransformer() (Transformer, error) {
	return govipsTransformer{}, nil
}
