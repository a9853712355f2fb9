package session

import (
	"time"

	"github.com/dunamismax/imagetools/internal/domain"
	"github.com/dunamismax/imagetools/internal/pipeline"
)

func usageFor(sessionID, slug string, result pipeline.Result, computeDuration time.Duration, now time.Time) domain.UsageLog {
	bytesSaved := int64(result.SourceBytes - len(result.Data))
	if bytesSaved < 0 {
		bytesSaved = 0
	}

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	return domain.UsageLog{
		SessionID:       sessionID,
		ToolSlug:        slug,
		PixelsProcessed: int64(result.Width) * int64(result.Height),
		BytesSaved:      bytesSaved,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       now.UTC(),
	}
}

func (m *metrics) recordUsage(usage domain.UsageLog) {
	if m == nil {
		return
	}
	m.pixelsProcessedTotal.Add(float64(usage.PixelsProcessed))
	m.bytesSavedTotal.Add(float64(usage.BytesSaved))
	m.computeTimeMSTotal.Add(float64(usage.ComputeTimeMS))
}
