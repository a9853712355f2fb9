package domain

import "time"

// UsageLog summarizes one completed transform.
type UsageLog struct {
	SessionID       string
	ToolSlug        string
	PixelsProcessed int64
	BytesSaved      int64
	ComputeTimeMS   int64
	CreatedAt       time.Time
}
