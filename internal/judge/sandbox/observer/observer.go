// Package observer defines logging and metrics hooks for sandbox execution.
package observer

import (
	"context"

	"examclient/pkg/utils/logger"

	"go.uber.org/zap"
)

// MetricsRecorder records sandbox metrics.
type MetricsRecorder interface {
	ObserveRun(ctx context.Context, languageID string, verdict string, timeMs int64)
}

// NoopMetricsRecorder is a default recorder that does nothing.
type NoopMetricsRecorder struct{}

func (NoopMetricsRecorder) ObserveRun(ctx context.Context, languageID string, verdict string, timeMs int64) {
}

// LogRecorder writes one debug entry per executed case.
type LogRecorder struct{}

func (LogRecorder) ObserveRun(ctx context.Context, languageID string, verdict string, timeMs int64) {
	logger.Debug(ctx, "case executed",
		zap.String("language", languageID),
		zap.String("verdict", verdict),
		zap.Int64("time_ms", timeMs),
	)
}
