//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

// loggerPtr is the accelerator's logger, silent until molsurf hands one
// over through DensityAccelerator.SetLogger.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(slog.DiscardHandler))
}

func slogger() *slog.Logger { return loggerPtr.Load() }

func setLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	loggerPtr.Store(l.With("component", "gpu-density"))
}
