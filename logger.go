package molsurf

import (
	"log/slog"
	"sync/atomic"
)

// loggerPtr holds the active logger. Render reads it on every stage, so it
// is swapped atomically instead of behind the renderer lock.
var loggerPtr atomic.Pointer[slog.Logger]

func silentLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func init() {
	loggerPtr.Store(silentLogger())
}

// SetLogger configures the logger for molsurf and the registered density
// accelerator. molsurf is silent until SetLogger is called; nil restores
// the silent default.
//
// Levels:
//   - [slog.LevelDebug]: grid allocation, parameter clamping, per-frame stats,
//     accelerator declining a job
//   - [slog.LevelInfo]: accelerator registration and selection
//   - [slog.LevelWarn]: accelerator failure, skipped frames
//
// Example:
//
//	molsurf.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silentLogger()
	}
	loggerPtr.Store(l)

	if a := Accelerator(); a != nil {
		propagateLogger(a, l)
	}
}

// Logger returns the current logger. Accelerator packages that cannot
// import their caller's configuration use it at registration time.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by accelerators that log on their own.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(a DensityAccelerator, l *slog.Logger) {
	if ls, ok := a.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
