// Package monitoring holds the diagnostic log streams shared by the trigger
// input maker and the track refitter.
//
// Three streams are available:
//   - ops:   actionable problems (unknown detector ids, internal-consistency errors)
//   - diag:  per-candidate outcomes and per-event counts
//   - trace: per-cluster and per-annealing-step telemetry
//
// By default ops goes to stderr and the other two streams are discarded.
package monitoring

import (
	"io"
	"log"
	"os"
	"sync"
)

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

var (
	mu          sync.RWMutex
	opsLogger   = newLogger(os.Stderr)
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger(w.Ops)
	diagLogger = newLogger(w.Diag)
	traceLogger = newLogger(w.Trace)
}

// newLogger creates a *log.Logger for a given writer, or returns nil if w is nil.
func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[muon] ", log.LstdFlags|log.Lmicroseconds)
}

func logTo(l **log.Logger, format string, args []interface{}) {
	mu.RLock()
	lg := *l
	mu.RUnlock()
	if lg != nil {
		lg.Printf(format, args...)
	}
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) {
	logTo(&opsLogger, format, args)
}

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) {
	logTo(&diagLogger, format, args)
}

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) {
	logTo(&traceLogger, format, args)
}

// TraceEnabled reports whether the trace stream has a writer. Callers use it
// to skip building expensive trace messages.
func TraceEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return traceLogger != nil
}
