// Package debug provides conditional debug logging for tally.
//
// Debug logging is enabled by setting the TALLY_DEBUG environment variable:
//
//	TALLY_DEBUG=1 tally --form categories
//
// Messages go to stderr until SetOutput points them elsewhere; the TUI
// redirects them into its log file because the alt screen owns the terminal.
// When disabled (default), all functions are no-ops.
package debug

import (
	"io"
	"log"
	"os"
	"sync"
	"time"
)

const prefix = "[TALLY_DEBUG] "

var (
	mu      sync.Mutex
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TALLY_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	defer mu.Unlock()
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output. It does not enable logging.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
		return
	}
	logger.SetOutput(w)
}

// Log writes a debug message if debug logging is enabled.
func Log(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	Log("%s took %v", name, d)
}

// LogEnterExit logs function entry and exit with timing:
//
//	defer debug.LogEnterExit("reload")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	Log("-> %s", name)
	start := time.Now()
	return func() {
		Log("<- %s (%v)", name, time.Since(start))
	}
}

// Dump logs a value with its type.
func Dump(name string, v any) {
	Log("%s: %T = %+v", name, v, v)
}
