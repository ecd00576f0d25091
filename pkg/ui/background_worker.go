package ui

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	rtdebug "runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/debug"
)

// WorkerState represents the current state of the catalog worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is applying a reload.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string // "load", "hash"
	Cause   error
	Time    time.Time
	Retries int // consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// Sender delivers messages into a running program; *tea.Program is one.
type Sender interface {
	Send(msg tea.Msg)
}

// CatalogReloadedMsg carries a catalog that changed on disk.
type CatalogReloadedMsg struct {
	Catalog catalog.Catalog
}

// CatalogErrorMsg reports a catalog file that could not be reloaded. The
// previous catalog stays in use.
type CatalogErrorMsg struct {
	Err error
}

// CatalogWorker watches the catalog file off the UI goroutine and sends
// CatalogReloadedMsg when its content really changed.
type CatalogWorker struct {
	path     string
	debounce time.Duration

	mu         sync.RWMutex
	state      WorkerState
	started    bool
	lastHash   string
	lastError  *WorkerError
	errorCount int
	reloads    int

	sender Sender

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the CatalogWorker.
type WorkerConfig struct {
	CatalogPath   string
	DebounceDelay time.Duration
	Sender        Sender
	// Initial is the catalog already shown; reloads with identical content
	// are not sent.
	Initial *catalog.Catalog
}

// NewCatalogWorker creates a worker. Nothing is watched until Start.
func NewCatalogWorker(cfg WorkerConfig) *CatalogWorker {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = catalog.DefaultDebounce
	}
	w := &CatalogWorker{
		path:     cfg.CatalogPath,
		debounce: cfg.DebounceDelay,
		sender:   cfg.Sender,
		state:    WorkerIdle,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	if cfg.Initial != nil {
		if hash, err := catalogHash(*cfg.Initial); err == nil {
			w.lastHash = hash
		}
	}
	return w
}

// Start begins watching. Start is idempotent.
func (w *CatalogWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.path == "" {
		close(w.done)
		return nil
	}
	reloads, err := catalog.Watch(w.ctx, w.path, w.debounce)
	if err != nil {
		close(w.done)
		return err
	}
	go w.processLoop(reloads)
	return nil
}

// Stop halts the worker. Stop is idempotent.
func (w *CatalogWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()
	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// State returns the current worker state.
func (w *CatalogWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error (nil if the last reload succeeded).
func (w *CatalogWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

// Reloads counts the catalogs sent to the UI.
func (w *CatalogWorker) Reloads() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.reloads
}

func (w *CatalogWorker) processLoop(reloads <-chan catalog.Reload) {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case r, ok := <-reloads:
			if !ok {
				return
			}
			w.process(r)
		}
	}
}

func (w *CatalogWorker) process(r catalog.Reload) {
	w.mu.Lock()
	if w.state != WorkerIdle {
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.mu.Unlock()

	msg := w.apply(r)

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerIdle
	w.mu.Unlock()

	if msg != nil && w.sender != nil {
		w.sender.Send(msg)
	}
}

// apply turns a reload into the message for the UI, or nil when the content
// is unchanged.
func (w *CatalogWorker) apply(r catalog.Reload) tea.Msg {
	if r.Err != nil {
		werr := &WorkerError{Phase: "load", Cause: r.Err, Time: time.Now()}
		w.recordError(werr)
		log.Printf("catalog reload: %v", werr)
		return CatalogErrorMsg{Err: werr}
	}

	var hash string
	if werr := safeCompute("hash", func() error {
		var err error
		hash, err = catalogHash(r.Catalog)
		return err
	}); werr != nil {
		w.recordError(werr)
		log.Printf("catalog reload: %v", werr)
		return CatalogErrorMsg{Err: werr}
	}
	w.recordError(nil)

	w.mu.Lock()
	defer w.mu.Unlock()
	if hash == w.lastHash {
		debug.Log("catalog reload: content unchanged (hash=%s)", hashPrefix(hash))
		return nil
	}
	w.lastHash = hash
	w.reloads++
	debug.Log("catalog reload: %d expense roots, %d income roots, %d accounts (hash=%s)",
		len(r.Catalog.Expenses), len(r.Catalog.Incomes), len(r.Catalog.Accounts), hashPrefix(hash))
	return CatalogReloadedMsg{Catalog: r.Catalog}
}

// safeCompute executes fn and recovers from any panics.
func safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, rtdebug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{Phase: phase, Cause: err, Time: time.Now()}
		}
	}()
	return result
}

func (w *CatalogWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

func catalogHash(cat catalog.Catalog) (string, error) {
	data, err := json.Marshal(cat)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
