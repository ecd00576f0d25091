package catalog

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/tally/pkg/debug"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 150 * time.Millisecond

// Reload is the result of re-reading a watched catalog file.
type Reload struct {
	Catalog Catalog
	Err     error
}

// Watch re-reads path whenever it changes and sends the result on the
// returned channel, which is closed when ctx is done. The parent directory is
// watched so that editors replacing the file by rename are noticed.
func Watch(ctx context.Context, path string, debounce time.Duration) (<-chan Reload, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving catalog path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan Reload, 1)
	go watchLoop(ctx, fw, abs, debounce, out)
	return out, nil
}

func watchLoop(ctx context.Context, fw *fsnotify.Watcher, path string, debounce time.Duration, out chan<- Reload) {
	defer close(out)
	defer fw.Close()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || !relevant(ev) {
				continue
			}
			debug.Log("catalog watcher: %s", ev)
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			log.Printf("catalog watcher: %v", err)

		case <-fire:
			fire = nil
			cat, err := LoadFrom(path)
			select {
			case out <- Reload{Catalog: cat, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
