package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/tree"
)

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func (c chanSender) next(t *testing.T, timeout time.Duration) tea.Msg {
	t.Helper()
	select {
	case msg := <-c:
		return msg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for a worker message")
		return nil
	}
}

func (c chanSender) none(t *testing.T) {
	t.Helper()
	select {
	case msg := <-c:
		t.Fatalf("unexpected message %#v", msg)
	default:
	}
}

func TestCatalogWorker_NewWithoutPath(t *testing.T) {
	w := NewCatalogWorker(WorkerConfig{})
	if w.State() != WorkerIdle {
		t.Errorf("expected idle state, got %v", w.State())
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	w.Stop()
	w.Stop()
	if w.State() != WorkerStopped {
		t.Errorf("expected stopped state, got %v", w.State())
	}
}

func TestCatalogWorker_StopWithoutStart(t *testing.T) {
	w := NewCatalogWorker(WorkerConfig{CatalogPath: "/does/not/matter.yaml"})
	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}

func TestCatalogWorker_DedupsUnchangedContent(t *testing.T) {
	sender := make(chanSender, 4)
	initial := catalog.Default()
	w := NewCatalogWorker(WorkerConfig{Sender: sender, Initial: &initial})

	w.process(catalog.Reload{Catalog: catalog.Default()})
	sender.none(t)
	if w.Reloads() != 0 {
		t.Errorf("reloads = %d, want 0", w.Reloads())
	}

	changed := catalog.Default()
	changed.Incomes = append(changed.Incomes, tree.Leaf("15", "Dividends"))
	w.process(catalog.Reload{Catalog: changed})

	msg, ok := sender.next(t, time.Second).(CatalogReloadedMsg)
	if !ok {
		t.Fatal("expected CatalogReloadedMsg")
	}
	if len(msg.Catalog.Incomes) != 3 {
		t.Errorf("incomes = %d, want 3", len(msg.Catalog.Incomes))
	}

	w.process(catalog.Reload{Catalog: changed})
	sender.none(t)
	if w.Reloads() != 1 {
		t.Errorf("reloads = %d, want 1", w.Reloads())
	}
}

func TestCatalogWorker_ErrorsAreCountedAndCleared(t *testing.T) {
	sender := make(chanSender, 4)
	w := NewCatalogWorker(WorkerConfig{Sender: sender})
	bad := errors.New("parsing catalog: yaml: line 3")

	w.process(catalog.Reload{Err: bad})
	w.process(catalog.Reload{Err: bad})

	for i := 0; i < 2; i++ {
		msg, ok := sender.next(t, time.Second).(CatalogErrorMsg)
		if !ok {
			t.Fatal("expected CatalogErrorMsg")
		}
		if !errors.Is(msg.Err, bad) {
			t.Errorf("error %v does not wrap the load error", msg.Err)
		}
	}
	last := w.LastError()
	if last == nil || last.Phase != "load" || last.Retries != 2 {
		t.Fatalf("LastError = %+v", last)
	}
	if !strings.Contains(last.Error(), "retries: 2") {
		t.Errorf("error text = %q", last.Error())
	}

	w.process(catalog.Reload{Catalog: catalog.Default()})
	if _, ok := sender.next(t, time.Second).(CatalogReloadedMsg); !ok {
		t.Error("expected a reload after recovering")
	}
	if w.LastError() != nil {
		t.Error("success should clear the error")
	}
}

func TestCatalogWorker_IgnoresReloadsAfterStop(t *testing.T) {
	sender := make(chanSender, 1)
	w := NewCatalogWorker(WorkerConfig{Sender: sender})
	w.Stop()
	w.process(catalog.Reload{Catalog: catalog.Default()})
	sender.none(t)
}

func TestCatalogWorker_WatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	initial := catalog.Default()
	if err := catalog.SaveTo(initial, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	sender := make(chanSender, 4)
	w := NewCatalogWorker(WorkerConfig{
		CatalogPath:   path,
		DebounceDelay: 20 * time.Millisecond,
		Sender:        sender,
		Initial:       &initial,
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	changed := catalog.Default()
	changed.Accounts = changed.Accounts[:1]
	if err := catalog.SaveTo(changed, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	msg, ok := sender.next(t, 3*time.Second).(CatalogReloadedMsg)
	if !ok {
		t.Fatal("expected CatalogReloadedMsg")
	}
	if len(msg.Catalog.Accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(msg.Catalog.Accounts))
	}

	if err := os.WriteFile(path, []byte("expenses: [\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, ok := sender.next(t, 3*time.Second).(CatalogErrorMsg); !ok {
		t.Error("expected CatalogErrorMsg for a malformed file")
	}
}

func TestSafeComputeRecoversPanic(t *testing.T) {
	werr := safeCompute("hash", func() error { panic("boom") })
	if werr == nil || werr.Phase != "hash" || !strings.Contains(werr.Cause.Error(), "boom") {
		t.Fatalf("safeCompute = %+v", werr)
	}
	if werr := safeCompute("hash", func() error { return nil }); werr != nil {
		t.Errorf("unexpected error %v", werr)
	}
}
