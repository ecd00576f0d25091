package suggest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tally/pkg/catalog"
)

var candidates = []catalog.Item{
	{ID: "2", Name: "Lunch"},
	{ID: "3", Name: "Breakfast"},
	{ID: "5", Name: "Dinner"},
	{ID: "7", Name: "Cinema"},
}

func TestHTTPSuggester_RequestShape(t *testing.T) {
	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad body %s: %v", body, err)
		}
		w.Write([]byte(`[{"id":"2","name":"Lunch"}]`))
	}))
	defer srv.Close()

	s := NewHTTPSuggester(srv.URL, time.Second, 3)
	items, err := s.Suggest(context.Background(), "chicken rice", candidates)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.Operation != "category_suggestion" || got.Transaction != "chicken rice" || len(got.CatList) != 4 {
		t.Errorf("unexpected request %+v", got)
	}
	if len(items) != 1 || items[0].ID != "2" {
		t.Errorf("items = %+v", items)
	}
}

func TestHTTPSuggester_FiltersUnofferedAndLimits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"99","name":"Invented"},
			{"id":"5","name":"renamed by server"},
			{"id":"5","name":"Dinner"},
			{"id":"2","name":"Lunch"},
			{"id":"3","name":"Breakfast"},
			{"id":"7","name":"Cinema"}
		]`))
	}))
	defer srv.Close()

	s := NewHTTPSuggester(srv.URL, time.Second, 3)
	items, err := s.Suggest(context.Background(), "meal", candidates)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	want := []catalog.Item{{ID: "5", Name: "Dinner"}, {ID: "2", Name: "Lunch"}, {ID: "3", Name: "Breakfast"}}
	if len(items) != len(want) {
		t.Fatalf("items = %+v, want %+v", items, want)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %+v, want %+v", i, items[i], want[i])
		}
	}
}

func TestHTTPSuggester_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{"ServerError", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }, ErrNetwork},
		{"NotJSON", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) }, ErrInvalidResponse},
		{"WrongShape", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"categories":["Lunch"]}`)) }, ErrInvalidResponse},
		{"OnlyUnknownIDs", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`[{"id":"42","name":"Rent"}]`)) }, ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewHTTPSuggester(srv.URL, time.Second, 3).Suggest(context.Background(), "x", candidates)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHTTPSuggester_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTPSuggester(url, time.Second, 3).Suggest(context.Background(), "x", candidates)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestHTTPSuggester_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPSuggester(srv.URL, 50*time.Millisecond, 3).Suggest(context.Background(), "x", candidates)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestHTTPSuggester_SharesInFlightRequests(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Write([]byte(`[{"id":"2","name":"Lunch"}]`))
	}))
	defer srv.Close()

	s := NewHTTPSuggester(srv.URL, 5*time.Second, 3)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Suggest(context.Background(), "lunch", candidates); err != nil {
				t.Errorf("Suggest: %v", err)
			}
		}()
	}
	// Let the goroutines join the flight before the server answers.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := hits.Load(); n < 1 || n > 5 {
		t.Errorf("unexpected hit count %d", n)
	}
}

func TestFuzzySuggester(t *testing.T) {
	f := FuzzySuggester{}
	items, err := f.Suggest(context.Background(), "team lunch", candidates)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 || items[0].ID != "2" {
		t.Errorf("expected Lunch first, got %+v", items)
	}

	items, _ = f.Suggest(context.Background(), "   ", candidates)
	if len(items) != 0 {
		t.Errorf("expected no suggestions for blank text, got %+v", items)
	}
}

func TestFuzzySuggester_Limit(t *testing.T) {
	many := []catalog.Item{
		{ID: "a", Name: "aa"}, {ID: "b", Name: "ab"}, {ID: "c", Name: "ac"}, {ID: "d", Name: "ad"},
	}
	items, _ := FuzzySuggester{Limit: 2}.Suggest(context.Background(), "a", many)
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %+v", items)
	}
	items, _ = FuzzySuggester{}.Suggest(context.Background(), "a", many)
	if len(items) != DefaultLimit {
		t.Errorf("expected default limit, got %d", len(items))
	}
}

func TestFuzzySuggester_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (FuzzySuggester{}).Suggest(ctx, "lunch", candidates); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSequencer(t *testing.T) {
	var s Sequencer
	if s.IsCurrent(0) {
		t.Error("zero is never current")
	}
	first := s.Next()
	if !s.IsCurrent(first) {
		t.Error("first request should be current")
	}
	second := s.Next()
	if s.IsCurrent(first) || !s.IsCurrent(second) {
		t.Error("only the newest request is current")
	}
	s.Invalidate()
	if s.IsCurrent(second) {
		t.Error("invalidate should make the outstanding request stale")
	}
}

func TestLookup(t *testing.T) {
	cmd := Lookup(context.Background(), FuzzySuggester{}, 7, "cinema night", candidates)
	msg, ok := cmd().(SuggestionsMsg)
	if !ok {
		t.Fatalf("unexpected msg type %T", cmd())
	}
	if msg.Seq != 7 || msg.Text != "cinema night" || msg.Err != nil {
		t.Errorf("unexpected msg %+v", msg)
	}
	if len(msg.Items) == 0 || msg.Items[0].ID != "7" {
		t.Errorf("expected Cinema suggested, got %+v", msg.Items)
	}
}
