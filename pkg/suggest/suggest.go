// Package suggest proposes subcategories for a transaction name.
//
// Suggestions come from a remote service when an endpoint is configured and
// from local fuzzy matching otherwise. Requests are tagged with sequence
// numbers so a form can drop responses that arrive after a newer request.
package suggest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/debug"
)

var (
	// ErrNetwork means the service could not be reached or answered with a
	// non-2xx status.
	ErrNetwork = errors.New("suggestion service unreachable")
	// ErrInvalidResponse means the service answered with a body that is not
	// a list of categories.
	ErrInvalidResponse = errors.New("invalid suggestion response")
)

// DefaultLimit caps the number of suggestions shown as chips.
const DefaultLimit = 3

// Suggester returns up to a few candidates that match text.
type Suggester interface {
	Suggest(ctx context.Context, text string, candidates []catalog.Item) ([]catalog.Item, error)
}

// request is the wire format understood by the suggestion service.
type request struct {
	Operation   string         `json:"operation"`
	Transaction string         `json:"transaction"`
	CatList     []catalog.Item `json:"cat_list"`
}

const operationCategorySuggestion = "category_suggestion"

// HTTPSuggester asks a remote service for suggestions.
type HTTPSuggester struct {
	Endpoint string
	Client   *http.Client
	Timeout  time.Duration
	Limit    int

	group singleflight.Group
}

// NewHTTPSuggester returns a suggester posting to endpoint.
func NewHTTPSuggester(endpoint string, timeout time.Duration, limit int) *HTTPSuggester {
	return &HTTPSuggester{
		Endpoint: endpoint,
		Client:   &http.Client{},
		Timeout:  timeout,
		Limit:    limit,
	}
}

// Suggest implements Suggester. Identical concurrent requests share one round
// trip. Items the service returns that were not offered are dropped; a
// response made only of such items is ErrInvalidResponse.
func (s *HTTPSuggester) Suggest(ctx context.Context, text string, candidates []catalog.Item) ([]catalog.Item, error) {
	key := flightKey(text, candidates)
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.post(ctx, text, candidates)
	})
	if shared {
		debug.Log("suggest: shared in-flight request for %q", text)
	}
	if err != nil {
		return nil, err
	}
	raw := v.([]catalog.Item)
	items := filterOffered(raw, candidates)
	if len(raw) > 0 && len(items) == 0 {
		return nil, fmt.Errorf("%w: none of %d returned categories were offered", ErrInvalidResponse, len(raw))
	}
	return limit(items, s.Limit), nil
}

func (s *HTTPSuggester) post(ctx context.Context, text string, candidates []catalog.Item) ([]catalog.Item, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(request{
		Operation:   operationCategorySuggestion,
		Transaction: text,
		CatList:     candidates,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding suggestion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	debug.LogTiming("suggest request", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	var items []catalog.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return items, nil
}

// flightKey identifies a request for singleflight.
func flightKey(text string, candidates []catalog.Item) string {
	var b strings.Builder
	b.WriteString(text)
	for _, c := range candidates {
		b.WriteByte(0)
		b.WriteString(c.ID)
	}
	return b.String()
}

// filterOffered keeps items whose id was among the candidates, using the
// candidate's name, without duplicates.
func filterOffered(items, candidates []catalog.Item) []catalog.Item {
	byID := make(map[string]catalog.Item, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	seen := make(map[string]bool, len(items))
	out := make([]catalog.Item, 0, len(items))
	for _, it := range items {
		c, ok := byID[it.ID]
		if !ok || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, c)
	}
	return out
}

func limit(items []catalog.Item, n int) []catalog.Item {
	if n <= 0 {
		n = DefaultLimit
	}
	if len(items) > n {
		return items[:n]
	}
	return items
}

// FuzzySuggester ranks candidates locally by fuzzy match against their names.
type FuzzySuggester struct {
	Limit int
}

// Suggest implements Suggester.
func (f FuzzySuggester) Suggest(ctx context.Context, text string, candidates []catalog.Item) ([]catalog.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	var out []catalog.Item
	// The whole text is tried first, then each word on its own.
	seen := make(map[int]bool)
	for _, word := range append([]string{text}, strings.Fields(text)...) {
		for _, m := range fuzzy.FindFrom(word, itemSource(candidates)) {
			if seen[m.Index] {
				continue
			}
			seen[m.Index] = true
			out = append(out, candidates[m.Index])
		}
	}
	return limit(out, f.Limit), nil
}

type itemSource []catalog.Item

func (s itemSource) String(i int) string { return s[i].Name }
func (s itemSource) Len() int            { return len(s) }

// Sequencer issues increasing request numbers and tells whether a response
// still belongs to the latest request. It is safe for concurrent use.
type Sequencer struct {
	latest atomic.Uint64
}

// Next starts a new request and returns its number.
func (s *Sequencer) Next() uint64 {
	return s.latest.Add(1)
}

// Invalidate makes every outstanding request stale.
func (s *Sequencer) Invalidate() {
	s.latest.Add(1)
}

// IsCurrent reports whether seq is the most recent request.
func (s *Sequencer) IsCurrent(seq uint64) bool {
	return seq != 0 && s.latest.Load() == seq
}

// SuggestionsMsg carries the result of a Lookup.
type SuggestionsMsg struct {
	Seq   uint64
	Text  string
	Items []catalog.Item
	Err   error
}

// Lookup returns a command that asks s for suggestions and reports them as a
// SuggestionsMsg tagged with seq.
func Lookup(ctx context.Context, s Suggester, seq uint64, text string, candidates []catalog.Item) tea.Cmd {
	return func() tea.Msg {
		items, err := s.Suggest(ctx, text, candidates)
		return SuggestionsMsg{Seq: seq, Text: text, Items: items, Err: err}
	}
}
