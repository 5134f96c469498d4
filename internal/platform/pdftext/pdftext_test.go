package pdftext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

func TestSplitChunks(t *testing.T) {
	cases := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{name: "empty", text: "", max: 10, want: nil},
		{name: "single", text: "Hola mundo", max: 100, want: []string{"Hola mundo"}},
		{name: "fits_in_one", text: "Uno. Dos! Tres?", max: 100, want: []string{"Uno.  Dos.  Tres."}},
		{name: "flushes", text: "Uno. Dos! Tres?", max: 9, want: []string{"Uno.  Dos", "Tres."}},
		{name: "separator_counts", text: "Uno. Dos! Tres?", max: 8, want: []string{"Uno", "Dos", "Tres."}},
		{name: "long_word", text: "abcdefghij. Fin", max: 4, want: []string{"abcd", "efgh", "ij", "Fin"}},
		{name: "long_sentence_breaks_on_space", text: "uno dos tres cuatro", max: 8, want: []string{"uno dos", "tres", "cuatro"}},
		{name: "punctuation_runs", text: "Ah... Bien", max: 100, want: []string{"Ah.  Bien"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitChunks(tc.text, tc.max)
			if len(got) != len(tc.want) {
				t.Fatalf("SplitChunks(%q, %d)=%q, want %q", tc.text, tc.max, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("chunk %d=%q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestSplitChunksRespectsMaxForShortSentences(t *testing.T) {
	text := strings.Repeat("La derivada mide el cambio. ", 200)
	for _, chunk := range SplitChunks(text, 1200) {
		if n := len([]rune(chunk)); n > 1200 {
			t.Fatalf("chunk of %d runes exceeds max", n)
		}
	}
}

func TestSplitChunksRespectsMaxForLongSentences(t *testing.T) {
	text := "Introducción. " + strings.Repeat("la integral acumula el área bajo la curva y ", 80) + ". " + strings.Repeat("x", 2600)
	chunks := SplitChunks(text, 1200)
	if len(chunks) < 4 {
		t.Fatalf("expected the long sentences to be cut, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 1200 || n == 0 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
	if got := strings.Count(strings.Join(chunks, ""), "x"); got != 2600 {
		t.Fatalf("cutting lost text: %d of 2600 runes kept", got)
	}
}

func TestResolve(t *testing.T) {
	uploads := filepath.FromSlash("/srv/app/uploads")
	base := filepath.FromSlash("/srv/app")
	cases := []struct {
		ref  string
		want string
	}{
		{ref: "https://cdn.uss.cl/a.pdf", want: "https://cdn.uss.cl/a.pdf"},
		{ref: "HTTP://host/a.pdf", want: "HTTP://host/a.pdf"},
		{ref: "/uploads/123.pdf", want: filepath.Join(uploads, "123.pdf")},
		{ref: "uploads/123.pdf", want: filepath.Join(uploads, "123.pdf")},
		{ref: "docs/apunte.pdf", want: filepath.Join(base, "docs", "apunte.pdf")},
		{ref: filepath.FromSlash("/tmp/x.pdf"), want: filepath.FromSlash("/tmp/x.pdf")},
		{ref: "  ", want: ""},
	}
	for _, tc := range cases {
		if got := Resolve(tc.ref, uploads, base); got != tc.want {
			t.Fatalf("Resolve(%q)=%q, want %q", tc.ref, got, tc.want)
		}
	}
}

type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted chan string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, deleted: make(chan string, 16)}
}

func (m *memCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	select {
	case m.deleted <- key:
	default:
	}
	return nil
}

func TestExtractServesFromCache(t *testing.T) {
	dir := t.TempDir()
	cache := newMemCache()
	ex := New(logger.Nop(), Config{UploadsDir: dir, BaseDir: dir, Cache: cache})

	key := CacheKey(filepath.Join(dir, "cached.pdf"))
	_ = cache.Set(context.Background(), key, "texto en caché")

	got, err := ex.Extract(context.Background(), "/uploads/cached.pdf")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "texto en caché" {
		t.Fatalf("Extract=%q", got)
	}
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	ex := New(logger.Nop(), Config{UploadsDir: dir, BaseDir: dir})
	for _, ref := range []string{"", "/uploads/missing.pdf", "/uploads/broken.pdf", srv.URL + "/gone.pdf"} {
		if _, err := ex.Extract(context.Background(), ref); err == nil {
			t.Fatalf("Extract(%q): expected error", ref)
		}
	}
}

func TestWatcherEvictsOnRewrite(t *testing.T) {
	dir := t.TempDir()
	cache := newMemCache()
	w, err := NewWatcher(logger.Nop(), dir, cache)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	abs, _ := filepath.Abs(dir)
	path := filepath.Join(abs, "apunte.pdf")
	want := CacheKey(path)
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case key := <-cache.deleted:
			if key == want {
				return
			}
		case <-deadline:
			t.Fatalf("no eviction for %s", path)
		}
	}
}
