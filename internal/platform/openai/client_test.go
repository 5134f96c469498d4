package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

const okBody = `{
  "model": "gpt-4o-mini-2024",
  "output": [
    {"type": "reasoning"},
    {"type": "message", "role": "assistant", "content": [
      {"type": "output_text", "text": "Hola, "},
      {"type": "output_text", "text": "estudiante."}
    ]}
  ],
  "usage": {"input_tokens": 12, "output_tokens": 5, "total_tokens": 17}
}`

func newTestClient(t *testing.T, url string) Client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{APIKey: "sk-test", BaseURL: url, Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestCompleteSendsRequestAndParsesOutput(t *testing.T) {
	var got responsesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing auth header")
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	out, err := c.Complete(context.Background(), Request{
		System:      "sistema",
		User:        "pregunta",
		Temperature: 0.3,
		MaxTokens:   800,
		TopP:        0.9,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.Text != "Hola, estudiante." {
		t.Fatalf("Text=%q", out.Text)
	}
	if out.Model != "gpt-4o-mini-2024" || out.Usage.TotalTokens != 17 {
		t.Fatalf("unexpected completion: %+v", out)
	}
	if got.Instructions != "sistema" || len(got.Input) != 1 || got.Input[0].Content != "pregunta" {
		t.Fatalf("unexpected request: %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != 0.3 || got.TopP == nil || *got.TopP != 0.9 || got.MaxOutputTokens != 800 {
		t.Fatalf("sampling params not forwarded: %+v", got)
	}
}

func TestCompleteRetriesOnceWithoutTemperature(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		raw, _ := io.ReadAll(r.Body)
		if n == 1 {
			if !strings.Contains(string(raw), "temperature") {
				t.Errorf("first call should carry temperature")
			}
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"message":"Unsupported parameter: 'temperature' is not supported with this model."}}`)
			return
		}
		if strings.Contains(string(raw), "temperature") {
			t.Errorf("retry should omit temperature")
		}
		_, _ = io.WriteString(w, okBody)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), Request{User: "x", Temperature: 0.7}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls=%d, want 2", atomic.LoadInt32(&calls))
	}

	// the model is remembered and later calls skip temperature up front
	if _, err := c.Complete(context.Background(), Request{User: "y", Temperature: 0.7}); err != nil {
		t.Fatalf("Complete (second): %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls=%d, want 3", atomic.LoadInt32(&calls))
	}
}

func TestCompleteDoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Complete(context.Background(), Request{User: "x", Temperature: 0.7})
	if err == nil {
		t.Fatalf("expected error")
	}
	if StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("StatusCode=%d", StatusCode(err))
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls=%d, want 1", atomic.LoadInt32(&calls))
	}
}

func TestCompleteEmptyOutputIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"output":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.Complete(context.Background(), Request{User: "x"}); err == nil {
		t.Fatalf("expected error for empty output")
	}
}
