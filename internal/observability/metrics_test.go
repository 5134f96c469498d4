package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/health", "200", time.Millisecond)
	m.ObserveLLMRequest("gpt-4o-mini", "200", time.Second, 10, 20)
	m.IncIntent("greeting_with_help", "rules")
	m.IncPDFExtraction("cache_hit")
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestWritePrometheus(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/documents", "200", 30*time.Millisecond)
	m.ObserveAPI("GET", "/api/documents", "200", 3*time.Second)
	m.IncIntent("quiz_request", "ai")
	m.IncPDFExtraction("")
	m.APIInflight(1)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`acaduss_api_requests_total{method="GET",route="/api/documents",status="200"} 2`,
		`acaduss_api_request_duration_seconds_bucket{method="GET",route="/api/documents",status="200",le="0.05"} 1`,
		`acaduss_api_request_duration_seconds_bucket{method="GET",route="/api/documents",status="200",le="+Inf"} 2`,
		`acaduss_api_request_duration_seconds_count{method="GET",route="/api/documents",status="200"} 2`,
		`acaduss_chat_intents_total{type="quiz_request",source="ai"} 1`,
		`acaduss_pdf_extractions_total{outcome="unknown"} 1`,
		"acaduss_api_inflight_requests 1",
		"# TYPE acaduss_api_request_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestEscapeLabel(t *testing.T) {
	got := labelString([]string{"a"}, []string{"x\"y\\z\n"})
	want := `{a="x\"y\\z\n"}`
	if got != want {
		t.Fatalf("labelString=%s, want %s", got, want)
	}
}

func TestParseHeaders(t *testing.T) {
	got := ParseHeaders(" api-key = abc , broken, =x, team=edu ")
	if len(got) != 2 || got["api-key"] != "abc" || got["team"] != "edu" {
		t.Fatalf("ParseHeaders: %+v", got)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("ParseHeaders(empty): expected nil")
	}
}
