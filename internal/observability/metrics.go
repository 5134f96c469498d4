package observability

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics is a small Prometheus text-format registry. A nil *Metrics is a
// valid disabled registry and every method on it is a no-op.
type Metrics struct {
	apiRequests *family
	apiLatency  *family
	apiInflight *family
	llmRequests *family
	llmLatency  *family
	llmTokens   *family
	intents     *family
	pdfExtract  *family
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide registry when enabled.
func Init(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

// Current returns the registry installed by Init, or nil.
func Current() *Metrics {
	return instance
}

func NewMetrics() *Metrics {
	latency := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}
	llm := []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120}
	return &Metrics{
		apiRequests: newFamily("acaduss_api_requests_total", "API requests by method/route/status.", kindCounter, []string{"method", "route", "status"}, nil),
		apiLatency:  newFamily("acaduss_api_request_duration_seconds", "API latency by method/route/status.", kindHistogram, []string{"method", "route", "status"}, latency),
		apiInflight: newFamily("acaduss_api_inflight_requests", "In-flight API requests.", kindGauge, nil, nil),
		llmRequests: newFamily("acaduss_llm_requests_total", "Completion requests by model/status.", kindCounter, []string{"model", "status"}, nil),
		llmLatency:  newFamily("acaduss_llm_request_duration_seconds", "Completion latency by model/status.", kindHistogram, []string{"model", "status"}, llm),
		llmTokens:   newFamily("acaduss_llm_tokens_total", "Completion tokens by model/direction.", kindCounter, []string{"model", "direction"}, nil),
		intents:     newFamily("acaduss_chat_intents_total", "Classified chat intents by type/source.", kindCounter, []string{"type", "source"}, nil),
		pdfExtract:  newFamily("acaduss_pdf_extractions_total", "PDF text lookups by outcome.", kindCounter, []string{"outcome"}, nil),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.add(1, orUnknown(method), orUnknown(route), orUnknown(status))
	m.apiLatency.observe(dur.Seconds(), orUnknown(method), orUnknown(route), orUnknown(status))
}

func (m *Metrics) APIInflight(delta float64) {
	if m == nil {
		return
	}
	m.apiInflight.add(delta)
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orUnknown(model)
	m.llmRequests.add(1, model, orUnknown(status))
	if dur > 0 {
		m.llmLatency.observe(dur.Seconds(), model, orUnknown(status))
	}
	if inputTokens > 0 {
		m.llmTokens.add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) IncIntent(intentType, source string) {
	if m == nil {
		return
	}
	m.intents.add(1, orUnknown(intentType), orUnknown(source))
}

// IncPDFExtraction records one text lookup: "cache_hit", "extracted" or "error".
func (m *Metrics) IncPDFExtraction(outcome string) {
	if m == nil {
		return
	}
	m.pdfExtract.add(1, orUnknown(outcome))
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, f := range []*family{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.intents, m.pdfExtract,
	} {
		if err := f.write(w); err != nil {
			return err
		}
	}
	return nil
}

// ---- exposition primitives ----

type metricKind string

const (
	kindCounter   metricKind = "counter"
	kindGauge     metricKind = "gauge"
	kindHistogram metricKind = "histogram"
)

type series struct {
	value   float64
	counts  []uint64 // histogram buckets plus +Inf
	sum     float64
	samples uint64
}

type family struct {
	name    string
	help    string
	kind    metricKind
	labels  []string
	buckets []float64

	mu     sync.Mutex
	series map[string]*series
}

func newFamily(name, help string, kind metricKind, labels []string, buckets []float64) *family {
	return &family{name: name, help: help, kind: kind, labels: labels, buckets: buckets, series: map[string]*series{}}
}

func (f *family) get(values []string) *series {
	key := labelString(f.labels, values)
	s, ok := f.series[key]
	if !ok {
		s = &series{}
		if f.kind == kindHistogram {
			s.counts = make([]uint64, len(f.buckets)+1)
		}
		f.series[key] = s
	}
	return s
}

func (f *family) add(v float64, values ...string) {
	f.mu.Lock()
	f.get(values).value += v
	f.mu.Unlock()
}

func (f *family) observe(v float64, values ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.get(values)
	s.sum += v
	s.samples++
	for i, b := range f.buckets {
		if v <= b {
			s.counts[i]++
		}
	}
	s.counts[len(f.buckets)]++
}

func (f *family) write(w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, f.help, f.name, f.kind); err != nil {
		return err
	}
	keys := make([]string, 0, len(f.series))
	for k := range f.series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s := f.series[k]
		if f.kind != kindHistogram {
			if _, err := fmt.Fprintf(w, "%s%s %g\n", f.name, k, s.value); err != nil {
				return err
			}
			continue
		}
		for i, b := range f.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", f.name, withLe(k, fmt.Sprintf("%g", b)), s.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n%s_sum%s %g\n%s_count%s %d\n",
			f.name, withLe(k, "+Inf"), s.counts[len(f.buckets)],
			f.name, k, s.sum,
			f.name, k, s.samples); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts[i] = name + `="` + escapeLabel(val) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func escapeLabel(v string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(v)
}

func withLe(labels, le string) string {
	if labels == "" {
		return `{le="` + le + `"}`
	}
	return strings.TrimSuffix(labels, "}") + `,le="` + le + `"}`
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
