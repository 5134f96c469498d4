package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/acaduss/acaduss-backend/internal/observability"
	"github.com/acaduss/acaduss-backend/internal/platform/logger"
)

// Client is the completion surface the chatbot depends on. A nil Client
// means no completion API is configured.
type Client interface {
	Complete(ctx context.Context, req Request) (Completion, error)
	Model() string
}

// Request is one system+user completion. Zero Temperature, MaxTokens or TopP
// leave the parameter unset.
type Request struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type Completion struct {
	Text  string `json:"text"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	// models that rejected temperature once; the parameter is omitted afterwards
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

// NewClient errors when no API key is configured; callers treat that as
// running without completions.
func NewClient(log *logger.Logger, cfg Config) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o-mini"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &client{
		log:        log.With("service", "OpenAIClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		noTempSeen: map[string]bool{},
	}, nil
}

func (c *client) Model() string { return c.model }

type responsesInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string           `json:"model"`
	Instructions    string           `json:"instructions,omitempty"`
	Input           []responsesInput `json:"input"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TopP            *float64         `json:"top_p,omitempty"`
	MaxOutputTokens int              `json:"max_output_tokens,omitempty"`
}

type responsesResponse struct {
	Model  string `json:"model"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
	Usage   Usage  `json:"usage"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" && part.Text != "" {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String()
}

func (c *client) Complete(ctx context.Context, in Request) (Completion, error) {
	ctx, span := observability.StartSpan(ctx, "openai.responses",
		attribute.String("llm.model", c.model),
		attribute.Int("llm.max_tokens", in.MaxTokens),
	)
	defer span.End()

	req := responsesRequest{
		Model:           c.model,
		Instructions:    in.System,
		Input:           []responsesInput{{Role: "user", Content: in.User}},
		MaxOutputTokens: in.MaxTokens,
	}
	if in.Temperature > 0 && !c.modelIsNoTemp(c.model) {
		req.Temperature = f64ptr(in.Temperature)
	}
	if in.TopP > 0 {
		req.TopP = f64ptr(in.TopP)
	}

	start := time.Now()
	resp, err := c.doWithTempFallback(ctx, &req)
	metrics := observability.Current()
	if err != nil {
		metrics.ObserveLLMRequest(c.model, statusFromErr(err), time.Since(start), 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return Completion{}, err
	}
	metrics.ObserveLLMRequest(c.model, "200", time.Since(start), resp.Usage.InputTokens, resp.Usage.OutputTokens)

	if resp.Refusal != "" {
		return Completion{}, fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(*resp)
	if strings.TrimSpace(text) == "" {
		return Completion{}, fmt.Errorf("no output_text found in response")
	}
	model := resp.Model
	if model == "" {
		model = c.model
	}
	span.SetAttributes(attribute.Int("llm.output_tokens", resp.Usage.OutputTokens))
	return Completion{Text: text, Model: model, Usage: resp.Usage}, nil
}

// doWithTempFallback repeats the call once without temperature when the
// model rejects the parameter. Nothing else is retried.
func (c *client) doWithTempFallback(ctx context.Context, req *responsesRequest) (*responsesResponse, error) {
	resp, err := c.doOnce(ctx, req)
	if err == nil {
		return resp, nil
	}
	if req.Temperature == nil || !isUnsupportedTemperatureParam(err) {
		return nil, err
	}
	c.noteNoTempModel(req.Model)
	c.log.Warn("model rejected temperature, retrying without it", "model", req.Model)
	req.Temperature = nil
	return c.doOnce(ctx, req)
}

func (c *client) doOnce(ctx context.Context, body *responsesRequest) (*responsesResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(httpResp.Body)
	_ = httpResp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: httpResp.StatusCode, Body: string(raw)}
	}

	var out responsesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("openai decode error: %w", err)
	}
	return &out, nil
}

// HTTPError is a non-2xx answer from the API.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// StatusCode extracts the upstream HTTP status from err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func statusFromErr(err error) string {
	if code := StatusCode(err); code != 0 {
		return strconv.Itoa(code)
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func isUnsupportedTemperatureParam(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, frag := range []string{
		"unsupported parameter",
		"unknown parameter",
		"unrecognized parameter",
		"not supported",
		"does not support",
		"only the default",
		"unsupported_value",
	} {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}

func (c *client) modelIsNoTemp(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[strings.ToLower(strings.TrimSpace(model))]
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(strings.TrimSpace(model))] = true
	c.noTempMu.Unlock()
}

func f64ptr(v float64) *float64 { return &v }
