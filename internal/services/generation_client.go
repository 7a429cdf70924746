package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/pawpack/backend/internal/services")

const (
	CallTypeExpertAnswer   = "expert_answer"
	CallTypeSafetyGuidance = "safety_guidance"

	maxResponseBytes = 4 << 20
)

// GenerationRequest is one logical request to the generation service.
type GenerationRequest struct {
	CallType        string
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
}

// TextGenerator produces text for a prompt. Every failure matches ErrGenerationUnavailable.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

// GenerationClient calls the Gemini generateContent endpoint, throttled and with bounded retries.
type GenerationClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	throttle   *Throttle
	retry      BackoffPolicy
	calls      *CallLog

	// newTimer overrides the backoff timer; nil uses real time.
	newTimer func() backoff.Timer
}

var _ TextGenerator = (*GenerationClient)(nil)

func NewGenerationClient(cfg config.GenerationConfig, throttle *Throttle, calls *CallLog) *GenerationClient {
	if throttle == nil {
		throttle = NewThrottle(cfg.MinCallInterval)
	}

	policy := DefaultBackoffPolicy()
	if cfg.MaxRetries >= 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	if cfg.BackoffBase > 0 {
		policy.Base = cfg.BackoffBase
	}
	if cfg.BackoffMultiplier > 0 {
		policy.Multiplier = cfg.BackoffMultiplier
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GenerationClient{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		throttle:   throttle,
		retry:      policy,
		calls:      calls,
	}
}

// Configured reports whether a service credential is present.
func (c *GenerationClient) Configured() bool {
	return c.apiKey != ""
}

func (c *GenerationClient) Model() string {
	return c.model
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiGenerateRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

var defaultSafetySettings = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// Generate issues one logical request. Transient failures are retried after
// Base, Base*Multiplier, ... up to MaxRetries times; every attempt waits on the throttle.
func (c *GenerationClient) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if !c.Configured() {
		return "", &GenerationError{Message: "generation service credential not configured"}
	}

	ctx, span := tracer.Start(ctx, "GenerationClient.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.model", c.model),
		attribute.String("ai.call_type", req.CallType),
		attribute.Int("ai.prompt_length", len(req.Prompt)),
	)

	log := logger.WithContext(map[string]interface{}{
		"component": "generation_client",
		"call_type": req.CallType,
		"model":     c.model,
	})

	var (
		text     string
		attempts int
		lastErr  *GenerationError
	)
	operation := func() error {
		if err := c.throttle.Wait(ctx); err != nil {
			return backoff.Permanent(&GenerationError{Message: "throttle wait aborted", Cause: err})
		}

		attempts++
		out, genErr := c.attempt(ctx, req, attempts)
		if genErr == nil {
			text = out
			return nil
		}

		lastErr = genErr
		if !genErr.Retryable {
			return backoff.Permanent(genErr)
		}
		return genErr
	}
	notify := func(err error, next time.Duration) {
		log.WithFields(map[string]interface{}{
			"attempt":     attempts + 1,
			"max_retries": c.retry.MaxRetries,
			"sleep":       next.String(),
			"error":       err.Error(),
		}).Warn("Generation request retrying")
	}

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}
	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(c.retry.BackOff(), ctx), notify, timer)
	if err == nil {
		span.SetAttributes(attribute.Int("ai.attempts", attempts))
		return text, nil
	}

	var genErr *GenerationError
	switch {
	case errors.As(err, &genErr) && !genErr.Retryable:
		log.WithField("error", genErr.Error()).Error("Generation request failed")
		return "", c.fail(span, genErr)
	case errors.As(err, &genErr):
		log.WithField("error", genErr.Error()).Error("Generation retries exhausted")
		return "", c.fail(span, &GenerationError{
			StatusCode: genErr.StatusCode,
			Message:    fmt.Sprintf("retries exhausted after %d attempts", attempts),
			Cause:      genErr,
		})
	default:
		aborted := &GenerationError{Message: "retry aborted", Cause: err}
		if lastErr != nil {
			aborted.StatusCode = lastErr.StatusCode
		}
		return "", c.fail(span, aborted)
	}
}

func (c *GenerationClient) fail(span trace.Span, err *GenerationError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	return err
}

// attempt performs a single HTTP round trip and records it in the call log.
func (c *GenerationClient) attempt(ctx context.Context, req GenerationRequest, attempt int) (string, *GenerationError) {
	start := time.Now()
	call := GenerationCall{
		ID:           uuid.NewString(),
		Timestamp:    start,
		Model:        c.model,
		CallType:     req.CallType,
		Attempt:      attempt,
		PromptLength: len(req.Prompt),
	}

	text, genErr := c.roundTrip(ctx, req, &call)

	call.Duration = time.Since(start)
	call.DurationMs = call.Duration.Milliseconds()
	if genErr != nil {
		call.Error = genErr.Error()
		call.Retryable = genErr.Retryable
	} else {
		call.Response = truncate(text, 500)
	}
	c.calls.Add(call)

	return text, genErr
}

func (c *GenerationClient) roundTrip(ctx context.Context, req GenerationRequest, call *GenerationCall) (string, *GenerationError) {
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}

	payload, err := json.Marshal(geminiGenerateRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
		SafetySettings: defaultSafetySettings,
	})
	if err != nil {
		return "", &GenerationError{Message: "failed to marshal request", Cause: err}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &GenerationError{Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failures are transient unless our own context ended.
		return "", &GenerationError{Message: "HTTP request failed", Retryable: ctx.Err() == nil, Cause: err}
	}
	defer resp.Body.Close()
	call.Status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &GenerationError{StatusCode: resp.StatusCode, Message: "failed to read response", Retryable: true, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", classifyHTTPFailure(resp.StatusCode, string(raw))
	}

	var decoded geminiGenerateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &GenerationError{StatusCode: resp.StatusCode, Message: "unparseable response body", Cause: err}
	}

	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return "", &GenerationError{
			StatusCode: resp.StatusCode,
			Message:    "prompt blocked",
			Cause:      errors.New(decoded.PromptFeedback.BlockReason),
		}
	}

	text := decoded.text()
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{StatusCode: resp.StatusCode, Message: "response missing candidate text"}
	}
	return text, nil
}

func (r geminiGenerateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
