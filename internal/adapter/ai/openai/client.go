// Package openai implements a real AI client backed by the OpenAI API.
package openai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/resume-ranker/internal/adapter/ai"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/resume-ranker/internal/adapter/observability"
	"github.com/fairyhunter13/resume-ranker/internal/config"
	"github.com/fairyhunter13/resume-ranker/internal/domain"
)

// Client implements domain.AIClient using OpenAI embeddings and chat
// completions.
type Client struct {
	cfg     config.Config
	chatHC  *http.Client
	embedHC *http.Client
	counter *tokencount.Counter
}

// New constructs a real AI client with sensible timeouts. Both clients trace
// outbound calls through otelhttp so provider latency shows up in spans.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("OpenAI %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		cfg:     cfg,
		chatHC:  &http.Client{Timeout: 60 * time.Second, Transport: transport},
		embedHC: &http.Client{Timeout: 30 * time.Second, Transport: transport},
		counter: tokencount.NewCounter(),
	}
}

// SourceTag identifies the embedding source and model; stored alongside every
// vector so rankings never mix models.
func (c *Client) SourceTag() string {
	return "openai:" + c.cfg.EmbeddingsModel
}

func (c *Client) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsedTime, initialInterval, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsedTime
	expo.InitialInterval = initialInterval
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// Embed calls the embeddings endpoint and returns one L2-normalized vector
// per input text, preserving order.
func (c *Client) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if c.cfg.OpenAIAPIKey == "" || c.cfg.EmbeddingsModel == "" {
		slog.Error("OpenAI API key or model missing", slog.String("provider", "openai"), slog.Bool("has_api_key", c.cfg.OpenAIAPIKey != ""), slog.String("model", c.cfg.EmbeddingsModel))
		return nil, fmt.Errorf("%w: OPENAI_API_KEY or EMBEDDINGS_MODEL missing", domain.ErrInvalidArgument)
	}
	body := map[string]any{
		"model": c.cfg.EmbeddingsModel,
		"input": texts,
	}
	b, _ := json.Marshal(body)
	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	op := func() error {
		start := time.Now()
		// Recreate request each attempt to avoid reusing consumed bodies
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/embeddings", bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.embedHC.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openai", "embed").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "embed").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		return decodeOrClassify(resp, "embed", c.cfg.EmbeddingsModel, &out)
	}
	bo := backoff.WithContext(c.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		slog.Error("OpenAI embeddings failed after retries", slog.String("provider", "openai"), slog.Any("error", err))
		return nil, fmt.Errorf("%w: openai embeddings: %v", domain.ErrProviderUnavailable, err)
	}
	if len(out.Data) != len(texts) {
		slog.Error("OpenAI embeddings returned wrong count", slog.Int("want", len(texts)), slog.Int("got", len(out.Data)))
		return nil, fmt.Errorf("%w: embeddings count mismatch", domain.ErrProviderUnavailable)
	}
	res := make([][]float32, len(out.Data))
	for i := range out.Data {
		v := make([]float32, len(out.Data[i].Embedding))
		for j := range out.Data[i].Embedding {
			v[j] = float32(out.Data[i].Embedding[j])
		}
		res[i] = v
	}
	return ai.NormalizeAll(res), nil
}

// ChatJSON calls chat completions in JSON mode and returns the message
// content. The user prompt is truncated to the configured token budget.
func (c *Client) ChatJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	if c.cfg.OpenAIAPIKey == "" {
		return "", fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}
	if c.cfg.ChatPromptBudget > 0 {
		before := len(userPrompt)
		userPrompt = c.counter.Truncate(userPrompt, c.cfg.ChatModel, c.cfg.ChatPromptBudget)
		if len(userPrompt) < before {
			slog.Warn("chat prompt truncated to token budget",
				slog.Int("budget", c.cfg.ChatPromptBudget),
				slog.Int("chars_before", before),
				slog.Int("chars_after", len(userPrompt)))
		}
	}
	body := map[string]any{
		"model": c.cfg.ChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature":     0.2,
		"response_format": map[string]string{"type": "json_object"},
	}
	if maxTokens > 0 {
		body["max_tokens"] = maxTokens
	}
	b, _ := json.Marshal(body)
	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	op := func() error {
		start := time.Now()
		r, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/chat/completions", bytes.NewReader(b))
		r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
		r.Header.Set("Content-Type", "application/json")
		resp, err := c.chatHC.Do(r)
		observability.AIRequestsTotal.WithLabelValues("openai", "chat").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "chat").Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		return decodeOrClassify(resp, "chat", c.cfg.ChatModel, &out)
	}
	bo := backoff.WithContext(c.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		slog.Error("OpenAI chat failed after retries", slog.String("provider", "openai"), slog.Any("error", err))
		return "", fmt.Errorf("%w: openai chat: %v", domain.ErrProviderUnavailable, err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty chat completion", domain.ErrProviderUnavailable)
	}
	return out.Choices[0].Message.Content, nil
}

// decodeOrClassify turns an HTTP response into a retryable error, a permanent
// error, or a decoded payload. 429 and 5xx retry; other 4xx are permanent.
func decodeOrClassify(resp *http.Response, op, model string, out any) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		slog.Warn("ai provider rate limited", slog.String("provider", "openai"), slog.String("op", op), slog.String("x_request_id", resp.Header.Get("X-Request-Id")))
		return fmt.Errorf("rate limited: 429")
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		slog.Warn("ai provider 4xx", slog.String("provider", "openai"), slog.String("op", op), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("body", readSnippet(resp.Body, 512)))
		return backoff.Permanent(fmt.Errorf("%s status %d", op, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		slog.Error("ai provider non-2xx", slog.String("provider", "openai"), slog.String("op", op), slog.Int("status", resp.StatusCode), slog.String("model", model), slog.String("body", readSnippet(resp.Body, 512)))
		return fmt.Errorf("%s status %d", op, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Error("ai provider decode error", slog.String("provider", "openai"), slog.String("op", op), slog.Any("error", err))
		return err
	}
	return nil
}

// readSnippet reads up to n bytes from r for diagnostics.
func readSnippet(r io.Reader, n int) string {
	if r == nil || n <= 0 {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return string(b)
}
