// Package openai implements domain.EmbeddingProvider on an OpenAI-compatible
// embeddings API.
package openai

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/gradewise/ai-answer-evaluator/internal/adapter/observability"
	"github.com/gradewise/ai-answer-evaluator/internal/config"
	"github.com/gradewise/ai-answer-evaluator/internal/domain"
)

// Embedder calls the embeddings endpoint with retry on transient failures.
type Embedder struct {
	cfg    config.Config
	client *openai.Client
}

// New constructs an Embedder from configuration.
func New(cfg config.Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.EmbedTimeout}
	return &Embedder{cfg: cfg, client: openai.NewClientWithConfig(clientCfg)}
}

// Embed returns one vector per input text, preserving order. The reference
// and student text of a question are expected in the same batch. Rate limits
// and 5xx responses are retried with exponential backoff; other client errors
// are permanent.
func (e *Embedder) Embed(ctx domain.Context, texts []string) ([][]float32, error) {
	if e.cfg.OpenAIAPIKey == "" || e.cfg.EmbeddingsModel == "" {
		slog.Error("OpenAI API key or model missing", slog.String("provider", "openai"), slog.Bool("has_api_key", e.cfg.OpenAIAPIKey != ""), slog.String("model", e.cfg.EmbeddingsModel))
		return nil, fmt.Errorf("%w: OPENAI_API_KEY or EMBEDDINGS_MODEL missing", domain.ErrInvalidArgument)
	}
	slog.Info("calling embeddings API", slog.String("provider", "openai"), slog.String("model", e.cfg.EmbeddingsModel), slog.Int("text_count", len(texts)))

	var resp openai.EmbeddingResponse
	op := func() error {
		start := time.Now()
		var err error
		resp, err = e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:          texts,
			Model:          openai.EmbeddingModel(e.cfg.EmbeddingsModel),
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		})
		observability.AIRequestsTotal.WithLabelValues("openai", "embed").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "embed").Observe(time.Since(start).Seconds())
		if err != nil {
			return classify(err)
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime, expo.InitialInterval, expo.MaxInterval, expo.Multiplier = e.cfg.GetAIBackoffConfig()
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		slog.Error("embeddings API failed after retries", slog.String("provider", "openai"), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		slog.Error("embeddings API returned wrong vector count", slog.String("provider", "openai"), slog.Int("want", len(texts)), slog.Int("got", len(resp.Data)))
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(resp.Data), len(texts))
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// classify marks non-retryable API errors as permanent so backoff stops early.
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			slog.Warn("embeddings provider transient error", slog.String("provider", "openai"), slog.Int("status", apiErr.HTTPStatusCode))
			return err
		}
		slog.Warn("embeddings provider 4xx", slog.String("provider", "openai"), slog.Int("status", apiErr.HTTPStatusCode), slog.String("message", apiErr.Message))
		return backoff.Permanent(err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 && reqErr.HTTPStatusCode != http.StatusTooManyRequests {
		return backoff.Permanent(err)
	}
	return err
}
