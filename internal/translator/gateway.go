// Package translator sends text to an OpenAI-compatible chat completion
// endpoint, once per target locale.
package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pricofy/translation-desk/internal/apperrors"
	"github.com/pricofy/translation-desk/internal/logging"
)

// SystemPrompt is sent with every translation request.
const SystemPrompt = "You are a professional B2B marketing translator. " +
	"Preserve brand/product names (Bosch, BVMS, IVA Pro, PRAESENSA, AUTODOME, FLEXIDOME, VideoView+). " +
	"Return only the translation."

// Defaults applied when Config leaves a field empty.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = float32(0.2)
	DefaultDelay       = 120 * time.Millisecond
)

// Config holds the settings for a Gateway.
type Config struct {
	APIKey         string
	BaseURL        string // e.g. "https://api.openai.com/v1"
	Model          string
	Temperature    float32 // zero is omitted from the request by go-openai
	Delay          time.Duration // pause between consecutive calls
	MaxInputTokens int
}

// Gateway translates text one locale at a time.
type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	delay       time.Duration
	maxTokens   int
	logger      *zap.Logger
}

// New creates a Gateway.
func New(cfg Config, logger *zap.Logger) *Gateway {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	g := &Gateway{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		delay:       cfg.Delay,
		maxTokens:   cfg.MaxInputTokens,
		logger:      logger.Named("translator"),
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	if g.delay < 0 {
		g.delay = 0
	}
	if g.maxTokens <= 0 {
		g.maxTokens = DefaultMaxInputTokens
	}
	return g
}

// Translate returns one translation per target, keyed by locale. Targets are
// processed sequentially in order; the first failure aborts the whole call and
// no partial result is returned.
func (g *Gateway) Translate(ctx context.Context, text string, targets []string) (map[string]string, error) {
	if text == "" || len(targets) == 0 {
		return nil, apperrors.BadRequest("Missing text/targets")
	}
	if tokens := EstimateTokens(text); tokens > g.maxTokens {
		return nil, apperrors.BadRequest("Text too long: ~%d tokens, limit %d", tokens, g.maxTokens)
	}

	translations := make(map[string]string, len(targets))
	for i, locale := range targets {
		if i > 0 {
			if err := g.pause(ctx); err != nil {
				return nil, apperrors.Upstream(err, "OpenAI error: %v", err)
			}
		}

		out, err := g.translateOne(ctx, text, locale)
		if err != nil {
			return nil, err
		}
		translations[locale] = out
	}

	g.logger.Info("Translation completed",
		zap.Int("targets", len(targets)),
		zap.Int("estimated_tokens", EstimateTokens(text)))
	return translations, nil
}

func (g *Gateway) translateOne(ctx context.Context, text, locale string) (string, error) {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Target locale: %s\n%s", locale, text)},
		},
	})
	if err != nil {
		detail := upstreamText(err)
		g.logger.Error("Translation request failed",
			zap.String("locale", locale),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.Sanitize(detail)))
		return "", apperrors.Upstream(err, "OpenAI error: %s", detail)
	}

	g.logger.Debug("Translation request completed",
		zap.String("locale", locale),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *Gateway) pause(ctx context.Context) error {
	if g.delay == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// upstreamText extracts the provider's own error text when there is one.
func upstreamText(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && len(reqErr.Body) > 0 {
		return string(reqErr.Body)
	}
	return err.Error()
}
