package generator

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/teemow/inboxdraft/internal/instrumentation"
	"github.com/teemow/inboxdraft/internal/logging"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1000
)

// ErrGeneration wraps every failure to obtain reply text
var ErrGeneration = errors.New("reply generation failed")

// Generator turns a prompt into reply text
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the settings of an AnthropicGenerator
type Config struct {
	APIKey    string
	Model     string
	MaxTokens int

	// Options are passed to the SDK client after the API key
	Options []option.RequestOption

	Logger  logging.Logger
	Metrics *instrumentation.Metrics
}

// AnthropicGenerator sends each prompt as a single user message
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    logging.Logger
	metrics   *instrumentation.Metrics
}

var _ Generator = (*AnthropicGenerator)(nil)

// NewAnthropicGenerator creates a generator. Empty model and non-positive
// max tokens fall back to the defaults.
func NewAnthropicGenerator(cfg Config) *AnthropicGenerator {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	opts := append([]option.RequestOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	return &AnthropicGenerator{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: int64(maxTokens),
		logger:    logging.OrDefault(cfg.Logger),
		metrics:   cfg.Metrics,
	}
}

// Generate returns the first text block of the model's response
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	opCtx, done := instrumentation.ObserveOperation(ctx, g.metrics, instrumentation.ServiceAnthropic, instrumentation.OperationGenerate)
	msg, err := g.client.Messages.New(opCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		done(err)
		g.logger.Error("Error generating reply", "model", g.model, logging.Err(err))
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			done(nil)
			g.logger.Debug("Generated reply", "model", g.model, "output_tokens", msg.Usage.OutputTokens)
			return block.Text, nil
		}
	}

	err = fmt.Errorf("%w: response contains no text", ErrGeneration)
	done(err)
	return "", err
}
