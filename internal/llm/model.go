// Package llm adapts langchaingo chat models into the board's completion client.
package llm

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/boardroom/internal/config"
	"github.com/raphaelgruber/boardroom/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Backend is one configured chat model.
type Backend struct {
	Model llms.Model
	Name  string
}

// NewBackend creates a langchaingo model for the configured provider.
// A missing credential yields an error matching ErrUnavailable.
func NewBackend(ctx context.Context, cfg config.Config, modelName string) (Backend, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(modelName),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return Backend{}, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return Backend{}, fmt.Errorf("%w: OpenAI API key required", ErrUnavailable)
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(modelName),
		)
		if err != nil {
			return Backend{}, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return Backend{}, fmt.Errorf("%w: Anthropic API key required", ErrUnavailable)
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(modelName),
		)
		if err != nil {
			return Backend{}, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, awsErr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if awsErr != nil {
			return Backend{}, fmt.Errorf("%w: load aws config: %v", ErrUnavailable, awsErr)
		}
		model, err = bedrock.New(
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
			bedrock.WithModel(modelName),
		)
		if err != nil {
			return Backend{}, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return Backend{}, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return Backend{Model: model, Name: modelName}, nil
}

// NewBackends creates one backend per model tier.
func NewBackends(ctx context.Context, cfg config.Config) (map[models.ModelTier]Backend, error) {
	high, err := NewBackend(ctx, cfg, cfg.ModelHigh)
	if err != nil {
		return nil, fmt.Errorf("high tier: %w", err)
	}
	standard, err := NewBackend(ctx, cfg, cfg.ModelStandard)
	if err != nil {
		return nil, fmt.Errorf("standard tier: %w", err)
	}
	return map[models.ModelTier]Backend{
		models.TierHigh:     high,
		models.TierStandard: standard,
	}, nil
}
