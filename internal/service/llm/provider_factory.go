package llm

import (
	"fmt"
	"log/slog"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/lorem"

	"episodic/internal/config"
	domainllm "episodic/internal/domain/services/llm"
)

const (
	providerAnthropic = "anthropic"
	providerLorem     = "lorem"

	// loremModel is sent when the offline provider stands in for anthropic
	loremModel = "lorem-fast"
)

// ProviderFactory creates LLM provider instances
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{
		config: cfg,
	}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - Mock provider for local development (no API key required)
func (f *ProviderFactory) GetProvider(providerName string) (llmprovider.Provider, error) {
	switch providerName {
	case providerAnthropic:
		return f.createAnthropicProvider()
	case providerLorem:
		return lorem.NewProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// Resolve picks the provider and model for DEFAULT_MODEL. DEFAULT_PROVIDER
// wins over the inferred provider when set. Without an Anthropic key the
// lorem provider stands in so the dev server still starts.
func (f *ProviderFactory) Resolve() (llmprovider.Provider, *ModelInfo, error) {
	info, err := ParseModel(f.config.DefaultModel)
	if err != nil {
		return nil, nil, err
	}
	if f.config.DefaultProvider != "" {
		info.Provider = f.config.DefaultProvider
	}
	if info.Provider == providerAnthropic && f.config.AnthropicAPIKey == "" {
		info = &ModelInfo{Provider: providerLorem, Model: loremModel}
	}

	provider, err := f.GetProvider(info.Provider)
	if err != nil {
		return nil, nil, err
	}
	return provider, info, nil
}

// NewDefaultGenerator resolves the configured provider and wraps it
func (f *ProviderFactory) NewDefaultGenerator(logger *slog.Logger) (domainllm.TextGenerator, *ModelInfo, error) {
	provider, info, err := f.Resolve()
	if err != nil {
		return nil, nil, err
	}
	return NewGenerator(provider, info.Model, logger), info, nil
}

func (f *ProviderFactory) createAnthropicProvider() (llmprovider.Provider, error) {
	if f.config.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	provider, err := anthropic.NewProvider(f.config.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}

	return provider, nil
}
