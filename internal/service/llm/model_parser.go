package llm

import (
	"fmt"
	"strings"
)

// ModelInfo is a model string split into the provider that serves it and
// the id that provider expects
type ModelInfo struct {
	Provider string
	Model    string
}

// ParseModel resolves DEFAULT_MODEL. "provider/model" is taken literally;
// a bare id is matched on its prefix ("claude-" is anthropic, "lorem" is the
// offline provider).
func ParseModel(modelStr string) (*ModelInfo, error) {
	modelStr = strings.TrimSpace(modelStr)
	if modelStr == "" {
		return nil, fmt.Errorf("model string cannot be empty")
	}

	if provider, model, ok := strings.Cut(modelStr, "/"); ok {
		if provider == "" || model == "" {
			return nil, fmt.Errorf("invalid model format: %s (expected provider/model)", modelStr)
		}
		return &ModelInfo{Provider: provider, Model: model}, nil
	}

	provider := inferProvider(modelStr)
	if provider == "" {
		return nil, fmt.Errorf("unable to infer provider from model: %s", modelStr)
	}
	return &ModelInfo{Provider: provider, Model: modelStr}, nil
}

func inferProvider(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude-"):
		return providerAnthropic
	case strings.HasPrefix(lower, "lorem"):
		return providerLorem
	default:
		return ""
	}
}
