package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/config"
)

func TestResolve_FallsBackToLoremWithoutKey(t *testing.T) {
	f := NewProviderFactory(&config.Config{DefaultModel: "claude-haiku-4-5"})

	provider, info, err := f.Resolve()
	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.Equal(t, "lorem", info.Provider)
	assert.Equal(t, "lorem-fast", info.Model)
}

func TestResolve_ExplicitProviderOverridesInference(t *testing.T) {
	f := NewProviderFactory(&config.Config{DefaultModel: "claude-haiku-4-5", DefaultProvider: "lorem"})

	_, info, err := f.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "lorem", info.Provider)
	assert.Equal(t, "claude-haiku-4-5", info.Model)
}

func TestGetProvider_Unsupported(t *testing.T) {
	f := NewProviderFactory(&config.Config{})

	_, err := f.GetProvider("openrouter")
	assert.Error(t, err)

	_, err = f.GetProvider("anthropic")
	assert.Error(t, err)
}
