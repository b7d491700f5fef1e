package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		modelStr     string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{modelStr: "claude-haiku-4-5", wantProvider: "anthropic", wantModel: "claude-haiku-4-5"},
		{modelStr: "lorem-fast", wantProvider: "lorem", wantModel: "lorem-fast"},
		{modelStr: "anthropic/claude-sonnet-4-5", wantProvider: "anthropic", wantModel: "claude-sonnet-4-5"},
		{modelStr: " claude-haiku-4-5 ", wantProvider: "anthropic", wantModel: "claude-haiku-4-5"},
		{modelStr: "", wantErr: true},
		{modelStr: "/claude", wantErr: true},
		{modelStr: "anthropic/", wantErr: true},
		{modelStr: "gpt-4o", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.modelStr, func(t *testing.T) {
			got, err := ParseModel(tt.modelStr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, got.Provider)
			assert.Equal(t, tt.wantModel, got.Model)
		})
	}
}
