package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/domain"
)

func TestParseCardDrafts(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    []CardDraft
		wantErr bool
	}{
		{
			name:   "bare array",
			output: `[{"title":"Rain","summary":"It rains."}]`,
			want:   []CardDraft{{Title: "Rain", Summary: "It rains."}},
		},
		{
			name:   "fenced with prose",
			output: "Here you go:\n```json\n[{\"title\":\" Tower \",\"summary\":\"Old stone.\"},{\"title\":\"Bell\",\"summary\":\"Rings at dusk.\"}]\n```\nEnjoy.",
			want: []CardDraft{
				{Title: "Tower", Summary: "Old stone."},
				{Title: "Bell", Summary: "Rings at dusk."},
			},
		},
		{name: "no array", output: "I cannot help with that.", wantErr: true},
		{name: "malformed", output: `[{"title": "x",]`, wantErr: true},
		{name: "empty array", output: `[]`, wantErr: true},
		{name: "missing summary", output: `[{"title":"x"}]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCardDrafts("generate_cards", tt.output)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrGeneration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
