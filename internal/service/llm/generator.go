// Package llm implements the text-generation capability on top of
// meridian-llm-go providers.
package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	llmprovider "github.com/haowjy/meridian-llm-go"

	"episodic/internal/domain"
	domainllm "episodic/internal/domain/services/llm"
)

const (
	blockTypeText = "text"
	roleUser      = "user"
)

// ErrEmptyCompletion is wrapped in a GenerationError when the provider
// returns no text.
var ErrEmptyCompletion = errors.New("empty completion")

// Generator sends one user message per call and returns the concatenated
// text blocks of the reply.
type Generator struct {
	provider llmprovider.Provider
	model    string
	logger   *slog.Logger
}

// NewGenerator creates a generator bound to one provider and model
func NewGenerator(provider llmprovider.Provider, model string, logger *slog.Logger) domainllm.TextGenerator {
	return &Generator{
		provider: provider,
		model:    model,
		logger:   logger.With("component", "generator"),
	}
}

// Generate implements domainllm.TextGenerator
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	text := prompt
	req := &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{
			{
				Role: roleUser,
				Blocks: []*llmprovider.Block{
					{BlockType: blockTypeText, TextContent: &text},
				},
			},
		},
		Model: g.model,
	}

	start := time.Now()
	resp, err := g.provider.GenerateResponse(ctx, req)
	if err != nil {
		g.logger.Error("generation failed", "model", g.model, "error", err)
		return "", domain.NewGeneration("generate", err)
	}

	var sb strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != blockTypeText || block.TextContent == nil {
			continue
		}
		sb.WriteString(*block.TextContent)
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", domain.NewGeneration("generate", ErrEmptyCompletion)
	}

	g.logger.Debug("generation complete",
		"model", g.model,
		"prompt_chars", len(prompt),
		"output_chars", len(out),
		"duration", time.Since(start),
	)
	return out, nil
}
