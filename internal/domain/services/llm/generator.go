package llm

import "context"

// TextGenerator is the opaque text-generation capability the writing
// services depend on. Implementations return a *domain.GenerationError on
// failure; an empty completion is also a failure.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
