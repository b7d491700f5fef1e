package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"episodic/internal/domain"
)

// CardDraft is one card as the model returns it
type CardDraft struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// ParseCardDrafts pulls the JSON array out of a completion. Models wrap the
// array in prose or code fences, so everything outside the outermost
// brackets is ignored. Drafts without a title or summary are rejected.
func ParseCardDrafts(op, output string) ([]CardDraft, error) {
	start := strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start < 0 || end <= start {
		return nil, domain.NewGeneration(op, fmt.Errorf("no JSON array in output"))
	}

	var drafts []CardDraft
	if err := json.Unmarshal([]byte(output[start:end+1]), &drafts); err != nil {
		return nil, domain.NewGeneration(op, fmt.Errorf("malformed card array: %w", err))
	}
	if len(drafts) == 0 {
		return nil, domain.NewGeneration(op, fmt.Errorf("model returned no cards"))
	}

	for i := range drafts {
		drafts[i].Title = strings.TrimSpace(drafts[i].Title)
		drafts[i].Summary = strings.TrimSpace(drafts[i].Summary)
		if drafts[i].Title == "" || drafts[i].Summary == "" {
			return nil, domain.NewGeneration(op, fmt.Errorf("card %d is missing title or summary", i))
		}
	}
	return drafts, nil
}
