package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// Command names a paragraph gesture. The client maps its gestures to these;
// the backend never sees the gesture itself.
type Command string

const (
	CommandRequestCards Command = "request_cards"
	CommandRequestUndo  Command = "request_undo"
	CommandFocusEditor  Command = "focus_editor"
)

// CommandService dispatches named commands to the owning service
type CommandService interface {
	Dispatch(ctx context.Context, req *CommandRequest) (*CommandResult, error)
}

// CommandRequest is the input to Dispatch
type CommandRequest struct {
	UserID      string  `json:"-"`
	ParagraphID string  `json:"-"`
	Command     Command `json:"command"`
}

// CommandResult carries whatever the command produced
type CommandResult struct {
	Command   Command                 `json:"command"`
	Paragraph *writing.Paragraph      `json:"paragraph,omitempty"`
	Cards     []writing.ReferenceCard `json:"cards,omitempty"`
}
