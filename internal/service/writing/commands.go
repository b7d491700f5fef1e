package writing

import (
	"context"
	"log/slog"

	"episodic/internal/domain"
	writingSvc "episodic/internal/domain/services/writing"
)

type commandService struct {
	cards    writingSvc.CardService
	revision writingSvc.RevisionService
	logger   *slog.Logger
}

// NewCommandService creates the named-command dispatcher
func NewCommandService(cards writingSvc.CardService, revision writingSvc.RevisionService, logger *slog.Logger) writingSvc.CommandService {
	return &commandService{
		cards:    cards,
		revision: revision,
		logger:   logger.With("service", "command"),
	}
}

func (s *commandService) Dispatch(ctx context.Context, req *writingSvc.CommandRequest) (*writingSvc.CommandResult, error) {
	result := &writingSvc.CommandResult{Command: req.Command}

	switch req.Command {
	case writingSvc.CommandRequestCards:
		cards, err := s.cards.GenerateCards(ctx, &writingSvc.GenerateCardsRequest{
			UserID:      req.UserID,
			ParagraphID: req.ParagraphID,
		})
		if err != nil {
			return nil, err
		}
		result.Cards = cards

	case writingSvc.CommandRequestUndo:
		p, err := s.revision.Undo(ctx, req.UserID, req.ParagraphID)
		if err != nil {
			return nil, err
		}
		result.Paragraph = p

	case writingSvc.CommandFocusEditor:
		p, err := s.revision.GetParagraph(ctx, req.UserID, req.ParagraphID)
		if err != nil {
			return nil, err
		}
		result.Paragraph = p

	default:
		return nil, domain.NewValidation("unknown command %q", req.Command)
	}

	s.logger.Debug("command dispatched", "command", req.Command, "paragraph_id", req.ParagraphID)
	return result, nil
}
