package chat

import (
	"context"
	"strings"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

// DialogSummary is one slotted dialog plus a short preview of its newest
// message for list views.
type DialogSummary struct {
	*model.Dialog
	LastMessage string `json:"lastMessage,omitempty"`
}

const previewRunes = 80

// ListDialogs returns the user's active slotted dialogs ordered by slot,
// each with a last-message preview.
func (s *Service) ListDialogs(ctx context.Context, userID int64) ([]*DialogSummary, error) {
	if _, err := s.store.Users().Get(ctx, userID); err != nil {
		return nil, err
	}
	dialogs, err := s.store.Dialogs().ListSlotted(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*DialogSummary, 0, len(dialogs))
	for _, d := range dialogs {
		sum := &DialogSummary{Dialog: d}
		last, err := s.store.Messages().Last(ctx, d.ID)
		if err != nil {
			s.log.Warn().Err(err).Int64("dialog_id", d.ID).Msg("last message lookup failed")
		} else if last != nil {
			sum.LastMessage = preview(last.Content)
		}
		out = append(out, sum)
	}
	return out, nil
}

func preview(text string) string {
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > previewRunes {
		return string(r[:previewRunes]) + "…"
	}
	return text
}

// ClearDialog deactivates the dialog, releasing its slot, and purges its
// long-term memory so a fresh dialog with the same persona starts clean.
// The message log itself is kept for the retention job to prune.
func (s *Service) ClearDialog(ctx context.Context, dialogID int64) error {
	if _, err := s.store.Dialogs().Get(ctx, dialogID); err != nil {
		return err
	}
	if err := s.store.Dialogs().Deactivate(ctx, dialogID); err != nil {
		return err
	}
	s.semantic.PurgeDialog(ctx, dialogID)
	return nil
}
