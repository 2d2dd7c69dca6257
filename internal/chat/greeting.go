package chat

import (
	"context"

	"github.com/vitte-ai/vitte-chat/internal/dialog"
	"github.com/vitte-ai/vitte-chat/internal/llm"
	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/prompt"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// GreetingInput parameterizes a proactive assistant turn. IsReturn requests
// re-entry framing; it is honored only when the dialog has history.
type GreetingInput struct {
	UserID     int64
	PersonaID  *int64
	StoryKey   *string
	Atmosphere *string
	IsReturn   bool
}

// GreetingResult is the greeting turn's outcome. GreetingImageIndex tells
// the messaging collaborator which of the persona's greeting assets to
// attach; it rotates per dialog.
type GreetingResult struct {
	ReplyText          string `json:"replyText"`
	DialogID           int64  `json:"dialogId"`
	MessageCount       int    `json:"messageCount"`
	GreetingImageIndex int    `json:"greetingImageIndex"`
}

// GenerateGreeting produces a proactive opening or re-entry message. Only
// the assistant message is persisted; the safety gate and the image
// side-channel are skipped since there is no user input.
func (s *Service) GenerateGreeting(ctx context.Context, in GreetingInput) (*GreetingResult, error) {
	user, err := s.store.Users().Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	var result GreetingResult
	err = s.store.WithinTx(ctx, func(tx store.Store) error {
		persona, err := s.resolvePersona(ctx, tx, user, in.PersonaID)
		if err != nil {
			return err
		}
		dlg, err := s.dialogs.Resolve(ctx, tx, user.ID, persona.ID, dialog.Options{
			StoryKey:   in.StoryKey,
			Atmosphere: in.Atmosphere,
		})
		if err != nil {
			return err
		}
		result.DialogID = dlg.ID

		// A return request on an empty dialog degrades to the first
		// greeting; first framing is always available.
		mode := model.ModeGreetingFirst
		if in.IsReturn && dlg.MessageCount > 0 {
			mode = model.ModeGreetingReturn
		}

		history, err := s.recency.Load(ctx, tx, dlg.ID)
		if err != nil {
			return err
		}

		atmosphere := model.Atmosphere("")
		if dlg.Atmosphere != nil {
			atmosphere = model.Atmosphere(*dlg.Atmosphere)
		}
		msgs := prompt.Build(prompt.Input{
			Persona:       persona,
			Story:         s.storyFor(ctx, tx, persona, dlg.StoryKey),
			Mode:          mode,
			Atmosphere:    atmosphere,
			FirstTurn:     dlg.MessageCount == 0,
			AllowIntimate: false,
			MemorySummary: prompt.Summarize(history, 3),
			History:       history,
		})

		reply, err := s.completeWithLanguageCheck(ctx, llm.Request{
			Messages:    msgs,
			Model:       s.greetingModel,
			Temperature: s.greetingTemperature,
			MaxTokens:   s.greetingMaxTokens,
		})
		if err != nil {
			return err
		}

		if _, err := tx.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: model.RoleAssistant, Content: reply}); err != nil {
			return err
		}

		// Rotate the greeting asset pointer so repeated greetings vary.
		result.GreetingImageIndex = dlg.GreetingImageIndex
		dlg.GreetingImageIndex++
		if err := tx.Dialogs().Update(ctx, dlg); err != nil {
			return err
		}

		result.ReplyText = reply
		result.MessageCount = dlg.MessageCount + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
