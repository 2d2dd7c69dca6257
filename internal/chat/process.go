package chat

import (
	"context"

	"github.com/vitte-ai/vitte-chat/internal/dialog"
	"github.com/vitte-ai/vitte-chat/internal/intimacy"
	"github.com/vitte-ai/vitte-chat/internal/llm"
	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/postprocess"
	"github.com/vitte-ai/vitte-chat/internal/prompt"
	"github.com/vitte-ai/vitte-chat/internal/safety"
	"github.com/vitte-ai/vitte-chat/internal/semantic"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// turnCommit carries what post-commit work needs from inside the
// transaction: the image trigger and the semantic write both run only after
// the turn is durable.
type turnCommit struct {
	dialog     model.Dialog
	personaKey string
	userText   string
	replyText  string
	count      int
}

// ProcessMessage runs one full user turn. The transaction spans dialog
// resolution, reads, and the turn's message inserts; the image trigger and
// the semantic memory write happen after commit, so a rollback leaves no
// trace of the turn anywhere.
func (s *Service) ProcessMessage(ctx context.Context, in ProcessInput) (*ProcessResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	user, err := s.store.Users().Get(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	var (
		result    ProcessResult
		committed *turnCommit
	)
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
		preCount := dlg.MessageCount
		result.DialogID = dlg.ID

		// Safety gate: persist the user's turn so they see it, answer with
		// the supportive fallback, and touch nothing else.
		if sr := safety.Classify(in.Text); !sr.IsSafe {
			if _, err := tx.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: model.RoleUser, Content: in.Text}); err != nil {
				return err
			}
			result.ReplyText = safety.SupportiveReply(persona, sr.Category)
			result.SafetyBlocked = true
			result.MessageCount = preCount + 1
			s.log.Info().Int64("user_id", user.ID).Int64("dialog_id", dlg.ID).
				Str("category", string(sr.Category)).Msg("safety gate fired")
			return nil
		}

		feats, history, err := s.loadGateInputs(ctx, tx, user.ID, dlg.ID)
		if err != nil {
			return err
		}

		turns := s.semantic.Search(ctx, user.ID, persona.ID, preCount, in.Text)

		analysis := intimacy.Analyze(in.Text)
		entitled := user.Entitlement == model.EntitlementActive || feats.AllowIntimate
		decision := intimacy.Decide(preCount, entitled, analysis.AsksForIntimacy)
		s.log.Info().Int64("user_id", user.ID).Int64("persona_id", persona.ID).
			Int("msg_count", preCount).Bool("entitled", entitled).
			Bool("sexting", decision.IsSexting).Str("decision", string(decision.Outcome)).
			Msg("intimacy gate")

		if decision.Outcome != model.IntimacyAllow {
			canned := intimacy.SoftBlockReply(persona)
			if decision.Outcome == model.IntimacyPaywall {
				canned = intimacy.PaywallReply(persona)
			}
			if _, err := tx.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: model.RoleUser, Content: in.Text}); err != nil {
				return err
			}
			if _, err := tx.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: model.RoleAssistant, Content: canned}); err != nil {
				return err
			}
			result.ReplyText = canned
			result.Decision = string(decision.Outcome)
			result.MessageCount = preCount + 2
			return nil
		}

		atmosphere := model.Atmosphere("")
		if dlg.Atmosphere != nil {
			atmosphere = model.Atmosphere(*dlg.Atmosphere)
		}
		msgs := prompt.Build(prompt.Input{
			Persona:            persona,
			Story:              s.storyFor(ctx, tx, persona, dlg.StoryKey),
			Mode:               in.Mode,
			Atmosphere:         atmosphere,
			FirstTurn:          preCount == 0,
			AllowIntimate:      decision.AllowIntimate && entitled,
			MemorySummary:      prompt.Summarize(history, 3),
			MemorySnippets:     semantic.FormatSnippets(turns),
			FeatureInstruction: feats.Instruction,
			ToneHint:           analysis.ToneHint(),
			History:            history,
			UserText:           in.Text,
		})

		// Lag-by-one pickup: attach the previous turn's image if it is ready.
		if s.images != nil {
			result.ImageURL = s.images.Pickup(ctx, dlg.ID)
		}

		reply, err := s.completeWithLanguageCheck(ctx, llm.Request{Messages: msgs})
		if err != nil {
			return err // rolls the whole turn back
		}

		if _, err := tx.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: model.RoleUser, Content: in.Text}); err != nil {
			return err
		}
		if _, err := tx.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: model.RoleAssistant, Content: reply}); err != nil {
			return err
		}
		if user.Entitlement == model.EntitlementTrial && user.TrialMessages > 0 {
			if err := tx.Users().DecrementTrial(ctx, user.ID); err != nil {
				return err
			}
		}

		result.ReplyText = reply
		result.MessageCount = preCount + 2
		committed = &turnCommit{
			dialog:     *dlg,
			personaKey: persona.Key,
			userText:   in.Text,
			replyText:  reply,
			count:      preCount + 2,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if committed != nil {
		s.afterCommit(ctx, committed)
	}
	return &result, nil
}

// afterCommit runs the best-effort side effects of a successful turn.
func (s *Service) afterCommit(ctx context.Context, c *turnCommit) {
	dlg := c.dialog
	dlg.MessageCount = c.count
	if s.images != nil {
		if marker := s.images.Trigger(ctx, &dlg, c.personaKey, c.userText); marker != nil {
			// Targeted write: the snapshot predates the commit, so a full-row
			// update could clobber concurrent dialog changes.
			if err := s.store.Dialogs().SetLastImageAt(ctx, dlg.ID, *marker); err != nil {
				s.log.Warn().Err(err).Int64("dialog_id", dlg.ID).Msg("last-image marker update failed")
			}
		}
	}
	s.semantic.WriteTurn(ctx, dlg.UserID, dlg.PersonaID, dlg.ID, c.userText, c.replyText)
}

// completeWithLanguageCheck runs the completion, strips repeated sentences
// and enforces the Russian-language check with a single retry. Both the
// process and the greeting paths go through here so the language contract
// stays uniform.
func (s *Service) completeWithLanguageCheck(ctx context.Context, req llm.Request) (string, error) {
	raw, err := s.llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	reply := postprocess.RemoveRepeatedSentences(raw)
	if !postprocess.NeedsLanguageRetry(reply) {
		return reply, nil
	}

	s.log.Info().Msg("reply failed language check, retrying once")
	retry := req
	retry.Messages = append(append([]llm.Message(nil), req.Messages...), llm.Message{
		Role:    string(model.RoleSystem),
		Content: postprocess.RussianRetryDirective,
	})
	raw, err = s.llm.Complete(ctx, retry)
	if err != nil {
		return "", err
	}
	reply = postprocess.RemoveRepeatedSentences(raw)
	if postprocess.NeedsLanguageRetry(reply) {
		// The canned fallback is persisted like any other reply.
		return postprocess.LanguageFallback, nil
	}
	return reply, nil
}
