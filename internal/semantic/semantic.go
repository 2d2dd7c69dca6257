// Package semantic is the long-term memory layer: embedding-backed search
// over past dialog turns plus best-effort writes after a committed turn.
// Nothing here may fail a reply; every error degrades to "no memory block".
package semantic

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/embeddings"
	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/semanticindex"
)

// Memory wraps the embedding provider and vector index behind the two
// operations the orchestrator needs.
type Memory struct {
	embedder   embeddings.Provider
	index      semanticindex.Index
	topK       int
	minSim     float64
	minHistory int
	log        zerolog.Logger
}

func New(e embeddings.Provider, idx semanticindex.Index, topK int, minSim float64, minHistory int, log zerolog.Logger) *Memory {
	return &Memory{
		embedder:   e,
		index:      idx,
		topK:       topK,
		minSim:     minSim,
		minHistory: minHistory,
		log:        log.With().Str("component", "semantic").Logger(),
	}
}

// Search retrieves relevant past turns for the inbound text. Skipped for
// young dialogs (messageCount <= minHistory) where there is nothing worth
// finding. Backend failures return an empty result, never an error.
func (m *Memory) Search(ctx context.Context, userID, personaID int64, messageCount int, text string) []semanticindex.Turn {
	if messageCount <= m.minHistory {
		return nil
	}
	vec, err := m.embedder.Embed(ctx, text)
	if err != nil {
		m.log.Warn().Err(err).Int64("user_id", userID).Msg("embed failed, skipping memory search")
		return nil
	}
	turns, err := m.index.SearchTurns(ctx, userID, personaID, vec, m.topK, m.minSim)
	if err != nil {
		m.log.Warn().Err(err).Int64("user_id", userID).Msg("memory search failed")
		return nil
	}
	return turns
}

// WriteTurn embeds and stores both halves of a committed turn. Best-effort:
// failures are logged and swallowed.
func (m *Memory) WriteTurn(ctx context.Context, userID, personaID, dialogID int64, userText, assistantText string) {
	now := time.Now().UTC()
	halves := []struct {
		role model.Role
		text string
	}{
		{model.RoleUser, userText},
		{model.RoleAssistant, assistantText},
	}
	for _, h := range halves {
		if strings.TrimSpace(h.text) == "" {
			continue
		}
		vec, err := m.embedder.Embed(ctx, h.text)
		if err != nil {
			m.log.Warn().Err(err).Int64("dialog_id", dialogID).Str("role", string(h.role)).Msg("embed failed, memory write dropped")
			continue
		}
		turn := semanticindex.Turn{
			UserID:    userID,
			PersonaID: personaID,
			DialogID:  dialogID,
			Role:      string(h.role),
			Text:      h.text,
			Timestamp: now,
		}
		if err := m.index.UpsertTurn(ctx, uuid.NewString(), vec, turn); err != nil {
			m.log.Warn().Err(err).Int64("dialog_id", dialogID).Str("role", string(h.role)).Msg("memory write failed")
		}
	}
}

// PurgeDialog removes all stored turns of a dialog, used when the user
// clears a conversation. Best-effort.
func (m *Memory) PurgeDialog(ctx context.Context, dialogID int64) {
	if err := m.index.DeleteDialog(ctx, dialogID); err != nil {
		m.log.Warn().Err(err).Int64("dialog_id", dialogID).Msg("memory purge failed")
	}
}

// FormatSnippets renders retrieved turns as the bullet list injected into
// the prompt's memory block.
func FormatSnippets(turns []semanticindex.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range turns {
		label := "собеседник"
		if t.Role == string(model.RoleAssistant) {
			label = "ты"
		}
		fmt.Fprintf(&b, "- (%s) %s\n", label, t.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}
