// Package recency loads the short-term dialog window fed to the prompt
// builder. Storage stays the source of truth; deduplication here only shapes
// what the model sees.
package recency

import (
	"context"

	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// Loader reads the last N messages of a dialog.
type Loader struct {
	limit int
}

func NewLoader(limit int) *Loader { return &Loader{limit: limit} }

// Load returns up to the configured number of recent messages in
// chronological order, with consecutive duplicate assistant turns removed.
func (l *Loader) Load(ctx context.Context, st store.Store, dialogID int64) ([]*model.Message, error) {
	msgs, err := st.Messages().Recent(ctx, dialogID, l.limit)
	if err != nil {
		return nil, err
	}
	return DedupConsecutiveAssistant(msgs), nil
}

// DedupConsecutiveAssistant drops the later of two adjacent assistant
// messages carrying identical text. Transient duplicates otherwise snowball
// into the context and the model starts echoing them.
func DedupConsecutiveAssistant(msgs []*model.Message) []*model.Message {
	out := make([]*model.Message, 0, len(msgs))
	for _, m := range msgs {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.Role == model.RoleAssistant && m.Role == model.RoleAssistant && prev.Content == m.Content {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
