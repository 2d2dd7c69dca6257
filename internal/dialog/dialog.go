// Package dialog resolves the conversation channel for a (user, persona)
// pair and manages the per-user slot budget.
package dialog

import (
	"context"

	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// Manager assigns dialogs to slots. All writes are expected to run inside
// the orchestrator's turn transaction, so Resolve takes the store explicitly.
type Manager struct {
	slotBudget int
}

func NewManager(slotBudget int) *Manager { return &Manager{slotBudget: slotBudget} }

// Options are the optional dialog parameters a caller may supply.
type Options struct {
	StoryKey   *string
	Atmosphere *string
}

// Resolve returns the active dialog for (user, persona), creating one when
// none exists. An existing dialog opportunistically adopts the supplied
// story and atmosphere if it has none yet. New dialogs take the lowest free
// slot in [1..budget]; when the budget is exhausted the dialog is created
// unslotted and stays fully functional.
func (m *Manager) Resolve(ctx context.Context, st store.Store, userID, personaID int64, opts Options) (*model.Dialog, error) {
	existing, err := st.Dialogs().FindActive(ctx, userID, personaID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		changed := false
		if existing.StoryKey == nil && opts.StoryKey != nil {
			existing.StoryKey = opts.StoryKey
			changed = true
		}
		if existing.Atmosphere == nil && opts.Atmosphere != nil {
			existing.Atmosphere = opts.Atmosphere
			changed = true
		}
		if changed {
			if err := st.Dialogs().Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	slot, err := m.lowestFreeSlot(ctx, st, userID)
	if err != nil {
		return nil, err
	}
	return st.Dialogs().Create(ctx, &model.Dialog{
		UserID:     userID,
		PersonaID:  personaID,
		Slot:       slot,
		StoryKey:   opts.StoryKey,
		Atmosphere: opts.Atmosphere,
	})
}

func (m *Manager) lowestFreeSlot(ctx context.Context, st store.Store, userID int64) (*int, error) {
	used, err := st.Dialogs().UsedSlots(ctx, userID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(used))
	for _, s := range used {
		taken[s] = true
	}
	for s := 1; s <= m.slotBudget; s++ {
		if !taken[s] {
			slot := s
			return &slot, nil
		}
	}
	return nil, nil // overflow dialog
}
