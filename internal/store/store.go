package store

import (
	"context"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

// Store exposes persistence operations required by the chat pipeline.
// Implementations live under internal/store/<driver>/ (e.g., postgres) plus
// an in-memory fake under storetest.
type Store interface {
	Users() Users
	Personas() Personas
	Dialogs() Dialogs
	Messages() Messages
	Features() Features

	// WithinTx runs fn against a transactional view of the store. The turn
	// transaction spans dialog resolution, reads, message inserts and counter
	// updates; fn returning an error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type Users interface {
	Get(ctx context.Context, userID int64) (*model.User, error)
	// DecrementTrial consumes one trial message if any remain.
	DecrementTrial(ctx context.Context, userID int64) error
}

type Personas interface {
	GetByID(ctx context.Context, personaID int64) (*model.Persona, error)
	GetByKey(ctx context.Context, key string) (*model.Persona, error)
	Default(ctx context.Context) (*model.Persona, error)
	Stories(ctx context.Context, personaID int64) ([]*model.Story, error)
}

type Dialogs interface {
	Get(ctx context.Context, dialogID int64) (*model.Dialog, error)
	// FindActive returns the active dialog for (user, persona), or nil.
	FindActive(ctx context.Context, userID, personaID int64) (*model.Dialog, error)
	// UsedSlots returns the slot indexes currently held by the user's active
	// dialogs, in no particular order.
	UsedSlots(ctx context.Context, userID int64) ([]int, error)
	Create(ctx context.Context, d *model.Dialog) (*model.Dialog, error)
	// Update persists mutable dialog fields: story, atmosphere, slot,
	// last-image counter, greeting image index.
	Update(ctx context.Context, d *model.Dialog) error
	// SetLastImageAt writes only the last-image marker, so post-commit
	// bookkeeping cannot clobber fields updated concurrently.
	SetLastImageAt(ctx context.Context, dialogID int64, lastImageAt int) error
	// ListSlotted returns the user's active slotted dialogs ordered by slot.
	ListSlotted(ctx context.Context, userID int64) ([]*model.Dialog, error)
	// Deactivate releases the dialog's slot and marks it inactive.
	Deactivate(ctx context.Context, dialogID int64) error
}

type Messages interface {
	// Append inserts the message and bumps the parent dialog's message_count
	// in the same statement scope, keeping the count invariant intact.
	Append(ctx context.Context, m *model.Message) (*model.Message, error)
	// Recent returns up to limit most recent messages in chronological order.
	Recent(ctx context.Context, dialogID int64, limit int) ([]*model.Message, error)
	// Last returns the newest message of the dialog, or nil.
	Last(ctx context.Context, dialogID int64) (*model.Message, error)
	CountByDialog(ctx context.Context, dialogID int64) (int, error)
}

type Features interface {
	// UnlockedCodes returns the feature codes the user has unlocked and enabled.
	UnlockedCodes(ctx context.Context, userID int64) ([]string, error)
}
