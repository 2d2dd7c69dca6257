package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

func TestSetLastImageAtTouchesOnlyMarker(t *testing.T) {
	f := New()
	ctx := context.Background()

	dlg, err := f.Dialogs().Create(ctx, &model.Dialog{UserID: 1, PersonaID: 1})
	require.NoError(t, err)

	// Another writer bumps the greeting index after our snapshot.
	cp := *dlg
	cp.GreetingImageIndex = 4
	require.NoError(t, f.Dialogs().Update(ctx, &cp))

	require.NoError(t, f.Dialogs().SetLastImageAt(ctx, dlg.ID, 7))

	got, err := f.Dialogs().Get(ctx, dlg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastImageAt)
	assert.Equal(t, 7, *got.LastImageAt)
	assert.Equal(t, 4, got.GreetingImageIndex, "marker write must not clobber other fields")

	assert.ErrorIs(t, f.Dialogs().SetLastImageAt(ctx, 999, 1), model.ErrDialogNotFound)
}
