package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/store/storetest"
)

func strPtr(s string) *string { return &s }

func seed(t *testing.T, st *storetest.Fake, personas int) {
	t.Helper()
	st.SeedUser(&model.User{ID: 1, Entitlement: model.EntitlementTrial, TrialMessages: 10})
	for i := 1; i <= personas; i++ {
		st.SeedPersona(&model.Persona{ID: int64(i), Key: "p", IsDefault: i == 1})
	}
}

func TestResolveCreatesWithLowestSlot(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	seed(t, st, 3)
	m := NewManager(5)

	d1, err := m.Resolve(ctx, st, 1, 1, Options{})
	require.NoError(t, err)
	require.NotNil(t, d1.Slot)
	assert.Equal(t, 1, *d1.Slot)

	d2, err := m.Resolve(ctx, st, 1, 2, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, *d2.Slot)
}

func TestResolveReturnsExistingActive(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	seed(t, st, 1)
	m := NewManager(5)

	d1, err := m.Resolve(ctx, st, 1, 1, Options{})
	require.NoError(t, err)
	d2, err := m.Resolve(ctx, st, 1, 1, Options{})
	require.NoError(t, err)
	assert.Equal(t, d1.ID, d2.ID)
}

func TestResolveAdoptsStoryAndAtmosphereOnce(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	seed(t, st, 1)
	m := NewManager(5)

	d1, err := m.Resolve(ctx, st, 1, 1, Options{})
	require.NoError(t, err)
	require.Nil(t, d1.StoryKey)

	d2, err := m.Resolve(ctx, st, 1, 1, Options{StoryKey: strPtr("beach"), Atmosphere: strPtr("cozy_evening")})
	require.NoError(t, err)
	require.NotNil(t, d2.StoryKey)
	assert.Equal(t, "beach", *d2.StoryKey)

	// Supplied values never overwrite ones already set.
	d3, err := m.Resolve(ctx, st, 1, 1, Options{StoryKey: strPtr("forest")})
	require.NoError(t, err)
	assert.Equal(t, "beach", *d3.StoryKey)
}

func TestResolveFillsSlotGaps(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	seed(t, st, 4)
	m := NewManager(5)

	d1, err := m.Resolve(ctx, st, 1, 1, Options{})
	require.NoError(t, err)
	d2, err := m.Resolve(ctx, st, 1, 2, Options{})
	require.NoError(t, err)
	_ = d2

	require.NoError(t, st.Dialogs().Deactivate(ctx, d1.ID))

	d3, err := m.Resolve(ctx, st, 1, 3, Options{})
	require.NoError(t, err)
	require.NotNil(t, d3.Slot)
	assert.Equal(t, 1, *d3.Slot, "released slot 1 must be reused")
}

func TestResolveOverflowGetsNilSlot(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	seed(t, st, 4)
	m := NewManager(3)

	for i := int64(1); i <= 3; i++ {
		d, err := m.Resolve(ctx, st, 1, i, Options{})
		require.NoError(t, err)
		require.NotNil(t, d.Slot)
	}
	overflow, err := m.Resolve(ctx, st, 1, 4, Options{})
	require.NoError(t, err)
	assert.Nil(t, overflow.Slot)
	assert.True(t, overflow.Active)
}
