package features

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/cache/memcache"
	"github.com/vitte-ai/vitte-chat/internal/store/storetest"
)

func TestResolvePopulatesAndUsesCache(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	st.SeedUnlock(7, CodeIntenseMode)
	mc := memcache.New()

	r := NewResolver(st, mc, time.Minute, zerolog.Nop())

	res, err := r.Resolve(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{CodeIntenseMode}, res.Codes)
	assert.True(t, res.AllowIntimate)
	assert.Contains(t, res.Instruction, "Режим страсти")

	// Second resolve must come from the cache: new unlocks in the store are
	// invisible until the TTL or an out-of-band invalidation.
	st.SeedUnlock(7, CodeFantasyScenes)
	res, err = r.Resolve(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []string{CodeIntenseMode}, res.Codes)

	// Explicit invalidation exposes the new code.
	require.NoError(t, mc.Del(ctx, CacheKey(7)))
	res, err = r.Resolve(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, res.Codes, 2)
	assert.Contains(t, res.Instruction, "Фантазии")
}

func TestResolveNoUnlocks(t *testing.T) {
	r := NewResolver(storetest.New(), memcache.New(), time.Minute, zerolog.Nop())
	res, err := r.Resolve(context.Background(), 99)
	require.NoError(t, err)
	assert.Empty(t, res.Codes)
	assert.False(t, res.AllowIntimate)
	assert.Empty(t, res.Instruction)
}

func TestResolveUnknownCodesDoNotAllowIntimate(t *testing.T) {
	st := storetest.New()
	st.SeedUnlock(5, "voice_messages")
	r := NewResolver(st, memcache.New(), time.Minute, zerolog.Nop())

	res, err := r.Resolve(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, res.AllowIntimate)
	assert.Empty(t, res.Instruction)
}
