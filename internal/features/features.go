// Package features resolves the paid feature codes a user has unlocked and
// enabled, with a short-TTL cache in front of the store. The payments
// collaborator invalidates the cache key out-of-band after a purchase.
package features

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vitte-ai/vitte-chat/internal/cache"
	"github.com/vitte-ai/vitte-chat/internal/store"
)

// Known feature codes and the instruction fragments they contribute to the
// system prompt.
const (
	CodeIntenseMode   = "intense_mode"
	CodeFantasyScenes = "fantasy_scenes"
)

var instructionFragments = map[string]string{
	CodeIntenseMode:   "Режим страсти активен: персонаж общается смелее и чувственнее.",
	CodeFantasyScenes: "Фантазии и сцены доступны: допускай более образные сценарии, когда это уместно.",
}

// Resolution is the resolver's per-user output consumed by the gate and the
// prompt builder.
type Resolution struct {
	Codes         []string
	AllowIntimate bool
	Instruction   string
}

// Resolver reads unlocked codes through the shared cache.
type Resolver struct {
	store store.Store
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewResolver(st store.Store, c cache.Cache, ttl time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{store: st, cache: c, ttl: ttl, log: log.With().Str("component", "features").Logger()}
}

// CacheKey is the per-user cache key. Exposed so the payments collaborator's
// invalidation contract is visible in one place.
func CacheKey(userID int64) string { return fmt.Sprintf("features:%d", userID) }

// Resolve returns the user's unlocked codes, preferring the cache. Cache
// failures fall back to the store; store failures surface to the caller.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (*Resolution, error) {
	key := CacheKey(userID)
	if raw, err := r.cache.Get(ctx, key); err == nil {
		var codes []string
		if jsonErr := json.Unmarshal([]byte(raw), &codes); jsonErr == nil {
			return buildResolution(codes), nil
		}
		// Corrupt entry; drop and fall through to the store.
		_ = r.cache.Del(ctx, key)
	}

	codes, err := r.store.Features().UnlockedCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(codes); err == nil {
		if cerr := r.cache.Set(ctx, key, string(raw), r.ttl); cerr != nil {
			r.log.Warn().Err(cerr).Int64("user_id", userID).Msg("feature cache write failed")
		}
	}
	return buildResolution(codes), nil
}

func buildResolution(codes []string) *Resolution {
	res := &Resolution{Codes: codes}
	var parts []string
	for _, code := range codes {
		if frag, ok := instructionFragments[code]; ok {
			res.AllowIntimate = true
			parts = append(parts, frag)
		}
	}
	res.Instruction = strings.Join(parts, " ")
	return res
}
