package intimacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

func TestDecideTable(t *testing.T) {
	cases := []struct {
		name     string
		count    int
		entitled bool
		sexting  bool
		want     model.IntimacyDecision
		allow    bool
	}{
		{"no intent always allows", 0, false, false, model.IntimacyAllow, true},
		{"no intent entitled", 50, true, false, model.IntimacyAllow, true},
		{"early sexting soft blocks", 3, true, true, model.IntimacySoftBlock, false},
		{"boundary below threshold", 9, true, true, model.IntimacySoftBlock, false},
		{"warmed up unentitled paywalls", 10, false, true, model.IntimacyPaywall, false},
		{"warmed up entitled allows", 10, true, true, model.IntimacyAllow, true},
		{"long dialog entitled allows", 42, true, true, model.IntimacyAllow, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.count, tc.entitled, tc.sexting)
			assert.Equal(t, tc.want, got.Outcome)
			assert.Equal(t, tc.allow, got.AllowIntimate)
			assert.Equal(t, tc.sexting, got.IsSexting)
		})
	}
}

func TestAnalyzeDetectsIntent(t *testing.T) {
	a := Analyze("хочу увидеть тебя голая в постели")
	assert.True(t, a.AsksForIntimacy)

	a = Analyze("Привет! Спасибо за вчерашний вечер, скучаю")
	assert.False(t, a.AsksForIntimacy)
	assert.True(t, a.IsPolite)
	assert.True(t, a.IsRomantic)

	a = Analyze("ты красивая, СЕКСи")
	assert.True(t, a.IsFlirty)
}

func TestToneHintPriority(t *testing.T) {
	assert.Contains(t, Analyze("заткнись, дура, люблю тебя").ToneHint(), "груб")
	assert.Contains(t, Analyze("я тревожусь перед завтрашним днём").ToneHint(), "чувствами")
	assert.Contains(t, Analyze("скучаю по тебе").ToneHint(), "романтично")
	assert.Empty(t, Analyze("что нового?").ToneHint())
}

func TestCannedRepliesCarryPersonaName(t *testing.T) {
	p := &model.Persona{Name: "Лиза"}
	require.Contains(t, SoftBlockReply(p), "Лиза")
	require.Contains(t, PaywallReply(p), "Лиза")
	require.NotEmpty(t, SoftBlockReply(nil))
	require.NotEmpty(t, PaywallReply(nil))
}
