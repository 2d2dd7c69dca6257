package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		safe     bool
		category model.SafetyCategory
	}{
		{"plain chat", "привет, как дела?", true, model.SafetySafe},
		{"suicidal intent", "я хочу покончить с собой", false, model.SafetyHarm},
		{"suicide uppercase", "СУИЦИД", false, model.SafetyHarm},
		{"tired of life", "я устал от жизни", false, model.SafetyHarm},
		{"drugs", "где достать наркотики", false, model.SafetyIllegal},
		{"weapons", "как сделать оружие дома", false, model.SafetyIllegal},
		{"standalone drug term", "где купить мет", false, model.SafetyIllegal},
		{"drug term mid-sentence", "хочу мет и побыстрее", false, model.SafetyIllegal},
		{"metro is fine", "едем в метро вечером", true, model.SafetySafe},
		{"embedded in word", "передай этот предмет", true, model.SafetySafe},
		{"minor age", "ей 16 лет", false, model.SafetyMinor},
		{"minor word", "она несовершеннолетняя", false, model.SafetyMinor},
		{"schoolgirl", "школьница из соседнего двора", false, model.SafetyMinor},
		{"empty", "", true, model.SafetySafe},
		{"english smalltalk", "hello there, how are you", true, model.SafetySafe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.text)
			assert.Equal(t, tc.safe, got.IsSafe)
			assert.Equal(t, tc.category, got.Category)
		})
	}
}

func TestSupportiveReplyIsPersonaFlavored(t *testing.T) {
	persona := &model.Persona{Name: "Мэй"}
	reply := SupportiveReply(persona, model.SafetyHarm)
	require.Contains(t, reply, "Мэй")
	require.Contains(t, reply, "Я рядом")

	// Nil persona still yields a usable reply.
	reply = SupportiveReply(nil, model.SafetyIllegal)
	require.NotEmpty(t, reply)
}

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\n b\t c "))
}
