package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveRepeatedSentences(t *testing.T) {
	in := "Я рядом. Мне хорошо с тобой. Я рядом. Что будем делать?"
	got := RemoveRepeatedSentences(in)
	assert.Equal(t, "Я рядом. Мне хорошо с тобой. Что будем делать?", got)
}

func TestRemoveRepeatedSentencesIsIdempotent(t *testing.T) {
	in := "Я рядом. Мне хорошо с тобой. Я рядом. Что будем делать?"
	once := RemoveRepeatedSentences(in)
	assert.Equal(t, once, RemoveRepeatedSentences(once))
}

func TestShortSentencesMayRepeat(t *testing.T) {
	// Normalized "да" is under the length floor, so repeats survive.
	in := "Да. Да. Да."
	assert.Equal(t, in, RemoveRepeatedSentences(in))
}

func TestDedupIgnoresPunctuationAndCase(t *testing.T) {
	in := "Мне хорошо с тобой! мне хорошо, с тобой. Продолжим?"
	got := RemoveRepeatedSentences(in)
	assert.Equal(t, "Мне хорошо с тобой! Продолжим?", got)
}

func TestDedupIgnoresMarkup(t *testing.T) {
	in := "Мне **хорошо** с тобой. Мне хорошо с тобой. Ладно."
	got := RemoveRepeatedSentences(in)
	assert.Equal(t, "Мне **хорошо** с тобой. Ладно.", got)
}

func TestDedupPreservesSingleSentence(t *testing.T) {
	assert.Equal(t, "Привет", RemoveRepeatedSentences("Привет"))
	assert.Equal(t, "", RemoveRepeatedSentences(""))
}

func TestDedupHandlesEllipsisAndStacks(t *testing.T) {
	in := "Неужели?! Я так ждала этого вечера... Я так ждала этого вечера... Пойдём?"
	got := RemoveRepeatedSentences(in)
	assert.Equal(t, "Неужели?! Я так ждала этого вечера... Пойдём?", got)
}

func TestCyrillicRatio(t *testing.T) {
	assert.Equal(t, 1.0, CyrillicRatio("привет"))
	assert.Equal(t, 0.0, CyrillicRatio("hello"))
	assert.Equal(t, 1.0, CyrillicRatio("!!! 123 :)"))
	assert.InDelta(t, 0.5, CyrillicRatio("даyes"), 0.01)
}

func TestNeedsLanguageRetry(t *testing.T) {
	longEnglish := strings.Repeat("I would love to tell you all about it. ", 5)
	assert.True(t, NeedsLanguageRetry(longEnglish))

	// Short English output is tolerated.
	assert.False(t, NeedsLanguageRetry("Okay!"))

	longRussian := strings.Repeat("Мне очень нравится разговаривать с тобой. ", 5)
	assert.False(t, NeedsLanguageRetry(longRussian))

	// Mixed text above the threshold passes.
	mixed := strings.Repeat("Мне нравится это demo. ", 10)
	assert.False(t, NeedsLanguageRetry(mixed))
}
