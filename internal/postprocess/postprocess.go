// Package postprocess cleans model output before it reaches the user:
// sentence-level repetition removal and a Russian-language sanity check.
package postprocess

import (
	"strings"
	"unicode"
)

// minDedupBytes is the normalized sentence length below which repeats are
// tolerated. Short affirmations ("Да.", "Ну…") repeat naturally in speech.
const minDedupBytes = 10

// LanguageFallback is the canned reply substituted when the model refuses to
// answer in Russian twice in a row.
const LanguageFallback = "Давай продолжим по-русски — о чём тебе хочется поговорить?"

// RemoveRepeatedSentences drops the second and later occurrences of any
// sentence whose normalized form is at least minDedupBytes long. Sentence
// order and the whitespace of surviving sentences are preserved.
func RemoveRepeatedSentences(text string) string {
	segments := splitSentences(text)
	if len(segments) < 2 {
		return text
	}
	seen := make(map[string]struct{}, len(segments))
	var b strings.Builder
	for _, seg := range segments {
		key := normalizeSentence(seg)
		if len(key) >= minDedupBytes {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		b.WriteString(seg)
	}
	return b.String()
}

// splitSentences cuts the text on .!? boundaries. Each segment carries its
// terminating punctuation and any whitespace that follows, so joining the
// segments reproduces the input byte for byte.
func splitSentences(text string) []string {
	var segments []string
	runes := []rune(text)
	start := 0
	i := 0
	for i < len(runes) {
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			// Consume a punctuation run ("?!", "...") as one terminator.
			for i < len(runes) && (runes[i] == '.' || runes[i] == '!' || runes[i] == '?') {
				i++
			}
			for i < len(runes) && unicode.IsSpace(runes[i]) {
				i++
			}
			segments = append(segments, string(runes[start:i]))
			start = i
			continue
		}
		i++
	}
	if start < len(runes) {
		segments = append(segments, string(runes[start:]))
	}
	return segments
}

// normalizeSentence lowercases and strips punctuation and markdown markup so
// near-identical repeats hash together.
func normalizeSentence(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else if unicode.IsSpace(r) {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CyrillicRatio reports the share of Cyrillic letters among all letters.
// A text without letters counts as fully Cyrillic so that emoji-only or
// punctuation-only replies never trip the language check.
func CyrillicRatio(text string) float64 {
	var letters, cyrillic int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Cyrillic, r) {
			cyrillic++
		}
	}
	if letters == 0 {
		return 1
	}
	return float64(cyrillic) / float64(letters)
}

// NeedsLanguageRetry reports whether the output looks like the model slipped
// out of Russian: mostly non-Cyrillic letters in a long reply.
func NeedsLanguageRetry(text string) bool {
	return len([]rune(text)) > 120 && CyrillicRatio(text) < 0.35
}

// RussianRetryDirective is appended as a system message before the single
// language retry.
const RussianRetryDirective = "Ответ получился не на русском. Напиши новый ответ полностью на русском языке, сохрани смысл и тон."
