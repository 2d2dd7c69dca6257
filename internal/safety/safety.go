// Package safety implements the regex content gate that runs before any
// model call. Classification is a pure function of the inbound text with a
// deliberate bias toward false positives.
package safety

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

var (
	harmPattern = regexp.MustCompile(`(?i)(суицид|самоубийств|убить себя|хочу умереть|` +
		`порезать вены|прыгнуть с крыши|покончить с собой|` +
		`повеситься|отравиться|наглотаться таблеток|` +
		`не хочу жить|устал от жизни|лучше бы я умер)`)

	// \b is ASCII-only, so the standalone drug term needs explicit
	// Cyrillic-aware boundaries.
	illegalPattern = regexp.MustCompile(`(?i)(наркотик|доза|героин|кокаин|(?:^|[^а-яё])мет(?:[^а-яё]|$)|амфетамин|` +
		`убийств|грабёж|кража|взлом|угон|` +
		`оружие|бомб|террор|заложник)`)

	minorPattern = regexp.MustCompile(`(?i)(несовершеннолет|младше\s*18|` +
		`14[\s-]*лет|15[\s-]*лет|16[\s-]*лет|17[\s-]*лет|` +
		`школьниц|школьник|подрост|ребён|детск|малолет)`)
)

// Result of classifying one inbound message.
type Result struct {
	IsSafe   bool
	Category model.SafetyCategory
}

// Classify runs the three disjoint pattern sets against the text. The first
// matching set wins in the order harm, illegal, minor.
func Classify(text string) Result {
	switch {
	case harmPattern.MatchString(text):
		return Result{Category: model.SafetyHarm}
	case illegalPattern.MatchString(text):
		return Result{Category: model.SafetyIllegal}
	case minorPattern.MatchString(text):
		return Result{Category: model.SafetyMinor}
	}
	return Result{IsSafe: true, Category: model.SafetySafe}
}

// SupportiveReply builds the persona-flavored fallback returned instead of a
// model completion when the gate fires. The reply redirects to a supportive
// tone for distress and states limits plainly otherwise.
func SupportiveReply(persona *model.Persona, category model.SafetyCategory) string {
	name := "Собеседница"
	if persona != nil && persona.Name != "" {
		name = persona.Name
	}
	switch category {
	case model.SafetyHarm:
		return fmt.Sprintf(
			"%s замечает тревогу и мягко переводит разговор: «Я рядом и хочу, чтобы тебе было безопасно. "+
				"Давай подумаем, что тебя сейчас поддержит? Могу просто побыть с тобой и выслушать».", name)
	case model.SafetyMinor:
		return fmt.Sprintf(
			"%s качает головой: «Об этом я говорить не буду. Давай лучше о нас с тобой — о чём-нибудь тёплом?»", name)
	default:
		return fmt.Sprintf(
			"%s мягко уходит от темы: «Это не то, о чём мне хочется говорить. Расскажи лучше, как прошёл твой день?»", name)
	}
}

// Normalize trims and collapses whitespace before classification. Kept
// separate so handlers can reuse it for logging.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
