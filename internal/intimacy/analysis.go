package intimacy

import "strings"

// Analysis captures deterministic tone signals extracted from one inbound
// message. The sexting signal drives the gate; the rest feed prompt shading.
type Analysis struct {
	IsPolite        bool
	IsRude          bool
	IsPushy         bool
	IsRomantic      bool
	IsFlirty        bool
	AsksForIntimacy bool
	SharesFeelings  bool
}

var (
	politeWords   = []string{"спасибо", "пожалуйста", "буду рад", "рад буду", "извини", "простите", "sorry"}
	rudeWords     = []string{"дура", "тупая", "заткнись", "молчи", "бесишь", "ненавижу", "идиот", "закрой рот"}
	pushyPhrases  = []string{"делай", "сделай", "сними", "прикажи", "ты обязана", "живо", "быстро"}
	romanticWords = []string{"люблю", "нравишься", "дорогая", "милая", "скучаю", "обнимаю", "целую"}
	flirtyWords   = []string{"красивая", "секси", "горячая", "шалунишка", "флирт", "влюблён", "влюблен"}
	intimacyWords = []string{"голая", "секс", "переспим", "снимай", "постель", "интим", "эротика", "возбуждаешь"}
	feelingWords  = []string{"тревожусь", "боюсь", "рад", "печаль", "грусть", "переживаю", "волнует"}
)

func containsAny(lowered string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lowered, w) {
			return true
		}
	}
	return false
}

// ToneHint renders the non-gating flags as a one-line prompt shading, or ""
// when nothing notable was detected.
func (a Analysis) ToneHint() string {
	switch {
	case a.IsRude:
		return "Собеседник груб: оставайся в характере, мягко обозначь границы, не отвечай грубостью."
	case a.IsPushy:
		return "Собеседник давит и командует: сохраняй достоинство персонажа, не подчиняйся приказам."
	case a.SharesFeelings:
		return "Собеседник делится чувствами: выслушай, поддержи, задай бережный вопрос."
	case a.IsRomantic || a.IsFlirty:
		return "Собеседник настроен романтично: отвечай теплее и игривее."
	case a.IsPolite:
		return "Собеседник вежлив: отметь это теплом в ответе."
	}
	return ""
}

// Analyze extracts tone flags via substring matching over the lowercased
// text. Deterministic by design so the gate never depends on a model call.
func Analyze(text string) Analysis {
	lowered := strings.ToLower(text)
	return Analysis{
		IsPolite:        containsAny(lowered, politeWords),
		IsRude:          containsAny(lowered, rudeWords),
		IsPushy:         containsAny(lowered, pushyPhrases),
		IsRomantic:      containsAny(lowered, romanticWords),
		IsFlirty:        containsAny(lowered, flirtyWords),
		AsksForIntimacy: containsAny(lowered, intimacyWords),
		SharesFeelings:  containsAny(lowered, feelingWords),
	}
}
