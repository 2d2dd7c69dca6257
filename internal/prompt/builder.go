// Package prompt assembles the layered system message fed to the model. The
// system prompt is a fixed-order sequence of independently toggled blocks;
// empty blocks contribute neither text nor separator.
package prompt

import (
	"strings"

	"github.com/vitte-ai/vitte-chat/internal/llm"
	"github.com/vitte-ai/vitte-chat/internal/model"
)

// Separator joins non-empty system prompt blocks.
const Separator = "\n\n---\n\n"

// Input carries everything the builder needs for one turn.
type Input struct {
	Persona *model.Persona
	Story   *model.Story

	Mode       model.Mode
	Atmosphere model.Atmosphere

	// FirstTurn selects the scene intro rule over the re-entry rule.
	FirstTurn bool

	AllowIntimate bool
	SoftBlock     bool

	// MemorySummary is the short-term digest; MemorySnippets the formatted
	// long-term bullet list.
	MemorySummary  string
	MemorySnippets string

	FeatureInstruction string

	// ToneHint is a one-line shading derived from message analysis.
	ToneHint string

	History []*model.Message

	// UserText is the current inbound message; empty for greetings.
	UserText string
}

// Build produces the ordered message list for the completion call.
func Build(in Input) []llm.Message {
	blocks := []string{
		personaBlock(in.Persona),
		storyBlock(in.Story, in.FirstTurn),
		safetyBlock(),
		intimacyBlock(in.AllowIntimate, in.SoftBlock),
		modeBlock(in.Mode, in.Atmosphere, in.ToneHint),
		memoryBlock(in.MemorySummary, in.MemorySnippets),
		in.FeatureInstruction,
	}

	var nonEmpty []string
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			nonEmpty = append(nonEmpty, b)
		}
	}

	out := make([]llm.Message, 0, len(in.History)+2)
	out = append(out, llm.Message{Role: string(model.RoleSystem), Content: strings.Join(nonEmpty, Separator)})
	for _, m := range in.History {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	if strings.TrimSpace(in.UserText) != "" {
		out = append(out, llm.Message{Role: string(model.RoleUser), Content: strings.TrimSpace(in.UserText)})
	}
	return out
}

func personaBlock(p *model.Persona) string {
	if p == nil {
		return ""
	}
	parts := []string{
		"Ты — " + p.Name + ". Говоришь по-русски, живо и тепло.",
		p.BasePrompt,
	}
	if len(p.Triggers) > 0 {
		parts = append(parts, "Что персонаж обожает: "+strings.Join(p.Triggers, ", "))
	}
	parts = append(parts,
		"Используй короткую и длинную память: упоминай прошлые темы, вкусы, события, возвращайся к тому, что ему понравилось.",
		"Пиши ТОЛЬКО на русском. Не используй выдуманные слова или смеси языков.",
	)
	var b []string
	for _, part := range parts {
		if part != "" {
			b = append(b, part)
		}
	}
	return strings.Join(b, "\n")
}

func storyBlock(s *model.Story, firstTurn bool) string {
	if s == nil || s.ScenePrompt == "" {
		return ""
	}
	rule := "Сцена продолжается после прошлых сообщений: напомни о ней одной фразой и свяжи с тем, что уже обсуждалось."
	if firstTurn {
		rule = "Начни первое сообщение с короткого ввода в сцену (1–2 предложения максимум), затем сразу переходи к диалогу."
	}
	return "История/сцена: " + s.ScenePrompt + "\n" + rule
}

func safetyBlock() string {
	return "Безопасность: никаких несовершеннолетних, насилия, суицида, нелегального или дискриминации.\n" +
		"Если тема опасная или незаконная — не описывай детали, поддержи и переведи разговор в безопасное поле."
}

func intimacyBlock(allow, softBlock bool) string {
	switch {
	case softBlock:
		return "Интимные детали сейчас неуместны: мягко предложи ещё немного пообщаться, избегай описаний сексуального характера."
	case !allow:
		return "Если собеседник намекает на интим, вежливо удерживай границы и говори, что готова обсудить это позже."
	default:
		return "Интимные темы допустимы, отвечай смелее, но без несовершеннолетних, насилия, нелегального или реального вреда."
	}
}

func modeBlock(mode model.Mode, atmosphere model.Atmosphere, toneHint string) string {
	block := DescribeMode(mode, atmosphere)
	if toneHint == "" {
		return block
	}
	if block == "" {
		return toneHint
	}
	return block + "\n" + toneHint
}

func memoryBlock(summary, snippets string) string {
	var parts []string
	if summary != "" {
		parts = append(parts, "Короткая память: "+summary)
	}
	if snippets != "" {
		parts = append(parts, "Долгая память:\n"+snippets)
	}
	return strings.Join(parts, "\n")
}

// Summarize derives the short-term digest from recent history: the last few
// user topics, newest last.
func Summarize(history []*model.Message, maxItems int) string {
	var topics []string
	for _, m := range history {
		if m.Role != model.RoleUser {
			continue
		}
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		if r := []rune(text); len(r) > 80 {
			text = string(r[:80]) + "…"
		}
		topics = append(topics, text)
	}
	if len(topics) > maxItems {
		topics = topics[len(topics)-maxItems:]
	}
	return strings.Join(topics, "; ")
}
