// Package intimacy implements the escalation gate that decides whether a
// turn with sexting intent may reach the model.
package intimacy

import (
	"fmt"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

// WarmupThreshold is the dialog message count below which sexting intent is
// soft-blocked regardless of entitlement.
const WarmupThreshold = 10

// Decision is the full gate outcome for one turn.
type Decision struct {
	Outcome       model.IntimacyDecision
	AllowIntimate bool
	IsSexting     bool
}

// Decide applies the gate table. messageCount is the dialog's persisted
// count before this turn; entitled means an active subscription or any
// unlocked intimacy feature.
func Decide(messageCount int, entitled, isSexting bool) Decision {
	if !isSexting {
		return Decision{Outcome: model.IntimacyAllow, AllowIntimate: true}
	}
	if messageCount < WarmupThreshold {
		return Decision{Outcome: model.IntimacySoftBlock, IsSexting: true}
	}
	if !entitled {
		return Decision{Outcome: model.IntimacyPaywall, IsSexting: true}
	}
	return Decision{Outcome: model.IntimacyAllow, AllowIntimate: true, IsSexting: true}
}

// SoftBlockReply is the canned response for sexting intent too early in the
// dialog. Persona-flavored so the refusal stays in character.
func SoftBlockReply(persona *model.Persona) string {
	if persona != nil && persona.Name != "" {
		return fmt.Sprintf("%s улыбается: «Давай ещё чуть-чуть поболтаем и почувствуем друг друга, "+
			"а потом можем перейти к более смелым темам».", persona.Name)
	}
	return "Давай ещё чуть-чуть поболтаем и почувствуем друг друга, а потом можем перейти к более смелым темам."
}

// PaywallReply is the canned response when the warmup has passed but the
// user has no entitlement.
func PaywallReply(persona *model.Persona) string {
	base := "Могу говорить откровенно в премиум-режиме — он снимает ограничения на темы. " +
		"Оформи подписку, и продолжим без фильтров."
	if persona != nil && persona.Name != "" {
		return fmt.Sprintf("%s шепчет: «%s»", persona.Name, base)
	}
	return base
}
