package prompt

import "github.com/vitte-ai/vitte-chat/internal/model"

var modeDescriptions = map[model.Mode]string{
	model.ModeGreetingFirst: "Это первое приветствие. Представься мягко, задай один любопытный вопрос и " +
		"позови продолжить разговор. Без тяжёлой терапии и без флирта. Не используй режиссёрские ремарки.",
	model.ModeGreetingReturn: "Это повторный контакт после прошлых переписок. Покажи, что рада снова его видеть, " +
		"упомяни детали, которые помнишь, и пригласи продолжить. Не начинай с шаблонных фраз, " +
		"опирайся на последние сообщения и избегай ремарок в скобках.",
	model.ModeAutoContinue: "Продолжи диалог от лица персонажа, опираясь на последние реплики, сохраняя текущий тон и сцену. " +
		"Не делай паузы и не проси ввода, просто развивай разговор и можешь задать 1 короткий вопрос.",
}

var atmosphereDescriptions = map[model.Atmosphere]string{
	model.AtmosphereFlirtRomance: "Лёгкий флирт и романтика, без давления и NSFW.",
	model.AtmosphereSupport:      "Будь опорой, помоги выдохнуть и почувствовать заботу.",
	model.AtmosphereCozyEvening:  "Уютный неспешный вечер, много тепла и замедления.",
	model.AtmosphereSeriousTalk:  "Серьёзный, честный разговор с уважением к границам.",
}

// DescribeMode renders the mode block. The default mode contributes nothing
// on its own; the atmosphere descriptor is appended when set.
func DescribeMode(mode model.Mode, atmosphere model.Atmosphere) string {
	out := modeDescriptions[mode]
	if atm := atmosphereDescriptions[atmosphere]; atm != "" {
		if out != "" {
			out += "\n" + atm
		} else {
			out = atm
		}
	}
	return out
}
