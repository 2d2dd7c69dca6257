package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/model"
)

func testPersona() *model.Persona {
	return &model.Persona{
		ID:         1,
		Key:        "mei",
		Name:       "Мэй",
		BasePrompt: "Ты тёплая и внимательная собеседница.",
	}
}

func TestBuildBlockOrder(t *testing.T) {
	story := &model.Story{ScenePrompt: "Вечер на набережной.", Atmosphere: "cozy_evening"}
	msgs := Build(Input{
		Persona:            testPersona(),
		Story:              story,
		Mode:               model.ModeDefault,
		Atmosphere:         model.AtmosphereCozyEvening,
		FirstTurn:          true,
		AllowIntimate:      true,
		MemorySummary:      "говорили о море",
		MemorySnippets:     "- (собеседник) я люблю море",
		FeatureInstruction: "Режим страсти активен: персонаж общается смелее и чувственнее.",
		UserText:           "привет",
	})

	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0].Role)
	sys := msgs[0].Content

	blocks := strings.Split(sys, Separator)
	require.Len(t, blocks, 7)
	assert.Contains(t, blocks[0], "Ты — Мэй")
	assert.Contains(t, blocks[1], "История/сцена")
	assert.Contains(t, blocks[1], "1–2 предложения")
	assert.Contains(t, blocks[2], "Безопасность")
	assert.Contains(t, blocks[3], "Интимные темы допустимы")
	assert.Contains(t, blocks[4], "Уютный неспешный вечер")
	assert.Contains(t, blocks[5], "Короткая память")
	assert.Contains(t, blocks[5], "Долгая память")
	assert.Contains(t, blocks[6], "Режим страсти")

	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "привет", msgs[1].Content)
}

func TestBuildEmptyBlocksContributeNoSeparator(t *testing.T) {
	msgs := Build(Input{
		Persona:       testPersona(),
		Mode:          model.ModeDefault,
		AllowIntimate: true,
		UserText:      "эй",
	})
	sys := msgs[0].Content
	// persona + safety + intimacy only
	assert.Len(t, strings.Split(sys, Separator), 3)
	assert.NotContains(t, sys, Separator+Separator)
}

func TestBuildSoftBlockInstruction(t *testing.T) {
	msgs := Build(Input{Persona: testPersona(), SoftBlock: true, UserText: "x"})
	assert.Contains(t, msgs[0].Content, "Интимные детали сейчас неуместны")
}

func TestBuildHoldLimitsInstruction(t *testing.T) {
	msgs := Build(Input{Persona: testPersona(), AllowIntimate: false, UserText: "x"})
	assert.Contains(t, msgs[0].Content, "удерживай границы")
}

func TestBuildStoryReentryRule(t *testing.T) {
	story := &model.Story{ScenePrompt: "Кафе у парка."}
	msgs := Build(Input{Persona: testPersona(), Story: story, FirstTurn: false, AllowIntimate: true, UserText: "x"})
	assert.Contains(t, msgs[0].Content, "Сцена продолжается")
}

func TestBuildAppendsHistoryThenUserMessage(t *testing.T) {
	history := []*model.Message{
		{Role: model.RoleUser, Content: "как дела?"},
		{Role: model.RoleAssistant, Content: "Хорошо!"},
	}
	msgs := Build(Input{Persona: testPersona(), AllowIntimate: true, History: history, UserText: "рада слышать"})
	require.Len(t, msgs, 4)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "рада слышать", msgs[3].Content)
}

func TestBuildGreetingOmitsUserMessage(t *testing.T) {
	msgs := Build(Input{Persona: testPersona(), Mode: model.ModeGreetingFirst, AllowIntimate: true})
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "первое приветствие")
}

func TestDescribeMode(t *testing.T) {
	assert.Empty(t, DescribeMode(model.ModeDefault, ""))
	assert.Contains(t, DescribeMode(model.ModeGreetingReturn, ""), "повторный контакт")
	assert.Contains(t, DescribeMode(model.ModeAutoContinue, model.AtmosphereSupport), "Будь опорой")
	assert.Equal(t, "Лёгкий флирт и романтика, без давления и NSFW.",
		DescribeMode(model.ModeDefault, model.AtmosphereFlirtRomance))
}

func TestSummarize(t *testing.T) {
	history := []*model.Message{
		{Role: model.RoleUser, Content: "раз"},
		{Role: model.RoleAssistant, Content: "ответ"},
		{Role: model.RoleUser, Content: "два"},
		{Role: model.RoleUser, Content: "три"},
	}
	assert.Equal(t, "два; три", Summarize(history, 2))
	assert.Empty(t, Summarize(nil, 3))

	long := strings.Repeat("я", 100)
	got := Summarize([]*model.Message{{Role: model.RoleUser, Content: long}}, 3)
	assert.True(t, strings.HasSuffix(got, "…"))
}
