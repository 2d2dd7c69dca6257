package recency

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/store/storetest"
)

func msg(role model.Role, content string) *model.Message {
	return &model.Message{Role: role, Content: content}
}

func TestDedupConsecutiveAssistant(t *testing.T) {
	in := []*model.Message{
		msg(model.RoleUser, "привет"),
		msg(model.RoleAssistant, "Привет! Как дела?"),
		msg(model.RoleAssistant, "Привет! Как дела?"),
		msg(model.RoleUser, "нормально"),
		msg(model.RoleAssistant, "Рада слышать."),
	}
	out := DedupConsecutiveAssistant(in)
	require.Len(t, out, 4)
	assert.Equal(t, "нормально", out[2].Content)
}

func TestDedupKeepsNonAdjacentDuplicates(t *testing.T) {
	in := []*model.Message{
		msg(model.RoleAssistant, "Ага."),
		msg(model.RoleUser, "да"),
		msg(model.RoleAssistant, "Ага."),
	}
	assert.Len(t, DedupConsecutiveAssistant(in), 3)
}

func TestDedupKeepsUserDuplicates(t *testing.T) {
	in := []*model.Message{
		msg(model.RoleUser, "эй"),
		msg(model.RoleUser, "эй"),
	}
	assert.Len(t, DedupConsecutiveAssistant(in), 2)
}

func TestLoadHonorsLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	st := storetest.New()
	st.SeedUser(&model.User{ID: 1})
	st.SeedPersona(&model.Persona{ID: 1, Key: "mei"})
	dlg, err := st.Dialogs().Create(ctx, &model.Dialog{UserID: 1, PersonaID: 1})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		_, err := st.Messages().Append(ctx, &model.Message{DialogID: dlg.ID, Role: role, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	out, err := NewLoader(12).Load(ctx, st, dlg.ID)
	require.NoError(t, err)
	require.Len(t, out, 12)
	assert.Equal(t, "m8", out[0].Content)
	assert.Equal(t, "m19", out[11].Content)
}
