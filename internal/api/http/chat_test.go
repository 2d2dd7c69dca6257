package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitte-ai/vitte-chat/internal/cache/memcache"
	"github.com/vitte-ai/vitte-chat/internal/chat"
	"github.com/vitte-ai/vitte-chat/internal/dialog"
	"github.com/vitte-ai/vitte-chat/internal/features"
	"github.com/vitte-ai/vitte-chat/internal/llm"
	"github.com/vitte-ai/vitte-chat/internal/model"
	"github.com/vitte-ai/vitte-chat/internal/recency"
	"github.com/vitte-ai/vitte-chat/internal/semantic"
	"github.com/vitte-ai/vitte-chat/internal/semanticindex/indextest"
	"github.com/vitte-ai/vitte-chat/internal/store/storetest"
)

type scriptedLLM struct {
	reply string
	err   error
}

func (s *scriptedLLM) Complete(context.Context, llm.Request) (string, error) {
	return s.reply, s.err
}

func (s *scriptedLLM) Stream(context.Context, llm.Request) (<-chan llm.Chunk, error) {
	return nil, fmt.Errorf("not supported")
}

type noopEmbedder struct{}

func (noopEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func newTestHandler(t *testing.T, l *scriptedLLM) (http.Handler, *storetest.Fake) {
	t.Helper()
	st := storetest.New()
	mc := memcache.New()
	sem := semantic.New(noopEmbedder{}, indextest.New(), 3, 0.7, 5, zerolog.Nop())

	svc := chat.NewService(
		st,
		dialog.NewManager(5),
		features.NewResolver(st, mc, time.Minute, zerolog.Nop()),
		recency.NewLoader(12),
		sem,
		l,
		nil, // side channel disabled for handler tests
		zerolog.Nop(),
	)

	st.SeedUser(&model.User{ID: 7, Entitlement: model.EntitlementTrial, TrialMessages: 5})
	st.SeedPersona(&model.Persona{ID: 1, Key: "mei", Name: "Мэй", BasePrompt: "Тёплая.", IsDefault: true})

	return NewRouter(svc, nil), st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestProcessMessageEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedLLM{reply: "Привет! Рада тебя видеть."})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/messages",
		map[string]interface{}{"userId": 7, "text": "привет"})
	require.Equal(t, http.StatusOK, rr.Code)

	var out chat.ProcessResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Привет! Рада тебя видеть.", out.ReplyText)
	assert.Equal(t, 2, out.MessageCount)
	assert.False(t, out.SafetyBlocked)
}

func TestProcessMessageValidationErrors(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedLLM{reply: "ок"})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/messages",
		map[string]interface{}{"userId": 7, "text": ""})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, h, http.MethodPost, "/v1/chat/messages",
		map[string]interface{}{"userId": 424242, "text": "привет"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/messages", bytes.NewBufferString("{broken"))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProcessMessageGatewayDown(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedLLM{err: model.ErrLLMUnavailable})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/messages",
		map[string]interface{}{"userId": 7, "text": "привет"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGreetingEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedLLM{reply: "Привет, я Мэй!"})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/greetings",
		map[string]interface{}{"userId": 7})
	require.Equal(t, http.StatusOK, rr.Code)

	var out chat.GreetingResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, "Привет, я Мэй!", out.ReplyText)
	assert.Equal(t, 1, out.MessageCount)
}

func TestListAndClearDialogEndpoints(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedLLM{reply: "ок, слушаю"})

	rr := doJSON(t, h, http.MethodPost, "/v1/chat/messages",
		map[string]interface{}{"userId": 7, "text": "привет"})
	require.Equal(t, http.StatusOK, rr.Code)
	var res chat.ProcessResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))

	rr = doJSON(t, h, http.MethodGet, "/v1/users/7/dialogs", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Count   int                   `json:"count"`
		Dialogs []*chat.DialogSummary `json:"dialogs"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, res.DialogID, list.Dialogs[0].ID)
	assert.Equal(t, "ок, слушаю", list.Dialogs[0].LastMessage)

	rr = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/v1/dialogs/%d", res.DialogID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, h, http.MethodDelete, "/v1/dialogs/999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, h, http.MethodGet, "/v1/users/notanumber/dialogs", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedLLM{reply: "ок"})
	rr := doJSON(t, h, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)
}
