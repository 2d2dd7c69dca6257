package http

import (
	"encoding/json"
	"net/http"

	"github.com/vitte-ai/vitte-chat/internal/api/respond"
	"github.com/vitte-ai/vitte-chat/internal/chat"
	"github.com/vitte-ai/vitte-chat/internal/model"
)

// ChatHandler serves the turn and greeting endpoints.
type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler { return &ChatHandler{svc: svc} }

// ProcessMessage POST /v1/chat/messages
func (h *ChatHandler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     int64   `json:"userId"`
		Text       string  `json:"text"`
		PersonaID  *int64  `json:"personaId,omitempty"`
		Mode       string  `json:"mode,omitempty"`
		StoryKey   *string `json:"storyKey,omitempty"`
		Atmosphere *string `json:"atmosphere,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.ProcessMessage(r.Context(), chat.ProcessInput{
		UserID:     req.UserID,
		Text:       req.Text,
		PersonaID:  req.PersonaID,
		Mode:       model.Mode(req.Mode),
		StoryKey:   req.StoryKey,
		Atmosphere: req.Atmosphere,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// GenerateGreeting POST /v1/chat/greetings
func (h *ChatHandler) GenerateGreeting(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     int64   `json:"userId"`
		PersonaID  *int64  `json:"personaId,omitempty"`
		StoryKey   *string `json:"storyKey,omitempty"`
		Atmosphere *string `json:"atmosphere,omitempty"`
		IsReturn   bool    `json:"isReturn,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	out, err := h.svc.GenerateGreeting(r.Context(), chat.GreetingInput{
		UserID:     req.UserID,
		PersonaID:  req.PersonaID,
		StoryKey:   req.StoryKey,
		Atmosphere: req.Atmosphere,
		IsReturn:   req.IsReturn,
	})
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
