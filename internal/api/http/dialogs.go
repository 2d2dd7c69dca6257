package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vitte-ai/vitte-chat/internal/api/respond"
	"github.com/vitte-ai/vitte-chat/internal/chat"
)

// DialogHandler serves dialog listing and clearing.
type DialogHandler struct {
	svc *chat.Service
}

func NewDialogHandler(svc *chat.Service) *DialogHandler { return &DialogHandler{svc: svc} }

// ListDialogs GET /v1/users/{userId}/dialogs
func (h *DialogHandler) ListDialogs(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userId"], 10, 64)
	if err != nil {
		respond.WriteBadRequest(w, "invalid user id")
		return
	}
	out, err := h.svc.ListDialogs(r.Context(), userID)
	if err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	if out == nil {
		out = []*chat.DialogSummary{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"dialogs": out, "count": len(out)})
}

// ClearDialog DELETE /v1/dialogs/{dialogId}
func (h *DialogHandler) ClearDialog(w http.ResponseWriter, r *http.Request) {
	dialogID, err := strconv.ParseInt(mux.Vars(r)["dialogId"], 10, 64)
	if err != nil {
		respond.WriteBadRequest(w, "invalid dialog id")
		return
	}
	if err := h.svc.ClearDialog(r.Context(), dialogID); err != nil {
		respond.WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
