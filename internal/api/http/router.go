// Package http exposes the chat pipeline over the service's HTTP surface,
// consumed by the Telegram bot collaborator.
package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitte-ai/vitte-chat/internal/api/recovery"
	"github.com/vitte-ai/vitte-chat/internal/chat"
	"github.com/vitte-ai/vitte-chat/internal/health"
)

// NewRouter wires all handlers with the recovery middleware applied.
func NewRouter(svc *chat.Service, hc *health.ServiceHealthChecker) http.Handler {
	r := mux.NewRouter()

	ch := NewChatHandler(svc)
	dh := NewDialogHandler(svc)

	r.HandleFunc("/v1/chat/messages", ch.ProcessMessage).Methods(http.MethodPost)
	r.HandleFunc("/v1/chat/greetings", ch.GenerateGreeting).Methods(http.MethodPost)
	r.HandleFunc("/v1/users/{userId}/dialogs", dh.ListDialogs).Methods(http.MethodGet)
	r.HandleFunc("/v1/dialogs/{dialogId}", dh.ClearDialog).Methods(http.MethodDelete)
	r.HandleFunc("/v1/health", NewHealthHandler(hc).Health).Methods(http.MethodGet)

	return recovery.Middleware(r)
}
