package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the chat API routes behind bearer-token auth.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Group(func(r chi.Router) {
		r.Use(h.withAuth)
		r.Get("/api/chat", h.findChat)
		r.Post("/api/chat/{chat_id}", h.talkChat)
		r.Delete("/api/chat", h.deleteChat)
		r.Get("/api/chat-ids", h.listChatIDs)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"status": "ok"})
	})

	return r
}
