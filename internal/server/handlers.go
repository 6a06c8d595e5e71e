package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lawgraph-core/server/internal/agent/model"

	errx "github.com/lawgraph-core/server/internal/core/error"
	logx "github.com/lawgraph-core/server/pkg/logger"
)

// TurnRunner is the agent surface the handlers need: run one conversation
// turn, clear a session, and name a new chat.
type TurnRunner interface {
	Respond(ctx context.Context, sessionID, query string) (string, error)
	ClearSession(ctx context.Context, sessionID string) error
	Title(ctx context.Context, query string) (string, error)
}

// Handler serves the chat API.
type Handler struct {
	store *ChatStore
	agent TurnRunner
}

func NewHandler(store *ChatStore, agent TurnRunner) *Handler {
	return &Handler{store: store, agent: agent}
}

type chatPayload struct {
	UserQuery string `json:"user_query"`
}

// envelope is the uniform response shape: {code, message, ...payload}.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Error().Err(err).Msg("failed to encode response body")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, envelope{
			"code":    appErr.Code,
			"message": appErr.Message,
		})
		return
	}
	logx.Error().Err(err).Msg("unhandled error at http boundary")
	writeJSON(w, http.StatusInternalServerError, envelope{
		"code":    errx.CodeInternal,
		"message": "There was a problem processing the request",
	})
}

// authorizeChat checks that the chat exists and belongs to the caller. A
// missing chat surfaces per missingCode: the retrieval path reports it as an
// ownership failure, the turn path as not found.
func (h *Handler) authorizeChat(ctx context.Context, chatID string, user *User, missingCode string) error {
	ownerID, err := h.store.ChatOwner(ctx, chatID)
	if errors.Is(err, ErrChatNotFound) {
		if missingCode == errx.CodeNotFound {
			return errx.NotFound("chat could not be found")
		}
		return errx.Unauthorized("chat does not belong to the right user")
	}
	if err != nil {
		return errx.New(err, http.StatusInternalServerError, errx.CodeDB, "Could not load record")
	}
	if ownerID != user.ID {
		return errx.Unauthorized("chat does not belong to the right user")
	}
	return nil
}

// findChat handles GET /api/chat. Without a chat_id it creates a new chat;
// with one it returns the stored transcript.
func (h *Handler) findChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)
	chatID := r.URL.Query().Get("chat_id")

	if chatID == "" {
		newID := uuid.NewString()
		if err := h.store.CreateChat(ctx, newID, user.ID); err != nil {
			logx.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create chat")
			writeError(w, errx.New(err, http.StatusInternalServerError, errx.CodeDB, "Failed to start chat"))
			return
		}
		writeJSON(w, http.StatusOK, envelope{
			"code":    "CHAT_CREATED",
			"message": "chat created successfully",
			"chat_id": newID,
		})
		return
	}

	if err := h.authorizeChat(ctx, chatID, user, errx.CodeUnauthorized); err != nil {
		writeError(w, err)
		return
	}

	messages, err := h.store.Transcript(ctx, chatID)
	if err != nil {
		logx.Error().Err(err).Str("chat_id", chatID).Msg("failed to load transcript")
		writeError(w, errx.Internal(err, "Could not load record"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"code":     "CHAT_RETRIEVED",
		"message":  "chat history found successfully",
		"messages": messages,
		"chat_id":  chatID,
	})
}

// talkChat handles POST /api/chat/{chat_id}: one full conversation turn.
func (h *Handler) talkChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)
	chatID := chi.URLParam(r, "chat_id")

	if err := h.authorizeChat(ctx, chatID, user, errx.CodeNotFound); err != nil {
		writeError(w, err)
		return
	}

	var payload chatPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errx.New(err, http.StatusBadRequest, errx.CodeBadRequest, "invalid request body"))
		return
	}
	if payload.UserQuery == "" {
		writeError(w, errx.New(nil, http.StatusBadRequest, errx.CodeBadRequest, "user query is not passed"))
		return
	}

	answer, err := h.agent.Respond(ctx, chatID, payload.UserQuery)
	if err != nil {
		logx.Error().Err(err).Str("chat_id", chatID).Msg("turn failed")
		writeError(w, errx.Internal(err, "There was a problem processing the model"))
		return
	}

	// Name the chat from its opening query. Best effort only.
	if n, err := h.store.MessageCount(ctx, chatID); err == nil && n == 0 {
		if title, err := h.agent.Title(ctx, payload.UserQuery); err == nil && title != "" {
			if err := h.store.SetTitle(ctx, chatID, title); err != nil {
				logx.Warn().Err(err).Str("chat_id", chatID).Msg("failed to store chat title")
			}
		}
	}

	if err := h.store.AppendExchange(ctx, chatID, payload.UserQuery, answer); err != nil {
		logx.Error().Err(err).Str("chat_id", chatID).Msg("failed to save messages")
		writeError(w, errx.New(err, http.StatusInternalServerError, errx.CodeDB, "Failed to save messages"))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"code":    "MODEL_RESPONSE_SUCCESS",
		"message": "Model has successfully returned a response",
		"content": answer,
		"chat_id": chatID,
	})
}

// deleteChat handles DELETE /api/chat?chat_id=: removes the catalog rows and
// the persisted conversation state.
func (h *Handler) deleteChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)
	chatID := r.URL.Query().Get("chat_id")

	if chatID == "" {
		writeError(w, errx.New(nil, http.StatusBadRequest, errx.CodeBadRequest, "chat_id is required"))
		return
	}
	if err := h.authorizeChat(ctx, chatID, user, errx.CodeNotFound); err != nil {
		writeError(w, err)
		return
	}

	if err := h.store.DeleteChat(ctx, chatID); err != nil {
		logx.Error().Err(err).Str("chat_id", chatID).Msg("failed to delete chat")
		writeError(w, errx.New(err, http.StatusInternalServerError, errx.CodeDB, "Failed to delete chat"))
		return
	}
	if err := h.agent.ClearSession(ctx, chatID); err != nil && !errors.Is(err, model.ErrSessionNotFound) {
		// Catalog rows are gone; report the partial failure.
		logx.Error().Err(err).Str("chat_id", chatID).Msg("failed to clear conversation state")
		writeError(w, errx.Internal(err, "Failed to clear conversation state"))
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"code":    "CHAT_DELETED",
		"message": "chat deleted successfully",
		"chat_id": chatID,
	})
}

// listChatIDs handles GET /api/chat-ids.
func (h *Handler) listChatIDs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFrom(ctx)

	ids, err := h.store.ChatIDs(ctx, user.ID)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list chats")
		writeError(w, errx.New(err, http.StatusInternalServerError, errx.CodeDB, "Could not load record"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"code":     "CHAT_IDS_RETRIEVED",
		"message":  "chat ids found successfully",
		"chat_ids": ids,
	})
}
