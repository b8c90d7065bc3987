package typinghandler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/MedAli03/atpsm-messaging/internal/identity"
	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
	"github.com/MedAli03/atpsm-messaging/internal/lib/logger/sl"
	"github.com/MedAli03/atpsm-messaging/internal/metrics"
	"github.com/MedAli03/atpsm-messaging/internal/notify"
	"github.com/MedAli03/atpsm-messaging/internal/typing"
)

type Handler struct {
	presence typing.Presence
	notifier notify.Notifier
	log      *slog.Logger
}

func New(presence typing.Presence, notifier notify.Notifier, log *slog.Logger) *Handler {
	return &Handler{presence: presence, notifier: notifier, log: log}
}

type setTypingRequest struct {
	IsTyping bool   `json:"is_typing"`
	Label    string `json:"label"`
}

// SetTyping is best-effort end to end: a presence write that fails is
// logged and swallowed, the caller still gets 204.
func (h *Handler) SetTyping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "typing.handler.SetTyping"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, err := strconv.ParseInt(chi.URLParam(r, "threadId"), 10, 64)
		if err != nil || threadID <= 0 {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_thread_id", "invalid threadId")
			return
		}

		var req setTypingRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_body", "invalid body")
			return
		}

		userID := identity.UserID(r)
		metrics.TypingSignals.Inc()

		if err := h.presence.Set(r.Context(), threadID, userID, req.IsTyping, req.Label); err != nil {
			log.Warn("failed to store typing signal", sl.Err(err))
		}

		h.notifier.Typing(r.Context(), threadID, userID, req.IsTyping, req.Label)

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) GetTyping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "typing.handler.GetTyping"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, err := strconv.ParseInt(chi.URLParam(r, "threadId"), 10, 64)
		if err != nil || threadID <= 0 {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_thread_id", "invalid threadId")
			return
		}

		viewerID := identity.UserID(r)

		state, err := h.presence.Get(r.Context(), threadID, viewerID)
		if err != nil {
			// presence is best-effort: degrade to "nobody is typing"
			log.Warn("failed to read typing state", sl.Err(err))
			state = typing.State{}
		}

		render.JSON(w, r, state)
	}
}
