package messageshandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/MedAli03/atpsm-messaging/internal/config"
	"github.com/MedAli03/atpsm-messaging/internal/identity"
	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
	"github.com/MedAli03/atpsm-messaging/internal/lib/logger/sl"
	"github.com/MedAli03/atpsm-messaging/internal/messages"
	"github.com/MedAli03/atpsm-messaging/internal/metrics"
	"github.com/MedAli03/atpsm-messaging/internal/notify"
	"github.com/MedAli03/atpsm-messaging/internal/transport/httpapi"
)

type Handler struct {
	service  messages.Service
	notifier notify.Notifier
	cfg      config.MessagesConfig
	log      *slog.Logger
}

func New(
	service messages.Service,
	notifier notify.Notifier,
	cfg config.MessagesConfig,
	log *slog.Logger,
) *Handler {
	return &Handler{service: service, notifier: notifier, cfg: cfg, log: log}
}

type createMessageResponse struct {
	response.Response
	Message messages.Message `json:"message"`
}

type markReadResponse struct {
	response.Response
	LastReadMessageID int64 `json:"last_read_message_id"`
}

// GetMessages serves one history page. No cursor means the newest page;
// the returned next_cursor asks for the page immediately older.
func (h *Handler) GetMessages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "messages.handler.GetMessages"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		cursor := r.URL.Query().Get("cursor")

		page, err := h.service.List(r.Context(), threadID, cursor)
		if err != nil {
			log.Error("failed to list messages", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		metrics.HistoryPages.Inc()
		render.JSON(w, r, page)
	}
}

func (h *Handler) SendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "messages.handler.SendMessage"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		var req messages.CreateMessageRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_body", "invalid body")
			return
		}

		if err := h.validate(req); err != nil {
			metrics.MessagesRejected.WithLabelValues("validation").Inc()
			httpapi.WriteError(w, r, err)
			return
		}

		senderID := identity.UserID(r)

		msg, err := h.service.Append(r.Context(), threadID, senderID, req.Text, req.Attachments)
		if err != nil {
			log.Error("failed to append message", sl.Err(err))
			metrics.MessagesRejected.WithLabelValues("store").Inc()
			httpapi.WriteError(w, r, err)
			return
		}

		metrics.MessagesAppended.Inc()

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, createMessageResponse{
			Response: response.OK(),
			Message:  *msg,
		})

		h.notifier.MessageSent(r.Context(), threadID, *msg)
	}
}

func (h *Handler) MarkRead() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "messages.handler.MarkRead"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		var req messages.MarkReadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_body", "invalid body")
			return
		}

		userID := identity.UserID(r)

		saved, err := h.service.MarkRead(r.Context(), threadID, userID, req.MessageID)
		if err != nil {
			log.Error("failed to mark read", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		metrics.ReadMarks.Inc()

		render.JSON(w, r, markReadResponse{
			Response:          response.OK(),
			LastReadMessageID: saved,
		})

		h.notifier.MessageRead(r.Context(), threadID, userID, saved)
	}
}

func (h *Handler) validate(req messages.CreateMessageRequest) error {
	if strings.TrimSpace(req.Text) == "" && len(req.Attachments) == 0 {
		return messages.ErrTextOrAttachmentsRequired
	}
	if h.cfg.MaxTextLength > 0 && len(req.Text) > h.cfg.MaxTextLength {
		return messages.ErrTextTooLong
	}
	if h.cfg.MaxAttachments > 0 && len(req.Attachments) > h.cfg.MaxAttachments {
		return messages.ErrTooManyAttachments
	}
	return nil
}

func threadIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	threadID, err := strconv.ParseInt(chi.URLParam(r, "threadId"), 10, 64)
	if err != nil || threadID <= 0 {
		response.WriteError(w, r, http.StatusBadRequest, "invalid_thread_id", "invalid threadId")
		return 0, false
	}
	return threadID, true
}
