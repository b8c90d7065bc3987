package threadshandler

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
	"github.com/MedAli03/atpsm-messaging/internal/notify"
	"github.com/MedAli03/atpsm-messaging/internal/threads"
	"github.com/MedAli03/atpsm-messaging/internal/transport/httpapi"
)

type Handler struct {
	service  threads.Service
	notifier notify.Notifier
	log      *slog.Logger
}

func New(
	service threads.Service,
	notifier notify.Notifier,
	log *slog.Logger,
) *Handler {
	return &Handler{service: service, notifier: notifier, log: log}
}

func (h *Handler) GetThreads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "threads.handler.GetThreads"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID := identity.UserID(r)
		includeArchived := r.URL.Query().Get("include_archived") == "true"

		items, err := h.service.GetThreads(r.Context(), userID, includeArchived)
		if err != nil {
			log.Error("failed to get threads", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, threads.GetThreadsResponse{
			Response: response.OK(),
			Threads:  items,
		})
	}
}

func (h *Handler) CreateThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "threads.handler.CreateThread"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req threads.CreateThreadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_body", "invalid body")
			return
		}

		creatorID := identity.UserID(r)

		info, err := h.service.CreateThread(r.Context(), creatorID, req)
		if err != nil {
			log.Error("failed to create thread", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, threads.GetThreadResponse{
			Response: response.OK(),
			Thread:   info,
		})
	}
}

func (h *Handler) GetThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "threads.handler.GetThread"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		info, err := h.service.GetThread(r.Context(), threadID)
		if err != nil {
			log.Error("failed to get thread", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, threads.GetThreadResponse{
			Response: response.OK(),
			Thread:   info,
		})
	}
}

// SetArchived hides or restores a thread in listings; messages are kept.
func (h *Handler) SetArchived() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "threads.handler.SetArchived"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		var req threads.SetArchivedRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_body", "invalid body")
			return
		}

		if err := h.service.SetArchived(r.Context(), threadID, req.Archived); err != nil {
			log.Error("failed to set archived", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, response.OK())

		h.notifier.ThreadArchived(r.Context(), threadID, req.Archived)
	}
}

func (h *Handler) AddParticipants() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "threads.handler.AddParticipants"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		var req threads.AddParticipantsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_body", "invalid body")
			return
		}

		users, err := h.service.AddParticipants(r.Context(), threadID, req.UserIDs)
		if err != nil {
			log.Error("failed to add participants", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, threads.AddParticipantsResponse{
			Response: response.OK(),
			Users:    users,
		})
	}
}

func (h *Handler) RemoveParticipant() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "threads.handler.RemoveParticipant"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		threadID, ok := threadIDParam(w, r)
		if !ok {
			return
		}

		userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
		if err != nil || userID <= 0 {
			response.WriteError(w, r, http.StatusBadRequest, "invalid_user_id", "invalid userId")
			return
		}

		if err := h.service.RemoveParticipant(r.Context(), threadID, userID); err != nil {
			log.Error("failed to remove participant", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func threadIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	threadID, err := strconv.ParseInt(chi.URLParam(r, "threadId"), 10, 64)
	if err != nil || threadID <= 0 {
		response.WriteError(w, r, http.StatusBadRequest, "invalid_thread_id", "invalid threadId")
		return 0, false
	}
	return threadID, true
}
