package uploadshandler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/MedAli03/atpsm-messaging/internal/identity"
	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
	"github.com/MedAli03/atpsm-messaging/internal/lib/logger/sl"
	"github.com/MedAli03/atpsm-messaging/internal/transport/httpapi"
	"github.com/MedAli03/atpsm-messaging/internal/uploads"
)

type Handler struct {
	service uploads.Service
	log     *slog.Logger
}

func New(service uploads.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

type presignUploadResponse struct {
	response.Response
	Upload uploads.PresignUploadResponse `json:"upload"`
}

type presignDownloadResponse struct {
	response.Response
	Download uploads.PresignDownloadResponse `json:"download"`
}

func (h *Handler) PresignUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "uploads.handler.PresignUpload"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req uploads.PresignUploadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("failed to decode request", sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}

		if req.ContentType == "" {
			httpapi.WriteError(w, r, uploads.ErrContentTypeIsRequired)
			return
		}

		if !uploads.IsValidContentType(req.ContentType) {
			log.Warn("rejected content type", slog.String("content_type", req.ContentType))
			httpapi.WriteError(w, r, uploads.ErrInvalidContentType)
			return
		}

		userID := identity.UserID(r)

		presigned, err := h.service.PresignUpload(r.Context(), userID, req.ContentType, req.Filename)
		if err != nil {
			log.Error("failed to presign upload", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, presignUploadResponse{
			Response: response.OK(),
			Upload:   presigned,
		})
	}
}

func (h *Handler) ConfirmUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "uploads.handler.ConfirmUpload"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req uploads.ConfirmUploadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("failed to decode request", sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}

		userID := identity.UserID(r)

		if err := h.service.ConfirmUpload(r.Context(), userID, req.FileID); err != nil {
			log.Error("failed to confirm upload", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) PresignDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "uploads.handler.PresignDownload"

		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req uploads.ConfirmUploadRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Warn("failed to decode request", sl.Err(err))
			response.WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}

		if req.FileID == "" {
			httpapi.WriteError(w, r, uploads.ErrInvalidFileID)
			return
		}

		url, err := h.service.PresignDownload(r.Context(), req.FileID)
		if err != nil {
			log.Error("failed to presign download", sl.Err(err))
			httpapi.WriteError(w, r, err)
			return
		}

		render.JSON(w, r, presignDownloadResponse{
			Response: response.OK(),
			Download: uploads.PresignDownloadResponse{URL: url},
		})
	}
}
