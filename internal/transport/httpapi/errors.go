package httpapi

import (
	"errors"
	"net/http"

	"github.com/MedAli03/atpsm-messaging/internal/messages"
	"github.com/MedAli03/atpsm-messaging/internal/threads"
	"github.com/MedAli03/atpsm-messaging/internal/uploads"
	usersrepo "github.com/MedAli03/atpsm-messaging/internal/users/repo"
)

// MapError translates domain sentinels into HTTP status + machine code.
// Validation failures are never retryable, not-found is final, everything
// unknown collapses to a 500 without leaking internals.
func MapError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, threads.ErrThreadNotFound),
		errors.Is(err, messages.ErrThreadNotFound):
		return http.StatusNotFound, "thread_not_found", err.Error()

	case errors.Is(err, threads.ErrParticipantNotFound):
		return http.StatusNotFound, "participant_not_found", err.Error()

	case errors.Is(err, messages.ErrNotParticipant):
		return http.StatusNotFound, "not_a_participant", err.Error()

	case errors.Is(err, usersrepo.ErrUserNotFound),
		errors.Is(err, threads.ErrUnknownUser):
		return http.StatusBadRequest, "unknown_user", err.Error()

	case errors.Is(err, threads.ErrEmptyParticipants):
		return http.StatusBadRequest, "empty_participants", err.Error()

	case errors.Is(err, threads.ErrLastParticipant):
		return http.StatusConflict, "last_participant", err.Error()

	case errors.Is(err, messages.ErrTextOrAttachmentsRequired):
		return http.StatusBadRequest, "text_or_attachments_required", err.Error()

	case errors.Is(err, messages.ErrTextTooLong):
		return http.StatusBadRequest, "text_too_long", err.Error()

	case errors.Is(err, messages.ErrTooManyAttachments):
		return http.StatusBadRequest, "too_many_attachments", err.Error()

	case errors.Is(err, messages.ErrBadCursor):
		return http.StatusBadRequest, "bad_cursor", err.Error()

	case errors.Is(err, messages.ErrAttachmentNotFound):
		return http.StatusBadRequest, "attachment_not_found", err.Error()

	case errors.Is(err, messages.ErrAttachmentNotReady):
		return http.StatusBadRequest, "attachment_not_ready", err.Error()

	case errors.Is(err, messages.ErrInvalidLastReadMessageID):
		return http.StatusBadRequest, "invalid_last_read_message_id", err.Error()

	case errors.Is(err, uploads.ErrInvalidFileID):
		return http.StatusBadRequest, "invalid_file_id", err.Error()

	case errors.Is(err, uploads.ErrContentTypeIsRequired),
		errors.Is(err, uploads.ErrInvalidContentType):
		return http.StatusBadRequest, "invalid_content_type", err.Error()

	case errors.Is(err, uploads.ErrUploadNotFound):
		return http.StatusNotFound, "upload_not_found", err.Error()

	case errors.Is(err, uploads.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge, "upload_too_large", err.Error()
	}

	return http.StatusInternalServerError, "internal_error", "internal server error"
}
