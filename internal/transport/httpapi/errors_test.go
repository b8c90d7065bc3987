package httpapi_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MedAli03/atpsm-messaging/internal/messages"
	"github.com/MedAli03/atpsm-messaging/internal/threads"
	"github.com/MedAli03/atpsm-messaging/internal/transport/httpapi"
	"github.com/MedAli03/atpsm-messaging/internal/uploads"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{threads.ErrThreadNotFound, http.StatusNotFound, "thread_not_found"},
		{messages.ErrThreadNotFound, http.StatusNotFound, "thread_not_found"},
		{threads.ErrParticipantNotFound, http.StatusNotFound, "participant_not_found"},
		{messages.ErrNotParticipant, http.StatusNotFound, "not_a_participant"},
		{threads.ErrUnknownUser, http.StatusBadRequest, "unknown_user"},
		{threads.ErrEmptyParticipants, http.StatusBadRequest, "empty_participants"},
		{threads.ErrLastParticipant, http.StatusConflict, "last_participant"},
		{messages.ErrTextOrAttachmentsRequired, http.StatusBadRequest, "text_or_attachments_required"},
		{messages.ErrTextTooLong, http.StatusBadRequest, "text_too_long"},
		{messages.ErrTooManyAttachments, http.StatusBadRequest, "too_many_attachments"},
		{messages.ErrBadCursor, http.StatusBadRequest, "bad_cursor"},
		{messages.ErrAttachmentNotFound, http.StatusBadRequest, "attachment_not_found"},
		{messages.ErrAttachmentNotReady, http.StatusBadRequest, "attachment_not_ready"},
		{messages.ErrInvalidLastReadMessageID, http.StatusBadRequest, "invalid_last_read_message_id"},
		{uploads.ErrInvalidFileID, http.StatusBadRequest, "invalid_file_id"},
		{uploads.ErrInvalidContentType, http.StatusBadRequest, "invalid_content_type"},
		{uploads.ErrUploadNotFound, http.StatusNotFound, "upload_not_found"},
		{uploads.ErrUploadTooLarge, http.StatusRequestEntityTooLarge, "upload_too_large"},
	}

	for _, tc := range cases {
		t.Run(tc.wantCode, func(t *testing.T) {
			status, code, msg := httpapi.MapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.err.Error(), msg)
		})
	}
}

func TestMapError_WrappedSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("threads.repo.GetThread"), threads.ErrThreadNotFound)
	status, code, _ := httpapi.MapError(wrapped)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "thread_not_found", code)
}

func TestMapError_UnknownErrorHidesDetails(t *testing.T) {
	status, code, msg := httpapi.MapError(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", code)
	assert.Equal(t, "internal server error", msg, "driver details must not leak")
}
