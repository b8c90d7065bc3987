package messages

import (
	"errors"
)

var (
	ErrTextOrAttachmentsRequired = errors.New("text or attachments is required")
	ErrTextTooLong               = errors.New("text is too long")
	ErrTooManyAttachments        = errors.New("too many attachments")
	ErrThreadNotFound            = errors.New("thread not found")
	ErrNotParticipant            = errors.New("sender is not an active participant")
	ErrBadCursor                 = errors.New("malformed cursor")
	ErrAttachmentNotFound        = errors.New("attachment upload not found")
	ErrAttachmentNotReady        = errors.New("attachment upload is not ready")
	ErrInvalidLastReadMessageID  = errors.New("invalid last read message id")
)
