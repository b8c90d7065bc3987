package uploads

import (
	"errors"
)

var (
	ErrInvalidFileID         = errors.New("invalid file id")
	ErrContentTypeIsRequired = errors.New("content_type is required")
	ErrInvalidContentType    = errors.New("invalid content_type")
	ErrUploadNotFound        = errors.New("upload not found")
	ErrUploadTooLarge        = errors.New("upload too large")
)
