package uploads

import (
	"context"
	"time"
)

type Status string

const (
	StatusPresigned Status = "presigned"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
)

// Upload is a row of the uploads table. An upload becomes attachable to a
// message only after ConfirmUpload flips its status to ready.
type Upload struct {
	FileID      string    `db:"file_id" json:"file_id"`
	OwnerUserID int64     `db:"owner_user_id" json:"owner_user_id"`
	ContentType string    `db:"content_type" json:"content_type"`
	Filename    *string   `db:"original_filename" json:"filename"`
	Size        int64     `db:"size" json:"size"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Repo interface {
	CreateUpload(ctx context.Context, fileID string, userID int64, contentType string, filename *string) error
	ConfirmUpload(ctx context.Context, userID int64, fileID string, contentType string, size int64) error
	GetUpload(ctx context.Context, userID int64, fileID string) (Upload, error)
}

type Service interface {
	PresignUpload(ctx context.Context, userID int64, contentType string, filename *string) (PresignUploadResponse, error)
	PresignDownload(ctx context.Context, fileID string) (string, error)
	ConfirmUpload(ctx context.Context, userID int64, fileID string) error
}

type PresignUploadRequest struct {
	Filename    *string `json:"filename"`
	ContentType string  `json:"content_type"`
}

type PresignUploadResponse struct {
	FileID    string `json:"file_id"`
	UploadURL string `json:"upload_url"`
	ExpiresIn int64  `json:"expires_in"`
}

type ConfirmUploadRequest struct {
	FileID string `json:"file_id"`
}

type PresignDownloadResponse struct {
	URL string `json:"url"`
}
