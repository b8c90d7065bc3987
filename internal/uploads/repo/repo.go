package uploadsrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/MedAli03/atpsm-messaging/internal/uploads"
)

type Repo struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateUpload(
	ctx context.Context, fileID string, userID int64, contentType string, filename *string,
) error {
	const op = "uploads.repo.CreateUpload"

	_, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`
		INSERT INTO uploads (file_id, owner_user_id, content_type, original_filename)
		VALUES (?, ?, ?, ?)
		`),
		fileID, userID, contentType, filename,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *Repo) ConfirmUpload(
	ctx context.Context, userID int64, fileID string, contentType string, size int64,
) error {
	const op = "uploads.repo.ConfirmUpload"

	res, err := r.db.ExecContext(
		ctx,
		r.db.Rebind(`
		UPDATE uploads
		SET status = ?, content_type = ?, size = ?
		WHERE file_id = ? AND owner_user_id = ?
		`),
		uploads.StatusReady, contentType, size, fileID, userID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return uploads.ErrUploadNotFound
	}

	return nil
}

func (r *Repo) GetUpload(ctx context.Context, userID int64, fileID string) (uploads.Upload, error) {
	const op = "uploads.repo.GetUpload"

	var u uploads.Upload
	err := r.db.GetContext(
		ctx, &u,
		r.db.Rebind(`
		SELECT file_id, owner_user_id, content_type, original_filename, size, status, created_at
		FROM uploads
		WHERE file_id = ? AND owner_user_id = ?
		`),
		fileID, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return uploads.Upload{}, uploads.ErrUploadNotFound
	}
	if err != nil {
		return uploads.Upload{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}
