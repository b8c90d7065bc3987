package uploadsservice

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/MedAli03/atpsm-messaging/internal/uploads"
)

type service struct {
	bucket    string
	maxSize   int64
	expiry    time.Duration
	presigner *s3.PresignClient
	s3Client  *s3.Client
	repo      uploads.Repo
}

func New(
	bucket string, maxSize int64, expiry time.Duration,
	presigner *s3.PresignClient, s3Client *s3.Client, repo uploads.Repo,
) uploads.Service {
	return &service{
		bucket:    bucket,
		maxSize:   maxSize,
		expiry:    expiry,
		presigner: presigner,
		s3Client:  s3Client,
		repo:      repo,
	}
}

func (s *service) PresignUpload(
	ctx context.Context, userID int64, contentType string, filename *string,
) (uploads.PresignUploadResponse, error) {
	const op = "uploads.service.PresignUpload"

	key, err := uploads.GenerateKey()
	if err != nil {
		return uploads.PresignUploadResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	req := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	ps, err := s.presigner.PresignPutObject(ctx, req, func(po *s3.PresignOptions) {
		po.Expires = s.expiry
	})
	if err != nil {
		return uploads.PresignUploadResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.CreateUpload(ctx, key, userID, contentType, filename); err != nil {
		return uploads.PresignUploadResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	return uploads.PresignUploadResponse{
		FileID:    key,
		UploadURL: ps.URL,
		ExpiresIn: int64(s.expiry.Seconds()),
	}, nil
}

func (s *service) PresignDownload(ctx context.Context, fileID string) (string, error) {
	const op = "uploads.service.PresignDownload"

	if err := uploads.ValidateKey(fileID); err != nil {
		return "", err
	}

	req := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	}

	ps, err := s.presigner.PresignGetObject(ctx, req, func(po *s3.PresignOptions) {
		po.Expires = s.expiry
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return ps.URL, nil
}

// ConfirmUpload checks that the object actually landed in the bucket and
// records its authoritative content type and size before the upload can be
// attached to a message.
func (s *service) ConfirmUpload(ctx context.Context, userID int64, fileID string) error {
	const op = "uploads.service.ConfirmUpload"

	if err := uploads.ValidateKey(fileID); err != nil {
		return err
	}

	head, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileID),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	contentType := ""
	if head.ContentType != nil {
		contentType = *head.ContentType
	}

	var size int64
	if head.ContentLength != nil {
		size = *head.ContentLength
	}

	if s.maxSize > 0 && size > s.maxSize {
		return uploads.ErrUploadTooLarge
	}

	return s.repo.ConfirmUpload(ctx, userID, fileID, contentType, size)
}
