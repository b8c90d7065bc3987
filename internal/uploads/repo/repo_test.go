package uploadsrepo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MedAli03/atpsm-messaging/internal/storage/sqlite"
	"github.com/MedAli03/atpsm-messaging/internal/uploads"
	uploadsrepo "github.com/MedAli03/atpsm-messaging/internal/uploads/repo"
)

func newTestRepo(t *testing.T) (*uploadsrepo.Repo, *sqlx.DB) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return uploadsrepo.New(db), db
}

func seedUser(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()

	var id int64
	err := db.QueryRowx(`INSERT INTO users (name) VALUES ('Amira') RETURNING id`).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestUploadLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepo(t)
	owner := seedUser(t, db)

	filename := "photo.png"
	require.NoError(t, repo.CreateUpload(ctx, "uploads/k1", owner, "image/png", &filename))

	up, err := repo.GetUpload(ctx, owner, "uploads/k1")
	require.NoError(t, err)
	assert.Equal(t, uploads.StatusPresigned, up.Status)
	require.NotNil(t, up.Filename)
	assert.Equal(t, filename, *up.Filename)
	assert.Zero(t, up.Size)

	require.NoError(t, repo.ConfirmUpload(ctx, owner, "uploads/k1", "image/png", 4096))

	up, err = repo.GetUpload(ctx, owner, "uploads/k1")
	require.NoError(t, err)
	assert.Equal(t, uploads.StatusReady, up.Status)
	assert.EqualValues(t, 4096, up.Size)
}

func TestUpload_OwnershipIsEnforced(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepo(t)
	owner := seedUser(t, db)

	require.NoError(t, repo.CreateUpload(ctx, "uploads/k1", owner, "image/png", nil))

	_, err := repo.GetUpload(ctx, owner+1, "uploads/k1")
	assert.ErrorIs(t, err, uploads.ErrUploadNotFound)

	err = repo.ConfirmUpload(ctx, owner+1, "uploads/k1", "image/png", 4096)
	assert.ErrorIs(t, err, uploads.ErrUploadNotFound)
}

func TestConfirmUpload_UnknownKey(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepo(t)
	owner := seedUser(t, db)

	err := repo.ConfirmUpload(ctx, owner, "uploads/nope", "image/png", 1)
	assert.ErrorIs(t, err, uploads.ErrUploadNotFound)
}
