package messagesrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/MedAli03/atpsm-messaging/internal/messages"
)

const defaultPageSize = 30

type Repo struct {
	db       *sqlx.DB
	pageSize int
}

func New(db *sqlx.DB, pageSize int) *Repo {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Repo{db: db, pageSize: pageSize}
}

type uploadRow struct {
	ContentType string         `db:"content_type"`
	Filename    sql.NullString `db:"original_filename"`
	Size        int64          `db:"size"`
	Status      string         `db:"status"`
}

// Append persists one message and its attachment metadata in a single
// transaction and bumps the thread's last-activity mark. The mark only
// moves forward, so concurrent sends cannot lose the newer value.
func (r *Repo) Append(
	ctx context.Context,
	threadID, senderID int64,
	text string,
	attachments []messages.CreateMessageAttachment,
) (*messages.Message, error) {

	const op = "messages.repo.Append"

	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, messages.ErrTextOrAttachmentsRequired
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	if err := r.threadExists(ctx, tx, threadID); err != nil {
		return nil, err
	}

	var one int
	err = tx.GetContext(ctx, &one, tx.Rebind(`
		SELECT 1 FROM thread_participants
		WHERE thread_id = ? AND user_id = ? AND left_at IS NULL
	`), threadID, senderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, messages.ErrNotParticipant
	}
	if err != nil {
		return nil, fmt.Errorf("%s: participant check: %w", op, err)
	}

	var msg messages.Message
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO messages (thread_id, sender_user_id, text)
		VALUES (?, ?, ?)
		RETURNING id, thread_id, sender_user_id, text, created_at
	`), threadID, senderID, text).StructScan(&msg)
	if err != nil {
		return nil, fmt.Errorf("%s: insert message: %w", op, err)
	}

	msg.Attachments = []messages.Attachment{}

	for _, att := range attachments {
		var up uploadRow
		err := tx.GetContext(ctx, &up, tx.Rebind(`
			SELECT content_type, original_filename, size, status
			FROM uploads
			WHERE file_id = ? AND owner_user_id = ?
		`), att.FileID, senderID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, messages.ErrAttachmentNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("%s: select upload %s: %w", op, att.FileID, err)
		}
		if up.Status != "ready" {
			return nil, messages.ErrAttachmentNotReady
		}

		var attID int64
		err = tx.QueryRowxContext(ctx, tx.Rebind(`
			INSERT INTO attachments (message_id, file_id, content_type, filename, size)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`), msg.ID, att.FileID, up.ContentType, up.Filename.String, up.Size).Scan(&attID)
		if err != nil {
			return nil, fmt.Errorf("%s: insert attachment: %w", op, err)
		}

		msg.Attachments = append(msg.Attachments, messages.Attachment{
			ID:          attID,
			FileID:      att.FileID,
			ContentType: up.ContentType,
			Filename:    up.Filename.String,
			Size:        up.Size,
		})
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		UPDATE threads
		SET last_activity_at = CASE
			WHEN last_activity_at < ? THEN ?
			ELSE last_activity_at
		END
		WHERE id = ?
	`), msg.CreatedAt, msg.CreatedAt, threadID)
	if err != nil {
		return nil, fmt.Errorf("%s: bump last activity: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return &msg, nil
}

// List returns the newest page when cursor is empty, otherwise the page
// strictly older than the cursor boundary. Items are ascending within a
// page; pages already delivered are immutable under concurrent appends
// because the boundary is an id, not an offset.
func (r *Repo) List(ctx context.Context, threadID int64, cursor string) (*messages.Page, error) {
	const op = "messages.repo.List"

	if err := r.threadExists(ctx, r.db, threadID); err != nil {
		return nil, err
	}

	var beforeID int64
	if cursor != "" {
		id, err := messages.DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		beforeID = id
	}

	q := `
		SELECT id, thread_id, sender_user_id, text, created_at
		FROM messages
		WHERE thread_id = ?
	`
	args := []any{threadID}
	if beforeID > 0 {
		q += ` AND id < ?`
		args = append(args, beforeID)
	}
	q += ` ORDER BY id DESC LIMIT ?`
	args = append(args, r.pageSize+1)

	var rows []messages.Message
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("%s: select messages: %w", op, err)
	}

	hasMore := len(rows) > r.pageSize
	if hasMore {
		rows = rows[:r.pageSize]
	}

	// rows are newest-first; flip to ascending for the page.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	if err := r.loadAttachments(ctx, rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	page := &messages.Page{Items: rows}
	if page.Items == nil {
		page.Items = []messages.Message{}
	}
	if hasMore && len(rows) > 0 {
		page.NextCursor = messages.EncodeCursor(rows[0].ID)
	}

	return page, nil
}

// MarkRead moves the participant's last-read marker forward (never back),
// clamped to the thread's newest message, and idempotently records a read
// receipt for every other-sender message at or before the marker. It
// returns the marker actually saved.
func (r *Repo) MarkRead(ctx context.Context, threadID, userID int64, messageID *int64) (int64, error) {
	const op = "messages.repo.MarkRead"

	if messageID != nil && *messageID < 0 {
		return 0, messages.ErrInvalidLastReadMessageID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer tx.Rollback()

	if err := r.threadExists(ctx, tx, threadID); err != nil {
		return 0, err
	}

	var maxID int64
	if err := tx.GetContext(ctx, &maxID, tx.Rebind(`
		SELECT COALESCE(MAX(id), 0) FROM messages WHERE thread_id = ?
	`), threadID); err != nil {
		return 0, fmt.Errorf("%s: select max id: %w", op, err)
	}

	target := maxID
	if messageID != nil && *messageID < maxID {
		target = *messageID
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE thread_participants
		SET last_read_message_id = CASE
			WHEN last_read_message_id < ? THEN ?
			ELSE last_read_message_id
		END
		WHERE thread_id = ? AND user_id = ? AND left_at IS NULL
	`), target, target, threadID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: update marker: %w", op, err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return 0, messages.ErrNotParticipant
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO read_receipts (message_id, user_id)
		SELECT id, ? FROM messages
		WHERE thread_id = ? AND id <= ? AND sender_user_id <> ?
		ON CONFLICT (message_id, user_id) DO NOTHING
	`), userID, threadID, target, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: insert receipts: %w", op, err)
	}

	var saved int64
	if err := tx.GetContext(ctx, &saved, tx.Rebind(`
		SELECT last_read_message_id FROM thread_participants
		WHERE thread_id = ? AND user_id = ?
	`), threadID, userID); err != nil {
		return 0, fmt.Errorf("%s: select saved marker: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit tx: %w", op, err)
	}

	return saved, nil
}

// UnreadCount is the number of messages past the user's marker that the
// user did not send themselves.
func (r *Repo) UnreadCount(ctx context.Context, threadID, userID int64) (int64, error) {
	const op = "messages.repo.UnreadCount"

	var count int64
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		SELECT COUNT(*)
		FROM messages m
		JOIN thread_participants tp
			ON tp.thread_id = m.thread_id AND tp.user_id = ?
		WHERE m.thread_id = ?
			AND m.id > tp.last_read_message_id
			AND m.sender_user_id <> ?
	`), userID, threadID, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", op, err)
	}

	return count, nil
}

// ReadReceipts lists who has read a message, oldest first.
func (r *Repo) ReadReceipts(ctx context.Context, messageID int64) ([]messages.ReadReceipt, error) {
	const op = "messages.repo.ReadReceipts"

	var receipts []messages.ReadReceipt
	err := r.db.SelectContext(ctx, &receipts, r.db.Rebind(`
		SELECT message_id, user_id, read_at
		FROM read_receipts
		WHERE message_id = ?
		ORDER BY read_at ASC, user_id ASC
	`), messageID)
	if err != nil {
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	if receipts == nil {
		receipts = []messages.ReadReceipt{}
	}
	return receipts, nil
}

func (r *Repo) threadExists(ctx context.Context, q sqlx.QueryerContext, threadID int64) error {
	const op = "messages.repo.threadExists"

	var one int
	err := sqlx.GetContext(ctx, q, &one, r.db.Rebind(`SELECT 1 FROM threads WHERE id = ?`), threadID)
	if errors.Is(err, sql.ErrNoRows) {
		return messages.ErrThreadNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Repo) loadAttachments(ctx context.Context, msgs []messages.Message) error {
	const op = "messages.repo.loadAttachments"

	if len(msgs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(msgs))
	for i := range msgs {
		msgs[i].Attachments = []messages.Attachment{}
		ids = append(ids, msgs[i].ID)
	}

	type attachmentRow struct {
		MessageID int64 `db:"message_id"`
		messages.Attachment
	}

	q, args, err := sqlx.In(`
		SELECT message_id, id, file_id, content_type, filename, size
		FROM attachments
		WHERE message_id IN (?)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("%s: sqlx.In: %w", op, err)
	}
	q = r.db.Rebind(q)

	var rows []attachmentRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return fmt.Errorf("%s: select attachments: %w", op, err)
	}

	byMessage := make(map[int64][]messages.Attachment, len(msgs))
	for _, a := range rows {
		byMessage[a.MessageID] = append(byMessage[a.MessageID], a.Attachment)
	}

	for i := range msgs {
		if atts, ok := byMessage[msgs[i].ID]; ok {
			msgs[i].Attachments = atts
		}
	}

	return nil
}
