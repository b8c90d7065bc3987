package messages

import (
	"context"
	"time"
)

// Message is the canonical, server-assigned record. Ids come from a single
// global sequence, so (thread, id) ascending is the total order of a thread
// and the id doubles as the reconciliation key for optimistic clients.
type Message struct {
	ID           int64        `json:"id" db:"id"`
	ThreadID     int64        `json:"thread_id" db:"thread_id"`
	SenderUserID int64        `json:"sender_user_id" db:"sender_user_id"`
	Text         string       `json:"text" db:"text"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	Attachments  []Attachment `json:"attachments"`
}

// Attachment is metadata only; the bytes live in the storage collaborator
// under FileID. Rows are immutable and deleted with their message.
type Attachment struct {
	ID          int64  `json:"id" db:"id"`
	FileID      string `json:"file_id" db:"file_id"`
	ContentType string `json:"content_type" db:"content_type"`
	Filename    string `json:"filename" db:"filename"`
	Size        int64  `json:"size" db:"size"`
}

// Page is one slice of a thread's history. Items are ascending; NextCursor
// requests the page immediately older and is empty on the terminal page.
type Page struct {
	Items      []Message `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type ReadReceipt struct {
	MessageID int64     `json:"message_id" db:"message_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	ReadAt    time.Time `json:"read_at" db:"read_at"`
}

type CreateMessageAttachment struct {
	FileID string `json:"file_id"`
}

type CreateMessageRequest struct {
	Text        string                    `json:"text"`
	Attachments []CreateMessageAttachment `json:"attachments"`
}

type MarkReadRequest struct {
	MessageID *int64 `json:"message_id"`
}

type Service interface {
	Append(ctx context.Context, threadID, senderID int64, text string, attachments []CreateMessageAttachment) (*Message, error)
	List(ctx context.Context, threadID int64, cursor string) (*Page, error)
	MarkRead(ctx context.Context, threadID, userID int64, messageID *int64) (int64, error)
	UnreadCount(ctx context.Context, threadID, userID int64) (int64, error)
}
