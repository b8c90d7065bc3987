package threads

import (
	"context"
	"time"

	response "github.com/MedAli03/atpsm-messaging/internal/lib/api/response"
	userdomain "github.com/MedAli03/atpsm-messaging/internal/users/domain"
)

type Thread struct {
	ID             int64     `json:"id" db:"id"`
	Title          *string   `json:"title" db:"title"`
	ChildID        *int64    `json:"child_id" db:"child_id"`
	Archived       bool      `json:"archived" db:"archived"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at" db:"last_activity_at"`
}

type Participant struct {
	User              userdomain.User `json:"user"`
	JoinedAt          time.Time       `json:"joined_at" db:"joined_at"`
	LeftAt            *time.Time      `json:"left_at" db:"left_at"`
	LastReadMessageID int64           `json:"last_read_message_id" db:"last_read_message_id"`
}

type ThreadInfo struct {
	Thread       Thread        `json:"thread"`
	Participants []Participant `json:"participants"`
}

// MessagePreview is the last-message teaser shown in thread summaries;
// nullable because an archived-then-emptied thread may have none.
type MessagePreview struct {
	ID           int64     `json:"id" db:"id"`
	SenderUserID int64     `json:"sender_user_id" db:"sender_user_id"`
	Text         string    `json:"text" db:"text"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type ThreadListItem struct {
	ID                         int64             `json:"id" db:"thread_id"`
	Title                      *string           `json:"title" db:"title"`
	Archived                   bool              `json:"archived" db:"archived"`
	Users                      []userdomain.User `json:"users"`
	LastMessage                *MessagePreview   `json:"last_message"`
	UnreadCount                int64             `json:"unread_count" db:"unread_count"`
	OthersMaxLastReadMessageID int64             `json:"others_max_last_read_message_id" db:"others_max_last_read_message_id"`
}

type CreateThreadRequest struct {
	UserIDs        []int64 `json:"user_ids"`
	Title          *string `json:"title"`
	ChildID        *int64  `json:"child_id"`
	InitialMessage *string `json:"initial_message"`
}

type SetArchivedRequest struct {
	Archived bool `json:"archived"`
}

type AddParticipantsRequest struct {
	UserIDs []int64 `json:"user_ids"`
}

type GetThreadsResponse struct {
	response.Response
	Threads []ThreadListItem `json:"threads"`
}

type GetThreadResponse struct {
	response.Response
	Thread *ThreadInfo `json:"thread"`
}

type AddParticipantsResponse struct {
	response.Response
	Users []userdomain.User `json:"users"`
}

type Service interface {
	CreateThread(ctx context.Context, creatorID int64, req CreateThreadRequest) (*ThreadInfo, error)
	GetThreads(ctx context.Context, userID int64, includeArchived bool) ([]ThreadListItem, error)
	GetThread(ctx context.Context, threadID int64) (*ThreadInfo, error)
	SetArchived(ctx context.Context, threadID int64, archived bool) error
	AddParticipants(ctx context.Context, threadID int64, userIDs []int64) ([]userdomain.User, error)
	RemoveParticipant(ctx context.Context, threadID, userID int64) error
}
