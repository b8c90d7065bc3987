package ws

import (
	"github.com/MedAli03/atpsm-messaging/internal/messages"
)

type MessageNewPayload struct {
	Message messages.Message `json:"message"`
}

type MessageReadPayload struct {
	UserID            int64 `json:"user_id"`
	LastReadMessageID int64 `json:"last_read_message_id"`
}

type ThreadArchivedPayload struct {
	Archived bool `json:"archived"`
}

type TypingPayload struct {
	UserID   int64  `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
	Label    string `json:"label,omitempty"`
}
