package ws

import (
	"encoding/json"
	"fmt"
)

const (
	MessageNew     = "message.new"
	MessageRead    = "message.read"
	ThreadArchived = "thread.archived"
	Typing         = "typing"
)

type ServerEvent struct {
	Type     string          `json:"type"`
	ThreadID int64           `json:"thread_id"`
	Payload  json.RawMessage `json:"payload"`
}

func NewEvent(threadID int64, eventType string, payload any) (ServerEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ServerEvent{}, fmt.Errorf("ws.NewEvent: marshal payload: %w", err)
	}

	return ServerEvent{
		Type:     eventType,
		ThreadID: threadID,
		Payload:  raw,
	}, nil
}
