// Package notify is the fire-and-forget edge towards participants: the hub
// implementation fans events out over websocket, the noop one drops them.
// Callers never block on, or fail because of, a notification.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/MedAli03/atpsm-messaging/internal/lib/logger/sl"
	"github.com/MedAli03/atpsm-messaging/internal/messages"
	"github.com/MedAli03/atpsm-messaging/internal/ws"
	"github.com/MedAli03/atpsm-messaging/internal/ws/hub"
)

type Notifier interface {
	MessageSent(ctx context.Context, threadID int64, msg messages.Message)
	MessageRead(ctx context.Context, threadID, userID, lastReadMessageID int64)
	ThreadArchived(ctx context.Context, threadID int64, archived bool)
	Typing(ctx context.Context, threadID, userID int64, isTyping bool, label string)
}

type HubNotifier struct {
	hub *hub.Hub
	log *slog.Logger
}

func NewHubNotifier(h *hub.Hub, log *slog.Logger) *HubNotifier {
	return &HubNotifier{hub: h, log: log}
}

func (n *HubNotifier) MessageSent(ctx context.Context, threadID int64, msg messages.Message) {
	n.broadcast(threadID, ws.MessageNew, ws.MessageNewPayload{Message: msg}, 0)
}

func (n *HubNotifier) MessageRead(ctx context.Context, threadID, userID, lastReadMessageID int64) {
	n.broadcast(threadID, ws.MessageRead, ws.MessageReadPayload{
		UserID:            userID,
		LastReadMessageID: lastReadMessageID,
	}, 0)
}

func (n *HubNotifier) ThreadArchived(ctx context.Context, threadID int64, archived bool) {
	n.broadcast(threadID, ws.ThreadArchived, ws.ThreadArchivedPayload{Archived: archived}, 0)
}

func (n *HubNotifier) Typing(ctx context.Context, threadID, userID int64, isTyping bool, label string) {
	// the typer never needs their own indicator echoed back
	n.broadcast(threadID, ws.Typing, ws.TypingPayload{
		UserID:   userID,
		IsTyping: isTyping,
		Label:    label,
	}, userID)
}

func (n *HubNotifier) broadcast(threadID int64, eventType string, payload any, excludeUser int64) {
	evt, err := ws.NewEvent(threadID, eventType, payload)
	if err != nil {
		n.log.Error("failed to build ws event", sl.Err(err))
		return
	}

	raw, err := json.Marshal(evt)
	if err != nil {
		n.log.Error("failed to marshal ws event", sl.Err(err))
		return
	}

	if excludeUser != 0 {
		n.hub.BroadcastExceptUser(threadID, raw, excludeUser)
		return
	}
	n.hub.Broadcast(threadID, raw)
}

type Noop struct{}

func (Noop) MessageSent(context.Context, int64, messages.Message) {}
func (Noop) MessageRead(context.Context, int64, int64, int64)     {}
func (Noop) ThreadArchived(context.Context, int64, bool)          {}
func (Noop) Typing(context.Context, int64, int64, bool, string)   {}
