package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MedAli03/atpsm-messaging/internal/messages"
)

// Status of a feed entry as the UI sees it. Sending and failed exist only in
// client memory; the server never stores them.
type Status string

const (
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Entry is one row of the rendered feed. CorrelationID is set for messages
// this coordinator sent itself (echoes and their settled forms); entries
// fetched from history carry an empty one.
type Entry struct {
	CorrelationID string
	Status        Status
	Message       messages.Message
}

type pendingEntry struct {
	corrID string
	status Status
	echo   messages.Message
	req    messages.CreateMessageRequest
}

const typingDebounce = 275 * time.Millisecond

// Coordinator owns the message feed of one open thread: optimistic echoes,
// reconciliation of server confirmations, backward paging, and the typing
// debounce. All methods are safe for concurrent use; reconciliation itself
// is serialized by the mutex, so two in-flight sends can never swap into
// each other's slot.
type Coordinator struct {
	api      *Client
	threadID int64
	senderID int64

	mu         sync.Mutex
	pending    []*pendingEntry    // newest first, status sending|failed
	feed       []messages.Message // confirmed, newest first
	corrByID   map[int64]string   // server id -> correlation id of our own sends
	nextCursor string
	loaded     bool

	typingMu    sync.Mutex
	typingTimer *time.Timer

	sends sync.WaitGroup
}

func NewCoordinator(api *Client, threadID, senderID int64) *Coordinator {
	return &Coordinator{
		api:      api,
		threadID: threadID,
		senderID: senderID,
		corrByID: make(map[int64]string),
	}
}

// Send inserts a sending echo at the head of the feed before any network
// round-trip, then dispatches the submission. The dispatch context is
// detached from ctx: navigating away cancels fetches, never sends.
func (c *Coordinator) Send(ctx context.Context, text string, attachments []messages.CreateMessageAttachment) string {
	corrID := uuid.NewString()

	p := &pendingEntry{
		corrID: corrID,
		status: StatusSending,
		echo: messages.Message{
			ThreadID:     c.threadID,
			SenderUserID: c.senderID,
			Text:         text,
			CreatedAt:    time.Now(),
		},
		req: messages.CreateMessageRequest{Text: text, Attachments: attachments},
	}

	c.mu.Lock()
	c.pending = append([]*pendingEntry{p}, c.pending...)
	c.mu.Unlock()

	c.dispatch(ctx, p)
	return corrID
}

// Retry re-submits a failed echo with its original content. Unknown or
// not-failed correlation ids are ignored; retrying is only meaningful for
// entries the UI shows as failed.
func (c *Coordinator) Retry(ctx context.Context, corrID string) bool {
	c.mu.Lock()
	var p *pendingEntry
	for _, cand := range c.pending {
		if cand.corrID == corrID && cand.status == StatusFailed {
			p = cand
			break
		}
	}
	if p != nil {
		p.status = StatusSending
	}
	c.mu.Unlock()

	if p == nil {
		return false
	}
	c.dispatch(ctx, p)
	return true
}

// Discard drops a failed echo the user gave up on. Sending entries cannot be
// discarded; their submission is already in flight.
func (c *Coordinator) Discard(corrID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, p := range c.pending {
		if p.corrID == corrID && p.status == StatusFailed {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Coordinator) dispatch(ctx context.Context, p *pendingEntry) {
	c.sends.Add(1)
	go func() {
		defer c.sends.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultTimeout)
		defer cancel()

		msg, err := c.api.SendMessage(sendCtx, c.threadID, p.req)

		c.mu.Lock()
		defer c.mu.Unlock()

		if err != nil {
			p.status = StatusFailed
			return
		}

		// Positional swap: the echo leaves pending and the canonical record
		// takes the head of the confirmed feed, so the row never moves or
		// duplicates under the user's cursor.
		for i, cand := range c.pending {
			if cand.corrID == p.corrID {
				c.pending = append(c.pending[:i], c.pending[i+1:]...)
				break
			}
		}
		c.corrByID[msg.ID] = p.corrID
		c.insertConfirmed(*msg)
	}()
}

// LoadNewest fetches the newest page and merges it into the feed. Settled
// sends already present are deduplicated by server id, so a refresh right
// after a confirmation never doubles the message.
func (c *Coordinator) LoadNewest(ctx context.Context) error {
	page, err := c.api.ListMessages(ctx, c.threadID, "")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(page.Items) - 1; i >= 0; i-- {
		c.insertConfirmed(page.Items[i])
	}
	if !c.loaded {
		c.nextCursor = page.NextCursor
		c.loaded = true
	}
	return nil
}

// LoadOlder fetches the page behind the current cursor and appends it to the
// tail. Returns false once history is exhausted.
func (c *Coordinator) LoadOlder(ctx context.Context) (bool, error) {
	c.mu.Lock()
	cursor := c.nextCursor
	loaded := c.loaded
	c.mu.Unlock()

	if loaded && cursor == "" {
		return false, nil
	}

	page, err := c.api.ListMessages(ctx, c.threadID, cursor)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(page.Items) - 1; i >= 0; i-- {
		c.insertConfirmed(page.Items[i])
	}
	c.nextCursor = page.NextCursor
	c.loaded = true
	return c.nextCursor != "", nil
}

// insertConfirmed places msg into the newest-first confirmed feed at its
// id-ordered position, skipping ids already present. Callers hold c.mu.
func (c *Coordinator) insertConfirmed(msg messages.Message) {
	for i, existing := range c.feed {
		if existing.ID == msg.ID {
			return
		}
		if existing.ID < msg.ID {
			c.feed = append(c.feed[:i], append([]messages.Message{msg}, c.feed[i:]...)...)
			return
		}
	}
	c.feed = append(c.feed, msg)
}

// Entries snapshots the feed newest-first: unsettled echoes at the head,
// confirmed messages behind them.
func (c *Coordinator) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.pending)+len(c.feed))
	for _, p := range c.pending {
		out = append(out, Entry{CorrelationID: p.corrID, Status: p.status, Message: p.echo})
	}
	for _, msg := range c.feed {
		out = append(out, Entry{CorrelationID: c.corrByID[msg.ID], Status: StatusSent, Message: msg})
	}
	return out
}

// MarkRead moves the viewer's marker; omit messageID to mark everything read.
func (c *Coordinator) MarkRead(ctx context.Context, messageID *int64) (int64, error) {
	return c.api.MarkRead(ctx, c.threadID, messageID)
}

// Typing schedules a debounced "still typing" signal. Each keystroke resets
// the timer, so a burst of input collapses into one request. Delivery is
// best-effort; errors are dropped.
func (c *Coordinator) Typing(label string) {
	c.typingMu.Lock()
	defer c.typingMu.Unlock()

	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(typingDebounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), typingCallLimit)
		defer cancel()
		_ = c.api.SetTyping(ctx, c.threadID, true, label)
	})
}

// StopTyping cancels any scheduled signal and clears the presence entry.
func (c *Coordinator) StopTyping() {
	c.typingMu.Lock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	c.typingMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), typingCallLimit)
	defer cancel()
	_ = c.api.SetTyping(ctx, c.threadID, false, "")
}

// Wait blocks until every dispatched send has settled. Used by tests and by
// shells that want a clean shutdown.
func (c *Coordinator) Wait() {
	c.sends.Wait()
}
