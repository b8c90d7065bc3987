package hub

import (
	"sync"

	"github.com/gorilla/websocket"
)

type Connection struct {
	conn      *websocket.Conn
	send      chan []byte
	threadIDs map[int64]struct{}
	userID    int64
	closeOnce sync.Once
}

func (c *Connection) UserID() int64 { return c.userID }

type SubscribeCmd struct {
	c         *Connection
	threadIDs []int64
}

type BroadcastCmd struct {
	ThreadID    int64
	Payload     []byte
	ExcludeUser int64
}

type Hub struct {
	register   chan *Connection
	unregister chan *Connection
	subscribe  chan SubscribeCmd
	broadcast  chan BroadcastCmd
	threads    map[int64]map[*Connection]struct{}
}

func NewConnection(conn *websocket.Conn, userID int64) *Connection {
	return &Connection{
		conn:      conn,
		send:      make(chan []byte, 128),
		threadIDs: make(map[int64]struct{}),
		userID:    userID,
	}
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Connection, 64),
		unregister: make(chan *Connection, 64),
		subscribe:  make(chan SubscribeCmd, 64),
		broadcast:  make(chan BroadcastCmd, 256),
		threads:    make(map[int64]map[*Connection]struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			_ = c

		case c := <-h.unregister:
			for threadID := range c.threadIDs {
				room := h.threads[threadID]
				if room == nil {
					continue
				}
				delete(room, c)
				if len(room) == 0 {
					delete(h.threads, threadID)
				}
			}
			c.CloseSend()

		case cmd := <-h.subscribe:
			for _, threadID := range cmd.threadIDs {
				room := h.threads[threadID]
				if room == nil {
					room = make(map[*Connection]struct{})
					h.threads[threadID] = room
				}
				room[cmd.c] = struct{}{}
				cmd.c.threadIDs[threadID] = struct{}{}
			}

		case b := <-h.broadcast:
			room := h.threads[b.ThreadID]
			if room == nil {
				continue
			}

			for c := range room {
				if b.ExcludeUser != 0 && c.userID == b.ExcludeUser {
					continue
				}
				c.Send(b.Payload)
			}
		}
	}
}

func (h *Hub) Register(c *Connection) {
	h.register <- c
}

func (h *Hub) Unregister(c *Connection) {
	h.unregister <- c
}

func (h *Hub) Subscribe(c *Connection, threadIDs []int64) {
	h.subscribe <- SubscribeCmd{
		c:         c,
		threadIDs: threadIDs,
	}
}

func (h *Hub) Broadcast(threadID int64, payload []byte) {
	h.broadcast <- BroadcastCmd{
		ThreadID: threadID,
		Payload:  payload,
	}
}

func (h *Hub) BroadcastExceptUser(threadID int64, payload []byte, excludeUserID int64) {
	h.broadcast <- BroadcastCmd{
		ThreadID:    threadID,
		Payload:     payload,
		ExcludeUser: excludeUserID,
	}
}

func (c *Connection) Send(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}

func (c *Connection) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
