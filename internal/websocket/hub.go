package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/localbiz-backend/pkg/logger"
)

// Rate limiting: messages accepted from one client per second
const maxMessagesPerSecond = 10

// Event is what the hub pushes to clients watching a post.
type Event struct {
	Type   string      `json:"type"`
	PostID uint        `json:"post_id"`
	UserID uint        `json:"user_id,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// ClientMessage is what a client may send. Only typing notices are relayed.
type ClientMessage struct {
	Type string `json:"type"` // typing_start, typing_stop
}

// Client is one websocket session watching one forum post. UserID is zero
// for guests, who may watch but not send.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	PostID uint
	Send   chan []byte

	rateMu        sync.Mutex
	messageCount  int
	lastResetTime time.Time
}

type broadcastMessage struct {
	postID  uint
	payload []byte
	except  *Client
}

// Hub fans forum events out to the clients in each post's room.
type Hub struct {
	rooms map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	mu  sync.RWMutex
	log *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:      make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *broadcastMessage, 1024),
		log:        log.Component("websocket_hub"),
	}
}

// NewClient builds a session for postID. conn may be nil in tests.
func NewClient(h *Hub, conn *Conn, userID, postID uint) *Client {
	return &Client{
		Hub:    h,
		Conn:   conn,
		UserID: userID,
		PostID: postID,
		Send:   make(chan []byte, 256),
	}
}

// Run processes registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			room, ok := h.rooms[client.PostID]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[client.PostID] = room
			}
			room[client] = struct{}{}
			size := len(room)
			h.mu.Unlock()
			h.log.Debug("WebSocket client joined post", logger.Fields{
				"post_id":   client.PostID,
				"user_id":   client.UserID,
				"room_size": size,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.rooms[msg.postID] {
				if client == msg.except {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.log.Warn("Client send buffer full, disconnecting", logger.Fields{
					"post_id": client.PostID,
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.PostID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.Send)
	if len(room) == 0 {
		delete(h.rooms, client.PostID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for postID, room := range h.rooms {
		for client := range room {
			close(client.Send)
		}
		delete(h.rooms, postID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastToPost queues an event for every client watching postID. A full
// queue drops the event rather than block the caller.
func (h *Hub) BroadcastToPost(postID uint, event string, payload interface{}) {
	h.send(postID, Event{Type: event, PostID: postID, Data: payload}, nil)
}

func (h *Hub) send(postID uint, event Event, except *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to marshal websocket event", err, logger.Fields{"type": event.Type})
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{postID: postID, payload: data, except: except}:
	default:
		h.log.Warn("Broadcast channel full, event dropped", logger.Fields{
			"post_id": postID,
			"type":    event.Type,
		})
	}
}

// RoomSize reports how many sessions are watching postID.
func (h *Hub) RoomSize(postID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[postID])
}

// allow applies the per-client rate limit.
func (c *Client) allow(now time.Time) bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= maxMessagesPerSecond
}

// HandleClientMessage relays typing notices to the rest of the room.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if client.UserID == 0 {
		return
	}
	if !client.allow(time.Now()) {
		h.log.Warn("Rate limit exceeded", logger.Fields{"user_id": client.UserID})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		h.log.Debug("Failed to parse client message", logger.Fields{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "typing_start" || msg.Type == "typing_stop" {
		h.send(client.PostID, Event{Type: msg.Type, PostID: client.PostID, UserID: client.UserID}, client)
	}
}
