package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Client is one live websocket connection. The identity is unknown until the
// peer sends a user_connected event; until then the connection receives
// broadcasts only after registration.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// mu guards send's liveness and the identity. trySend and closeSend
	// serialize on it, so a frame can never race a replacement closing the
	// channel.
	mu     sync.Mutex
	closed bool
	userID string
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// trySend enqueues a frame without blocking. A saturated client drops the
// frame and a replaced client discards it; delivery is best-effort.
func (c *Client) trySend(frame []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- frame:
	default:
		log.Printf("[Hub] send buffer full, dropping frame for %s", c.userID)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) setUserID(id string) {
	c.mu.Lock()
	c.userID = id
	c.mu.Unlock()
}

func (c *Client) identity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.closeSend()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Client] read error: %v", err)
			}
			return
		}

		var env Event
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("[Client] invalid frame from %s: %v", c.userID, err)
			continue
		}
		c.dispatch(env)
	}
}

// dispatch handles the client->server events of the real-time channel.
// Apart from user_connected, these are pure relays: the server forwards the
// event to the affected peer without touching persisted state.
func (c *Client) dispatch(env Event) {
	switch env.Event {
	case "user_connected":
		var userID string
		if err := json.Unmarshal(env.Data, &userID); err != nil || userID == "" {
			log.Printf("[Client] bad user_connected payload: %v", err)
			return
		}
		c.hub.Connect(userID, c)

	case "follow_request":
		var p struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.To == "" {
			return
		}
		c.hub.Push(p.To, "new_follow_request", map[string]string{"from": p.From})

	case "follow":
		var p struct {
			FollowerID string `json:"followerId"`
			FollowedID string `json:"followedId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.FollowedID == "" {
			return
		}
		c.hub.Push(p.FollowedID, "newFollower", map[string]string{"followerId": p.FollowerID})

	case "unfollow":
		var p struct {
			UnfollowerID string `json:"unfollowerId"`
			UnfollowedID string `json:"unfollowedId"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.UnfollowedID == "" {
			return
		}
		c.hub.Push(p.UnfollowedID, "unfollowed", map[string]string{"unfollowerId": p.UnfollowerID})

	case "new_message":
		var p struct {
			Message map[string]any `json:"message"`
			From    string         `json:"from"`
			To      string         `json:"to"`
		}
		if err := json.Unmarshal(env.Data, &p); err != nil || p.To == "" {
			return
		}
		if p.Message == nil {
			p.Message = map[string]any{}
		}
		p.Message["senderId"] = p.From
		p.Message["receiverId"] = p.To
		c.hub.Push(p.To, "newMessage", p.Message)

	default:
		log.Printf("[Client] unknown event %q from %s", env.Event, c.userID)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// replaced by a newer connection or shutting down
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
