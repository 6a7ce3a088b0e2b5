package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// A balance update is a few dozen bytes and clients only listen;
	// anything larger inbound is a misbehaving peer.
	maxInboundBytes = 256
	writeWait       = 5 * time.Second
	pongWait        = 90 * time.Second
	pingPeriod      = pongWait * 2 / 3
	sendBuffer      = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  256,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Client is one subscribed balance feed. The feed is one-way: inbound frames
// are drained only to service pongs and to notice the peer going away.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, sendBuffer)}
	hub.Register(userID, client)
	defer func() {
		hub.Unregister(userID, client)
		_ = conn.Close()
	}()
	go client.push()
	client.drain()
}

// drain discards inbound frames until the peer disconnects, resetting the
// read deadline on every pong.
func (c *Client) drain() {
	c.conn.SetReadLimit(maxInboundBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// push writes queued balance updates and keepalive pings until the first
// write failure, which includes the connection being closed under it.
func (c *Client) push() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
