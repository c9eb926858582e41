package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"friendbox/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RoomSource lists the rooms (friend edge ids) a user may join.
type RoomSource interface {
	Rooms(ctx context.Context, userID string) ([]string, error)
}

type Client struct {
	ID     string
	UserID string
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte

	rooms   map[string]bool // guarded by Hub.mu
	roomSrc RoomSource
	log     *zap.Logger
}

func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket error", zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Action {
	case "ping":
		c.reply(&Message{Event: "pong"})
	case "join":
		c.handleJoin(msg.Room)
	}
}

func (c *Client) reply(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.Hub.deliver(c, data)
}

// handleJoin admits the client to room only if it is one of the user's
// current friend edges, e.g. one accepted after the socket connected.
func (c *Client) handleJoin(room string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rooms, err := c.roomSrc.Rooms(ctx, c.UserID)
	if err != nil {
		c.log.Warn("room lookup failed", zap.String("user_id", c.UserID), zap.Error(err))
		c.reply(&Message{Event: "error", Data: gin.H{"message": "room lookup failed"}})
		return
	}
	for _, r := range rooms {
		if r == room {
			c.Hub.Join(c, room)
			c.reply(&Message{Event: "joined", Data: gin.H{"room": room}})
			return
		}
	}
	c.reply(&Message{Event: "error", Data: gin.H{"message": "not a member of this room"}})
}

// Handler upgrades authenticated requests (token query parameter) and joins
// the connection to every room of the user's friend edges.
func Handler(hub *Hub, tokens *utils.TokenManager, roomSrc RoomSource, log *zap.Logger) gin.HandlerFunc {
	log = log.Named("ws")
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		claims, err := tokens.ParseToken(token)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		rooms, err := roomSrc.Rooms(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Error("room lookup failed", zap.String("user_id", claims.UserID), zap.Error(err))
			utils.InternalError(c, "failed to load rooms")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade error", zap.Error(err))
			return
		}

		client := &Client{
			ID:      uuid.New().String(),
			UserID:  claims.UserID,
			Hub:     hub,
			Conn:    conn,
			Send:    make(chan []byte, 256),
			rooms:   make(map[string]bool, len(rooms)),
			roomSrc: roomSrc,
			log:     log,
		}
		for _, room := range rooms {
			client.rooms[room] = true
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
