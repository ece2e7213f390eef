// Package websocket serves the chat conversation over a socket. Each frame is
// one turn, handled exactly like POST /chatbot/chat.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dom/jumbah-travel/internal/domain"
	"github.com/dom/jumbah-travel/internal/genai"
	"github.com/dom/jumbah-travel/internal/service"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// maxPending bounds the frames waiting behind an in-flight generation.
	maxPending = 4
)

// Chatter is implemented by *service.ChatService.
type Chatter interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error)
}

// Client owns one socket. The read pump only parses and admits frames; a
// single worker runs the chat turns in order, so pongs keep being read while
// a generation is in flight.
type Client struct {
	conn      *websocket.Conn
	chat      Chatter
	limiter   *rate.Limiter
	send      chan *Message
	requests  chan *ChatRequest
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	worker    sync.WaitGroup

	mu sync.Mutex
	// sessionID sticks to the last session the socket talked to, so frames
	// without a session_id continue the same conversation.
	sessionID string
}

// NewClient binds a socket to ctx: when ctx ends the socket is closed with
// a going-away frame. A nil limiter admits every frame.
func NewClient(ctx context.Context, conn *websocket.Conn, chat Chatter, limiter *rate.Limiter) *Client {
	ctx, cancel := context.WithCancel(ctx)
	return &Client{
		conn:     conn,
		chat:     chat,
		limiter:  limiter,
		send:     make(chan *Message, 16),
		requests: make(chan *ChatRequest, maxPending),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Run starts the worker and write pump and blocks in the read pump until the
// peer goes away or the client's context ends.
func (c *Client) Run() {
	c.worker.Add(1)
	go c.work()
	go c.WritePump()
	c.ReadPump()
}

func (c *Client) ReadPump() {
	defer func() {
		c.cancel()
		c.worker.Wait()
		c.closeSend()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket: read failed", "error", err)
			}
			return
		}

		if c.limiter != nil && !c.limiter.Allow() {
			c.queue(NewErrorMessage(c.currentSession(), "Too many requests, please slow down"))
			continue
		}

		var req ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			c.queue(NewErrorMessage(c.currentSession(), "Invalid message format"))
			continue
		}

		select {
		case c.requests <- &req:
		default:
			c.queue(NewErrorMessage(c.currentSession(), "Too many pending messages"))
		}
	}
}

func (c *Client) work() {
	defer c.worker.Done()
	for {
		select {
		case req := <-c.requests:
			c.queue(c.handle(req))
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				slog.Warn("websocket: write failed", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func (c *Client) handle(req *ChatRequest) *Message {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.currentSession()
	}

	result, err := c.chat.Chat(c.ctx, service.ChatInput{
		Message:   req.Message,
		SessionID: sessionID,
		Context:   req.Context,
	})
	if err != nil {
		return NewErrorMessage(sessionID, errorText(err))
	}

	c.mu.Lock()
	c.sessionID = result.SessionID
	c.mu.Unlock()

	return &Message{
		Type:      MessageTypeResponse,
		SessionID: result.SessionID,
		Response:  result.Response,
		Context:   result.Context,
		Timestamp: result.Timestamp,
	}
}

// errorText keeps upstream error detail out of frames.
func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return "Message cannot be empty"
	case errors.Is(err, genai.ErrUnavailable):
		return "AI service is currently unavailable"
	default:
		slog.Error("websocket: chat failed", "error", err)
		return "Failed to process chat message"
	}
}

func (c *Client) queue(msg *Message) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	}
}

func (c *Client) currentSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}
