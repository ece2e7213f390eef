package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/jumbah-travel/internal/websocket"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test client for the chat socket
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient connects to the chat socket at url
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(client.Close)

	return client
}

func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg websocket.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Send writes one chat request frame
func (c *WSClient) Send(req websocket.ChatRequest) {
	c.t.Helper()

	data, err := json.Marshal(req)
	if err != nil {
		c.t.Fatalf("failed to marshal chat request: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send chat request: %v", err)
	}
}

// SendRaw writes an arbitrary text frame
func (c *WSClient) SendRaw(data string) {
	c.t.Helper()

	c.mu.Lock()
	err := c.conn.WriteMessage(gorillaWS.TextMessage, []byte(data))
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send frame: %v", err)
	}
}

// Next waits for the next server frame
func (c *WSClient) Next(timeout time.Duration) *websocket.Message {
	c.t.Helper()

	select {
	case msg, ok := <-c.messages:
		if !ok {
			c.t.Fatal("websocket closed while waiting for message")
		}
		return msg
	case err := <-c.errors:
		c.t.Fatalf("websocket error: %v", err)
	case <-time.After(timeout):
		c.t.Fatalf("timed out after %s waiting for message", timeout)
	}
	return nil
}

// WaitClosed waits for the server to close the socket and returns the close
// error it sent.
func (c *WSClient) WaitClosed(timeout time.Duration) error {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case _, ok := <-c.messages:
			if !ok {
				select {
				case err := <-c.errors:
					return err
				default:
					return nil
				}
			}
		case err := <-c.errors:
			return err
		case <-deadline:
			c.t.Fatalf("timed out after %s waiting for close", timeout)
			return nil
		}
	}
}
