/*
This file defines the Client struct, the websocket-backed implementation of
Conn. It owns the read and write loops for one connection and the heartbeat
that keeps it alive.
*/
package chat

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// capacity of the per-connection outbound queue.
	sendQueueSize = 256
)

// Client wraps one websocket connection. Frames queued with Send are written
// by WritePump; inbound frames read by ReadPump are handed to the callback.
type Client struct {
	connID int64
	conn   *websocket.Conn
	send   chan []byte
	closed sync.Once
	logger zerolog.Logger
}

// NewClient constructs a Client over an upgraded websocket connection.
func NewClient(connID int64, wsConn *websocket.Conn) *Client {
	return &Client{
		connID: connID,
		conn:   wsConn,
		send:   make(chan []byte, sendQueueSize),
		logger: logx.Logger().With().Int64("conn_id", connID).Logger(),
	}
}

// Send queues a frame for delivery. It never blocks: when the queue is full
// the frame is dropped and an error returned, so one stalled reader cannot
// back-pressure the rest of the system.
func (c *Client) Send(message []byte) error {
	select {
	case c.send <- message:
		return nil
	default:
		return fmt.Errorf("send queue full")
	}
}

// Close tears down the websocket connection. ReadPump unblocks with an error
// and runs its cleanup; calling Close more than once is safe.
func (c *Client) Close() {
	c.closed.Do(func() {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error")
		}
	})
}

// ReadPump reads frames from the websocket until the connection dies and
// hands each one to onFrame. It blocks; the caller runs it on the request
// goroutine and performs session cleanup when it returns.
func (c *Client) ReadPump(onFrame func(raw []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			return
		}
		onFrame(frame)
	}
}

// WritePump drains the send queue onto the websocket and keeps the heartbeat
// going. It runs on its own goroutine and exits when a write fails or the
// send queue is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug().Err(err).Msg("Error writing close message")
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing frame")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Warn().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}
