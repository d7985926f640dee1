package events

import (
	"context"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/hyttebook/backend/internal/common/constants"
	"github.com/hyttebook/backend/internal/common/logger"
)

// Client is one websocket subscriber. The feed is write-only; reads are
// drained only to detect disconnects and answer pings.
type Client struct {
	hub        *Hub
	conn       *gorillaWS.Conn
	remoteAddr string
	send       chan []byte
	log        *logger.Logger
	ctx        context.Context
}

func NewClient(ctx context.Context, hub *Hub, conn *gorillaWS.Conn, remoteAddr string, log *logger.Logger) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		remoteAddr: remoteAddr,
		send:       make(chan []byte, constants.EventsSendBufferSize),
		log:        log,
		ctx:        ctx,
	}
}

func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(constants.EventsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(constants.EventsPongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if gorillaWS.IsUnexpectedCloseError(err, gorillaWS.CloseGoingAway, gorillaWS.CloseNormalClosure, gorillaWS.CloseAbnormalClosure) {
				c.log.Warnf("events read error remote=%s: %v", c.remoteAddr, err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(constants.EventsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(constants.EventsWriteWait))
			if !ok {
				c.conn.WriteMessage(gorillaWS.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(gorillaWS.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(constants.EventsWriteWait))
			if err := c.conn.WriteMessage(gorillaWS.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
