package controlui

import (
	"context"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/iburimskiy/audio-reactive/internal/control"
)

// Client is a control channel connection to a visualizer.
type Client struct {
	conn *websocket.Conn
	acks chan control.Ack
	log  zerolog.Logger
}

// Dial connects to the control websocket at url and starts reading acks.
func Dial(ctx context.Context, url string, logger zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial control channel %s: %w", url, err)
	}
	c := &Client{conn: conn, acks: make(chan control.Ack, 16), log: logger}
	go c.readLoop()
	return c, nil
}

func (c *Client) Send(ctx context.Context, m control.Message) error {
	if err := wsjson.Write(ctx, c.conn, m); err != nil {
		return fmt.Errorf("send %s: %w", m.Type, err)
	}
	return nil
}

// Acks delivers acks until the connection ends, then closes.
func (c *Client) Acks() <-chan control.Ack { return c.acks }

func (c *Client) readLoop() {
	defer close(c.acks)
	ctx := context.Background()
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.log.Debug().Err(err).Msg("control channel closed")
			return
		}
		_, ack, isAck, err := control.Decode(data)
		if err != nil || !isAck {
			continue
		}
		select {
		case c.acks <- ack:
		default:
			c.log.Debug().Str("ack", ack.Message).Msg("dropping ack, ui is behind")
		}
	}
}

func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
