package levels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
)

// Payload is one push from a remote level feed. Absent fields count as 0.
type Payload struct {
	Low  *float64 `json:"low,omitempty"`
	Mid  *float64 `json:"mid,omitempty"`
	High *float64 `json:"high,omitempty"`
}

// Triple resolves the optional fields.
func (p Payload) Triple() Triple {
	var t Triple
	if p.Low != nil {
		t.Low = *p.Low
	}
	if p.Mid != nil {
		t.Mid = *p.Mid
	}
	if p.High != nil {
		t.High = *p.High
	}
	return t.Clamped()
}

// RemoteFeed reads level pushes from a persistent websocket and writes them
// straight into a Store, bypassing any local peak/gate/smoothing.
type RemoteFeed struct {
	URL    string
	Store  *Store
	Logger zerolog.Logger

	// Active, if set, gates writes: pushes arriving while it returns false
	// are read and discarded.
	Active func() bool
}

// Run connects and consumes pushes until ctx ends or the connection drops.
// Reconnection is left to the caller.
func (f *RemoteFeed) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial remote levels %s: %w", f.URL, err)
	}
	defer conn.CloseNow()
	f.Logger.Info().Str("url", f.URL).Msg("remote level feed connected")

	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				f.Logger.Info().Msg("remote level feed closed")
				return nil
			}
			f.Logger.Warn().Err(err).Msg("remote level feed disconnected")
			return fmt.Errorf("read remote levels: %w", err)
		}
		t := decodePayload(raw)
		if f.Active != nil && !f.Active() {
			continue
		}
		f.Store.Save(t)
	}
}

// decodePayload never fails: malformed pushes become silence.
func decodePayload(raw []byte) Triple {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Triple{}
	}
	return p.Triple()
}
