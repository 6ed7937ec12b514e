package control

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub is a named broadcast channel. Every published payload reaches every
// subscriber except its sender. Delivery is best effort: a subscriber whose
// buffer is full misses the payload.
type Hub struct {
	name string
	log  zerolog.Logger

	mu   sync.RWMutex
	subs map[uuid.UUID]chan []byte
}

func NewHub(name string, logger zerolog.Logger) *Hub {
	return &Hub{
		name: name,
		log:  logger.With().Str("channel", name).Logger(),
		subs: make(map[uuid.UUID]chan []byte),
	}
}

func (h *Hub) Name() string { return h.name }

// Subscribe registers a new subscriber and returns its id and inbox.
func (h *Hub) Subscribe(buffer int) (uuid.UUID, <-chan []byte) {
	id := uuid.New()
	ch := make(chan []byte, buffer)
	h.mu.Lock()
	h.subs[id] = ch
	n := len(h.subs)
	h.mu.Unlock()
	h.log.Debug().Stringer("subscriber", id).Int("subscribers", n).Msg("subscribed")
	return id, ch
}

// Unsubscribe removes id and closes its inbox.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		close(ch)
		h.log.Debug().Stringer("subscriber", id).Msg("unsubscribed")
	}
}

// Publish sends payload to everyone but from and returns how many
// subscribers received it.
func (h *Hub) Publish(from uuid.UUID, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for id, ch := range h.subs {
		if id == from {
			continue
		}
		select {
		case ch <- payload:
			sent++
		default:
			h.log.Warn().Stringer("subscriber", id).Msg("subscriber inbox full, dropping message")
		}
	}
	return sent
}

// PublishJSON encodes v and publishes it.
func (h *Hub) PublishJSON(from uuid.UUID, v any) (int, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode %s payload: %w", h.name, err)
	}
	return h.Publish(from, raw), nil
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Decode parses a payload from the channel. It reports isAck for
// acknowledgments, which carry no message to dispatch.
func Decode(payload []byte) (m Message, ack Ack, isAck bool, err error) {
	if err = json.Unmarshal(payload, &m); err != nil {
		return m, ack, false, fmt.Errorf("%w: %v", ErrBadValue, err)
	}
	if m.Type == AckType {
		if err = json.Unmarshal(payload, &ack); err != nil {
			return m, ack, true, fmt.Errorf("%w: %v", ErrBadValue, err)
		}
		return m, ack, true, nil
	}
	return m, ack, false, nil
}
