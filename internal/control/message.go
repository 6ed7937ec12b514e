// Package control is the control channel: the message schema shared by the
// visualizer and its control surfaces, the dispatcher that applies messages
// to the scene and acknowledges them, and the hub that fans messages out to
// every subscriber of the channel.
package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrBadValue = errors.New("bad message value")

// Message is one control message. Value is kept raw because its type
// depends on Type.
type Message struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
	URL   string          `json:"url,omitempty"`
	Path  string          `json:"path,omitempty"`
}

// NewMessage builds a message with a JSON-encoded value. A nil value leaves
// Value empty.
func NewMessage(typ string, value any) (Message, error) {
	m := Message{Type: typ}
	if value == nil {
		return m, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return m, fmt.Errorf("encode %s value: %w", typ, err)
	}
	m.Value = raw
	return m, nil
}

func (m Message) hasValue() bool {
	v := strings.TrimSpace(string(m.Value))
	return v != "" && v != "null"
}

// Float reads Value as a number. Numeric strings are accepted since range
// inputs send their value as text.
func (m Message) Float() (float64, error) {
	if !m.hasValue() {
		return 0, fmt.Errorf("%w: %s needs a value", ErrBadValue, m.Type)
	}
	var f float64
	if err := json.Unmarshal(m.Value, &f); err != nil {
		var s string
		if json.Unmarshal(m.Value, &s) != nil {
			return 0, fmt.Errorf("%w: %s value %s", ErrBadValue, m.Type, m.Value)
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, fmt.Errorf("%w: %s value %q", ErrBadValue, m.Type, s)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s value is not finite", ErrBadValue, m.Type)
	}
	return f, nil
}

// Int reads Value as an integer, truncating fractions. ok is false when the
// value is missing or not a number.
func (m Message) Int() (n int, ok bool) {
	f, err := m.Float()
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// Bool reads Value by truthiness: missing, null, false, 0, "" and the
// strings "false" and "0" are false, everything else is true.
func (m Message) Bool() bool {
	if !m.hasValue() {
		return false
	}
	var v any
	if err := json.Unmarshal(m.Value, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return s != "" && s != "false" && s != "0"
	case nil:
		return false
	default:
		return true
	}
}

// Text reads Value as text. Numbers and booleans are formatted.
func (m Message) Text() string {
	if !m.hasValue() {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Value, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(m.Value))
}

// Ack acknowledges one dispatched message.
type Ack struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const AckType = "ack"

func OK(typ string) Ack     { return Ack{Type: AckType, Message: "OK: " + typ} }
func Failed(typ string) Ack { return Ack{Type: AckType, Message: "Error: " + typ} }

// Succeeded reports whether the ack is an OK.
func (a Ack) Succeeded() bool {
	return strings.HasPrefix(a.Message, "OK: ")
}
