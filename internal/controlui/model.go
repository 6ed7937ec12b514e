package controlui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iburimskiy/audio-reactive/internal/control"
	"github.com/iburimskiy/audio-reactive/internal/params"
)

const sendTimeout = 5 * time.Second

var errDisconnected = errors.New("control channel disconnected")

// Sender delivers control messages to the visualizer.
type Sender interface {
	Send(ctx context.Context, m control.Message) error
}

type ackMsg control.Ack
type acksClosedMsg struct{}

// sentMsg reports the outcome of one send.
type sentMsg struct {
	typ string
	err error
}

// Model is the control form.
type Model struct {
	fields  []field
	cursor  int
	editing bool
	input   textinput.Model

	send Sender
	acks <-chan control.Ack

	lastAck  control.Ack
	lastErr  error
	pending  string
	quitting bool
}

// New builds the form with values from p. acks may be nil when the
// transport does not report them.
func New(send Sender, acks <-chan control.Ack, p params.Parameters) Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 512
	ti.Width = 48
	return Model{
		fields: newFields(p),
		input:  ti,
		send:   send,
		acks:   acks,
	}
}

func (m Model) Init() tea.Cmd {
	return m.waitForAck()
}

func (m Model) waitForAck() tea.Cmd {
	if m.acks == nil {
		return nil
	}
	return func() tea.Msg {
		a, ok := <-m.acks
		if !ok {
			return acksClosedMsg{}
		}
		return ackMsg(a)
	}
}

// sendField sends the message of the field at i.
func (m Model) sendField(i int) tea.Cmd {
	f := m.fields[i]
	msg, err := f.message()
	if err != nil {
		return func() tea.Msg { return sentMsg{typ: f.typ, err: err} }
	}
	send := m.send
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		return sentMsg{typ: msg.Type, err: send.Send(ctx, msg)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)

	case ackMsg:
		m.lastAck = control.Ack(msg)
		m.pending = ""
		return m, m.waitForAck()

	case acksClosedMsg:
		m.lastErr = errDisconnected
		return m, nil

	case sentMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			m.pending = ""
		} else {
			m.lastErr = nil
			m.pending = msg.typ
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.fields[m.cursor]
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
	case "left", "h":
		if f.kind == kindChoice {
			f.cycle(-1)
			return m, m.sendField(m.cursor)
		}
	case "right", "l":
		if f.kind == kindChoice {
			f.cycle(1)
			return m, m.sendField(m.cursor)
		}
	case "enter", " ":
		switch f.kind {
		case kindToggle:
			f.on = !f.on
			return m, m.sendField(m.cursor)
		case kindChoice:
			f.cycle(1)
			return m, m.sendField(m.cursor)
		case kindAction:
			return m, m.sendField(m.cursor)
		case kindNumber, kindText:
			m.editing = true
			m.input.SetValue(f.value)
			m.input.CursorEnd()
			return m, tea.Batch(m.input.Focus(), textinput.Blink)
		}
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.fields[m.cursor].value = strings.TrimSpace(m.input.Value())
		m.editing = false
		m.input.Blur()
		return m, m.sendField(m.cursor)
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString("  " + headerStyle.Render("audio-reactive controls") + "\n\n")
	for i, f := range m.fields {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		value := f.display()
		if m.editing && i == m.cursor {
			value = m.input.View()
		}
		b.WriteString(marker + labelStyle.Render(f.label) + value + "\n")
	}
	b.WriteString("\n  " + m.status() + "\n")
	help := "↑/↓ move  enter edit/toggle  ←/→ choose  q quit"
	if m.editing {
		help = "enter send  esc cancel"
	}
	b.WriteString("  " + helpStyle.Render(help) + "\n")
	return b.String()
}

func (m Model) status() string {
	switch {
	case m.lastErr != nil:
		return errStyle.Render(m.lastErr.Error())
	case m.pending != "":
		return helpStyle.Render("sent " + m.pending + ", waiting for ack")
	case m.lastAck.Message == "":
		return helpStyle.Render("no messages sent yet")
	case m.lastAck.Succeeded():
		return okStyle.Render(m.lastAck.Message)
	default:
		return errStyle.Render(m.lastAck.Message)
	}
}
