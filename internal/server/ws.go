package server

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/iburimskiy/audio-reactive/internal/metrics"
)

const writeTimeout = 2 * time.Second

// handleControl bridges one websocket client onto the control hub: frames
// it sends are published to everyone else, and everything published by
// others is written back to it.
func (s *Server) handleControl(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.Warn().Err(err).Msg("control websocket accept failed")
		return
	}
	defer conn.CloseNow()

	id, inbox := s.hub.Subscribe(64)
	defer s.hub.Unsubscribe(id)
	l := s.log.With().Stringer("client", id).Logger()
	l.Info().Msg("control client connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-inbox:
				if !ok {
					return
				}
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Write(wctx, websocket.MessageText, payload)
				wcancel()
				if err != nil {
					l.Debug().Err(err).Msg("control write failed")
					return
				}
			}
		}
	}()

	for {
		_, payload, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				l.Info().Msg("control client disconnected")
			} else {
				l.Warn().Err(err).Msg("control client dropped")
			}
			return
		}
		s.hub.Publish(id, payload)
	}
}

// handleLevels pushes the current level triple at a fixed rate.
func (s *Server) handleLevels(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.Warn().Err(err).Msg("levels websocket accept failed")
		return
	}
	defer conn.CloseNow()
	metrics.LevelClientConnected()
	defer metrics.LevelClientDisconnected()

	ctx := conn.CloseRead(c.Request.Context())
	t := time.NewTicker(s.levelsEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-t.C:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, s.store.Load())
			cancel()
			if err != nil {
				s.log.Debug().Err(err).Msg("levels write failed")
				return
			}
		}
	}
}
