// Package fiberws adapts a gofiber websocket connection to the
// wsrooms.Session capability.
package fiberws

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"

	"github.com/go-broadcast/wsrooms"
)

const writeWait = 10 * time.Second

var errNoOpenMessage = errors.New("fiberws: continuation without an open message")

// Session wraps a fiber websocket connection. All writes are
// serialized: the underlying transport supports only one concurrent
// writer per connection.
type Session struct {
	mu   sync.Mutex
	conn *websocket.Conn
	frag io.WriteCloser
}

// NewSession wraps an accepted websocket connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{conn: conn}
}

func (s *Session) Text(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

func (s *Session) Binary(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *Session) Ping(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteControl(websocket.PingMessage, data, time.Now().Add(writeWait))
}

func (s *Session) Pong(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.conn.WriteControl(websocket.PongMessage, data, time.Now().Add(writeWait))
}

// Continuation writes one fragment of a segmented message. FirstText
// and FirstBinary open a message writer held across calls; Last
// flushes and closes it. A Continue or Last without an open message
// returns an error.
func (s *Session) Continuation(frag wsrooms.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch frag.Kind {
	case wsrooms.FragmentFirstText, wsrooms.FragmentFirstBinary:
		if s.frag != nil {
			_ = s.frag.Close()
			s.frag = nil
		}

		messageType := websocket.TextMessage
		if frag.Kind == wsrooms.FragmentFirstBinary {
			messageType = websocket.BinaryMessage
		}

		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		w, err := s.conn.NextWriter(messageType)
		if err != nil {
			return err
		}

		s.frag = w
		_, err = w.Write(frag.Data)
		return err

	case wsrooms.FragmentContinue:
		if s.frag == nil {
			return errNoOpenMessage
		}

		_, err := s.frag.Write(frag.Data)
		return err

	case wsrooms.FragmentLast:
		if s.frag == nil {
			return errNoOpenMessage
		}

		w := s.frag
		s.frag = nil
		if _, err := w.Write(frag.Data); err != nil {
			_ = w.Close()
			return err
		}

		return w.Close()
	}

	return nil
}

func (s *Session) Close(reason wsrooms.CloseReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := websocket.FormatCloseMessage(int(reason.Code), reason.Text)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	return s.conn.Close()
}
