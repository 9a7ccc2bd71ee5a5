package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Alia5/winbridge/gamepad"
)

// GamepadStream feeds live state frames to one physical controller.
type GamepadStream struct {
	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// OpenGamepadStream opens the gamepad/{id} stream route.
func (c *Client) OpenGamepadStream(ctx context.Context, id int32) (*GamepadStream, error) {
	if c.transport.mock != nil {
		return nil, errors.New("streams not supported with mock transport")
	}
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	params := map[string]string{"id": fmt.Sprintf("%d", id)}
	if err := c.transport.writeLine(conn, "gamepad/{id}", nil, params); err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetWriteDeadline(time.Time{})
	return &GamepadStream{conn: conn}, nil
}

// Send writes one state frame.
func (s *GamepadStream) Send(st gamepad.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("stream closed")
	}
	b, err := st.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.conn.Write(b)
	return err
}

// Close ends the stream. Close is idempotent.
func (s *GamepadStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
