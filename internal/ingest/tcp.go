package ingest

import (
	"context"
	"fmt"
	"net"
	"time"
)

// tcpTransport is the framed-TCP transport: a single ASCII header line
// carrying the assigned input ID, followed by raw interleaved stereo i16
// little-endian PCM with no further framing.
type tcpTransport struct {
	host          string
	port          int
	assignedInput string

	conn net.Conn
}

func newTCPTransport(host string, port int, assignedInput string) *tcpTransport {
	return &tcpTransport{host: host, port: port, assignedInput: assignedInput}
}

func (t *tcpTransport) Dial(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", t.host, t.port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tcp %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			conn.Close()
			return fmt.Errorf("set TCP_NODELAY: %w", err)
		}
	}
	if _, err := conn.Write([]byte(t.assignedInput + "\n")); err != nil {
		conn.Close()
		return fmt.Errorf("write stream header: %w", err)
	}
	t.conn = conn
	return nil
}

func (t *tcpTransport) Send(ctx context.Context, pcm []byte) error {
	if t.conn == nil {
		return fmt.Errorf("tcp transport not connected")
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	} else {
		_ = t.conn.SetWriteDeadline(time.Time{})
	}
	if _, err := t.conn.Write(pcm); err != nil {
		return fmt.Errorf("tcp write: %w", err)
	}
	return nil
}

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
