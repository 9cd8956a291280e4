package fortress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/j-keck/arping"
)

const readBufferSize = 1024

// Conn is the raw byte stream to the panel.
type Conn struct {
	conn         net.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

// Dial opens a TCP session to addr, giving up after timeout.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Conn, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: could not connect to %s: %w", ErrConnect, addr, err)
	}
	return &Conn{
		conn:         conn,
		writeTimeout: timeout,
	}, nil
}

// Send writes the whole buffer.
func (c *Conn) Send(payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrTransmit, err)
	}
	n, err := c.conn.Write(payload)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransmit, err)
	}
	if n != len(payload) {
		return fmt.Errorf("%w: wanted to write %d bytes, wrote %d", ErrTransmit, len(payload), n)
	}
	return nil
}

// Receive waits up to timeout for data.
// It returns nil and no error if nothing arrived in time, and io.EOF if the
// panel closed the connection.
func (c *Conn) Receive(timeout time.Duration) ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransmit, err)
	}
	buf := make([]byte, readBufferSize)
	n, err := c.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return nil, nil
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	default:
		return nil, fmt.Errorf("%w: %w", ErrTransmit, err)
	}
}

// Close half-closes the write side and then closes the connection.
// Calling it more than once is a no-op.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		if tcp, ok := c.conn.(*net.TCPConn); ok {
			_ = tcp.CloseWrite()
		}
		if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			c.closeErr = fmt.Errorf("could not close connection: %w", err)
		}
	})
	return c.closeErr
}

// MacAddress resolves the hardware address of the panel at ip.
func MacAddress(ip string) (string, error) {
	hw, _, err := arping.Ping(net.ParseIP(ip))
	if err != nil {
		return "", fmt.Errorf("could not get the mac address: %w", err)
	}
	return hw.String(), nil
}
