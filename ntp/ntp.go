// Package ntp is a minimal SNTP client: one request, one reply, the server's
// transmit timestamp in Unix seconds.
package ntp

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"
)

// DefaultTimeout bounds a query when the client has none.
const DefaultTimeout = 5 * time.Second

const (
	packetSize = 48

	// Seconds between the NTP era 0 epoch (1900) and the Unix epoch.
	unixOffset = 2208988800

	leapUnsynced = 3
	modeClient   = 3
	modeServer   = 4
	modeBcast    = 5
	version      = 4
)

var (
	ErrKissOfDeath = errors.New("ntp: kiss-o'-death reply")
	ErrUnsynced    = errors.New("ntp: server clock not synchronized")
	ErrBadReply    = errors.New("ntp: malformed reply")
)

// Client queries a single server.
type Client struct {
	// Server is a host name or address, with an optional port (default 123).
	Server  string
	Timeout time.Duration
}

// New returns a client for server.
func New(server string, timeout time.Duration) *Client {
	return &Client{Server: server, Timeout: timeout}
}

// String returns the server address.
func (c *Client) String() string {
	return "ntp:" + c.address()
}

func (c *Client) address() string {
	if _, _, err := net.SplitHostPort(c.Server); err == nil {
		return c.Server
	}
	return net.JoinHostPort(c.Server, "123")
}

// UTCSeconds sends a client request and returns the server's transmit time
// in seconds since the Unix epoch.
func (c *Client) UTCSeconds(ctx context.Context) (int64, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", c.address())
	if err != nil {
		return 0, fmt.Errorf("ntp: dial %s: %w", c.Server, err)
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return 0, fmt.Errorf("ntp: set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	req := make([]byte, packetSize)
	req[0] = version<<3 | modeClient
	if _, err := conn.Write(req); err != nil {
		return 0, fmt.Errorf("ntp: write: %w", err)
	}

	resp := make([]byte, packetSize)
	n, err := conn.Read(resp)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ntp: read: %w", ctx.Err())
		}
		return 0, fmt.Errorf("ntp: read: %w", err)
	}
	return Parse(resp[:n])
}

// Parse validates a server reply and returns its transmit timestamp in Unix
// seconds. Timestamps with the high bit clear are taken to be in NTP era 1
// (after February 2036).
func Parse(resp []byte) (int64, error) {
	if len(resp) < packetSize {
		return 0, fmt.Errorf("%w: %d bytes", ErrBadReply, len(resp))
	}
	li, mode := resp[0]>>6, resp[0]&0x07
	if mode != modeServer && mode != modeBcast {
		return 0, fmt.Errorf("%w: mode %d", ErrBadReply, mode)
	}
	if resp[1] == 0 {
		return 0, fmt.Errorf("%w: code %q", ErrKissOfDeath, resp[12:16])
	}
	if li == leapUnsynced {
		return 0, ErrUnsynced
	}

	sec := int64(binary.BigEndian.Uint32(resp[40:44]))
	if sec == 0 {
		return 0, fmt.Errorf("%w: zero transmit timestamp", ErrBadReply)
	}
	if sec&0x80000000 == 0 {
		sec += 1 << 32
	}
	return sec - unixOffset, nil
}
