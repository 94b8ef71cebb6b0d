// internal/transport/transport.go
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"
)

// Device limits. The response bound is oversized on purpose: scan
// payloads are large and the device does not always send a length.
const (
	MaxRequestSize  = 512
	MaxResponseSize = 150000

	// DefaultTimeout is the per-exchange read deadline. The device
	// answers well inside it or not at all.
	DefaultTimeout = 200 * time.Millisecond
)

// ErrTimeout is returned when an exchange read yields zero bytes before
// the deadline. It is a normal per-exchange outcome, not a connection
// failure; the next exchange retries on the same connection.
var ErrTimeout = errors.New("transport: timeout")

// ProtocolError reports a response that arrived but could not be used:
// missing status line, non-200 status, or no JSON body.
type ProtocolError struct {
	Status int
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: device returned status %d", e.Status)
	}
	return "transport: " + e.Reason
}

// Client runs blocking request/response cycles over one long-lived
// connection. It is not safe for concurrent use; the engine serializes
// every exchange.
type Client struct {
	conn    net.Conn
	timeout time.Duration
	buf     []byte
}

// Dial connects to the device's embedded service.
func Dial(endpoint string, timeout time.Duration) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("transport: endpoint required")
	}
	conn, err := net.DialTimeout("tcp", endpoint, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, timeout), nil
}

// NewClient wraps an existing connection. Useful for tests.
func NewClient(conn net.Conn, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		conn:    conn,
		timeout: timeout,
		buf:     make([]byte, MaxResponseSize),
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Exchange writes one request line plus the blank-line terminator and
// reads the response. Any non-zero read is treated as usable, including
// timeout-with-data and error-with-data; only a zero-byte read is
// ErrTimeout.
//
// The returned payload aliases the client's reusable buffer: callers
// must fully consume it before the next Exchange.
func (c *Client) Exchange(request string) ([]byte, error) {
	if len(request) > MaxRequestSize {
		return nil, fmt.Errorf("transport: request exceeds %d bytes", MaxRequestSize)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("transport: set write deadline: %w", err)
	}
	if _, err := c.conn.Write([]byte(request + "\r\n\r\n")); err != nil {
		return nil, fmt.Errorf("transport: write: %w", err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, fmt.Errorf("transport: set read deadline: %w", err)
	}
	total := 0
	for total < len(c.buf) {
		n, err := c.conn.Read(c.buf[total:])
		total += n
		if err != nil {
			break
		}
	}
	if total == 0 {
		return nil, ErrTimeout
	}

	return extractPayload(c.buf[:total])
}

// extractPayload scans the raw response for the status line and the
// embedded JSON body. Header length is unpredictable, so the body is
// located by brace-scanning rather than fixed offsets; payloads are flat
// JSON with no unbalanced braces inside string content.
func extractPayload(raw []byte) ([]byte, error) {
	status, err := statusCode(raw)
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, &ProtocolError{Status: status}
	}

	open := bytes.IndexByte(raw, '{')
	if open < 0 {
		return nil, &ProtocolError{Reason: "response has no JSON body"}
	}
	close_ := bytes.LastIndexByte(raw, '}')
	if close_ < open {
		return nil, &ProtocolError{Reason: "response JSON body is truncated"}
	}
	return raw[open : close_+1], nil
}

func statusCode(raw []byte) (int, error) {
	const marker = "HTTP/1.1 "
	i := bytes.Index(raw, []byte(marker))
	if i < 0 || i+len(marker)+3 > len(raw) {
		return 0, &ProtocolError{Reason: "missing status line"}
	}
	code := 0
	for _, b := range raw[i+len(marker) : i+len(marker)+3] {
		if b < '0' || b > '9' {
			return 0, &ProtocolError{Reason: "malformed status code"}
		}
		code = code*10 + int(b-'0')
	}
	return code, nil
}
