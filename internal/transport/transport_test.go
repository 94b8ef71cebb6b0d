// internal/transport/transport_test.go
package transport

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// fakeConn scripts one response and then times out, which is how the
// device behaves: it answers and goes quiet until the next request.
type fakeConn struct {
	wrote bytes.Buffer
	resp  []byte
	off   int
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func (c *fakeConn) Read(p []byte) (int, error) {
	if c.off >= len(c.resp) {
		return 0, timeoutError{}
	}
	n := copy(p, c.resp[c.off:])
	c.off += n
	return n, nil
}

func (c *fakeConn) Write(p []byte) (int, error) { return c.wrote.Write(p) }
func (c *fakeConn) Close() error                { return nil }
func (c *fakeConn) LocalAddr() net.Addr         { return nil }
func (c *fakeConn) RemoteAddr() net.Addr        { return nil }

func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func response(status string, body string) []byte {
	return []byte("HTTP/1.1 " + status + "\r\nContent-Type: application/json\r\n\r\n" + body)
}

func TestExchange_OK(t *testing.T) {
	conn := &fakeConn{resp: response("200 OK", `{"data":3.2e-5}`)}
	c := NewClient(conn, 0)

	payload, err := c.Exchange("GET /mmsp/measurement/totalPressure/get")
	if err != nil {
		t.Fatalf("Exchange err=%v", err)
	}
	if got := string(payload); got != `{"data":3.2e-5}` {
		t.Fatalf("payload=%q", got)
	}
	if got := conn.wrote.String(); got != "GET /mmsp/measurement/totalPressure/get\r\n\r\n" {
		t.Fatalf("request on wire=%q", got)
	}
}

func TestExchange_Non200(t *testing.T) {
	conn := &fakeConn{resp: response("500 Internal Server Error", `{"error":"boom"}`)}
	c := NewClient(conn, 0)

	_, err := c.Exchange("GET /mmsp/measurement/totalPressure/get")
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if pe.Status != 500 {
		t.Fatalf("status=%d, want 500", pe.Status)
	}
}

func TestExchange_ZeroBytesIsTimeout(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, 0)

	_, err := c.Exchange("GET /mmsp/scanInfo/get")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestExchange_MissingStatusLine(t *testing.T) {
	conn := &fakeConn{resp: []byte(`{"data":1}`)}
	c := NewClient(conn, 0)

	_, err := c.Exchange("GET /mmsp/scanInfo/get")
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestExchange_NoBody(t *testing.T) {
	conn := &fakeConn{resp: response("200 OK", "")}
	c := NewClient(conn, 0)

	_, err := c.Exchange("GET /mmsp/scanInfo/get")
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

// Headers before the body can contain anything except a brace, so the
// brace scan must land on the body regardless of header length.
func TestExchange_UnpredictableHeaders(t *testing.T) {
	long := "X-Padding: " + strings.Repeat("z", 4000)
	conn := &fakeConn{resp: []byte("HTTP/1.1 200 OK\r\n" + long + "\r\n\r\n" + `{"data":{"lastScan":7}}`)}
	c := NewClient(conn, 0)

	payload, err := c.Exchange("GET /mmsp/scanInfo/get")
	if err != nil {
		t.Fatalf("Exchange err=%v", err)
	}
	if got := string(payload); got != `{"data":{"lastScan":7}}` {
		t.Fatalf("payload=%q", got)
	}
}

func TestExchange_RequestTooLong(t *testing.T) {
	conn := &fakeConn{}
	c := NewClient(conn, 0)

	_, err := c.Exchange(strings.Repeat("a", MaxRequestSize+1))
	if err == nil {
		t.Fatal("expected error for oversized request")
	}
}
