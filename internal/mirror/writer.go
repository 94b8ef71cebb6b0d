// internal/mirror/writer.go
package mirror

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// registerWriter is the exact contract the mirror uses from the Modbus
// client.
type registerWriter interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
}

// Config locates the mirror block on the target PLC.
type Config struct {
	Endpoint     string
	UnitID       byte
	BaseRegister uint16
	Timeout      time.Duration
}

// Writer delivers mirror snapshots into one PLC holding-register block.
type Writer struct {
	client registerWriter
	closer func() error
	base   uint16
}

// New connects to the PLC and returns a ready writer.
func New(cfg Config) (*Writer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mirror: endpoint required")
	}
	handler := modbus.NewTCPClientHandler(cfg.Endpoint)
	handler.Timeout = cfg.Timeout
	if handler.Timeout <= 0 {
		handler.Timeout = 2 * time.Second
	}
	handler.SlaveId = cfg.UnitID
	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("mirror: connect %s: %w", cfg.Endpoint, err)
	}
	return &Writer{
		client: modbus.NewClient(handler),
		closer: handler.Close,
		base:   cfg.BaseRegister,
	}, nil
}

// NewWithClient wires an existing register writer. Useful for tests.
func NewWithClient(client registerWriter, base uint16) *Writer {
	return &Writer{client: client, base: base}
}

func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer()
}

// WriteSnapshot encodes and delivers one full block write.
func (w *Writer) WriteSnapshot(s Snapshot) error {
	regs := Encode(s)
	_, err := w.client.WriteMultipleRegisters(w.base, uint16(len(regs)), Pack(regs))
	if err != nil {
		return fmt.Errorf("mirror: block write at %d: %w", w.base, err)
	}
	return nil
}
