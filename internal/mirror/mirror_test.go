// internal/mirror/mirror_test.go
package mirror

import (
	"errors"
	"math"
	"testing"

	"github.com/vgajsek/rga-bridge/internal/rga"
	"github.com/vgajsek/rga-bridge/internal/transport"
)

func TestEncode(t *testing.T) {
	s := Snapshot{
		Health:         HealthOK,
		ErrorClass:     ErrClassNone,
		SecondsInError: 0,
		SystemStatus:   5,
		HWError:        1,
		HWWarn:         2,
		TotalPressure:  3.2e-5,
		State:          rga.StateMonitoring,
	}

	regs := Encode(s)
	if len(regs) != BlockSlots {
		t.Fatalf("block size=%d, want %d", len(regs), BlockSlots)
	}
	if regs[SlotHealthCode] != HealthOK || regs[SlotSystemStatus] != 5 {
		t.Fatalf("unexpected block %v", regs)
	}
	if regs[SlotOperatingState] != 1 {
		t.Fatalf("state slot=%d, want 1", regs[SlotOperatingState])
	}

	bits := uint32(regs[SlotPressureHi])<<16 | uint32(regs[SlotPressureLo])
	got := math.Float32frombits(bits)
	if math.Abs(float64(got)-3.2e-5) > 1e-10 {
		t.Fatalf("pressure roundtrip=%g", got)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		want uint16
	}{
		{nil, ErrClassNone},
		{transport.ErrTimeout, ErrClassTimeout},
		{&transport.ProtocolError{Status: 500}, ErrClassProtocol},
		{&rga.DecodeError{Endpoint: "status", Field: "hardwareError"}, ErrClassDecode},
		{errors.New("anything else"), ErrClassOther},
	}
	for _, c := range cases {
		if got := ClassifyError(c.err); got != c.want {
			t.Fatalf("ClassifyError(%v)=%d, want %d", c.err, got, c.want)
		}
	}
}

type fakeRegWriter struct {
	addr uint16
	qty  uint16
	data []byte
	err  error
}

func (f *fakeRegWriter) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	f.addr = address
	f.qty = quantity
	f.data = append([]byte(nil), value...)
	return nil, f.err
}

func TestWriteSnapshot(t *testing.T) {
	fake := &fakeRegWriter{}
	w := NewWithClient(fake, 100)

	if err := w.WriteSnapshot(Snapshot{Health: HealthError, ErrorClass: ErrClassTimeout}); err != nil {
		t.Fatalf("WriteSnapshot err=%v", err)
	}
	if fake.addr != 100 || fake.qty != BlockSlots {
		t.Fatalf("write at addr=%d qty=%d", fake.addr, fake.qty)
	}
	if len(fake.data) != 2*BlockSlots {
		t.Fatalf("payload len=%d", len(fake.data))
	}
	if fake.data[0] != 0 || fake.data[1] != byte(HealthError) {
		t.Fatalf("health register bytes=%v", fake.data[:2])
	}

	fake.err = errors.New("plc offline")
	if err := w.WriteSnapshot(Snapshot{}); err == nil {
		t.Fatal("expected write error")
	}
}
