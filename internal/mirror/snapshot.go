// internal/mirror/snapshot.go
package mirror

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/vgajsek/rga-bridge/internal/rga"
	"github.com/vgajsek/rga-bridge/internal/transport"
)

// Snapshot represents exactly what the mirror is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	ErrorClass     uint16
	SecondsInError uint16
	SystemStatus   uint16
	HWError        uint16
	HWWarn         uint16
	TotalPressure  float64
	State          rga.OperatingState
}

// Encode converts a Snapshot into a full mirror block.
// Layout is protocol-locked. No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, BlockSlots)

	regs[SlotHealthCode] = s.Health
	regs[SlotErrorClass] = s.ErrorClass
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotSystemStatus] = s.SystemStatus
	regs[SlotHWError] = s.HWError
	regs[SlotHWWarn] = s.HWWarn

	bits := math.Float32bits(float32(s.TotalPressure))
	regs[SlotPressureHi] = uint16(bits >> 16)
	regs[SlotPressureLo] = uint16(bits)

	regs[SlotOperatingState] = uint16(s.State)

	return regs
}

// Pack serializes a register block for a Modbus multiple-register write.
func Pack(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}

// ClassifyError maps the bridge error taxonomy onto the wire error class.
func ClassifyError(err error) uint16 {
	if err == nil {
		return ErrClassNone
	}
	if errors.Is(err, transport.ErrTimeout) {
		return ErrClassTimeout
	}
	var pe *transport.ProtocolError
	if errors.As(err, &pe) {
		return ErrClassProtocol
	}
	var de *rga.DecodeError
	if errors.As(err, &de) {
		return ErrClassDecode
	}
	return ErrClassOther
}
