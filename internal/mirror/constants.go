// internal/mirror/constants.go
package mirror

// Mirror block layout constants.
// These values define the PLC-side contract and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// BlockSlots is the fixed number of holding registers in the mirror block.
const BlockSlots = 16

// ---- SLOT INDICES ----

// SlotHealthCode holds the bridge-to-device link health.
const SlotHealthCode = 0

// SlotErrorClass holds the class of the last error.
const SlotErrorClass = 1

// SlotSecondsInError holds how long the link has been unhealthy.
const SlotSecondsInError = 2

// SlotSystemStatus mirrors the device systemStatus word.
const SlotSystemStatus = 3

// SlotHWError mirrors the device hardware error word.
const SlotHWError = 4

// SlotHWWarn mirrors the device hardware warning word.
const SlotHWWarn = 5

// SlotPressureHi and SlotPressureLo carry total pressure as an IEEE 754
// float32, big-endian word order.
const SlotPressureHi = 6
const SlotPressureLo = 7

// SlotOperatingState holds the bridge operating state (0 idle,
// 1 monitoring, 2 leak check).
const SlotOperatingState = 8

// Slots 9-15 are reserved for future use.
const SlotReservedStart = 9
const SlotReservedEnd = 15

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy device link.
const HealthOK uint16 = 1

// HealthError represents a failing device link.
const HealthError uint16 = 2

// ---- ERROR CLASSES ----

// ErrClassNone means no error.
const ErrClassNone uint16 = 0

// ErrClassTimeout is a transport timeout (zero-byte read).
const ErrClassTimeout uint16 = 1

// ErrClassProtocol is a bad status line or unusable body.
const ErrClassProtocol uint16 = 2

// ErrClassDecode is a well-formed payload with the wrong shape.
const ErrClassDecode uint16 = 3

// ErrClassOther is any other failure.
const ErrClassOther uint16 = 4
