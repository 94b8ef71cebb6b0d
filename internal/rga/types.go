// internal/rga/types.go
package rga

// Device geometry limits. These come from the instrument and MUST NOT be
// configurable.

// MaxChannels is the number of addressable scan channels (1-based).
const MaxChannels = 5

// MaxScanSize is the largest sample count one scan can carry.
const MaxScanSize = 16384

// NumFilaments is the number of ion-source filaments reported by the device.
const NumFilaments = 3

// ---- OPERATING STATE ----

// OperatingState is the bridge-side measurement state.
type OperatingState int

const (
	StateIdle OperatingState = iota
	StateMonitoring
	StateLeakCheck
)

func (s OperatingState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMonitoring:
		return "Monitoring"
	case StateLeakCheck:
		return "LeakCheck"
	default:
		return "Unknown"
	}
}

// ---- ENUMS ----

// EmissionLevel is the ion-source emission level.
type EmissionLevel int

const (
	EmissionLo EmissionLevel = 0
	EmissionHi EmissionLevel = 1
)

// OptimizationType is the ion-source optimization mode.
type OptimizationType int

const (
	OptLinearity   OptimizationType = 0
	OptSensitivity OptimizationType = 1
)

// ChannelMode selects how a scan channel samples its mass range.
type ChannelMode int

const (
	ModeSweep       ChannelMode = 0
	ModeSinglePoint ChannelMode = 1
)

// wire returns the string the device expects in set requests.
func (m ChannelMode) wire() string {
	if m == ModeSinglePoint {
		return "SinglePoint"
	}
	return "Sweep"
}

func (m ChannelMode) String() string { return m.wire() }

// StopMode selects how a running scan is stopped.
type StopMode int

const (
	StopImmediate StopMode = 1
	StopEndOfScan StopMode = 2
)

// ---- RECORDS ----

// CommParams holds the device network identity.
type CommParams struct {
	IP  string
	MAC string
}

// SensorInfo holds the sensor identity block.
type SensorInfo struct {
	Name         string
	Description  string
	SerialNumber string
}

// Filament is per-filament detail inside DeviceStatus.
type Filament struct {
	ID              int
	CumulativeHours float64
	PressureTrip    float64
}

// DeviceStatus is the device health block. Duration fields are in hours
// (the wire carries seconds).
type DeviceStatus struct {
	SystemStatus      uint32
	HWError           uint32
	HWWarn            uint32
	PowerOnHours      float64
	EmissionHours     float64
	EMHours           float64
	EMCumulativeHours float64
	EMPressureTrip    float64
	Filaments         [NumFilaments]Filament
}

// DiagnosticData is the electrometer/ion-source diagnostic block.
type DiagnosticData struct {
	BoxTemp           float64
	AnodePotential    float64
	EmissionCurrent   float64
	FocusPotential    float64
	ElectronEnergy    float64
	FilamentPotential float64
	FilamentCurrent   float64
	EMPotential       float64
}

// ScanInfo reports scan progress. LastScan is the index of the newest
// completed scan and increases monotonically while scanning.
type ScanInfo struct {
	FirstScan     int
	LastScan      int
	CurrentScan   int
	PointsPerScan int
	Scanning      bool
}

// DetectorSettings is the electron-multiplier detector block.
type DetectorSettings struct {
	VoltageMax float64
	VoltageMin float64
	Voltage    float64
	Gain       float64
	GainMass   float64
}

// FilterSettings is the mass-filter capability block.
type FilterSettings struct {
	MassMax  float64
	MassMin  float64
	DwellMax float64
	DwellMin float64
}

// IonSourceSettings is the ion-source configuration block.
type IonSourceSettings struct {
	FilamentSelected int
	EmissionLevel    EmissionLevel
	OptimizationType OptimizationType
}

// ChannelSetup is one scan channel's configuration.
type ChannelSetup struct {
	Mode      ChannelMode
	StartMass float64
	StopMass  float64
	Dwell     int
	PPAMU     int
}

// ScanData is one fetched scan: the sample values and the derived mass
// axis. Values and MassAxis are independently valid; a mass-axis
// validation failure leaves already-copied values intact.
type ScanData struct {
	DeclaredSize int
	ActualSize   int
	ScanNumber   int
	Values       []float32
	MassAxis     []float32
}

// NewScanData allocates the persistent scan buffers at full device size.
func NewScanData() *ScanData {
	return &ScanData{
		Values:   make([]float32, MaxScanSize),
		MassAxis: make([]float32, MaxScanSize),
	}
}

// Zero clears the buffers and sizes. Used as a visual reset when a
// monitoring run starts.
func (s *ScanData) Zero() {
	for i := range s.Values {
		s.Values[i] = 0
	}
	for i := range s.MassAxis {
		s.MassAxis[i] = 0
	}
	s.DeclaredSize = 0
	s.ActualSize = 0
	s.ScanNumber = 0
}
