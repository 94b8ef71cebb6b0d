// internal/engine/snapshot.go
package engine

import "github.com/vgajsek/rga-bridge/internal/rga"

// Snapshot is a copy of the current instrument state, taken inside the
// actor goroutine so it is always internally consistent.
type Snapshot struct {
	State             string               `json:"state"`
	TotalPressure     float64              `json:"totalPressure"`
	LeakCheckValue    float64              `json:"leakCheckValue"`
	Comm              rga.CommParams       `json:"communication"`
	Sensor            rga.SensorInfo       `json:"sensorInfo"`
	Status            rga.DeviceStatus     `json:"status"`
	Diagnostic        rga.DiagnosticData   `json:"diagnosticData"`
	ScanInfo          rga.ScanInfo         `json:"scanInfo"`
	Detector          rga.DetectorSettings `json:"sensorDetector"`
	Filter            rga.FilterSettings   `json:"sensorFilter"`
	IonSource         rga.IonSourceSettings `json:"sensorIonSource"`
	Channels          []rga.ChannelSetup   `json:"channels"`
	LastDeliveredScan int                  `json:"lastDeliveredScan"`
}

// Snapshot returns the current state of every instrument record.
// ErrStopped after the loop has exited.
func (e *Engine) Snapshot() (Snapshot, error) {
	var snap Snapshot
	err := e.do(func() error {
		snap = Snapshot{
			State:             e.state.String(),
			TotalPressure:     e.pressure,
			LeakCheckValue:    e.leakValue,
			Comm:              e.comm,
			Sensor:            e.sensor,
			Status:            e.devStatus,
			Diagnostic:        e.diag,
			ScanInfo:          e.scanInfo,
			Detector:          e.detector,
			Filter:            e.filter,
			IonSource:         e.ionSource,
			Channels:          append([]rga.ChannelSetup(nil), e.channels[1:]...),
			LastDeliveredScan: e.lastDelivered,
		}
		return nil
	})
	return snap, err
}
