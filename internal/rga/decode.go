// internal/rga/decode.go
package rga

import (
	"encoding/json"
	"fmt"
)

// Per-endpoint decoders. Each one is a pure mapping from one JSON payload
// to one typed record: decode into a scratch record first, commit to the
// destination only on success, never touch the destination on failure.
//
// The device wraps every payload in {"data": ...}. Fields are pulled
// through a map of raw messages so a missing or mistyped field produces a
// DecodeError naming the endpoint and the field rather than a zero value.

// DecodeError reports a payload that is well-formed JSON but has the
// wrong shape for its endpoint.
type DecodeError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("decode %s: field %q: %v", e.Endpoint, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(endpoint, field string, err error) *DecodeError {
	return &DecodeError{Endpoint: endpoint, Field: field, Err: err}
}

// ---- PAYLOAD HELPERS ----

// dataObject unwraps {"data": {...}} into a field map.
func dataObject(endpoint string, payload []byte) (map[string]json.RawMessage, error) {
	var root struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &root); err != nil {
		return nil, decodeErr(endpoint, "", err)
	}
	if len(root.Data) == 0 {
		return nil, decodeErr(endpoint, "data", errMissing)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(root.Data, &fields); err != nil {
		return nil, decodeErr(endpoint, "data", err)
	}
	return fields, nil
}

// dataScalar unwraps {"data": <number>} for the scalar endpoints.
func dataScalar(endpoint string, payload []byte) (float64, error) {
	var root struct {
		Data *float64 `json:"data"`
	}
	if err := json.Unmarshal(payload, &root); err != nil {
		return 0, decodeErr(endpoint, "", err)
	}
	if root.Data == nil {
		return 0, decodeErr(endpoint, "data", errMissing)
	}
	return *root.Data, nil
}

var errMissing = fmt.Errorf("missing or null")

func fieldString(endpoint string, m map[string]json.RawMessage, name string) (string, error) {
	raw, ok := m[name]
	if !ok {
		return "", decodeErr(endpoint, name, errMissing)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", decodeErr(endpoint, name, err)
	}
	return s, nil
}

func fieldFloat(endpoint string, m map[string]json.RawMessage, name string) (float64, error) {
	raw, ok := m[name]
	if !ok {
		return 0, decodeErr(endpoint, name, errMissing)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, decodeErr(endpoint, name, err)
	}
	return v, nil
}

func fieldInt(endpoint string, m map[string]json.RawMessage, name string) (int, error) {
	raw, ok := m[name]
	if !ok {
		return 0, decodeErr(endpoint, name, errMissing)
	}
	var v int
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, decodeErr(endpoint, name, err)
	}
	return v, nil
}

func fieldUint32(endpoint string, m map[string]json.RawMessage, name string) (uint32, error) {
	raw, ok := m[name]
	if !ok {
		return 0, decodeErr(endpoint, name, errMissing)
	}
	var v uint32
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, decodeErr(endpoint, name, err)
	}
	return v, nil
}

func fieldBool(endpoint string, m map[string]json.RawMessage, name string) (bool, error) {
	raw, ok := m[name]
	if !ok {
		return false, decodeErr(endpoint, name, errMissing)
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return false, decodeErr(endpoint, name, err)
	}
	return v, nil
}

// fieldHours reads a duration-in-seconds field and converts to hours.
func fieldHours(endpoint string, m map[string]json.RawMessage, name string) (float64, error) {
	sec, err := fieldFloat(endpoint, m, name)
	if err != nil {
		return 0, err
	}
	return sec / 3600.0, nil
}

// fieldEnum maps an enumerated string onto a small int. An unrecognized
// string is a decode failure, never a default.
func fieldEnum(endpoint string, m map[string]json.RawMessage, name string, values map[string]int) (int, error) {
	s, err := fieldString(endpoint, m, name)
	if err != nil {
		return 0, err
	}
	v, ok := values[s]
	if !ok {
		return 0, decodeErr(endpoint, name, fmt.Errorf("unrecognized value %q", s))
	}
	return v, nil
}

// ---- DECODERS ----

func DecodeCommParams(payload []byte, out *CommParams) error {
	const ep = "communication"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec CommParams
	if rec.IP, err = fieldString(ep, m, "ipAddress"); err != nil {
		return err
	}
	if rec.MAC, err = fieldString(ep, m, "macAddress"); err != nil {
		return err
	}
	*out = rec
	return nil
}

func DecodeSensorInfo(payload []byte, out *SensorInfo) error {
	const ep = "sensorInfo"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec SensorInfo
	if rec.Name, err = fieldString(ep, m, "name"); err != nil {
		return err
	}
	if rec.Description, err = fieldString(ep, m, "description"); err != nil {
		return err
	}
	if rec.SerialNumber, err = fieldString(ep, m, "serialNumber"); err != nil {
		return err
	}
	*out = rec
	return nil
}

// DecodeDeviceStatus decodes the status block. The payload's "filaments"
// key holds an array whose element keys collide with top-level siblings,
// so it is deferred as a raw message and parsed separately instead of
// being flattened with the rest.
func DecodeDeviceStatus(payload []byte, out *DeviceStatus) error {
	const ep = "status"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec DeviceStatus
	if rec.SystemStatus, err = fieldUint32(ep, m, "systemStatus"); err != nil {
		return err
	}
	if rec.HWError, err = fieldUint32(ep, m, "hardwareError"); err != nil {
		return err
	}
	if rec.HWWarn, err = fieldUint32(ep, m, "hardwareWarning"); err != nil {
		return err
	}
	if rec.PowerOnHours, err = fieldHours(ep, m, "powerOnTime"); err != nil {
		return err
	}
	if rec.EmissionHours, err = fieldHours(ep, m, "emissionOnTime"); err != nil {
		return err
	}
	if rec.EMHours, err = fieldHours(ep, m, "emOnTime"); err != nil {
		return err
	}
	if rec.EMCumulativeHours, err = fieldHours(ep, m, "emCumulativeOnTime"); err != nil {
		return err
	}
	if rec.EMPressureTrip, err = fieldFloat(ep, m, "emPressureTrip"); err != nil {
		return err
	}

	rawFilaments, ok := m["filaments"]
	if !ok {
		return decodeErr(ep, "filaments", errMissing)
	}
	var filaments []struct {
		ID               int      `json:"id"`
		CumulativeOnTime *float64 `json:"cumulativeOnTime"`
		PressureTrip     *float64 `json:"pressureTrip"`
	}
	if err := json.Unmarshal(rawFilaments, &filaments); err != nil {
		return decodeErr(ep, "filaments", err)
	}
	for i, f := range filaments {
		if i >= NumFilaments {
			break
		}
		if f.CumulativeOnTime == nil {
			return decodeErr(ep, "filaments.cumulativeOnTime", errMissing)
		}
		if f.PressureTrip == nil {
			return decodeErr(ep, "filaments.pressureTrip", errMissing)
		}
		rec.Filaments[i] = Filament{
			ID:              f.ID,
			CumulativeHours: *f.CumulativeOnTime / 3600.0,
			PressureTrip:    *f.PressureTrip,
		}
	}
	*out = rec
	return nil
}

func DecodeDiagnosticData(payload []byte, out *DiagnosticData) error {
	const ep = "diagnosticData"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec DiagnosticData
	if rec.BoxTemp, err = fieldFloat(ep, m, "internalBoxTemperature"); err != nil {
		return err
	}
	if rec.AnodePotential, err = fieldFloat(ep, m, "anodePotential"); err != nil {
		return err
	}
	if rec.EmissionCurrent, err = fieldFloat(ep, m, "emissionCurrent"); err != nil {
		return err
	}
	if rec.FocusPotential, err = fieldFloat(ep, m, "focusPotential"); err != nil {
		return err
	}
	if rec.ElectronEnergy, err = fieldFloat(ep, m, "electronEnergy"); err != nil {
		return err
	}
	if rec.FilamentPotential, err = fieldFloat(ep, m, "filamentPotential"); err != nil {
		return err
	}
	if rec.FilamentCurrent, err = fieldFloat(ep, m, "filamentCurrent"); err != nil {
		return err
	}
	if rec.EMPotential, err = fieldFloat(ep, m, "emPotential"); err != nil {
		return err
	}
	*out = rec
	return nil
}

func DecodeScanInfo(payload []byte, out *ScanInfo) error {
	const ep = "scanInfo"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec ScanInfo
	if rec.FirstScan, err = fieldInt(ep, m, "firstScan"); err != nil {
		return err
	}
	if rec.LastScan, err = fieldInt(ep, m, "lastScan"); err != nil {
		return err
	}
	if rec.CurrentScan, err = fieldInt(ep, m, "currentScan"); err != nil {
		return err
	}
	if rec.PointsPerScan, err = fieldInt(ep, m, "pointsPerScan"); err != nil {
		return err
	}
	if rec.Scanning, err = fieldBool(ep, m, "scanning"); err != nil {
		return err
	}
	*out = rec
	return nil
}

func DecodeDetectorSettings(payload []byte, out *DetectorSettings) error {
	const ep = "sensorDetector"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec DetectorSettings
	if rec.VoltageMax, err = fieldFloat(ep, m, "emVoltageMax"); err != nil {
		return err
	}
	if rec.VoltageMin, err = fieldFloat(ep, m, "emVoltageMin"); err != nil {
		return err
	}
	if rec.Voltage, err = fieldFloat(ep, m, "emVoltage"); err != nil {
		return err
	}
	if rec.Gain, err = fieldFloat(ep, m, "emGain"); err != nil {
		return err
	}
	if rec.GainMass, err = fieldFloat(ep, m, "emGainMass"); err != nil {
		return err
	}
	*out = rec
	return nil
}

func DecodeFilterSettings(payload []byte, out *FilterSettings) error {
	const ep = "sensorFilter"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec FilterSettings
	if rec.MassMax, err = fieldFloat(ep, m, "massMax"); err != nil {
		return err
	}
	if rec.MassMin, err = fieldFloat(ep, m, "massMin"); err != nil {
		return err
	}
	if rec.DwellMax, err = fieldFloat(ep, m, "dwellMax"); err != nil {
		return err
	}
	if rec.DwellMin, err = fieldFloat(ep, m, "dwellMin"); err != nil {
		return err
	}
	*out = rec
	return nil
}

// DecodeIonSourceSettings decodes the ion-source block. Like the status
// endpoint this payload carries a per-filament array with colliding keys;
// the array is skipped here, the scalar fields are what the bridge needs.
func DecodeIonSourceSettings(payload []byte, out *IonSourceSettings) error {
	const ep = "sensorIonSource"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	delete(m, "filaments")

	var rec IonSourceSettings
	if rec.FilamentSelected, err = fieldInt(ep, m, "filamentSelected"); err != nil {
		return err
	}
	level, err := fieldEnum(ep, m, "emissionLevel", map[string]int{"Lo": 0, "Hi": 1})
	if err != nil {
		return err
	}
	rec.EmissionLevel = EmissionLevel(level)
	opt, err := fieldEnum(ep, m, "optimizationType", map[string]int{"Linearity": 0, "Sensitivity": 1})
	if err != nil {
		return err
	}
	rec.OptimizationType = OptimizationType(opt)
	*out = rec
	return nil
}

// DecodeChannelSetup decodes one channel's setup; ch only labels the
// endpoint in errors.
func DecodeChannelSetup(payload []byte, ch int, out *ChannelSetup) error {
	ep := fmt.Sprintf("scanSetup/channel/%d", ch)
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	var rec ChannelSetup
	mode, err := fieldEnum(ep, m, "channelMode", map[string]int{"Sweep": 0, "SinglePoint": 1})
	if err != nil {
		return err
	}
	rec.Mode = ChannelMode(mode)
	if rec.StartMass, err = fieldFloat(ep, m, "startMass"); err != nil {
		return err
	}
	if rec.StopMass, err = fieldFloat(ep, m, "stopMass"); err != nil {
		return err
	}
	if rec.Dwell, err = fieldInt(ep, m, "dwell"); err != nil {
		return err
	}
	if rec.PPAMU, err = fieldInt(ep, m, "ppamu"); err != nil {
		return err
	}
	*out = rec
	return nil
}

// DecodeTotalPressure decodes the scalar total-pressure endpoint.
func DecodeTotalPressure(payload []byte) (float64, error) {
	return dataScalar("totalPressure", payload)
}

// DecodeLeakCheckValue decodes the scalar leak-check endpoint.
func DecodeLeakCheckValue(payload []byte) (float64, error) {
	return dataScalar("leakCheckValue", payload)
}

// DecodeScanData copies one scan's samples into out. At most
// min(declared, MaxScanSize) values are kept; the mass axis is computed
// separately by ComputeMassAxis.
func DecodeScanData(payload []byte, out *ScanData) error {
	const ep = "measurement/scans"
	m, err := dataObject(ep, payload)
	if err != nil {
		return err
	}
	declared, err := fieldInt(ep, m, "scanSize")
	if err != nil {
		return err
	}
	if declared <= 0 {
		return decodeErr(ep, "scanSize", fmt.Errorf("must be > 0, got %d", declared))
	}
	scanNumber, err := fieldInt(ep, m, "scanNumber")
	if err != nil {
		return err
	}
	rawValues, ok := m["values"]
	if !ok {
		return decodeErr(ep, "values", errMissing)
	}
	var values []float32
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return decodeErr(ep, "values", err)
	}

	n := len(values)
	if n > declared {
		n = declared
	}
	if n > MaxScanSize {
		n = MaxScanSize
	}
	copy(out.Values[:n], values[:n])
	out.DeclaredSize = declared
	out.ActualSize = n
	out.ScanNumber = scanNumber
	return nil
}

// ComputeMassAxis fills axis with startMass + i/ppamu for the declared
// size, capped at MaxScanSize. Returns the number of points written.
func ComputeMassAxis(setup ChannelSetup, declaredSize int, axis []float32) (int, error) {
	if setup.PPAMU <= 0 {
		return 0, fmt.Errorf("rga: mass axis: ppamu must be > 0, got %d", setup.PPAMU)
	}
	if declaredSize <= 0 {
		return 0, fmt.Errorf("rga: mass axis: scan size must be > 0, got %d", declaredSize)
	}
	if setup.StartMass > setup.StopMass {
		return 0, fmt.Errorf("rga: mass axis: start mass %g above stop mass %g", setup.StartMass, setup.StopMass)
	}
	n := declaredSize
	if n > MaxScanSize {
		n = MaxScanSize
	}
	if n > len(axis) {
		n = len(axis)
	}
	step := 1.0 / float64(setup.PPAMU)
	for i := 0; i < n; i++ {
		axis[i] = float32(setup.StartMass + float64(i)*step)
	}
	return n, nil
}
