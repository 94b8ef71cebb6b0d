// internal/rga/requests.go
package rga

import (
	"fmt"
	"strconv"
)

// Request lines for the device's embedded text service. Each request is a
// literal line; the transport appends the blank-line terminator.

// ---- READ ENDPOINTS ----

const (
	ReqCommParams    = "GET /mmsp/communication/get"
	ReqSensorInfo    = "GET /mmsp/sensorInfo/get"
	ReqDeviceStatus  = "GET /mmsp/status/get"
	ReqDiagnostic    = "GET /mmsp/diagnosticData/get"
	ReqScanInfo      = "GET /mmsp/scanInfo/get"
	ReqDetector      = "GET /mmsp/sensorDetector/get"
	ReqFilter        = "GET /mmsp/sensorFilter/get"
	ReqIonSource     = "GET /mmsp/sensorIonSource/get"
	ReqTotalPressure = "GET /mmsp/measurement/totalPressure/get"
	ReqScanData      = "GET /mmsp/measurement/scans/get"
	ReqLeakCheck     = "GET /mmsp/measurement/leakCheckValue/get"
)

// ReqChannelSetup reads one channel's scan setup. Channels are 1-based.
func ReqChannelSetup(ch int) (string, error) {
	if err := checkChannel(ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("GET /mmsp/scanSetup/channel/%d/get", ch), nil
}

// ---- WRITE ENDPOINTS ----

func ReqSetEmission(on bool) string {
	return "GET /mmsp/generalControl/setEmission/set?" + onOff(on)
}

func ReqSetEM(on bool) string {
	return "GET /mmsp/generalControl/setEM/set?" + onOff(on)
}

func ReqSetRFGen(on bool) string {
	return "GET /mmsp/generalControl/rfGeneratorSet/set?" + onOff(on)
}

func ReqShutdown() string {
	return "GET /mmsp/generalControl/shutdown/set?True"
}

func ReqSetEMVoltage(v float64) string {
	return "GET /mmsp/sensorDetector/emVoltage/set?" + formatFloat(v)
}

func ReqSelectFilament(n int) (string, error) {
	if n < 1 || n > NumFilaments {
		return "", fmt.Errorf("rga: filament %d out of range 1..%d", n, NumFilaments)
	}
	return "GET /mmsp/sensorIonSource/filamentSelected/set?" + strconv.Itoa(n), nil
}

func ReqSetStartChannel(ch int) (string, error) {
	if err := checkChannel(ch); err != nil {
		return "", err
	}
	return "GET /mmsp/scanSetup/startChannel/set?" + strconv.Itoa(ch), nil
}

func ReqSetStopChannel(ch int) (string, error) {
	if err := checkChannel(ch); err != nil {
		return "", err
	}
	return "GET /mmsp/scanSetup/stopChannel/set?" + strconv.Itoa(ch), nil
}

func ReqSetChannelMode(ch int, mode ChannelMode) (string, error) {
	return setChannelField(ch, "channelMode", mode.wire())
}

func ReqSetChannelEnabled(ch int, enabled bool) (string, error) {
	return setChannelField(ch, "enabled", boolWord(enabled))
}

func ReqSetChannelPPAMU(ch, ppamu int) (string, error) {
	if ppamu <= 0 {
		return "", fmt.Errorf("rga: ppamu must be > 0, got %d", ppamu)
	}
	return setChannelField(ch, "ppamu", strconv.Itoa(ppamu))
}

func ReqSetChannelDwell(ch, dwell int) (string, error) {
	if dwell <= 0 {
		return "", fmt.Errorf("rga: dwell must be > 0, got %d", dwell)
	}
	return setChannelField(ch, "dwell", strconv.Itoa(dwell))
}

func ReqSetChannelStartMass(ch int, mass float64) (string, error) {
	return setChannelField(ch, "startMass", formatFloat(mass))
}

func ReqSetChannelStopMass(ch int, mass float64) (string, error) {
	return setChannelField(ch, "stopMass", formatFloat(mass))
}

// ReqSetScanCount sets how many scans to run; -1 means run until stopped.
func ReqSetScanCount(n int) string {
	return "GET /mmsp/scanSetup/scanCount/set?" + strconv.Itoa(n)
}

func ReqStartScan() string {
	return "GET /mmsp/scanSetup/scanStart/set?1"
}

func ReqStopScan(mode StopMode) string {
	return "GET /mmsp/scanSetup/scanStop/set?" + strconv.Itoa(int(mode))
}

// ---- HELPERS ----

func checkChannel(ch int) error {
	if ch < 1 || ch > MaxChannels {
		return fmt.Errorf("rga: channel %d out of range 1..%d", ch, MaxChannels)
	}
	return nil
}

func setChannelField(ch int, field, value string) (string, error) {
	if err := checkChannel(ch); err != nil {
		return "", err
	}
	return fmt.Sprintf("GET /mmsp/scanSetup/channel/%d/%s/set?%s", ch, field, value), nil
}

func onOff(on bool) string {
	if on {
		return "On"
	}
	return "Off"
}

func boolWord(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
