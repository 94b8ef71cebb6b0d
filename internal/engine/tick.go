// internal/engine/tick.go
package engine

import (
	"errors"
	"time"

	"github.com/vgajsek/rga-bridge/internal/mirror"
	"github.com/vgajsek/rga-bridge/internal/rga"
	"github.com/vgajsek/rga-bridge/internal/transport"
)

// tick runs one poll cycle. Fast attributes refresh every tick; the
// five- and ten-second groups refresh when due, measured from each
// group's own last successful refresh.
//
// Errors split two ways. If the device answered — a protocol or decode
// error — the failure is logged and the affected values keep their last
// published state. Anything else (timeout, reset, write failure) means
// the device is unreachable: two such ticks in a row trigger a short
// back-off, and a failure/success flip forces a full republish on the
// next good tick.
func (e *Engine) tick(now time.Time) {
	e.lastTickErr = nil

	// note logs a refresh failure and reports whether it was a
	// transport failure rather than a bad answer.
	note := func(endpoint string, err error) bool {
		if err == nil {
			return false
		}
		if e.lastTickErr == nil {
			e.lastTickErr = err
		}
		var protoErr *transport.ProtocolError
		var decErr *rga.DecodeError
		if errors.As(err, &protoErr) || errors.As(err, &decErr) {
			e.log.WithError(err).WithField("endpoint", endpoint).Warn("refresh failed, keeping last value")
			return false
		}
		e.log.WithError(err).WithField("endpoint", endpoint).Warn("device unreachable")
		return true
	}

	// Fast group, then scan delivery against the fresh scan info.
	fail := note("scanInfo", e.refreshScanInfo())
	fail = note("totalPressure", e.refreshTotalPressure()) || fail
	if e.state == rga.StateLeakCheck {
		fail = note("leakCheckValue", e.refreshLeakCheckValue()) || fail
	}
	fail = note("scans", e.deliverScans()) || fail

	// Each slow group reschedules on its own outcome: a fast-group
	// failure must not force the whole group to re-refresh.
	if e.fiveSecond.due(now) {
		groupFail := note("diagnosticData", e.refreshDiagnostic())
		groupFail = note("sensorDetector", e.refreshDetector()) || groupFail
		groupFail = note("sensorIonSource", e.refreshIonSource()) || groupFail
		groupFail = note("channelSetup", e.refreshChannel(e.cfg.Monitor.Channel)) || groupFail
		groupFail = note("channelSetup", e.refreshChannel(e.cfg.LeakCheck.Channel)) || groupFail
		if !groupFail {
			e.fiveSecond.fired(now)
		}
		fail = fail || groupFail
	}

	if e.tenSecond.due(now) {
		groupFail := note("communication", e.refreshCommParams())
		groupFail = note("sensorInfo", e.refreshSensorInfo()) || groupFail
		groupFail = note("status", e.refreshDeviceStatus()) || groupFail
		groupFail = note("sensorFilter", e.refreshFilter()) || groupFail
		if !groupFail {
			e.tenSecond.fired(now)
		}
		fail = fail || groupFail
	}

	tickOK := !fail

	// Transport health bookkeeping.
	switch {
	case !tickOK && !e.prevTickOK:
		e.log.WithField("backoff", e.cfg.Backoff).Warn("repeated transport failure, backing off")
		time.Sleep(e.cfg.Backoff)
	case tickOK && !e.prevTickOK:
		e.log.Info("device link recovered, republishing all values")
		e.pub.ForceAll()
		e.publishAll()
	}
	if !tickOK && e.failedSince.IsZero() {
		e.failedSince = now
	}
	if tickOK {
		e.failedSince = time.Time{}
	}
	e.prevTickOK = tickOK

	e.writeMirror(now, tickOK)
}

// ---- PER-ENDPOINT REFRESH ----

func (e *Engine) refreshScanInfo() error {
	payload, err := e.tr.Exchange(rga.ReqScanInfo)
	if err != nil {
		return err
	}
	if err := rga.DecodeScanInfo(payload, &e.scanInfo); err != nil {
		return err
	}
	e.publishScanInfo()
	return nil
}

func (e *Engine) refreshTotalPressure() error {
	payload, err := e.tr.Exchange(rga.ReqTotalPressure)
	if err != nil {
		return err
	}
	v, err := rga.DecodeTotalPressure(payload)
	if err != nil {
		return err
	}
	e.pressure = v
	e.pubFloat("totalPressure", 0, v)
	return nil
}

func (e *Engine) refreshLeakCheckValue() error {
	payload, err := e.tr.Exchange(rga.ReqLeakCheck)
	if err != nil {
		return err
	}
	v, err := rga.DecodeLeakCheckValue(payload)
	if err != nil {
		return err
	}
	e.leakValue = v
	e.pubFloat("leakCheckValue", 0, v)
	return nil
}

func (e *Engine) refreshDiagnostic() error {
	payload, err := e.tr.Exchange(rga.ReqDiagnostic)
	if err != nil {
		return err
	}
	if err := rga.DecodeDiagnosticData(payload, &e.diag); err != nil {
		return err
	}
	e.publishDiagnostic()
	return nil
}

func (e *Engine) refreshDetector() error {
	payload, err := e.tr.Exchange(rga.ReqDetector)
	if err != nil {
		return err
	}
	if err := rga.DecodeDetectorSettings(payload, &e.detector); err != nil {
		return err
	}
	e.publishDetector()
	return nil
}

func (e *Engine) refreshIonSource() error {
	payload, err := e.tr.Exchange(rga.ReqIonSource)
	if err != nil {
		return err
	}
	if err := rga.DecodeIonSourceSettings(payload, &e.ionSource); err != nil {
		return err
	}
	e.publishIonSource()
	return nil
}

func (e *Engine) refreshChannel(ch int) error {
	req, err := rga.ReqChannelSetup(ch)
	if err != nil {
		return err
	}
	payload, err := e.tr.Exchange(req)
	if err != nil {
		return err
	}
	if err := rga.DecodeChannelSetup(payload, ch, &e.channels[ch]); err != nil {
		return err
	}
	e.publishChannel(ch)
	return nil
}

func (e *Engine) refreshCommParams() error {
	payload, err := e.tr.Exchange(rga.ReqCommParams)
	if err != nil {
		return err
	}
	if err := rga.DecodeCommParams(payload, &e.comm); err != nil {
		return err
	}
	e.publishCommParams()
	return nil
}

func (e *Engine) refreshSensorInfo() error {
	payload, err := e.tr.Exchange(rga.ReqSensorInfo)
	if err != nil {
		return err
	}
	if err := rga.DecodeSensorInfo(payload, &e.sensor); err != nil {
		return err
	}
	e.publishSensorInfo()
	return nil
}

func (e *Engine) refreshDeviceStatus() error {
	payload, err := e.tr.Exchange(rga.ReqDeviceStatus)
	if err != nil {
		return err
	}
	if err := rga.DecodeDeviceStatus(payload, &e.devStatus); err != nil {
		return err
	}
	e.publishDeviceStatus()
	return nil
}

func (e *Engine) refreshFilter() error {
	payload, err := e.tr.Exchange(rga.ReqFilter)
	if err != nil {
		return err
	}
	if err := rga.DecodeFilterSettings(payload, &e.filter); err != nil {
		return err
	}
	e.publishFilter()
	return nil
}

// ---- MIRROR ----

func (e *Engine) writeMirror(now time.Time, tickOK bool) {
	if e.mir == nil {
		return
	}

	snap := mirror.Snapshot{
		Health:        mirror.HealthOK,
		ErrorClass:    mirror.ClassifyError(e.lastTickErr),
		SystemStatus:  uint16(e.devStatus.SystemStatus),
		HWError:       uint16(e.devStatus.HWError),
		HWWarn:        uint16(e.devStatus.HWWarn),
		TotalPressure: e.pressure,
		State:         e.state,
	}
	if !tickOK {
		snap.Health = mirror.HealthError
	}
	if !e.failedSince.IsZero() {
		secs := now.Sub(e.failedSince) / time.Second
		if secs > 65535 {
			secs = 65535
		}
		snap.SecondsInError = uint16(secs)
	}

	if err := e.mir.WriteSnapshot(snap); err != nil {
		e.log.WithError(err).Warn("mirror write failed")
	}
}
