// internal/engine/values.go
package engine

import "github.com/vgajsek/rga-bridge/internal/rga"

// Publish helpers. A failed publish never fails the tick or the
// command; the sink owns retry/recovery.

func (e *Engine) pubInt(name string, ch int, v int64) {
	if err := e.pub.PublishInt(name, ch, v); err != nil {
		e.log.WithError(err).WithField("attribute", name).Warn("publish failed")
	}
}

func (e *Engine) pubFloat(name string, ch int, v float64) {
	if err := e.pub.PublishFloat(name, ch, v); err != nil {
		e.log.WithError(err).WithField("attribute", name).Warn("publish failed")
	}
}

func (e *Engine) pubString(name string, ch int, v string) {
	if err := e.pub.PublishString(name, ch, v); err != nil {
		e.log.WithError(err).WithField("attribute", name).Warn("publish failed")
	}
}

func (e *Engine) pubArray(name string, ch int, values []float32, count int) {
	if err := e.pub.PublishFloatArray(name, ch, values, count); err != nil {
		e.log.WithError(err).WithField("attribute", name).Warn("publish failed")
	}
}

func boolBit(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// ---- PER-GROUP PUBLISHERS ----

func (e *Engine) publishCommParams() {
	e.pubString("ip", 0, e.comm.IP)
	e.pubString("mac", 0, e.comm.MAC)
}

func (e *Engine) publishSensorInfo() {
	e.pubString("sensorName", 0, e.sensor.Name)
	e.pubString("sensorDescription", 0, e.sensor.Description)
	e.pubString("sensorSerialNumber", 0, e.sensor.SerialNumber)
}

func (e *Engine) publishDeviceStatus() {
	s := &e.devStatus
	e.pubInt("systemStatus", 0, int64(s.SystemStatus))
	e.pubInt("hardwareError", 0, int64(s.HWError))
	e.pubInt("hardwareWarning", 0, int64(s.HWWarn))
	e.pubFloat("powerOnHours", 0, s.PowerOnHours)
	e.pubFloat("emissionHours", 0, s.EmissionHours)
	e.pubFloat("emHours", 0, s.EMHours)
	e.pubFloat("emCumulativeHours", 0, s.EMCumulativeHours)
	e.pubFloat("emPressureTrip", 0, s.EMPressureTrip)
	for _, f := range s.Filaments {
		if f.ID == 0 {
			continue
		}
		e.pubFloat("filamentCumulativeHours", f.ID, f.CumulativeHours)
		e.pubFloat("filamentPressureTrip", f.ID, f.PressureTrip)
	}
}

func (e *Engine) publishDiagnostic() {
	d := &e.diag
	e.pubFloat("boxTemp", 0, d.BoxTemp)
	e.pubFloat("anodePotential", 0, d.AnodePotential)
	e.pubFloat("emissionCurrent", 0, d.EmissionCurrent)
	e.pubFloat("focusPotential", 0, d.FocusPotential)
	e.pubFloat("electronEnergy", 0, d.ElectronEnergy)
	e.pubFloat("filamentPotential", 0, d.FilamentPotential)
	e.pubFloat("filamentCurrent", 0, d.FilamentCurrent)
	e.pubFloat("emPotential", 0, d.EMPotential)
}

func (e *Engine) publishScanInfo() {
	si := &e.scanInfo
	e.pubInt("firstScan", 0, int64(si.FirstScan))
	e.pubInt("lastScan", 0, int64(si.LastScan))
	e.pubInt("currentScan", 0, int64(si.CurrentScan))
	e.pubInt("pointsPerScan", 0, int64(si.PointsPerScan))
	e.pubInt("scanning", 0, boolBit(si.Scanning))
}

func (e *Engine) publishDetector() {
	d := &e.detector
	e.pubFloat("emVoltageMax", 0, d.VoltageMax)
	e.pubFloat("emVoltageMin", 0, d.VoltageMin)
	e.pubFloat("emVoltage", 0, d.Voltage)
	e.pubFloat("emGain", 0, d.Gain)
	e.pubFloat("emGainMass", 0, d.GainMass)
}

func (e *Engine) publishFilter() {
	f := &e.filter
	e.pubFloat("massMax", 0, f.MassMax)
	e.pubFloat("massMin", 0, f.MassMin)
	e.pubFloat("dwellMax", 0, f.DwellMax)
	e.pubFloat("dwellMin", 0, f.DwellMin)
}

func (e *Engine) publishIonSource() {
	s := &e.ionSource
	e.pubInt("filamentSelected", 0, int64(s.FilamentSelected))
	e.pubInt("emissionLevel", 0, int64(s.EmissionLevel))
	e.pubInt("optimizationType", 0, int64(s.OptimizationType))
}

func (e *Engine) publishChannel(ch int) {
	c := &e.channels[ch]
	e.pubInt("channelMode", ch, int64(c.Mode))
	e.pubFloat("startMass", ch, c.StartMass)
	e.pubFloat("stopMass", ch, c.StopMass)
	e.pubInt("dwell", ch, int64(c.Dwell))
	e.pubInt("ppamu", ch, int64(c.PPAMU))
}

func (e *Engine) publishState() {
	e.pubString("state", 0, e.state.String())
}

// publishAll pushes every current record through the sink. Used after a
// transport recovery together with Sink.ForceAll.
func (e *Engine) publishAll() {
	e.publishCommParams()
	e.publishSensorInfo()
	e.publishDeviceStatus()
	e.publishDiagnostic()
	e.publishScanInfo()
	e.publishDetector()
	e.publishFilter()
	e.publishIonSource()
	e.publishChannel(e.cfg.Monitor.Channel)
	e.publishChannel(e.cfg.LeakCheck.Channel)
	e.pubFloat("totalPressure", 0, e.pressure)
	if e.state == rga.StateLeakCheck {
		e.pubFloat("leakCheckValue", 0, e.leakValue)
	}
	e.publishState()
}
