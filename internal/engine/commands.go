// internal/engine/commands.go
package engine

import (
	"errors"
	"fmt"

	"github.com/vgajsek/rga-bridge/internal/rga"
)

// Command surface. Every exported method runs inside the actor
// goroutine and returns the device's answer synchronously: a transport,
// protocol, or decode failure is the command's failure.

// ---- SCALAR DEVICE COMMANDS ----

func (e *Engine) SetEmission(on bool) error {
	return e.do(func() error { return e.command(rga.ReqSetEmission(on)) })
}

func (e *Engine) SetEM(on bool) error {
	return e.do(func() error { return e.command(rga.ReqSetEM(on)) })
}

func (e *Engine) SetRFGen(on bool) error {
	return e.do(func() error { return e.command(rga.ReqSetRFGen(on)) })
}

func (e *Engine) Shutdown() error {
	return e.do(func() error { return e.command(rga.ReqShutdown()) })
}

func (e *Engine) SetEMVoltage(v float64) error {
	return e.do(func() error { return e.command(rga.ReqSetEMVoltage(v)) })
}

func (e *Engine) SelectFilament(n int) error {
	return e.do(func() error { return e.commandf(rga.ReqSelectFilament(n)) })
}

func (e *Engine) SetStartStopChannel(start, stop int) error {
	return e.do(func() error {
		if err := e.commandf(rga.ReqSetStartChannel(start)); err != nil {
			return err
		}
		return e.commandf(rga.ReqSetStopChannel(stop))
	})
}

func (e *Engine) SetChannelMode(ch int, mode rga.ChannelMode) error {
	return e.do(func() error { return e.commandf(rga.ReqSetChannelMode(ch, mode)) })
}

func (e *Engine) SetChannelPPAMU(ch, ppamu int) error {
	return e.do(func() error { return e.commandf(rga.ReqSetChannelPPAMU(ch, ppamu)) })
}

func (e *Engine) SetChannelDwell(ch, dwell int) error {
	return e.do(func() error { return e.commandf(rga.ReqSetChannelDwell(ch, dwell)) })
}

func (e *Engine) SetChannelStartMass(ch int, mass float64) error {
	return e.do(func() error { return e.commandf(rga.ReqSetChannelStartMass(ch, mass)) })
}

func (e *Engine) SetChannelStopMass(ch int, mass float64) error {
	return e.do(func() error { return e.commandf(rga.ReqSetChannelStopMass(ch, mass)) })
}

func (e *Engine) SetScanCount(n int) error {
	return e.do(func() error { return e.command(rga.ReqSetScanCount(n)) })
}

func (e *Engine) StartScan() error {
	return e.do(func() error { return e.command(rga.ReqStartScan()) })
}

func (e *Engine) StopScan(mode rga.StopMode) error {
	return e.do(func() error { return e.command(rga.ReqStopScan(mode)) })
}

// ---- STATE MACHINE ----

// StartMonitor configures the monitor channel for a continuous sweep
// and starts scanning. Valid only from Idle with no scan in progress; a
// start issued in any other state is rejected immediately, not queued.
func (e *Engine) StartMonitor() error {
	return e.do(e.startMonitor)
}

// StartLeakCheck mirrors StartMonitor using the leak channel in
// single-point mode.
func (e *Engine) StartLeakCheck() error {
	return e.do(e.startLeakCheck)
}

// StopMeasurement stops any running measurement and unconditionally
// returns to Idle; the stop-scan failure, if any, is still reported.
func (e *Engine) StopMeasurement(mode rga.StopMode) error {
	return e.do(func() error { return e.stopMeasurement(mode) })
}

func (e *Engine) startMonitor() error {
	if err := e.checkStartable("start monitor"); err != nil {
		return err
	}
	ch := e.cfg.Monitor.Channel

	e.step(rga.ReqStopScan(rga.StopImmediate))
	e.stepf(rga.ReqSetChannelMode(ch, rga.ModeSweep))
	e.stepf(rga.ReqSetChannelStartMass(ch, e.cfg.Monitor.StartMass))
	e.stepf(rga.ReqSetChannelStopMass(ch, e.cfg.Monitor.StopMass))
	e.stepf(rga.ReqSetChannelPPAMU(ch, e.cfg.Monitor.PPAMU))
	e.stepf(rga.ReqSetChannelDwell(ch, e.cfg.Monitor.Dwell))
	e.stepf(rga.ReqSetChannelEnabled(ch, true))
	e.stepf(rga.ReqSetStartChannel(ch))
	e.stepf(rga.ReqSetStopChannel(ch))
	e.step(rga.ReqSetScanCount(-1))

	if err := e.command(rga.ReqStartScan()); err != nil {
		return fmt.Errorf("engine: start monitor: start scan: %w", err)
	}

	e.scan.Zero()
	e.state = rga.StateMonitoring
	e.armFirstPoll()
	e.publishState()
	e.log.WithField("channel", ch).Info("monitoring started")
	return nil
}

func (e *Engine) startLeakCheck() error {
	if err := e.checkStartable("start leak check"); err != nil {
		return err
	}
	ch := e.cfg.LeakCheck.Channel

	e.step(rga.ReqStopScan(rga.StopImmediate))
	e.stepf(rga.ReqSetChannelMode(ch, rga.ModeSinglePoint))
	e.stepf(rga.ReqSetChannelStartMass(ch, e.cfg.LeakCheck.Mass))
	e.stepf(rga.ReqSetChannelDwell(ch, e.cfg.LeakCheck.Dwell))
	e.stepf(rga.ReqSetChannelEnabled(ch, true))
	e.stepf(rga.ReqSetStartChannel(ch))
	e.stepf(rga.ReqSetStopChannel(ch))
	e.step(rga.ReqSetScanCount(-1))

	if err := e.command(rga.ReqStartScan()); err != nil {
		return fmt.Errorf("engine: start leak check: start scan: %w", err)
	}

	// The sample buffer is deliberately not zeroed here; only a
	// monitoring start resets it.
	e.state = rga.StateLeakCheck
	e.armFirstPoll()
	e.publishState()
	e.log.WithField("channel", ch).WithField("mass", e.cfg.LeakCheck.Mass).Info("leak check started")
	return nil
}

func (e *Engine) stopMeasurement(mode rga.StopMode) error {
	err := e.command(rga.ReqStopScan(mode))
	e.state = rga.StateIdle
	e.publishState()
	e.log.Info("measurement stopped")
	if err != nil {
		return fmt.Errorf("engine: stop scan: %w", err)
	}
	return nil
}

// ErrBusy marks a start command rejected because a measurement is
// already active. The rejection happens before any device exchange.
var ErrBusy = errors.New("engine: not idle")

func (e *Engine) checkStartable(what string) error {
	if e.state != rga.StateIdle {
		return fmt.Errorf("engine: %s rejected in state %s: %w", what, e.state, ErrBusy)
	}
	if e.scanInfo.Scanning {
		return fmt.Errorf("engine: %s rejected, device reports a scan in progress: %w", what, ErrBusy)
	}
	return nil
}

func (e *Engine) armFirstPoll() {
	e.firstPoll = true
	e.lastDelivered = noScan
}

// ---- EXCHANGE HELPERS ----

// command runs one set request and reports its outcome.
func (e *Engine) command(req string) error {
	_, err := e.tr.Exchange(req)
	return err
}

func (e *Engine) commandf(req string, err error) error {
	if err != nil {
		return err
	}
	return e.command(req)
}

// step runs a non-final setup request. The device is slow to answer
// right after a scan stop, so a failure here is logged and tolerated;
// only the final start-scan step aborts a transition.
func (e *Engine) step(req string) {
	if _, err := e.tr.Exchange(req); err != nil {
		e.log.WithError(err).WithField("request", req).Warn("setup step failed, continuing")
	}
}

func (e *Engine) stepf(req string, err error) {
	if err != nil {
		e.log.WithError(err).Warn("setup step skipped")
		return
	}
	e.step(req)
}
