// internal/engine/scan.go
package engine

import "github.com/vgajsek/rga-bridge/internal/rga"

// deliverScans runs once per tick, after the scan-info refresh, while a
// measurement is active. Each observed advance of the device's
// last-completed-scan index is delivered exactly once, in order. If
// polling falls behind the device only the newest scan is fetched;
// intermediate scans are skipped silently.
func (e *Engine) deliverScans() error {
	if e.state == rga.StateIdle || !e.scanInfo.Scanning {
		return nil
	}

	if e.firstPoll {
		// The scan info read right after a start can still carry the
		// previous run's counters. Baseline on it instead of
		// delivering, and push the buffers out once as a visual reset.
		e.firstPoll = false
		e.lastDelivered = e.scanInfo.LastScan
		e.publishScanArrays()
		return nil
	}

	if e.scanInfo.LastScan <= e.lastDelivered {
		return nil
	}

	if err := e.fetchScan(); err != nil {
		// lastDelivered is unchanged, so the same advance is retried
		// on the next tick.
		return err
	}
	e.publishScanArrays()
	e.lastDelivered = e.scanInfo.LastScan
	return nil
}

// fetchScan pulls the newest scan's samples and, while monitoring,
// recomputes the mass axis from the monitor sweep settings.
func (e *Engine) fetchScan() error {
	payload, err := e.tr.Exchange(rga.ReqScanData)
	if err != nil {
		return err
	}
	if err := rga.DecodeScanData(payload, e.scan); err != nil {
		return err
	}

	if e.state == rga.StateMonitoring {
		setup := rga.ChannelSetup{
			StartMass: e.cfg.Monitor.StartMass,
			StopMass:  e.cfg.Monitor.StopMass,
			PPAMU:     e.cfg.Monitor.PPAMU,
		}
		if _, err := rga.ComputeMassAxis(setup, e.scan.DeclaredSize, e.scan.MassAxis); err != nil {
			// Sample values stay valid without an axis.
			e.log.WithError(err).Warn("mass axis not updated")
		}
	}
	return nil
}

func (e *Engine) activeChannel() int {
	if e.state == rga.StateLeakCheck {
		return e.cfg.LeakCheck.Channel
	}
	return e.cfg.Monitor.Channel
}

func (e *Engine) publishScanArrays() {
	ch := e.activeChannel()
	n := e.scan.ActualSize
	if n == 0 {
		// Visual reset: publish the zeroed buffers at the configured
		// scan length.
		n = e.scanInfo.PointsPerScan
		if n > rga.MaxScanSize {
			n = rga.MaxScanSize
		}
	}
	e.pubArray("scanData", ch, e.scan.Values, n)
	if e.state == rga.StateMonitoring {
		e.pubArray("massAxis", ch, e.scan.MassAxis, n)
	}
}
