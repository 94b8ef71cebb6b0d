// internal/engine/builder.go
package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vgajsek/rga-bridge/internal/config"
	"github.com/vgajsek/rga-bridge/internal/transport"
)

// Build dials the device and constructs an Engine from validated,
// normalized configuration. The returned closer owns the device
// connection.
func Build(b config.BridgeConfig, pub Sink, mir MirrorWriter, log *logrus.Logger) (*Engine, func() error, error) {
	tr, err := transport.Dial(b.Device.Endpoint, time.Duration(b.Device.TimeoutMs)*time.Millisecond)
	if err != nil {
		return nil, nil, err
	}

	e := New(Config{
		PollPeriod: time.Duration(b.Poll.PeriodMs) * time.Millisecond,
		Backoff:    time.Duration(b.Poll.BackoffMs) * time.Millisecond,
		Monitor: MonitorSettings{
			Channel:   b.Monitor.Channel,
			StartMass: b.Monitor.StartMass,
			StopMass:  b.Monitor.StopMass,
			PPAMU:     b.Monitor.PPAMU,
			Dwell:     b.Monitor.Dwell,
		},
		LeakCheck: LeakCheckSettings{
			Channel: b.LeakCheck.Channel,
			Mass:    b.LeakCheck.Mass,
			Dwell:   b.LeakCheck.Dwell,
		},
	}, tr, pub, mir, log)

	return e, tr.Close, nil
}
