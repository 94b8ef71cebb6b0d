// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/vgajsek/rga-bridge/internal/rga"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	b := &cfg.Bridge

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if b.Device.Endpoint == "" {
		return fmt.Errorf("device: endpoint is required")
	}
	if b.Device.TimeoutMs < 0 {
		return fmt.Errorf("device: timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if b.Poll.PeriodMs < 0 {
		return fmt.Errorf("poll: period_ms must be >= 0")
	}
	if b.Poll.BackoffMs < 0 {
		return fmt.Errorf("poll: backoff_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// MEASUREMENT CHANNELS (1-based, distinct)
	// ------------------------------------------------------------

	if b.Monitor.Channel != 0 {
		if b.Monitor.Channel < 1 || b.Monitor.Channel > rga.MaxChannels {
			return fmt.Errorf(
				"monitor: channel %d out of range 1..%d",
				b.Monitor.Channel, rga.MaxChannels,
			)
		}
	}
	if b.LeakCheck.Channel != 0 {
		if b.LeakCheck.Channel < 1 || b.LeakCheck.Channel > rga.MaxChannels {
			return fmt.Errorf(
				"leak_check: channel %d out of range 1..%d",
				b.LeakCheck.Channel, rga.MaxChannels,
			)
		}
	}
	if b.Monitor.Channel != 0 && b.Monitor.Channel == b.LeakCheck.Channel {
		return fmt.Errorf(
			"monitor and leak_check must use distinct channels, both are %d",
			b.Monitor.Channel,
		)
	}

	if b.Monitor.StartMass < 0 || b.Monitor.StopMass < 0 {
		return fmt.Errorf("monitor: masses must be >= 0")
	}
	if b.Monitor.StopMass != 0 && b.Monitor.StartMass > b.Monitor.StopMass {
		return fmt.Errorf(
			"monitor: start_mass %g above stop_mass %g",
			b.Monitor.StartMass, b.Monitor.StopMass,
		)
	}
	if b.Monitor.PPAMU < 0 || b.Monitor.Dwell < 0 {
		return fmt.Errorf("monitor: ppamu and dwell must be >= 0")
	}
	if b.LeakCheck.Mass < 0 || b.LeakCheck.Dwell < 0 {
		return fmt.Errorf("leak_check: mass and dwell must be >= 0")
	}

	// ------------------------------------------------------------
	// MQTT
	// ------------------------------------------------------------

	if b.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	if b.MQTT.QoS < 0 || b.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt: qos %d out of range 0..2", b.MQTT.QoS)
	}

	// ------------------------------------------------------------
	// MIRROR (OPT-IN)
	// ------------------------------------------------------------

	if b.Mirror != nil {
		if b.Mirror.Endpoint == "" {
			return fmt.Errorf("mirror: endpoint is required when mirror is configured")
		}
		if b.Mirror.TimeoutMs < 0 {
			return fmt.Errorf("mirror: timeout_ms must be >= 0")
		}
	}

	return nil
}
