// internal/config/normalize.go
package config

// Defaults applied by Normalize. The transport and poll defaults match
// the device's documented behavior.
const (
	DefaultTimeoutMs = 200
	DefaultPeriodMs  = 250
	DefaultBackoffMs = 1000

	DefaultMonitorChannel   = 1
	DefaultLeakCheckChannel = 2
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	if b.Device.TimeoutMs == 0 {
		b.Device.TimeoutMs = DefaultTimeoutMs
	}
	if b.Poll.PeriodMs == 0 {
		b.Poll.PeriodMs = DefaultPeriodMs
	}
	if b.Poll.BackoffMs == 0 {
		b.Poll.BackoffMs = DefaultBackoffMs
	}

	if b.Monitor.Channel == 0 {
		b.Monitor.Channel = DefaultMonitorChannel
	}
	if b.Monitor.StartMass == 0 && b.Monitor.StopMass == 0 {
		b.Monitor.StartMass = 1
		b.Monitor.StopMass = 50
	}
	if b.Monitor.PPAMU == 0 {
		b.Monitor.PPAMU = 10
	}
	if b.Monitor.Dwell == 0 {
		b.Monitor.Dwell = 32
	}

	if b.LeakCheck.Channel == 0 {
		b.LeakCheck.Channel = DefaultLeakCheckChannel
	}
	if b.LeakCheck.Mass == 0 {
		b.LeakCheck.Mass = 4 // helium
	}
	if b.LeakCheck.Dwell == 0 {
		b.LeakCheck.Dwell = 64
	}

	if b.MQTT.ClientID == "" {
		b.MQTT.ClientID = "rga-bridge"
	}
	if b.MQTT.TopicPrefix == "" {
		b.MQTT.TopicPrefix = "rga"
	}

	if b.API.Listen == "" {
		b.API.Listen = ":8080"
	}
	if b.Log.Level == "" {
		b.Log.Level = "info"
	}

	if b.Mirror != nil && b.Mirror.TimeoutMs == 0 {
		b.Mirror.TimeoutMs = 2000
	}
}
