// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vgajsek/rga-bridge/internal/mirror"
	"github.com/vgajsek/rga-bridge/internal/publish"
	"github.com/vgajsek/rga-bridge/internal/rga"
)

// Transport abstracts one request/response cycle with the device.
// The engine depends on exchanges only.
type Transport interface {
	Exchange(request string) ([]byte, error)
}

// Sink is where decoded values go. ForceAll requests a full republish,
// used after the device link recovers.
type Sink interface {
	publish.Publisher
	ForceAll()
}

// MirrorWriter delivers the optional PLC mirror block.
type MirrorWriter interface {
	WriteSnapshot(s mirror.Snapshot) error
}

// Config is the runtime config the engine needs.
type Config struct {
	PollPeriod time.Duration
	Backoff    time.Duration

	Monitor   MonitorSettings
	LeakCheck LeakCheckSettings
}

// MonitorSettings describes the sweep run on the monitor channel.
type MonitorSettings struct {
	Channel   int
	StartMass float64
	StopMass  float64
	PPAMU     int
	Dwell     int
}

// LeakCheckSettings describes the single-point run on the leak channel.
type LeakCheckSettings struct {
	Channel int
	Mass    float64
	Dwell   int
}

// ErrStopped is returned for commands issued after the engine loop has
// exited.
var ErrStopped = errors.New("engine: stopped")

// noScan marks "no scan delivered yet".
const noScan = -1

// Engine is a single-writer actor: one goroutine (Run) owns the
// transport and every instrument record. Commands are closures executed
// inside that goroutine, so exchanges are strictly serialized and no
// two commands interleave on the wire.
type Engine struct {
	cfg Config
	tr  Transport
	pub Sink
	mir MirrorWriter // may be nil
	log *logrus.Entry

	cmds chan command
	done chan struct{}

	// Everything below is owned by the Run goroutine.
	state rga.OperatingState

	comm      rga.CommParams
	sensor    rga.SensorInfo
	devStatus rga.DeviceStatus
	diag      rga.DiagnosticData
	scanInfo  rga.ScanInfo
	detector  rga.DetectorSettings
	filter    rga.FilterSettings
	ionSource rga.IonSourceSettings
	channels  [rga.MaxChannels + 1]rga.ChannelSetup // 1-based
	pressure  float64
	leakValue float64
	scan      *rga.ScanData

	lastDelivered int
	firstPoll     bool

	fiveSecond cadence
	tenSecond  cadence

	prevTickOK  bool
	failedSince time.Time
	lastTickErr error
}

type command struct {
	fn    func() error
	reply chan error
}

// cadence tracks one refresh group's schedule. due is a pure function
// of the current time and the last successful fire.
type cadence struct {
	every time.Duration
	last  time.Time
}

func (c *cadence) due(now time.Time) bool {
	return c.last.IsZero() || now.Sub(c.last) >= c.every
}

func (c *cadence) fired(now time.Time) {
	c.last = now
}

// New creates an engine. Run must be started for commands to execute.
func New(cfg Config, tr Transport, pub Sink, mir MirrorWriter, log *logrus.Logger) *Engine {
	if cfg.PollPeriod <= 0 {
		cfg.PollPeriod = 250 * time.Millisecond
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &Engine{
		cfg:           cfg,
		tr:            tr,
		pub:           pub,
		mir:           mir,
		log:           log.WithField("component", "engine"),
		cmds:          make(chan command),
		done:          make(chan struct{}),
		scan:          rga.NewScanData(),
		lastDelivered: noScan,
		fiveSecond:    cadence{every: 5 * time.Second},
		tenSecond:     cadence{every: 10 * time.Second},
		prevTickOK:    true,
	}
}

// Run drives the poll loop until ctx is cancelled. Shutdown latency is
// bounded by one exchange: cancellation is observed between ticks.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	timer := time.NewTimer(e.cfg.PollPeriod)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-e.cmds:
			cmd.reply <- cmd.fn()
		case <-timer.C:
			e.tick(time.Now())
			timer.Reset(e.cfg.PollPeriod)
		}
	}
}

// do runs fn inside the actor goroutine and waits for its result.
func (e *Engine) do(fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case e.cmds <- cmd:
	case <-e.done:
		return ErrStopped
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-e.done:
		return ErrStopped
	}
}

// State reports the current operating state. ErrStopped after the loop
// has exited.
func (e *Engine) State() (rga.OperatingState, error) {
	var s rga.OperatingState
	err := e.do(func() error {
		s = e.state
		return nil
	})
	return s, err
}
