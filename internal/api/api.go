// internal/api/api.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/vgajsek/rga-bridge/internal/engine"
	"github.com/vgajsek/rga-bridge/internal/rga"
	"github.com/vgajsek/rga-bridge/internal/transport"
)

// Engine is the command surface the HTTP layer drives. Every method is
// synchronous: the error is the device's answer.
// IMPORTANT: There must be NO other version of this interface anywhere.
type Engine interface {
	State() (rga.OperatingState, error)
	Snapshot() (engine.Snapshot, error)

	StartMonitor() error
	StartLeakCheck() error
	StopMeasurement(mode rga.StopMode) error

	SetEmission(on bool) error
	SetEM(on bool) error
	SetRFGen(on bool) error
	Shutdown() error
	SetEMVoltage(v float64) error
	SelectFilament(n int) error

	SetChannelMode(ch int, mode rga.ChannelMode) error
	SetChannelPPAMU(ch, ppamu int) error
	SetChannelDwell(ch, dwell int) error
	SetChannelStartMass(ch int, mass float64) error
	SetChannelStopMass(ch int, mass float64) error
	SetStartStopChannel(start, stop int) error

	SetScanCount(n int) error
	StartScan() error
	StopScan(mode rga.StopMode) error
}

// Server exposes the engine over HTTP/JSON.
type Server struct {
	eng  Engine
	echo *echo.Echo
	log  *logrus.Entry
}

// New builds the server and wires all routes.
func New(eng Engine, log *logrus.Logger) *Server {
	s := &Server{
		eng:  eng,
		echo: echo.New(),
		log:  log.WithField("component", "api"),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())

	e := s.echo
	e.GET("/api/state", s.handleState)
	e.GET("/api/snapshot", s.handleSnapshot)

	e.POST("/api/measurement/monitor", s.handleStartMonitor)
	e.POST("/api/measurement/leakcheck", s.handleStartLeakCheck)
	e.POST("/api/measurement/stop", s.handleStopMeasurement)

	e.POST("/api/control/emission", s.handleSwitch(s.eng.SetEmission))
	e.POST("/api/control/multiplier", s.handleSwitch(s.eng.SetEM))
	e.POST("/api/control/rfgenerator", s.handleSwitch(s.eng.SetRFGen))
	e.POST("/api/control/shutdown", s.handleShutdown)
	e.POST("/api/control/multipliervoltage", s.handleMultiplierVoltage)
	e.POST("/api/control/filament", s.handleFilament)

	e.POST("/api/channels/range", s.handleChannelRange)
	e.POST("/api/channels/:ch/mode", s.handleChannelMode)
	e.POST("/api/channels/:ch/ppamu", s.handleChannelInt(s.eng.SetChannelPPAMU))
	e.POST("/api/channels/:ch/dwell", s.handleChannelInt(s.eng.SetChannelDwell))
	e.POST("/api/channels/:ch/startmass", s.handleChannelFloat(s.eng.SetChannelStartMass))
	e.POST("/api/channels/:ch/stopmass", s.handleChannelFloat(s.eng.SetChannelStopMass))

	e.POST("/api/scan/count", s.handleScanCount)
	e.POST("/api/scan/start", s.handleStartScan)
	e.POST("/api/scan/stop", s.handleStopScan)

	return s
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start(listen string) error {
	s.log.WithField("listen", listen).Info("http api listening")
	err := s.echo.Start(listen)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ---- REQUEST BODIES ----

type switchRequest struct {
	On bool `json:"on"`
}

type floatRequest struct {
	Value float64 `json:"value"`
}

type intRequest struct {
	Value int `json:"value"`
}

type modeRequest struct {
	Mode string `json:"mode"`
}

type rangeRequest struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

type stateResponse struct {
	State string `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- HANDLERS ----

func (s *Server) handleState(c echo.Context) error {
	st, err := s.eng.State()
	if err != nil {
		return s.reply(c, err)
	}
	return c.JSON(http.StatusOK, stateResponse{State: st.String()})
}

func (s *Server) handleSnapshot(c echo.Context) error {
	snap, err := s.eng.Snapshot()
	if err != nil {
		return s.reply(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleStartMonitor(c echo.Context) error {
	return s.reply(c, s.eng.StartMonitor())
}

func (s *Server) handleStartLeakCheck(c echo.Context) error {
	return s.reply(c, s.eng.StartLeakCheck())
}

func (s *Server) handleStopMeasurement(c echo.Context) error {
	mode, err := bindStopMode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return s.reply(c, s.eng.StopMeasurement(mode))
}

func (s *Server) handleSwitch(set func(bool) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req switchRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return s.reply(c, set(req.On))
	}
}

func (s *Server) handleShutdown(c echo.Context) error {
	return s.reply(c, s.eng.Shutdown())
}

func (s *Server) handleMultiplierVoltage(c echo.Context) error {
	var req floatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return s.reply(c, s.eng.SetEMVoltage(req.Value))
}

func (s *Server) handleFilament(c echo.Context) error {
	var req intRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if req.Value < 1 || req.Value > rga.NumFilaments {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Error: "filament must be between 1 and " + strconv.Itoa(rga.NumFilaments),
		})
	}
	return s.reply(c, s.eng.SelectFilament(req.Value))
}

func (s *Server) handleChannelRange(c echo.Context) error {
	var req rangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err := validChannel(req.Start); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err := validChannel(req.Stop); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return s.reply(c, s.eng.SetStartStopChannel(req.Start, req.Stop))
}

func (s *Server) handleChannelMode(c echo.Context) error {
	ch, err := bindChannel(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	var req modeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	mode, err := parseChannelMode(req.Mode)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return s.reply(c, s.eng.SetChannelMode(ch, mode))
}

func (s *Server) handleChannelInt(set func(ch, v int) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ch, err := bindChannel(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		var req intRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		if req.Value <= 0 {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "value must be > 0"})
		}
		return s.reply(c, set(ch, req.Value))
	}
}

func (s *Server) handleChannelFloat(set func(ch int, v float64) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		ch, err := bindChannel(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		var req floatRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		return s.reply(c, set(ch, req.Value))
	}
}

func (s *Server) handleScanCount(c echo.Context) error {
	var req intRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if req.Value == 0 || req.Value < -1 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "scan count must be positive or -1 for continuous"})
	}
	return s.reply(c, s.eng.SetScanCount(req.Value))
}

func (s *Server) handleStartScan(c echo.Context) error {
	return s.reply(c, s.eng.StartScan())
}

func (s *Server) handleStopScan(c echo.Context) error {
	mode, err := bindStopMode(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return s.reply(c, s.eng.StopScan(mode))
}

// ---- ERROR MAPPING ----

// reply translates a command outcome into an HTTP status. The device
// link's failure modes map to gateway statuses so a caller can tell
// "device did not answer" from "device answered garbage" from "the
// bridge refused".
func (s *Server) reply(c echo.Context, err error) error {
	if err == nil {
		return c.NoContent(http.StatusOK)
	}

	var protoErr *transport.ProtocolError
	var decErr *rga.DecodeError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, transport.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.As(err, &protoErr), errors.As(err, &decErr):
		status = http.StatusBadGateway
	case errors.Is(err, engine.ErrStopped):
		status = http.StatusServiceUnavailable
	}

	s.log.WithError(err).WithField("path", c.Path()).Warn("command failed")
	return c.JSON(status, errorResponse{Error: err.Error()})
}

// ---- BIND HELPERS ----

func bindChannel(c echo.Context) (int, error) {
	ch, err := strconv.Atoi(c.Param("ch"))
	if err != nil {
		return 0, errors.New("channel must be an integer")
	}
	if err := validChannel(ch); err != nil {
		return 0, err
	}
	return ch, nil
}

func validChannel(ch int) error {
	if ch < 1 || ch > rga.MaxChannels {
		return errors.New("channel must be between 1 and " + strconv.Itoa(rga.MaxChannels))
	}
	return nil
}

func parseChannelMode(s string) (rga.ChannelMode, error) {
	switch s {
	case "Sweep":
		return rga.ModeSweep, nil
	case "SinglePoint":
		return rga.ModeSinglePoint, nil
	}
	return 0, errors.New(`mode must be "Sweep" or "SinglePoint"`)
}

// bindStopMode reads the optional stop mode; an empty body stops
// immediately.
func bindStopMode(c echo.Context) (rga.StopMode, error) {
	var req modeRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return 0, err
		}
	}
	switch req.Mode {
	case "", "immediate":
		return rga.StopImmediate, nil
	case "endOfScan":
		return rga.StopEndOfScan, nil
	}
	return 0, errors.New(`mode must be "immediate" or "endOfScan"`)
}
