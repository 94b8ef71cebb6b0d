// internal/api/api_test.go
package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vgajsek/rga-bridge/internal/engine"
	"github.com/vgajsek/rga-bridge/internal/rga"
	"github.com/vgajsek/rga-bridge/internal/transport"
)

// fakeEngine records the last command and answers with a scripted
// error.
type fakeEngine struct {
	err   error
	calls []string

	stopMode rga.StopMode
	channel  int
	mode     rga.ChannelMode
	value    float64
}

func (f *fakeEngine) note(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeEngine) State() (rga.OperatingState, error) { return rga.StateIdle, f.err }
func (f *fakeEngine) Snapshot() (engine.Snapshot, error) {
	return engine.Snapshot{State: "Idle", TotalPressure: 3.2e-5}, f.err
}

func (f *fakeEngine) StartMonitor() error   { return f.note("startMonitor") }
func (f *fakeEngine) StartLeakCheck() error { return f.note("startLeakCheck") }
func (f *fakeEngine) StopMeasurement(mode rga.StopMode) error {
	f.stopMode = mode
	return f.note("stopMeasurement")
}

func (f *fakeEngine) SetEmission(bool) error { return f.note("setEmission") }
func (f *fakeEngine) SetEM(bool) error       { return f.note("setEM") }
func (f *fakeEngine) SetRFGen(bool) error    { return f.note("setRFGen") }
func (f *fakeEngine) Shutdown() error        { return f.note("shutdown") }
func (f *fakeEngine) SetEMVoltage(v float64) error {
	f.value = v
	return f.note("setEMVoltage")
}
func (f *fakeEngine) SelectFilament(n int) error { return f.note("selectFilament") }

func (f *fakeEngine) SetChannelMode(ch int, mode rga.ChannelMode) error {
	f.channel, f.mode = ch, mode
	return f.note("setChannelMode")
}
func (f *fakeEngine) SetChannelPPAMU(ch, v int) error {
	f.channel = ch
	return f.note("setChannelPPAMU")
}
func (f *fakeEngine) SetChannelDwell(ch, v int) error {
	f.channel = ch
	return f.note("setChannelDwell")
}
func (f *fakeEngine) SetChannelStartMass(ch int, v float64) error {
	f.channel, f.value = ch, v
	return f.note("setChannelStartMass")
}
func (f *fakeEngine) SetChannelStopMass(ch int, v float64) error {
	f.channel, f.value = ch, v
	return f.note("setChannelStopMass")
}
func (f *fakeEngine) SetStartStopChannel(start, stop int) error {
	return f.note("setStartStopChannel")
}

func (f *fakeEngine) SetScanCount(n int) error { return f.note("setScanCount") }
func (f *fakeEngine) StartScan() error         { return f.note("startScan") }
func (f *fakeEngine) StopScan(mode rga.StopMode) error {
	f.stopMode = mode
	return f.note("stopScan")
}

func newTestServer(fake *fakeEngine) *Server {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(fake, log)
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestState(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	rec := doRequest(s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"state":"Idle"}`, rec.Body.String())
}

func TestSnapshot(t *testing.T) {
	s := newTestServer(&fakeEngine{})
	rec := doRequest(s, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"totalPressure":3.2e-05`)
}

func TestState_StoppedEngineMapsToUnavailable(t *testing.T) {
	s := newTestServer(&fakeEngine{err: engine.ErrStopped})

	rec := doRequest(s, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStartMonitor_OK(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)
	rec := doRequest(s, http.MethodPost, "/api/measurement/monitor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"startMonitor"}, fake.calls)
}

func TestStartMonitor_BusyMapsToConflict(t *testing.T) {
	fake := &fakeEngine{err: engine.ErrBusy}
	s := newTestServer(fake)
	rec := doRequest(s, http.MethodPost, "/api/measurement/monitor", "")
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCommand_TimeoutMapsToGatewayTimeout(t *testing.T) {
	fake := &fakeEngine{err: transport.ErrTimeout}
	s := newTestServer(fake)
	rec := doRequest(s, http.MethodPost, "/api/control/emission", `{"on":true}`)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestCommand_ProtocolErrorMapsToBadGateway(t *testing.T) {
	fake := &fakeEngine{err: &transport.ProtocolError{Status: 500, Reason: "device error"}}
	s := newTestServer(fake)
	rec := doRequest(s, http.MethodPost, "/api/control/emission", `{"on":true}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCommand_StoppedMapsToUnavailable(t *testing.T) {
	fake := &fakeEngine{err: engine.ErrStopped}
	s := newTestServer(fake)
	rec := doRequest(s, http.MethodPost, "/api/scan/start", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStopMeasurement_Modes(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/measurement/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, rga.StopImmediate, fake.stopMode)

	rec = doRequest(s, http.MethodPost, "/api/measurement/stop", `{"mode":"endOfScan"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, rga.StopEndOfScan, fake.stopMode)

	rec = doRequest(s, http.MethodPost, "/api/measurement/stop", `{"mode":"whenever"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelMode(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/channels/2/mode", `{"mode":"SinglePoint"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, fake.channel)
	require.Equal(t, rga.ModeSinglePoint, fake.mode)

	rec = doRequest(s, http.MethodPost, "/api/channels/2/mode", `{"mode":"Zigzag"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelValidation_RejectsBeforeDevice(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/channels/6/ppamu", `{"value":10}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/channels/x/ppamu", `{"value":10}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/channels/1/ppamu", `{"value":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	require.Empty(t, fake.calls, "invalid input must never reach the device")
}

func TestFilamentBounds(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/control/filament", `{"value":4}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, fake.calls)

	rec = doRequest(s, http.MethodPost, "/api/control/filament", `{"value":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"selectFilament"}, fake.calls)
}

func TestScanCountValidation(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/scan/count", `{"value":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/scan/count", `{"value":-1}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChannelRange(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/channels/range", `{"start":1,"stop":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"setStartStopChannel"}, fake.calls)

	rec = doRequest(s, http.MethodPost, "/api/channels/range", `{"start":0,"stop":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMultiplierVoltage(t *testing.T) {
	fake := &fakeEngine{}
	s := newTestServer(fake)

	rec := doRequest(s, http.MethodPost, "/api/control/multipliervoltage", `{"value":1200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1200.0, fake.value)
}
