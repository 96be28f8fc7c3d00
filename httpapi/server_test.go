package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pitvremote/cec"
)

type fakeDevice struct {
	state   cec.State
	err     error
	calls   []string
	buttons []cec.Button
	raw     []cec.Command
}

func (d *fakeDevice) record(name string) error {
	d.calls = append(d.calls, name)
	return d.err
}

func (d *fakeDevice) State() cec.State          { return d.state }
func (d *fakeDevice) Config() cec.Configuration { return cec.DefaultConfiguration() }
func (d *fakeDevice) PowerOnTV() error          { return d.record("power_on") }
func (d *fakeDevice) StandbyTV() error          { return d.record("standby") }
func (d *fakeDevice) SetActiveSource() error    { return d.record("active_source") }
func (d *fakeDevice) RequestPowerStatus() error { return d.record("power_status") }
func (d *fakeDevice) RequestVendorID() error    { return d.record("vendor_id") }
func (d *fakeDevice) SendRemoteButton(b cec.Button) error {
	d.buttons = append(d.buttons, b)
	return d.record("button")
}

func (d *fakeDevice) SendCommand(op cec.Opcode, dest cec.LogicalAddress, params []uint8) error {
	d.raw = append(d.raw, cec.Command{Opcode: op, Destination: dest, Parameters: params})
	return d.record("command")
}

func newTestServer(d *fakeDevice) (*Server, *EventLog) {
	events := NewEventLog()
	return NewServer(d, events, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), events
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, path, r))

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: invalid JSON body %q: %v", method, path, rec.Body.String(), err)
	}
	return rec, resp
}

func TestActions(t *testing.T) {
	for _, c := range []struct {
		path string
		call string
	}{
		{"/api/power/on", "power_on"},
		{"/api/power/off", "standby"},
		{"/api/power/status", "power_status"},
		{"/api/vendor", "vendor_id"},
		{"/api/source/active", "active_source"},
	} {
		t.Run(c.path, func(t *testing.T) {
			d := &fakeDevice{state: cec.StateRunning}
			s, _ := newTestServer(d)
			rec, resp := do(t, s, http.MethodPost, c.path, "")
			if rec.Code != http.StatusOK || resp.Status != "success" {
				t.Fatalf("got %d %+v", rec.Code, resp)
			}
			if len(d.calls) != 1 || d.calls[0] != c.call {
				t.Fatalf("got calls %v, want [%s]", d.calls, c.call)
			}
		})
	}
}

func TestErrorStatusCodes(t *testing.T) {
	for _, c := range []struct {
		err  error
		want int
	}{
		{&cec.StateError{Op: "standby", State: cec.StateShutDown}, http.StatusConflict},
		{fmt.Errorf("%w: nack", cec.ErrTransmission), http.StatusBadGateway},
		{fmt.Errorf("%w: too long", cec.ErrInvalidCommand), http.StatusBadRequest},
		{errors.New("other"), http.StatusInternalServerError},
	} {
		d := &fakeDevice{err: c.err}
		s, _ := newTestServer(d)
		rec, resp := do(t, s, http.MethodPost, "/api/power/off", "")
		if rec.Code != c.want || resp.Status != "error" || resp.Message == "" {
			t.Errorf("%v: got %d %+v, want %d", c.err, rec.Code, resp, c.want)
		}
	}
}

func TestSendKey(t *testing.T) {
	d := &fakeDevice{}
	s, _ := newTestServer(d)

	rec, _ := do(t, s, http.MethodPost, "/api/key", `{"key":"volume_up"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if len(d.buttons) != 1 || d.buttons[0] != cec.ButtonVolumeUp {
		t.Fatalf("got buttons %v", d.buttons)
	}

	for _, body := range []string{`{"key":"warp_speed"}`, `{"key":""}`, `not json`} {
		rec, _ := do(t, s, http.MethodPost, "/api/key", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", body, rec.Code)
		}
	}
	if len(d.buttons) != 1 {
		t.Fatalf("invalid requests reached the device: %v", d.buttons)
	}
}

func TestRawCommand(t *testing.T) {
	d := &fakeDevice{}
	s, _ := newTestServer(d)

	rec, resp := do(t, s, http.MethodPost, "/api/command", `{"destination":0,"opcode":"0x44","parameters":[65]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d %+v", rec.Code, resp)
	}
	if len(d.raw) != 1 {
		t.Fatalf("got %d commands", len(d.raw))
	}
	cmd := d.raw[0]
	if cmd.Opcode != cec.OpcodeUserControlPressed || cmd.Destination != cec.LogicalAddressTV || len(cmd.Parameters) != 1 || cmd.Parameters[0] != 0x41 {
		t.Fatalf("unexpected command %s", cmd)
	}

	for _, body := range []string{
		`{"destination":16,"opcode":54}`,
		`{"destination":0}`,
		`{"destination":0,"opcode":256}`,
		`{"destination":0,"opcode":54,"parameters":[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15]}`,
		`{"destination":0,"opcode":54,"parameters":[300]}`,
	} {
		rec, _ := do(t, s, http.MethodPost, "/api/command", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", body, rec.Code)
		}
	}
	if len(d.raw) != 1 {
		t.Fatalf("invalid commands reached the device")
	}
}

func TestHealthAndButtons(t *testing.T) {
	d := &fakeDevice{state: cec.StateRunning}
	s, _ := newTestServer(d)

	rec, resp := do(t, s, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	data := resp.Data.(map[string]any)
	if data["state"] != "running" || data["device_name"] != "RaspberryPi" || data["physical_address"] != "1.0.0.0" {
		t.Fatalf("unexpected health data %v", data)
	}

	_, resp = do(t, s, http.MethodGet, "/api/buttons", "")
	names := resp.Data.([]any)
	if len(names) != len(cec.Buttons()) || names[0] != cec.Buttons()[0].String() {
		t.Fatalf("unexpected button list %v", names)
	}
}

func TestPowerStatusAndVendorFromEvents(t *testing.T) {
	d := &fakeDevice{}
	s, events := newTestServer(d)

	_, resp := do(t, s, http.MethodGet, "/api/power/status", "")
	if got := resp.Data.(map[string]any)["status"]; got != cec.PowerStatusUnknown.String() {
		t.Fatalf("initial status %v", got)
	}
	rec, _ := do(t, s, http.MethodGet, "/api/vendor", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("vendor before report: got %d", rec.Code)
	}

	events.FrameReceived(cec.Command{Initiator: cec.LogicalAddressTV, Destination: cec.LogicalAddressRecordingDevice1, Opcode: cec.OpcodeReportPowerStatus, Parameters: []uint8{0x01}})
	events.FrameReceived(cec.Command{Initiator: cec.LogicalAddressTV, Destination: cec.LogicalAddressBroadcast, Opcode: cec.OpcodeDeviceVendorID, Parameters: []uint8{0x00, 0x00, 0xF0}})

	_, resp = do(t, s, http.MethodGet, "/api/power/status", "")
	if got := resp.Data.(map[string]any)["status"]; got != cec.PowerStatusStandby.String() {
		t.Fatalf("status after report %v", got)
	}
	rec, resp = do(t, s, http.MethodGet, "/api/vendor", "")
	if rec.Code != http.StatusOK || resp.Data.(map[string]any)["vendor_name"] != "Samsung" {
		t.Fatalf("vendor after report: %d %+v", rec.Code, resp)
	}

	_, resp = do(t, s, http.MethodGet, "/api/events", "")
	if n := len(resp.Data.([]any)); n != 2 {
		t.Fatalf("got %d events, want 2", n)
	}
}

func TestEventLogIsBounded(t *testing.T) {
	l := NewEventLog()
	for i := 0; i < defaultMaxEvents+20; i++ {
		l.FrameReceived(cec.Command{Opcode: cec.OpcodeStandby})
	}
	l.OnKeyPress(cec.KeyPress{Button: cec.ButtonUp})
	recent := l.Recent()
	if len(recent) != defaultMaxEvents {
		t.Fatalf("got %d events, want %d", len(recent), defaultMaxEvents)
	}
	if last := recent[len(recent)-1]; last.Kind != "key" || last.Message != "up pressed" {
		t.Fatalf("unexpected newest event %+v", last)
	}
}

func TestMetricsRoute(t *testing.T) {
	var seen []string
	middleware := func(route func(*http.Request) string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r)
				seen = append(seen, route(r))
			})
		}
	}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "metrics")
	})
	s := NewServer(&fakeDevice{}, nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithMetrics(metrics, middleware))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "metrics" {
		t.Fatalf("unexpected metrics body %q", rec.Body.String())
	}
	do(t, s, http.MethodPost, "/api/power/on", "")
	if len(seen) != 2 || seen[1] != "/api/power/on" {
		t.Fatalf("middleware saw routes %v", seen)
	}
}
