package mqttbridge

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"pitvremote/cec"
)

type published struct {
	topic   string
	payload string
	retain  bool
}

type fakeClient struct {
	mu       sync.Mutex
	handlers map[string]Handler
	pubs     []published
	unsubs   []string
	subErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]Handler)}
}

func (c *fakeClient) Subscribe(topic string, cb Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subErr != nil {
		return c.subErr
	}
	c.handlers[topic] = cb
	return nil
}

func (c *fakeClient) Unsubscribe(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, topic)
	c.unsubs = append(c.unsubs, topic)
	return nil
}

func (c *fakeClient) Publish(topic string, payload []byte) error {
	return c.PublishWith(topic, payload, false)
}

func (c *fakeClient) PublishWith(topic string, payload []byte, retain bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pubs = append(c.pubs, published{topic, string(payload), retain})
	return nil
}

// deliver invokes the handler subscribed to topic as paho would.
func (c *fakeClient) deliver(t *testing.T, topic, payload string) {
	t.Helper()
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	if h == nil {
		t.Fatalf("no subscription for %s", topic)
	}
	h(nil, &fakeMessage{topic: topic, payload: []byte(payload)})
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type fakeDevice struct {
	err   error
	power []string
	raw   []cec.Command
	hold  chan struct{}

	mu      sync.Mutex
	buttons []cec.Button
}

func (d *fakeDevice) PowerOnTV() error { d.power = append(d.power, "on"); return d.err }
func (d *fakeDevice) StandbyTV() error { d.power = append(d.power, "off"); return d.err }

func (d *fakeDevice) SendRemoteButton(b cec.Button) error {
	if d.hold != nil {
		<-d.hold
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buttons = append(d.buttons, b)
	return d.err
}

func (d *fakeDevice) sentButtons() []cec.Button {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]cec.Button(nil), d.buttons...)
}

func (d *fakeDevice) SendCommand(op cec.Opcode, dest cec.LogicalAddress, params []uint8) error {
	d.raw = append(d.raw, cec.Command{Opcode: op, Destination: dest, Parameters: params})
	return d.err
}

func newTestBridge(prefix string) (*Bridge, *fakeClient, *fakeDevice) {
	c, d := newFakeClient(), &fakeDevice{}
	return New(c, d, prefix, slog.New(slog.NewTextHandler(io.Discard, nil))), c, d
}

func TestStartPublishesOnlineState(t *testing.T) {
	b, c, _ := newTestBridge("living/tv/")
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	for _, topic := range []string{"living/tv/button/set", "living/tv/power/set", "living/tv/command/set"} {
		if c.handlers[topic] == nil {
			t.Errorf("not subscribed to %s", topic)
		}
	}
	if len(c.pubs) != 1 || c.pubs[0] != (published{"living/tv/state", "online", true}) {
		t.Fatalf("unexpected publications %+v", c.pubs)
	}
	if StateTopic("living/tv/") != "living/tv/state" {
		t.Fatalf("state topic mismatch")
	}

	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	if len(c.unsubs) != 3 || c.pubs[len(c.pubs)-1] != (published{"living/tv/state", "offline", true}) {
		t.Fatalf("unexpected stop behaviour: %v %+v", c.unsubs, c.pubs)
	}
}

func TestStartSubscribeFailure(t *testing.T) {
	b, c, _ := newTestBridge("")
	c.subErr = errors.New("not authorized")
	if err := b.Start(); err == nil {
		t.Fatalf("expected subscribe error")
	}
}

func TestButtonRequests(t *testing.T) {
	b, c, d := newTestBridge("")
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}

	c.deliver(t, "pitvremote/button/set", "volume_up")
	c.deliver(t, "pitvremote/button/set", " Channel Up \n")
	c.deliver(t, "pitvremote/button/set", "launch_missiles")
	b.sends.Wait()

	got := d.sentButtons()
	if len(got) != 2 || !containsButton(got, cec.ButtonVolumeUp) || !containsButton(got, cec.ButtonChannelUp) {
		t.Fatalf("unexpected buttons %v", got)
	}

	d.mu.Lock()
	d.err = &cec.StateError{Op: "send remote button", State: cec.StateShutDown}
	d.mu.Unlock()
	c.deliver(t, "pitvremote/button/set", "mute")
	b.sends.Wait()
}

func containsButton(buttons []cec.Button, want cec.Button) bool {
	for _, b := range buttons {
		if b == want {
			return true
		}
	}
	return false
}

func TestButtonRequestDoesNotBlockDelivery(t *testing.T) {
	b, c, d := newTestBridge("")
	d.hold = make(chan struct{})
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}

	h := c.handlers["pitvremote/button/set"]
	delivered := make(chan struct{})
	go func() {
		h(nil, &fakeMessage{topic: "pitvremote/button/set", payload: []byte("play")})
		close(delivered)
	}()
	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatalf("button handler blocked the delivery goroutine")
	}
	if len(d.sentButtons()) != 0 {
		t.Fatalf("press finished before the hold was released")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- b.Stop() }()
	close(d.hold)
	if err := <-stopped; err != nil {
		t.Fatal(err)
	}
	if got := d.sentButtons(); len(got) != 1 || got[0] != cec.ButtonPlay {
		t.Fatalf("unexpected buttons %v", got)
	}
}

func TestPowerRequests(t *testing.T) {
	b, c, d := newTestBridge("")
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"ON", "off", "standby", "toggle"} {
		c.deliver(t, "pitvremote/power/set", p)
	}
	if len(d.power) != 3 || d.power[0] != "on" || d.power[1] != "off" || d.power[2] != "off" {
		t.Fatalf("unexpected power calls %v", d.power)
	}
}

func TestCommandRequests(t *testing.T) {
	b, c, d := newTestBridge("")
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}

	c.deliver(t, "pitvremote/command/set", `{"destination":5,"opcode":68,"parameters":[65]}`)
	for _, bad := range []string{
		`nope`,
		`{"destination":0}`,
		`{"destination":16,"opcode":54}`,
		`{"destination":0,"opcode":54,"parameters":[256]}`,
	} {
		c.deliver(t, "pitvremote/command/set", bad)
	}

	if len(d.raw) != 1 {
		t.Fatalf("got %d commands, want 1", len(d.raw))
	}
	cmd := d.raw[0]
	if cmd.Opcode != cec.OpcodeUserControlPressed || cmd.Destination != cec.LogicalAddressAudioSystem || len(cmd.Parameters) != 1 || cmd.Parameters[0] != 0x41 {
		t.Fatalf("unexpected command %s", cmd)
	}
}

func TestOnKeyPressPublishes(t *testing.T) {
	b, c, _ := newTestBridge("")
	if err := b.OnKeyPress(cec.KeyPress{Button: cec.ButtonPlay, Code: 0x44, Released: true, Duration: 1500 * time.Millisecond}); err != nil {
		t.Fatal(err)
	}
	if len(c.pubs) != 1 || c.pubs[0].topic != "pitvremote/key" || c.pubs[0].retain {
		t.Fatalf("unexpected publications %+v", c.pubs)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(c.pubs[0].payload), &got); err != nil {
		t.Fatal(err)
	}
	if got["button"] != "play" || got["code"] != float64(0x44) || got["released"] != true || got["duration_ms"] != float64(1500) {
		t.Fatalf("unexpected payload %v", got)
	}
}
