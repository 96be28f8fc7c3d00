// Package mqttbridge publishes remote key events to MQTT and accepts button,
// power and raw command requests from it.
package mqttbridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"pitvremote/cec"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "pitvremote"

const (
	stateOnline  = "online"
	stateOffline = "offline"
)

// Device is the part of cec.Adapter the bridge drives.
type Device interface {
	PowerOnTV() error
	StandbyTV() error
	SendRemoteButton(b cec.Button) error
	SendCommand(op cec.Opcode, destination cec.LogicalAddress, parameters []uint8) error
}

// Bridge connects an MQTT client to a CEC device.
type Bridge struct {
	client ClientAPI
	device Device
	prefix string
	log    *slog.Logger

	// sends tracks button presses in flight.
	sends sync.WaitGroup
}

func New(client ClientAPI, device Device, prefix string, log *slog.Logger) *Bridge {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		client: client,
		device: device,
		prefix: strings.TrimSuffix(prefix, "/"),
		log:    log,
	}
}

// Topic joins name onto the bridge prefix.
func (b *Bridge) Topic(name string) string {
	return b.prefix + "/" + name
}

// StateTopic is where the retained availability is published.
func StateTopic(prefix string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return strings.TrimSuffix(prefix, "/") + "/state"
}

// Start subscribes to the request topics and marks the bridge online.
func (b *Bridge) Start() error {
	subs := map[string]Handler{
		b.Topic("button/set"):  b.handleButton,
		b.Topic("power/set"):   b.handlePower,
		b.Topic("command/set"): b.handleCommand,
	}
	for topic, h := range subs {
		if err := b.client.Subscribe(topic, h); err != nil {
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}
	}
	return b.client.PublishWith(b.Topic("state"), []byte(stateOnline), true)
}

// Stop unsubscribes, waits for button presses in flight and marks the
// bridge offline.
func (b *Bridge) Stop() error {
	for _, name := range []string{"button/set", "power/set", "command/set"} {
		if err := b.client.Unsubscribe(b.Topic(name)); err != nil {
			b.log.Warn("mqtt unsubscribe failed", "topic", b.Topic(name), "error", err)
		}
	}
	b.sends.Wait()
	return b.client.PublishWith(b.Topic("state"), []byte(stateOffline), true)
}

type keyEvent struct {
	Button     cec.Button `json:"button"`
	Code       uint8      `json:"code"`
	Released   bool       `json:"released"`
	DurationMs int64      `json:"duration_ms"`
}

// OnKeyPress publishes ev on <prefix>/key. Register it with the adapter.
func (b *Bridge) OnKeyPress(ev cec.KeyPress) error {
	payload, err := json.Marshal(keyEvent{
		Button:     ev.Button,
		Code:       ev.Code,
		Released:   ev.Released,
		DurationMs: ev.Duration.Milliseconds(),
	})
	if err != nil {
		return err
	}
	if err := b.client.Publish(b.Topic("key"), payload); err != nil {
		return fmt.Errorf("publish key event: %w", err)
	}
	return nil
}

// handleButton sends off the paho delivery goroutine: a press blocks for
// the configured hold time.
func (b *Bridge) handleButton(_ mqtt.Client, msg Message) {
	name := strings.TrimSpace(string(msg.Payload()))
	btn, err := cec.ParseButton(name)
	if err != nil {
		b.log.Warn("mqtt button request rejected", "topic", msg.Topic(), "error", err)
		return
	}
	b.sends.Add(1)
	go func() {
		defer b.sends.Done()
		if err := b.device.SendRemoteButton(btn); err != nil {
			b.log.Error("mqtt button request failed", "button", btn.String(), "error", err)
		}
	}()
}

func (b *Bridge) handlePower(_ mqtt.Client, msg Message) {
	var err error
	switch v := strings.ToUpper(strings.TrimSpace(string(msg.Payload()))); v {
	case "ON":
		err = b.device.PowerOnTV()
	case "OFF", "STANDBY":
		err = b.device.StandbyTV()
	default:
		b.log.Warn("mqtt power request rejected", "payload", v)
		return
	}
	if err != nil {
		b.log.Error("mqtt power request failed", "error", err)
	}
}

type commandRequest struct {
	Destination int   `json:"destination"`
	Opcode      *int  `json:"opcode"`
	Parameters  []int `json:"parameters"`
}

func (b *Bridge) handleCommand(_ mqtt.Client, msg Message) {
	var req commandRequest
	if err := json.Unmarshal(msg.Payload(), &req); err != nil {
		b.log.Warn("mqtt command request rejected", "error", err)
		return
	}
	if req.Opcode == nil || *req.Opcode < 0 || *req.Opcode > 0xFF {
		b.log.Warn("mqtt command request rejected", "error", "opcode missing or out of range")
		return
	}
	if req.Destination < 0 || req.Destination > 15 {
		b.log.Warn("mqtt command request rejected", "error", "destination out of range", "destination", req.Destination)
		return
	}
	params := make([]uint8, len(req.Parameters))
	for i, p := range req.Parameters {
		if p < 0 || p > 0xFF {
			b.log.Warn("mqtt command request rejected", "error", "parameter out of range", "index", i)
			return
		}
		params[i] = uint8(p)
	}

	err := b.device.SendCommand(cec.Opcode(*req.Opcode), cec.LogicalAddress(req.Destination), params)
	if err != nil {
		b.log.Error("mqtt command request failed", "error", err)
	}
}
