// Command pitvremote makes a Raspberry Pi appear as a CEC device to the TV,
// reports remote key presses and optionally exposes the adapter over HTTP,
// MQTT and a virtual keyboard.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pitvremote/cec"
	"pitvremote/httpapi"
	"pitvremote/keyboard"
	"pitvremote/libcec"
	"pitvremote/metrics"
	"pitvremote/mqttbridge"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "pitvremote",
		Short:         "CEC adapter for Raspberry Pi",
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := newLogger(o.debug)
			err := run(ctx, o, log)
			if err != nil {
				log.Error("pitvremote stopped with error", "error", err)
			}
			return err
		},
	}
	bindFlags(cmd, o)
	return cmd
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, o *options, log *slog.Logger) error {
	cfg, err := o.configuration()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	events := httpapi.NewEventLog()

	// libcec answers the protocol queries itself.
	adapter, err := cec.NewAdapter(&libcec.Bus{AdapterPath: o.adapter, Log: log}, cfg,
		cec.WithLogger(log),
		cec.WithObserver(collector),
		cec.WithObserver(events),
		cec.WithDefaultReplies(false),
	)
	if err != nil {
		return err
	}

	log.Info("initializing CEC adapter", "name", cfg.DeviceName, "physical_address", cec.PhysicalAddressToString(cfg.PhysicalAddress))
	if err := adapter.Init(); err != nil {
		return err
	}
	defer func() {
		if err := adapter.Shutdown(); err != nil {
			log.Warn("adapter shutdown", "error", err)
		}
	}()

	registerButtonLogging(adapter, log)
	adapter.OnKeyPress(events.OnKeyPress)

	if o.uinput != "" {
		kb, err := keyboard.Open(o.uinput, cfg.DeviceName)
		if err != nil {
			return err
		}
		fwd := keyboard.NewForwarder(kb, nil, log)
		defer fwd.Close()
		adapter.OnKeyPress(fwd.OnKeyPress)
		log.Info("forwarding remote buttons to virtual keyboard", "device", o.uinput)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if o.mqttBroker != "" {
		client, err := mqttbridge.Dial(o.mqttBroker, mqttbridge.StateTopic(o.mqttPrefix), log)
		if err != nil {
			return err
		}
		bridge := mqttbridge.New(client, adapter, o.mqttPrefix, log)
		if err := bridge.Start(); err != nil {
			client.Disconnect()
			return err
		}
		adapter.OnKeyPress(bridge.OnKeyPress)
		g.Go(func() error {
			<-gctx.Done()
			if err := bridge.Stop(); err != nil {
				log.Warn("mqtt bridge stop", "error", err)
			}
			client.Disconnect()
			return nil
		})
	}

	if o.httpAddr != "" {
		srv := httpapi.NewServer(adapter, events,
			httpapi.WithLogger(log),
			httpapi.WithMetrics(collector.Handler(), collector.Middleware),
		)
		g.Go(func() error { return srv.ListenAndServe(gctx, o.httpAddr) })
	}

	g.Go(func() error {
		defer cancel()
		err := adapter.Run(gctx, cfg.Duration)
		if errors.Is(err, context.Canceled) {
			log.Info("interrupted, shutting down")
			return nil
		}
		return err
	})

	return g.Wait()
}

// registerButtonLogging logs the common remote buttons as they are pressed.
func registerButtonLogging(adapter *cec.Adapter, log *slog.Logger) {
	buttons := []cec.Button{
		cec.ButtonUp, cec.ButtonDown, cec.ButtonLeft, cec.ButtonRight,
		cec.ButtonSelect, cec.ButtonBack,
		cec.ButtonStop, cec.ButtonPlay, cec.ButtonPause, cec.ButtonRewind, cec.ButtonFastForward,
		cec.ButtonBlue, cec.ButtonRed, cec.ButtonGreen, cec.ButtonYellow,
		cec.ButtonVolumeUp, cec.ButtonVolumeDown, cec.ButtonMute,
		cec.Button0, cec.Button1, cec.Button2, cec.Button3, cec.Button4,
		cec.Button5, cec.Button6, cec.Button7, cec.Button8, cec.Button9,
	}
	for _, b := range buttons {
		adapter.OnButton(b, func(ev cec.KeyPress) error {
			if ev.Released {
				log.Debug("button released", "button", ev.Button.String(), "held", ev.Duration)
				return nil
			}
			log.Info("button pressed", "button", ev.Button.String(), "code", ev.Code)
			return nil
		})
	}
}
