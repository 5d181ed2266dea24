// Package cmd holds the commands kong dispatches to.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"dio.wtf/joypair/joycontrol"
	"dio.wtf/joypair/joycontrol/bluez"
	"dio.wtf/joypair/joycontrol/config"
	"dio.wtf/joypair/joycontrol/controller"
	"dio.wtf/joypair/joycontrol/flash"
	"dio.wtf/joypair/joycontrol/log"
	"dio.wtf/joypair/joycontrol/status"
)

// CLI is the root command structure for kong.
type CLI struct {
	config.Log `embed:"" prefix:"log."`

	Config string `help:"Config file (json, yaml or toml) with flag defaults" type:"path" env:"JOYPAIR_CONFIG"`

	Pair   Pair   `cmd:"" default:"withargs" help:"Emulate a Pro Controller and pair with a Switch"`
	Forget Forget `cmd:"" help:"Remove a stored pairing with a Switch"`
}

type Pair struct {
	DeviceConfig string `arg:"" type:"existingfile" help:"Device config (json, yaml or toml)"`
	Transport    string `arg:"" help:"Adapter: hciN, usb:<index> or usb:<vid>:<pid>"`
	Address      string `arg:"" optional:"" help:"Bluetooth address to report to the console"`

	PacketLog  string  `help:"File every exchanged report is appended to" default:"switch_packets.log" env:"JOYPAIR_PACKET_LOG"`
	Rate       float64 `help:"Report rate while pairing, in Hz" default:"15"`
	ActiveRate float64 `help:"Report rate once paired, in Hz" default:"132"`
	TUI        bool    `help:"Show a live status view when stdout is a terminal"`
	Compat     bool    `help:"Restart bluetoothd without its input plugin" default:"true" negatable:""`
}

// Run is called by kong when the pair command is executed.
func (c *Pair) Run(logger log.Logger) error {
	dev, err := config.LoadDevice(c.DeviceConfig)
	if nil != err {
		return err
	}
	if dev.Keystore != "" {
		logger.DebugF("keystore %s ignored, pairings are kept by BlueZ", dev.Keystore)
	}
	palette, err := dev.Palette()
	if nil != err {
		return err
	}

	adapter, err := openAdapter(c.Transport, logger)
	if nil != err {
		return err
	}
	if c.Compat {
		if err := bluez.CompatMode(logger, true); nil != err {
			logger.WarnF("bluetoothd compat mode: %v", err)
		}
	}
	if err := adapter.Setup(dev.Name, dev.Class()); nil != err {
		return err
	}

	local, err := adapter.Address()
	if nil != err {
		logger.DebugF("adapter address: %v", err)
	}
	mac, err := config.ResolveAddress(c.Address, dev.Address, local)
	if nil != err {
		return err
	}

	packets, closePackets, err := log.OpenPacketLog(c.PacketLog)
	if nil != err {
		return err
	}
	defer closePackets.Close()

	ctrl := controller.NewController()
	protocol, err := joycontrol.NewProtocol(joycontrol.ProtocolOptions{
		MacAddr: mac,
		Flash:   flash.ProControllerWith(palette),
		Input:   ctrl,
		Mcu:     ctrl.Mcu(),
		Logger:  logger,
		Packets: packets,
	})
	if nil != err {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoF("Waiting for Switch to connect on %s as %s (%s)", adapter.ID(), dev.Name, mac)
	conn, err := adapter.Listen(ctx, dev.Class(), protocol)
	if nil != err {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	defer conn.Close()
	logger.InfoF("Switch %s connected", conn.Remote())

	server := joycontrol.NewServer(protocol, joycontrol.ServerOptions{
		Rate:       c.Rate,
		ActiveRate: c.ActiveRate,
		Logger:     logger,
	})
	if c.TUI && term.IsTerminal(int(os.Stdout.Fd())) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := status.Run(ctx, protocol, os.Stdin, os.Stdout); errors.Is(err, context.Canceled) {
				cancel()
			}
		}()
	}
	return server.Run(ctx, conn)
}

type Forget struct {
	Transport string `arg:"" help:"Adapter: hciN, usb:<index> or usb:<vid>:<pid>"`
	Address   string `arg:"" help:"Bluetooth address of the Switch"`
}

func (c *Forget) Run(logger log.Logger) error {
	if _, err := config.ParseAddress(c.Address); nil != err {
		return err
	}
	adapter, err := openAdapter(c.Transport, logger)
	if nil != err {
		return err
	}
	return adapter.Forget(c.Address)
}

func openAdapter(transport string, logger log.Logger) (*bluez.Adapter, error) {
	spec, err := config.ParseTransport(transport)
	if nil != err {
		return nil, err
	}
	id, err := bluez.ResolveAdapter(spec)
	if nil != err {
		return nil, err
	}
	adapter, err := bluez.NewAdapter(id, logger)
	if nil != err {
		return nil, fmt.Errorf("%s: %w", spec, err)
	}
	return adapter, nil
}
