package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dio.wtf/joypair/joycontrol/log"
)

func deviceFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("joypair"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestPairIsDefaultCommand(t *testing.T) {
	dev := deviceFile(t, "name: Pro Controller\n")

	cli, ctx := parse(t, dev, "usb:0a12:0001")
	assert.True(t, strings.HasPrefix(ctx.Command(), "pair "), ctx.Command())
	assert.Equal(t, dev, cli.Pair.DeviceConfig)
	assert.Equal(t, "usb:0a12:0001", cli.Pair.Transport)
	assert.Empty(t, cli.Pair.Address)
	assert.Equal(t, "switch_packets.log", cli.Pair.PacketLog)
	assert.Equal(t, 15.0, cli.Pair.Rate)
	assert.Equal(t, 132.0, cli.Pair.ActiveRate)
	assert.True(t, cli.Pair.Compat)
	assert.False(t, cli.Pair.TUI)
	assert.Equal(t, "info", cli.Log.Level)
}

func TestPairFlags(t *testing.T) {
	dev := deviceFile(t, "name: Pro Controller\n")

	cli, _ := parse(t, "--log.level=debug", "pair", dev, "hci1", "94:58:CB:00:00:01",
		"--rate=30", "--no-compat", "--tui", "--packet-log=/tmp/p.log")
	assert.Equal(t, "debug", cli.Log.Level)
	assert.Equal(t, "94:58:CB:00:00:01", cli.Pair.Address)
	assert.Equal(t, 30.0, cli.Pair.Rate)
	assert.False(t, cli.Pair.Compat)
	assert.True(t, cli.Pair.TUI)
	assert.Equal(t, "/tmp/p.log", cli.Pair.PacketLog)
}

func TestForgetCommand(t *testing.T) {
	cli, ctx := parse(t, "forget", "hci0", "94:58:CB:00:00:01")
	assert.True(t, strings.HasPrefix(ctx.Command(), "forget "), ctx.Command())
	assert.Equal(t, "hci0", cli.Forget.Transport)
}

// Both commands check their input before touching the adapter.
func TestRunRejectsBadInput(t *testing.T) {
	l := log.Discard()

	err := (&Forget{Transport: "hci0", Address: "not-a-mac"}).Run(l)
	assert.Error(t, err)

	err = (&Forget{Transport: "bt0", Address: "94:58:CB:00:00:01"}).Run(l)
	assert.Error(t, err)

	err = (&Pair{DeviceConfig: deviceFile(t, "body_colour: zzzzzz\n"), Transport: "hci0"}).Run(l)
	assert.Error(t, err)

	err = (&Pair{DeviceConfig: deviceFile(t, "name: Pro Controller\n"), Transport: "usb:"}).Run(l)
	assert.Error(t, err)
}
