package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dio.wtf/joypair/joycontrol/flash"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDevice(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    DeviceConfig
	}{
		{
			name:    "bumble json",
			file:    "pro_controller.json",
			content: `{"name": "Pro Controller", "class_of_device": 9480, "keystore": "JsonKeyStore"}`,
			want:    DeviceConfig{Name: "Pro Controller", ClassOfDevice: 0x2508, Keystore: "JsonKeyStore"},
		},
		{
			name: "yaml",
			file: "pro.yaml",
			content: "name: Joy\nclass_of_device: 0x2508\naddress: '98:B6:E9:00:00:01'\n" +
				"body_colour: '#FF0000'\nbutton_colour: 00FF00\n",
			want: DeviceConfig{
				Name: "Joy", ClassOfDevice: 0x2508, Address: "98:B6:E9:00:00:01",
				BodyColour: "#FF0000", ButtonColour: "00FF00",
			},
		},
		{
			name:    "toml",
			file:    "pro.toml",
			content: "name = \"Pro\"\nclass_of_device = 0x2508\nkeystore = \"none\"\n",
			want:    DeviceConfig{Name: "Pro", ClassOfDevice: 0x2508, Keystore: "none"},
		},
		{
			name:    "defaults",
			file:    "empty.json",
			content: `{}`,
			want:    DeviceConfig{Name: DefaultName, ClassOfDevice: DefaultClassOfDevice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := LoadDevice(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, *d)
		})
	}
}

func TestLoadDeviceErrors(t *testing.T) {
	_, err := LoadDevice(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadDevice(writeFile(t, "bad.json", `{"name": [`))
	assert.Error(t, err)

	_, err = LoadDevice(writeFile(t, "colour.yaml", "body_colour: red\n"))
	assert.ErrorContains(t, err, "body_colour")
}

func TestDevicePalette(t *testing.T) {
	d := &DeviceConfig{BodyColour: "#102030"}
	p, err := d.Palette()
	require.NoError(t, err)
	assert.Equal(t, [3]byte{0x10, 0x20, 0x30}, p.Body)
	assert.Equal(t, flash.DefaultPalette.Buttons, p.Buttons)

	d = &DeviceConfig{ButtonColour: "1020"}
	_, err = d.Palette()
	assert.Error(t, err)
}

func TestDeviceClass(t *testing.T) {
	d := &DeviceConfig{ClassOfDevice: DefaultClassOfDevice}
	assert.Equal(t, "0x002508", d.Class())
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		in   string
		want TransportSpec
	}{
		{"usb:0a12:0001", TransportSpec{Kind: USBDevice, VendorID: 0x0A12, ProductID: 0x0001}},
		{"usb:2357:0604", TransportSpec{Kind: USBDevice, VendorID: 0x2357, ProductID: 0x0604}},
		{"usb:0", TransportSpec{Kind: USBIndex, Index: 0}},
		{"usb:2", TransportSpec{Kind: USBIndex, Index: 2}},
		{"hci1", TransportSpec{Kind: HCI, Adapter: "hci1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTransport(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestParseTransportInvalid(t *testing.T) {
	for _, in := range []string{"", "usb:", "usb:zz:0001", "usb:0a12:10000", "usb:1:2:3", "usb:-1", "hci", "hcix", "serial:/dev/ttyUSB0"} {
		_, err := ParseTransport(in)
		assert.ErrorIs(t, err, ErrInvalidTransport, in)
	}
}

func TestResolveAddress(t *testing.T) {
	addr, err := ResolveAddress("", "")
	require.NoError(t, err)
	assert.Equal(t, "98:b6:e9:12:34:57", addr.String())

	addr, err = ResolveAddress("", "DC:A6:32:C4:DC:93")
	require.NoError(t, err)
	assert.Equal(t, "dc:a6:32:c4:dc:93", addr.String())

	addr, err = ResolveAddress("01:02:03:04:05:06", "DC:A6:32:C4:DC:93")
	require.NoError(t, err)
	assert.Equal(t, "01:02:03:04:05:06", addr.String())

	_, err = ResolveAddress("not-a-mac")
	assert.Error(t, err)
	_, err = ParseAddress("00:00:5e:00:53:01:02:03")
	assert.Error(t, err)
}
