// Package config holds the command line groups and the files and strings
// the pairing command is pointed at.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"dio.wtf/joypair/joycontrol/flash"
)

type Log struct {
	Level string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"JOYPAIR_LOG_LEVEL"`
	File  string `help:"Log file path (default: none; logs only to console)" env:"JOYPAIR_LOG_FILE"`
}

const (
	DefaultName = "Pro Controller"
	// DefaultClassOfDevice is a peripheral gamepad.
	DefaultClassOfDevice uint32 = 0x002508
)

// DeviceConfig describes the controller we pretend to be. JSON files work
// too since they are valid YAML.
type DeviceConfig struct {
	Name          string `yaml:"name" toml:"name"`
	ClassOfDevice uint32 `yaml:"class_of_device" toml:"class_of_device"`
	Keystore      string `yaml:"keystore" toml:"keystore"`
	Address       string `yaml:"address" toml:"address"`
	BodyColour    string `yaml:"body_colour" toml:"body_colour"`
	ButtonColour  string `yaml:"button_colour" toml:"button_colour"`
}

func LoadDevice(path string) (*DeviceConfig, error) {
	data, err := os.ReadFile(path)
	if nil != err {
		return nil, err
	}

	d := &DeviceConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, d)
	default:
		err = yaml.Unmarshal(data, d)
	}
	if nil != err {
		return nil, fmt.Errorf("device config %s: %w", path, err)
	}

	if d.Name == "" {
		d.Name = DefaultName
	}
	if d.ClassOfDevice == 0 {
		d.ClassOfDevice = DefaultClassOfDevice
	}
	if _, err := d.Palette(); nil != err {
		return nil, fmt.Errorf("device config %s: %w", path, err)
	}
	return d, nil
}

// Class formats the class of device the way hciconfig takes it.
func (d *DeviceConfig) Class() string {
	return fmt.Sprintf("0x%06X", d.ClassOfDevice)
}

// Palette returns the controller colours, falling back to the stock ones.
func (d *DeviceConfig) Palette() (flash.Palette, error) {
	p := flash.DefaultPalette
	if d.BodyColour != "" {
		c, err := parseColour(d.BodyColour)
		if nil != err {
			return p, fmt.Errorf("body_colour: %w", err)
		}
		p.Body = c
	}
	if d.ButtonColour != "" {
		c, err := parseColour(d.ButtonColour)
		if nil != err {
			return p, fmt.Errorf("button_colour: %w", err)
		}
		p.Buttons = c
	}
	return p, nil
}

// parseColour takes RRGGBB with or without a leading '#'.
func parseColour(s string) (c [3]byte, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	b, err := hex.DecodeString(s)
	if nil != err {
		return c, fmt.Errorf("colour %q: %w", s, err)
	}
	if len(b) != 3 {
		return c, fmt.Errorf("colour %q: want RRGGBB", s)
	}
	copy(c[:], b)
	return c, nil
}
