package joycontrol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"dio.wtf/joypair/joycontrol/controller"
	"dio.wtf/joypair/joycontrol/flash"
	R "dio.wtf/joypair/joycontrol/report"
)

var ErrUnsupportedSubcommand = errors.New("unsupported subcommand")

// MaxSpiReadLength is the largest block a single SPI read reply can carry.
const MaxSpiReadLength = 0x1D

type Toggle uint8

const (
	Unchanged Toggle = iota
	On
	Off
)

func toggle(b byte) Toggle {
	if b == 0x01 {
		return On
	}
	return Off
}

// Effects are the session changes a subcommand asks for. Zero values mean
// "leave as is".
type Effects struct {
	PlayerNumber    uint8
	EnableVibration bool
	Imu             Toggle
	Mode            R.InputReportMode
	McuPower        Toggle
	McuMode         controller.McuMode
}

type Outcome struct {
	Reply   R.Ack
	Event   Event
	Effects Effects
}

type handler func(d *Dispatcher, args []byte, state PairingState) (Outcome, error)

var handlers = map[R.Subcommand]handler{
	R.RequestDeviceInfo:         (*Dispatcher).deviceInfo,
	R.SetInputReportMode:        (*Dispatcher).setMode,
	R.TriggerButtonsElapsedTime: (*Dispatcher).triggerButtonsElapsedTime,
	R.SetShipmentLowPowerState:  (*Dispatcher).setShipmentState,
	R.SpiFlashRead:              (*Dispatcher).spiRead,
	R.SetNfcMcuConfig:           (*Dispatcher).setNfcMcuConfig,
	R.SetNfcMcuState:            (*Dispatcher).setNfcMcuState,
	R.SetPlayerLights:           (*Dispatcher).setPlayerLights,
	R.EnableImu:                 (*Dispatcher).enableImu,
	R.EnableVibration:           (*Dispatcher).enableVibration,
}

// Dispatcher turns a subcommand into its reply and the state changes it
// implies. It never mutates anything itself.
type Dispatcher struct {
	macAddr [6]byte
	flash   *flash.Store
	mcu     *controller.MicroControllerUnit
}

func NewDispatcher(macAddr [6]byte, store *flash.Store, mcu *controller.MicroControllerUnit) *Dispatcher {
	return &Dispatcher{
		macAddr: macAddr,
		flash:   store,
		mcu:     mcu,
	}
}

// Dispatch always returns a usable reply. For an unknown subcommand the
// reply is a plain ACK echo and the error wraps ErrUnsupportedSubcommand.
func (d *Dispatcher) Dispatch(in R.InboundReport, state PairingState) (Outcome, error) {
	h, ok := handlers[in.Subcommand]
	if !ok {
		return Outcome{Reply: ack(R.AckNoData, in.Subcommand)},
			fmt.Errorf("%w: 0x%02X", ErrUnsupportedSubcommand, uint8(in.Subcommand))
	}
	return h(d, in.Payload[:], state)
}

func ack(b byte, sub R.Subcommand, data ...byte) R.Ack {
	return R.Ack{AckByte: b, Subcommand: sub, Data: data}
}

func (d *Dispatcher) deviceInfo(_ []byte, _ PairingState) (Outcome, error) {
	data := make([]byte, 0, 12)
	data = append(data,
		0x03, 0x8B, // Firmware version
		0x03, // Pro Controller
		0x02, // Unknown Byte, always 2
	)
	data = append(data, d.macAddr[:]...)
	data = append(data,
		0x01, // Unknown byte, always 1
		0x01, // Controller colours location
	)
	return Outcome{
		Reply: ack(R.AckWithData, R.RequestDeviceInfo, data...),
		Event: EventDeviceInfo,
	}, nil
}

func (d *Dispatcher) setMode(args []byte, _ PairingState) (Outcome, error) {
	o := Outcome{Reply: ack(R.AckNoData, R.SetInputReportMode)}
	if mode := R.InputReportMode(args[0]); mode.Valid() {
		o.Effects.Mode = mode
	}
	return o, nil
}

func (d *Dispatcher) triggerButtonsElapsedTime(_ []byte, _ PairingState) (Outcome, error) {
	return Outcome{Reply: ack(R.AckElapsed, R.TriggerButtonsElapsedTime)}, nil
}

func (d *Dispatcher) setShipmentState(_ []byte, _ PairingState) (Outcome, error) {
	return Outcome{Reply: ack(R.AckNoData, R.SetShipmentLowPowerState)}, nil
}

// https://github.com/dekuNukem/Nintendo_Switch_Reverse_Engineering/blob/master/spi_flash_notes.md
func (d *Dispatcher) spiRead(args []byte, state PairingState) (Outcome, error) {
	address := binary.LittleEndian.Uint32(args[0:4])
	length := args[4]

	// Address and length are echoed in both the success and error replies.
	echo := append([]byte(nil), args[:5]...)

	if length > MaxSpiReadLength {
		return Outcome{Reply: ack(R.Nack, R.SpiFlashRead, echo...)}, nil
	}
	data, err := d.flash.Read(address, uint32(length))
	if nil != err {
		return Outcome{Reply: ack(R.Nack, R.SpiFlashRead, echo...)}, nil
	}

	o := Outcome{Reply: ack(R.AckSpiRead, R.SpiFlashRead, append(echo, data...)...)}
	if d.flash.IsCalibration(address) && state < ReadingCalibration {
		o.Event = EventCalibrationRead
	}
	return o, nil
}

func (d *Dispatcher) setNfcMcuConfig(args []byte, _ PairingState) (Outcome, error) {
	o := Outcome{Reply: ack(R.AckMcuConfig, R.SetNfcMcuConfig, d.mcu.StateData()...)}
	if R.McuCommand(args[0]) == R.SetMcuMode {
		o.Effects.McuMode = controller.McuMode(args[2])
	}
	return o, nil
}

func (d *Dispatcher) setNfcMcuState(args []byte, _ PairingState) (Outcome, error) {
	return Outcome{
		Reply:   ack(R.AckNoData, R.SetNfcMcuState),
		Effects: Effects{McuPower: toggle(args[0])},
	}, nil
}

func (d *Dispatcher) setPlayerLights(args []byte, state PairingState) (Outcome, error) {
	o := Outcome{Reply: ack(R.AckNoData, R.SetPlayerLights)}
	player := PlayerNumber(args[0])
	if player == 0 {
		return o, nil
	}
	o.Effects.PlayerNumber = player
	if state != Paired {
		o.Event = EventPlayerAssigned
	}
	return o, nil
}

func (d *Dispatcher) enableImu(args []byte, _ PairingState) (Outcome, error) {
	return Outcome{
		Reply:   ack(R.AckNoData, R.EnableImu),
		Effects: Effects{Imu: toggle(args[0])},
	}, nil
}

func (d *Dispatcher) enableVibration(_ []byte, _ PairingState) (Outcome, error) {
	return Outcome{
		Reply:   ack(R.AckWithData, R.EnableVibration),
		Effects: Effects{EnableVibration: true},
	}, nil
}

// PlayerNumber decodes the player LED bitfield. The low nibble lights LEDs
// solid, the high nibble makes them flash; either identifies the player.
func PlayerNumber(lights byte) uint8 {
	pattern := lights & 0x0F
	if pattern == 0 {
		pattern = lights >> 4
	}
	switch pattern {
	case 0x0:
		return 0
	case 0x1:
		return 1
	case 0x3, 0x2:
		return 2
	case 0x7, 0x4:
		return 3
	case 0xF, 0x8:
		return 4
	case 0x9:
		return 5
	case 0xA:
		return 6
	case 0xB:
		return 7
	case 0x6:
		return 8
	default:
		return uint8(bits.OnesCount8(pattern))
	}
}
