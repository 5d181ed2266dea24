package report

import "fmt"

// https://github.com/dekuNukem/Nintendo_Switch_Reverse_Engineering/blob/master/bluetooth_hid_notes.md

type OutputReportId uint8

const (
	RumbleAndSubcommand OutputReportId = 0x01
	UpdateNfcPacket     OutputReportId = 0x03
	RumbleOnly          OutputReportId = 0x10
	RequestNfcData      OutputReportId = 0x11
)

func (o OutputReportId) Known() bool {
	switch o {
	case RumbleAndSubcommand, UpdateNfcPacket, RumbleOnly, RequestNfcData:
		return true
	}
	return false
}

func (o OutputReportId) String() string {
	switch o {
	case 0x01:
		return "RumbleAndSubcommand"
	case 0x03:
		return "UpdateNfcPacket"
	case 0x10:
		return "RumbleOnly"
	case 0x11:
		return "RequestNfcData"
	default:
		return "UNKNOWN"
	}
}

type InputReportId uint8

const (
	SubcommandReplies  InputReportId = 0x21
	StandardFullModeId InputReportId = 0x30
	NfcMcuModeId       InputReportId = 0x31
	SimpleHidId        InputReportId = 0x3F
)

// InputReportMode is selected by the console through SetInputReportMode and
// decides which report id the periodic reports carry.
type InputReportMode uint8

const (
	StandardFullMode InputReportMode = 0x30
	NfcMode          InputReportMode = 0x31
	SimpleHidMode    InputReportMode = 0x3F
)

func (m InputReportMode) Valid() bool {
	return m == StandardFullMode || m == NfcMode || m == SimpleHidMode
}

func (m InputReportMode) String() string {
	switch m {
	case StandardFullMode:
		return "standard"
	case NfcMode:
		return "nfc/ir"
	case SimpleHidMode:
		return "simpleHID"
	default:
		return fmt.Sprintf("mode(0x%02X)", uint8(m))
	}
}

// https://github.com/dekuNukem/Nintendo_Switch_Reverse_Engineering/blob/master/bluetooth_hid_subcommands_notes.md
type Subcommand uint8

const (
	RequestDeviceInfo         Subcommand = 0x02
	SetInputReportMode        Subcommand = 0x03
	TriggerButtonsElapsedTime Subcommand = 0x04
	SetShipmentLowPowerState  Subcommand = 0x08
	SpiFlashRead              Subcommand = 0x10
	SetNfcMcuConfig           Subcommand = 0x21
	SetNfcMcuState            Subcommand = 0x22
	SetPlayerLights           Subcommand = 0x30
	EnableImu                 Subcommand = 0x40
	EnableVibration           Subcommand = 0x48
)

func (s Subcommand) String() string {
	switch s {
	case 0x02:
		return "RequestDeviceInfo"
	case 0x03:
		return "SetInputReportMode"
	case 0x04:
		return "TriggerButtonsElapsedTime"
	case 0x08:
		return "SetShipmentLowPowerState"
	case 0x10:
		return "SpiFlashRead"
	case 0x21:
		return "SetNfcMcuConfig"
	case 0x22:
		return "SetNfcMcuState"
	case 0x30:
		return "SetPlayerLights"
	case 0x40:
		return "EnableImu"
	case 0x48:
		return "EnableVibration"
	default:
		return "UNKNOWN"
	}
}

type McuCommand uint8

const (
	SetMcuMode           McuCommand = 0x21
	RequestMcuStatus     McuCommand = 0x01
	RequestNfcDataReport McuCommand = 0x02
	RequestIrDataReport  McuCommand = 0x03
)

func (m McuCommand) String() string {
	switch m {
	case 0x21:
		return "SetMcuMode"
	case 0x01:
		return "RequestMcuStatus"
	case 0x02:
		return "RequestNfcDataReport"
	case 0x03:
		return "RequestIrDataReport"
	default:
		return "UNKNOWN"
	}
}

func hexBytes(b []byte) string {
	s := make([]byte, 0, len(b)*5)
	for _, p := range b {
		s = fmt.Appendf(s, "0x%02X ", p)
	}
	return string(s)
}
