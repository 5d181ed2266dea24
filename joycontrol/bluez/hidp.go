package bluez

import (
	"encoding/binary"

	R "dio.wtf/joypair/joycontrol/report"
)

// HIDP transaction types, high nibble of the header byte.
const (
	hidpHandshake   = 0x0
	hidpControl     = 0x1
	hidpGetReport   = 0x4
	hidpSetReport   = 0x5
	hidpGetProtocol = 0x6
	hidpSetProtocol = 0x7
	hidpData        = 0xA
)

// Handshake result codes.
const (
	handshakeSuccessful         = 0x0
	handshakeInvalidReportId    = 0x2
	handshakeUnsupportedRequest = 0x3
	handshakeInvalidParameter   = 0x4
)

const (
	reportTypeInput   = 0x1
	reportTypeOutput  = 0x2
	reportTypeFeature = 0x3

	controlVirtualCableUnplug = 0x5
	getReportSizeFlag         = 0x8

	protocolModeReport = 0x1
)

func handshake(code byte) []byte {
	return []byte{hidpHandshake<<4 | code}
}

// handleControl answers one control channel message. A nil reply means
// nothing goes back.
func handleControl(msg []byte, reports ReportGetter) (reply []byte, unplug bool) {
	if len(msg) == 0 {
		return nil, false
	}
	kind, param := msg[0]>>4, msg[0]&0x0F

	switch kind {
	case hidpControl:
		return nil, param == controlVirtualCableUnplug
	case hidpGetReport:
		if param&0x03 != reportTypeInput || len(msg) < 2 {
			return handshake(handshakeInvalidParameter), false
		}
		data := reports.GetReport(R.InputReportId(msg[1]))
		if data == nil {
			return handshake(handshakeInvalidReportId), false
		}
		if param&getReportSizeFlag != 0 && len(msg) >= 4 {
			if size := int(binary.LittleEndian.Uint16(msg[2:4])); size > 0 && size < len(data) {
				data = data[:size]
			}
		}
		return data, false
	case hidpSetReport:
		if param&0x03 == reportTypeFeature {
			return handshake(handshakeInvalidParameter), false
		}
		return handshake(handshakeSuccessful), false
	case hidpGetProtocol:
		return []byte{hidpData<<4 | 0x00, protocolModeReport}, false
	case hidpSetProtocol:
		return handshake(handshakeUnsupportedRequest), false
	default:
		return handshake(handshakeUnsupportedRequest), false
	}
}
