package report

import (
	"fmt"
	"strings"
)

const (
	InputReportHeader byte = 0xA1
	InputReportLength int  = 50

	ackOffset     = 14
	ackDataOffset = 16
	// MaxAckData is the room left for reply data after the ack and echo bytes.
	MaxAckData = InputReportLength - ackDataOffset
)

// Ack bytes. The high bit marks an ACK, the low bits carry the reply data type.
const (
	Nack          byte = 0x00
	AckNoData     byte = 0x80
	AckWithData   byte = 0x82
	AckElapsed    byte = 0x83
	AckSpiRead    byte = 0x90
	AckMcuConfig  byte = 0xA0
)

// Standard is the part every 0x21/0x30 report carries ahead of its body.
type Standard struct {
	Counter    byte
	Battery    byte // Battery level + Connection info
	Buttons    [3]byte
	LeftStick  [3]byte
	RightStick [3]byte
	Vibrator   byte
}

// OutboundReport is either an Ack or a PeriodicInput.
type OutboundReport interface {
	header() Standard
}

// Ack answers a subcommand with report id 0x21.
type Ack struct {
	Standard
	AckByte    byte
	Subcommand Subcommand
	Data       []byte
}

func (a Ack) header() Standard { return a.Standard }

// PeriodicInput is the input state report pushed at a fixed cadence.
// Simple HID reports have no counter byte, so Standard.Counter is dropped
// for them; the caller still spends a sequence number on each one.
type PeriodicInput struct {
	Standard
	Mode       InputReportMode
	ImuEnabled bool
}

func (p PeriodicInput) header() Standard { return p.Standard }

var imuData = [...]byte{
	0x75, 0xFD, 0xFD, 0xFF, 0x09, 0x10, 0x21, 0x00, 0xD5,
	0xFF, 0xE0, 0xFF, 0x72, 0xFD, 0xF9, 0xFF, 0x0A, 0x10,
	0x22, 0x00, 0xD5, 0xFF, 0xE0, 0xFF, 0x76, 0xFD, 0xFC,
	0xFF, 0x09, 0x10, 0x23, 0x00, 0xD5, 0xFF, 0xE0, 0xFF}

// Encode serialises an outbound report into a fixed length interrupt transfer.
func Encode(r OutboundReport) []byte {
	i := InputReport(make([]byte, InputReportLength))
	i[0] = InputReportHeader

	switch r := r.(type) {
	case Ack:
		i.SetReportId(SubcommandReplies)
		i.FillStandardData(r.Standard)
		i[ackOffset] = r.AckByte
		i[ackOffset+1] = byte(r.Subcommand)
		copy(i[ackDataOffset:], r.Data)
	case PeriodicInput:
		if r.Mode == SimpleHidMode {
			i.fillSimpleHid(r.Standard)
			break
		}
		mode := r.Mode
		if !mode.Valid() {
			mode = StandardFullMode
		}
		i.SetReportId(InputReportId(mode))
		i.FillStandardData(r.Standard)
		if r.ImuEnabled {
			copy(i[ackOffset:], imuData[:])
		}
	}
	return i
}

// InputReport represents report sent from the Controller to the Switch.
type InputReport []byte

func (i InputReport) Id() InputReportId {
	return InputReportId(i[1])
}

func (i InputReport) SetReportId(id InputReportId) {
	i[1] = byte(id)
}

func (i InputReport) FillStandardData(s Standard) {
	i[2] = s.Counter
	i[3] = s.Battery

	copy(i[4:7], s.Buttons[:])
	copy(i[7:10], s.LeftStick[:])
	copy(i[10:13], s.RightStick[:])

	i[13] = s.Vibrator
}

// Simple HID mode has no timer and reports a hat switch plus four 16 bit axes.
func (i InputReport) fillSimpleHid(s Standard) {
	i.SetReportId(SimpleHidId)

	right, shared, left := s.Buttons[0], s.Buttons[1], s.Buttons[2]
	var b1 byte
	for _, m := range []struct {
		src  byte
		bit  byte
		dest byte
	}{
		{right, 0x04, 0x01}, // B
		{right, 0x08, 0x02}, // A
		{right, 0x01, 0x04}, // Y
		{right, 0x02, 0x08}, // X
		{left, 0x40, 0x10},  // L
		{right, 0x40, 0x20}, // R
		{left, 0x80, 0x40},  // ZL
		{right, 0x80, 0x80}, // ZR
	} {
		if m.src&m.bit != 0 {
			b1 |= m.dest
		}
	}
	i[2] = b1
	i[3] = shared&0x03 | (shared&0x08)>>1 | (shared&0x04)<<1 | shared&0x30
	i[4] = hat(left)

	lx, ly := unpackStick(s.LeftStick)
	rx, ry := unpackStick(s.RightStick)
	for n, v := range []uint16{lx, ly, rx, ry} {
		v <<= 4
		i[5+2*n] = byte(v)
		i[6+2*n] = byte(v >> 8)
	}
}

func hat(left byte) byte {
	down, up := left&0x01 != 0, left&0x02 != 0
	right, l := left&0x04 != 0, left&0x08 != 0
	switch {
	case up && right:
		return 1
	case down && right:
		return 3
	case down && l:
		return 5
	case up && l:
		return 7
	case up:
		return 0
	case right:
		return 2
	case down:
		return 4
	case l:
		return 6
	}
	return 8
}

// PackStick packs two 12 bit axis values the way the controller reports them.
func PackStick(x, y uint16) [3]byte {
	x &= 0xFFF
	y &= 0xFFF
	return [3]byte{byte(x), byte(x>>8) | byte(y<<4), byte(y >> 4)}
}

func unpackStick(b [3]byte) (x, y uint16) {
	x = uint16(b[0]) | uint16(b[1]&0x0F)<<8
	y = uint16(b[1]>>4) | uint16(b[2])<<4
	return
}

func (i InputReport) String() string {
	var builder strings.Builder

	if i.Id() == SubcommandReplies {
		builder.WriteString(fmt.Sprintf("--- %s Msg ---", Subcommand(i[15]).String()))
	}
	builder.WriteString("\nPayload:    ")
	builder.WriteString(hexBytes(i[:14]))
	builder.WriteString("\nSubcommand: ")
	builder.WriteString(hexBytes(i[14:]))
	return builder.String()
}
