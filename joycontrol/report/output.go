package report

import (
	"errors"
	"fmt"
	"strings"
)

const (
	OutputReportHeader byte = 0xA2
	OutputReportLength int  = 50

	// MinOutputReportLength covers the header, report id, counter and rumble
	// data, all a rumble-only or NFC data request carries.
	MinOutputReportLength int = 11
	// MinSubcommandReportLength adds the subcommand id.
	MinSubcommandReportLength int = 12

	subcommandOffset = 11
	// PayloadLength is the fixed size of the subcommand arguments.
	PayloadLength = OutputReportLength - subcommandOffset - 1
)

var ErrMalformedReport = errors.New("malformed report")

// InboundReport is a decoded report sent from the Switch to the Controller.
type InboundReport struct {
	ReportId   OutputReportId
	Counter    byte
	Rumble     [8]byte
	Subcommand Subcommand
	Payload    [PayloadLength]byte
}

// HasSubcommand reports whether the report carries a subcommand at all;
// rumble-only and NFC data requests do not.
func (o InboundReport) HasSubcommand() bool {
	return o.ReportId == RumbleAndSubcommand
}

// Decode parses a raw HID interrupt transfer from the console.
func Decode(raw []byte) (o InboundReport, err error) {
	if len(raw) < 2 {
		err = fmt.Errorf("%w: too short (%d bytes)", ErrMalformedReport, len(raw))
		return
	}
	if raw[0] != OutputReportHeader {
		err = fmt.Errorf("%w: bad header 0x%02X", ErrMalformedReport, raw[0])
		return
	}
	id := OutputReportId(raw[1])
	if !id.Known() {
		err = fmt.Errorf("%w: unknown output report id 0x%02X", ErrMalformedReport, raw[1])
		return
	}
	minLength := MinOutputReportLength
	if id == RumbleAndSubcommand {
		minLength = MinSubcommandReportLength
	}
	if len(raw) < minLength {
		err = fmt.Errorf("%w: too short (%d bytes)", ErrMalformedReport, len(raw))
		return
	}

	o.ReportId = id
	o.Counter = raw[2]
	copy(o.Rumble[:], raw[3:subcommandOffset])
	if id == RumbleAndSubcommand {
		o.Subcommand = Subcommand(raw[subcommandOffset])
		end := min(len(raw), OutputReportLength)
		copy(o.Payload[:], raw[subcommandOffset+1:end])
	}
	return
}

func (o InboundReport) String() string {
	var builder strings.Builder
	if o.HasSubcommand() {
		builder.WriteString(fmt.Sprintf("--- %s Msg ---", o.Subcommand))
	} else {
		builder.WriteString(fmt.Sprintf("--- %s Msg ---", o.ReportId))
	}
	builder.WriteString(fmt.Sprintf("\nCounter:    0x%02X", o.Counter))
	builder.WriteString("\nRumble:     ")
	builder.WriteString(hexBytes(o.Rumble[:]))
	if o.HasSubcommand() {
		builder.WriteString("\nSubcommand: ")
		builder.WriteString(hexBytes(o.Payload[:]))
	}
	return builder.String()
}
