package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Direction string

const (
	RX Direction = "RX"
	TX Direction = "TX"
)

const packetTimeFormat = "2006-01-02 15:04:05,000"

// PacketLog appends one line per report exchanged with the console, for
// replaying real sessions offline. A nil *PacketLog drops everything.
type PacketLog struct {
	l *logrus.Logger
}

func NewPacketLog(w io.Writer) *PacketLog {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(packetFormatter{})
	return &PacketLog{l: l}
}

// OpenPacketLog opens path for appending, creating it if needed.
func OpenPacketLog(path string) (*PacketLog, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if nil != err {
		return nil, nil, fmt.Errorf("open packet log: %w", err)
	}
	return NewPacketLog(f), f, nil
}

func (p *PacketLog) Log(dir Direction, data []byte) {
	if p == nil {
		return
	}
	p.l.Info(FormatPacket(dir, data))
}

// FormatPacket renders the first 11 bytes as the payload and anything after
// as the subcommand id and its data. Reports with no subcommand part keep
// the trailing space, so lines stay column compatible with older logs.
func FormatPacket(dir Direction, data []byte) string {
	if len(data) < 11 {
		return fmt.Sprintf("%s: Too short (%d bytes)", dir, len(data))
	}

	sub := ""
	if len(data) > 11 {
		sub = fmt.Sprintf("| Sub: 0x%02X", data[11])
		if len(data) > 12 {
			sub += " " + hexJoin(data[12:])
		}
	}
	return fmt.Sprintf("[%s] Payload: %s %s", dir, hexJoin(data[:11]), sub)
}

func hexJoin(b []byte) string {
	parts := make([]string, len(b))
	for i, p := range b {
		parts[i] = fmt.Sprintf("%02X", p)
	}
	return strings.Join(parts, " ")
}

type packetFormatter struct{}

func (packetFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(e.Time.Format(packetTimeFormat) + " - " + e.Message + "\n"), nil
}
