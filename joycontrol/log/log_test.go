package log

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPacket(t *testing.T) {
	tests := []struct {
		name string
		dir  Direction
		data []byte
		want string
	}{
		{
			name: "too short",
			dir:  RX,
			data: []byte{0xA2, 0x01},
			want: "RX: Too short (2 bytes)",
		},
		{
			name: "payload only",
			dir:  TX,
			data: []byte{0xA1, 0x30, 0x00, 0x90, 0x00, 0x00, 0x00, 0x6F, 0xC8, 0x77, 0x16},
			want: "[TX] Payload: A1 30 00 90 00 00 00 6F C8 77 16 ",
		},
		{
			name: "with subcommand",
			dir:  RX,
			data: []byte{0xA2, 0x01, 0x00, 0x00, 0x01, 0x40, 0x40, 0x00, 0x01, 0x40, 0x40, 0x02, 0x00},
			want: "[RX] Payload: A2 01 00 00 01 40 40 00 01 40 40 | Sub: 0x02 00",
		},
		{
			name: "subcommand id only",
			dir:  RX,
			data: []byte{0xA2, 0x01, 0x00, 0x00, 0x01, 0x40, 0x40, 0x00, 0x01, 0x40, 0x40, 0x48},
			want: "[RX] Payload: A2 01 00 00 01 40 40 00 01 40 40 | Sub: 0x48",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPacket(tt.dir, tt.data))
		})
	}
}

func TestPacketLogLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewPacketLog(&buf)

	p.Log(RX, []byte{0xA2, 0x01, 0x00, 0x00, 0x01, 0x40, 0x40, 0x00, 0x01, 0x40, 0x40, 0x48, 0x01})
	p.Log(TX, make([]byte, 11))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	line := regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - \[(RX|TX)\] Payload: `)
	for _, l := range lines {
		assert.Regexp(t, line, l)
	}
	assert.True(t, strings.HasSuffix(lines[0], "| Sub: 0x48 01"))
}

func TestNilPacketLog(t *testing.T) {
	var p *PacketLog
	assert.NotPanics(t, func() { p.Log(TX, []byte{0xA1}) })
}

func TestOpenPacketLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "switch_packets.log")

	for i := 0; i < 2; i++ {
		p, closer, err := OpenPacketLog(path)
		require.NoError(t, err)
		p.Log(RX, make([]byte, 12))
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "[RX]"))
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, logrus.InfoLevel)

	l.Debug("hidden")
	l.InfoF("shown %d", 1)
	l.With("state", "Paired").Warn("tagged")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, "state=Paired")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, lvl)

	lvl, err = ParseLevel("trace")
	require.NoError(t, err)
	assert.Equal(t, logrus.TraceLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
