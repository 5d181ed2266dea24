package joycontrol

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dio.wtf/joypair/joycontrol/log"
	R "dio.wtf/joypair/joycontrol/report"
)

// pipeTransport plays the console: tests push reports into in and read
// what the controller sent from out.
type pipeTransport struct {
	in chan []byte

	mu  sync.Mutex
	out [][]byte
}

func newPipeTransport() *pipeTransport {
	return &pipeTransport{in: make(chan []byte, 16)}
}

func (p *pipeTransport) ReadReport(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case raw, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return raw, nil
	}
}

func (p *pipeTransport) SendReport(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = append(p.out, data)
	return nil
}

func (p *pipeTransport) sent(id R.InputReportId) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.out {
		if R.InputReport(r).Id() == id {
			n++
		}
	}
	return n
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestServerPairsConsole(t *testing.T) {
	var logs syncBuffer
	logger := log.NewWithWriter(&logs, logrus.InfoLevel)
	p := newTestProtocol(t, ProtocolOptions{})
	s := NewServer(p, ServerOptions{Rate: 200, ActiveRate: 400, Logger: logger})
	tr := newPipeTransport()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx, tr) }()

	tr.in <- command(R.RequestDeviceInfo)
	tr.in <- command(R.SpiFlashRead, spiArgs(0x6020, 0x18)...)
	tr.in <- command(R.SetPlayerLights, 0x01)
	tr.in <- command(R.EnableVibration, 0x01)

	select {
	case <-p.Paired():
	case <-time.After(time.Second):
		t.Fatal("not paired")
	}
	require.Eventually(t, func() bool {
		return tr.sent(R.StandardFullModeId) >= statusEvery
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 4, tr.sent(R.SubcommandReplies))

	cancel()
	assert.NoError(t, <-errCh)
	assert.Contains(t, logs.String(), "Pairing complete!")
	assert.Contains(t, logs.String(), "Player number: 1")
}

func TestServerStopsOnDisconnect(t *testing.T) {
	p := newTestProtocol(t, ProtocolOptions{})
	s := NewServer(p, ServerOptions{})
	tr := newPipeTransport()

	tr.in <- command(R.RequestDeviceInfo)
	close(tr.in)

	err := s.Run(context.Background(), tr)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, ExchangingDeviceInfo, p.State())
	assert.Equal(t, 1, tr.sent(R.SubcommandReplies))
}

func TestServerLogsStatusWhilePairing(t *testing.T) {
	var logs syncBuffer
	p := newTestProtocol(t, ProtocolOptions{})
	s := NewServer(p, ServerOptions{Rate: 1000, Logger: log.NewWithWriter(&logs, logrus.InfoLevel)})
	tr := newPipeTransport()
	tr.in <- command(R.RequestDeviceInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, tr)

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(logs.String()), []byte("state=ExchangingDeviceInfo player=0"))
	}, 2*time.Second, 5*time.Millisecond)
}
