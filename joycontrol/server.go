package joycontrol

import (
	"context"
	"errors"
	"fmt"
	"io"

	"dio.wtf/joypair/joycontrol/log"
	"golang.org/x/sync/errgroup"
)

// statusEvery is how many periodic reports go by between status lines while
// the console is still pairing.
const statusEvery = 30

// Transport carries raw reports to and from the console.
type Transport interface {
	ReadReport(ctx context.Context) ([]byte, error)
	SendReport(data []byte) error
}

type ServerOptions struct {
	Rate       float64
	ActiveRate float64
	Logger     log.Logger
}

type Server struct {
	protocol   *Protocol
	log        log.Logger
	rate       float64
	activeRate float64
}

func NewServer(p *Protocol, opts ServerOptions) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Rate <= 0 {
		opts.Rate = DefaultRate
	}
	if opts.ActiveRate <= 0 {
		opts.ActiveRate = ActiveRate
	}
	return &Server{
		protocol:   p,
		log:        opts.Logger,
		rate:       opts.Rate,
		activeRate: opts.ActiveRate,
	}
}

func (s *Server) Protocol() *Protocol {
	return s.protocol
}

// Run serves one console connection. It returns nil when ctx is cancelled
// and an error wrapping io.EOF when the console goes away.
func (s *Server) Run(ctx context.Context, t Transport) error {
	g, ctx := errgroup.WithContext(ctx)

	sched := NewScheduler(s.protocol, &statusSink{ReportSink: t, server: s}, s.log, s.rate)
	g.Go(func() error {
		sched.Run(ctx)
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-s.protocol.Paired():
			s.announce()
			sched.SetRate(s.activeRate)
		}
		return nil
	})
	g.Go(func() error {
		return s.receive(ctx, t)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) receive(ctx context.Context, t Transport) error {
	for {
		raw, err := t.ReadReport(ctx)
		if nil != err {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("console disconnected: %w", err)
			}
			return err
		}
		for _, reply := range s.protocol.OnReportReceived(raw) {
			if err := t.SendReport(reply); nil != err {
				return fmt.Errorf("send reply: %w", err)
			}
		}
	}
}

func (s *Server) announce() {
	st := s.protocol.Status()
	s.log.Info("Pairing complete!")
	s.log.InfoF("  Player number: %d", st.PlayerNumber)
	s.log.InfoF("  Vibration: %s", enabled(st.VibrationEnabled))
	s.log.InfoF("  Packets exchanged: %d received, %d sent", st.PacketsReceived, st.PacketsSent)
	s.log.InfoF("Keeping the session open at %.0f Hz", s.activeRate)
}

func (s *Server) logStatus() {
	st := s.protocol.Status()
	s.log.InfoF("state=%s player=%d vibration=%s rx=%d tx=%d",
		st.State, st.PlayerNumber, enabled(st.VibrationEnabled), st.PacketsReceived, st.PacketsSent)
}

// statusSink logs progress every statusEvery reports until pairing is done.
// Only the scheduler goroutine calls it.
type statusSink struct {
	ReportSink
	server *Server
	sent   int
}

func (s *statusSink) SendReport(data []byte) error {
	if err := s.ReportSink.SendReport(data); nil != err {
		return err
	}
	s.sent++
	if s.sent%statusEvery == 0 && s.server.protocol.State() != Paired {
		s.server.logStatus()
	}
	return nil
}

func enabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
