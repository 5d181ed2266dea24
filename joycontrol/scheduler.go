package joycontrol

import (
	"context"
	"sync"
	"time"

	"dio.wtf/joypair/joycontrol/log"
)

const (
	// DefaultRate is the input report cadence the console expects while pairing.
	DefaultRate float64 = 15
	// ActiveRate matches a real Pro Controller once it is in use.
	ActiveRate float64 = 132
)

type Ticker interface {
	Tick() []byte
}

type ReportSink interface {
	SendReport(data []byte) error
}

// Scheduler pushes periodic input reports to the sink whether or not the
// console is talking to us.
type Scheduler struct {
	ticker Ticker
	sink   ReportSink
	log    log.Logger

	mu      sync.Mutex
	rate    float64
	changed chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func NewScheduler(ticker Ticker, sink ReportSink, l log.Logger, rate float64) *Scheduler {
	if l == nil {
		l = log.Discard()
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Scheduler{
		ticker:  ticker,
		sink:    sink,
		log:     l,
		rate:    rate,
		changed: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}
}

// Run blocks until ctx is done or Stop is called.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.interval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.changed:
			t.Reset(s.interval())
		case <-t.C:
			data := s.ticker.Tick()
			if data == nil {
				continue
			}
			if err := s.sink.SendReport(data); nil != err {
				s.log.WarnF("send periodic report: %v", err)
			}
		}
	}
}

// SetRate changes the cadence, effective from the next tick.
func (s *Scheduler) SetRate(hz float64) {
	if hz <= 0 {
		return
	}
	s.mu.Lock()
	s.rate = hz
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Scheduler) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Scheduler) interval() time.Duration {
	return time.Duration(float64(time.Second) / s.Rate())
}
