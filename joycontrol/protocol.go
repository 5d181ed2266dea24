package joycontrol

import (
	"fmt"
	"net"
	"sync"

	"dio.wtf/joypair/joycontrol/controller"
	"dio.wtf/joypair/joycontrol/flash"
	"dio.wtf/joypair/joycontrol/log"
	R "dio.wtf/joypair/joycontrol/report"
)

const (
	batteryFull       = 0x80
	connProController = 0x10
)

var vibratorBytes = [...]byte{0xA0, 0xB0, 0xC0, 0x90}

// InputSource supplies the buttons and sticks the periodic reports carry.
type InputSource interface {
	InputState() controller.InputState
}

type neutralInput struct{}

func (neutralInput) InputState() controller.InputState { return controller.Neutral() }

type SessionCounters struct {
	PacketsReceived  uint64
	PacketsSent      uint64
	PlayerNumber     uint8 // 0 until the console assigns one
	VibrationEnabled bool
	ImuEnabled       bool
}

type Status struct {
	State PairingState
	Mode  R.InputReportMode
	SessionCounters
}

type ProtocolOptions struct {
	MacAddr net.HardwareAddr
	// Flash defaults to the factory Pro Controller contents.
	Flash *flash.Store
	// Input defaults to a neutral controller.
	Input   InputSource
	Mcu     *controller.MicroControllerUnit
	Logger  log.Logger
	Packets *log.PacketLog
}

// Protocol is the console facing half of a session. OnReportReceived and
// Tick may be called from different goroutines.
type Protocol struct {
	mu sync.Mutex

	log        log.Logger
	packets    *log.PacketLog
	dispatcher *Dispatcher
	pairing    *PairingStateMachine
	input      InputSource
	mcu        *controller.MicroControllerUnit

	counters          SessionCounters
	mode              R.InputReportMode
	counter           byte
	vibrator          int
	deviceInfoQueried bool

	paired chan struct{}
}

func NewProtocol(opts ProtocolOptions) (*Protocol, error) {
	if len(opts.MacAddr) != 6 {
		return nil, fmt.Errorf("mac address %q: want 6 bytes, got %d", opts.MacAddr, len(opts.MacAddr))
	}
	var mac [6]byte
	copy(mac[:], opts.MacAddr)

	if opts.Flash == nil {
		opts.Flash = flash.ProController()
	}
	if opts.Input == nil {
		opts.Input = neutralInput{}
	}
	if opts.Mcu == nil {
		opts.Mcu = controller.NewMicroControllerUnit()
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	return &Protocol{
		log:        opts.Logger,
		packets:    opts.Packets,
		dispatcher: NewDispatcher(mac, opts.Flash, opts.Mcu),
		pairing:    NewPairingStateMachine(),
		input:      opts.Input,
		mcu:        opts.Mcu,
		mode:       R.StandardFullMode,
		paired:     make(chan struct{}),
	}, nil
}

// OnReportReceived handles one report from the console and returns the
// reports to send back, or nil when the input could not be decoded.
func (p *Protocol) OnReportReceived(raw []byte) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.packets.Log(log.RX, raw)
	p.counters.PacketsReceived++

	in, err := R.Decode(raw)
	if nil != err {
		p.log.WarnF("drop inbound report: %v", err)
		return nil
	}
	p.log.DebugF("received in %s\n%s", p.pairing.CurrentState(), in)

	if !in.HasSubcommand() {
		// Rumble and NFC/IR data reports only need the link kept alive.
		return [][]byte{p.send(p.periodic())}
	}

	out, err := p.dispatcher.Dispatch(in, p.pairing.CurrentState())
	if nil != err {
		p.log.WarnF("%v, sending plain ACK", err)
	}
	p.apply(out)

	p.vibrator = (p.vibrator + 1) % len(vibratorBytes)
	reply := out.Reply
	reply.Standard = p.standard()
	return [][]byte{p.send(reply)}
}

// Tick builds the next periodic input report. Nothing is sent until the
// console has started the handshake.
func (p *Protocol) Tick() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pairing.CurrentState() == AwaitingHandshake {
		return nil
	}
	return p.send(p.periodic())
}

// GetReport answers a GET_REPORT from the control channel. Only the
// subcommand reply and standard full report ids are known.
func (p *Protocol) GetReport(id R.InputReportId) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch id {
	case R.SubcommandReplies:
		return p.send(R.Ack{Standard: p.standard()})
	case R.StandardFullModeId:
		return p.send(R.PeriodicInput{
			Standard:   p.standard(),
			Mode:       R.StandardFullMode,
			ImuEnabled: p.counters.ImuEnabled,
		})
	}
	return nil
}

func (p *Protocol) State() PairingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pairing.CurrentState()
}

func (p *Protocol) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		State:           p.pairing.CurrentState(),
		Mode:            p.mode,
		SessionCounters: p.counters,
	}
}

// Paired is closed once the console has finished pairing.
func (p *Protocol) Paired() <-chan struct{} {
	return p.paired
}

func (p *Protocol) apply(out Outcome) {
	e := out.Effects
	if e.PlayerNumber != 0 {
		p.counters.PlayerNumber = e.PlayerNumber
	}
	if e.EnableVibration {
		p.counters.VibrationEnabled = true
	}
	switch e.Imu {
	case On:
		p.counters.ImuEnabled = true
	case Off:
		p.counters.ImuEnabled = false
	}
	if e.Mode != 0 && e.Mode != p.mode {
		p.log.InfoF("input report mode %s -> %s", p.mode, e.Mode)
		p.mode = e.Mode
	}
	if e.McuPower != Unchanged {
		p.mcu.TogglePowerState(e.McuPower == On)
		p.log.DebugF("mcu %s", p.mcu.PowerState())
	}
	if e.McuMode != 0 {
		p.mcu.SetState(e.McuMode)
	}
	if out.Event == EventDeviceInfo {
		p.deviceInfoQueried = true
	}

	p.transition(out.Event)
	if p.counters.PlayerNumber != 0 && p.counters.VibrationEnabled && !p.pairing.IsPaired() {
		p.transition(EventPairingComplete)
	}
}

func (p *Protocol) transition(ev Event) {
	from := p.pairing.CurrentState()
	entered, err := p.pairing.RecordTransition(ev)
	if nil != err {
		// The console resends earlier stage commands; keep going.
		p.log.DebugF("%v", err)
		return
	}
	if ev != EventNone && from != p.pairing.CurrentState() {
		p.log.DebugF("pairing %s -> %s", from, p.pairing.CurrentState())
	}
	if entered {
		p.log.InfoF("paired as player %d", p.counters.PlayerNumber)
		close(p.paired)
	}
}

func (p *Protocol) periodic() R.PeriodicInput {
	return R.PeriodicInput{
		Standard:   p.standard(),
		Mode:       p.mode,
		ImuEnabled: p.counters.ImuEnabled,
	}
}

// standard takes the next counter value. Battery, input and vibrator stay
// zero until the console has asked for the device info.
func (p *Protocol) standard() R.Standard {
	s := R.Standard{Counter: p.counter}
	p.counter++
	if !p.deviceInfoQueried {
		return s
	}

	in := p.input.InputState()
	s.Battery = batteryFull | connProController
	s.Buttons = in.Buttons
	s.LeftStick = in.LeftStick
	s.RightStick = in.RightStick
	s.Vibrator = vibratorBytes[p.vibrator]
	return s
}

func (p *Protocol) send(r R.OutboundReport) []byte {
	data := R.Encode(r)
	if _, ok := r.(R.Ack); ok {
		// Periodic reports only go to the packet log.
		p.log.DebugF("sent\n%s", R.InputReport(data))
	}
	p.packets.Log(log.TX, data)
	p.counters.PacketsSent++
	return data
}
