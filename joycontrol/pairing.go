package joycontrol

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid pairing transition")

type PairingState uint8

const (
	AwaitingHandshake PairingState = iota
	ExchangingDeviceInfo
	ReadingCalibration
	AwaitingPlayerAssignment
	Paired
)

func (s PairingState) String() string {
	switch s {
	case AwaitingHandshake:
		return "AwaitingHandshake"
	case ExchangingDeviceInfo:
		return "ExchangingDeviceInfo"
	case ReadingCalibration:
		return "ReadingCalibration"
	case AwaitingPlayerAssignment:
		return "AwaitingPlayerAssignment"
	case Paired:
		return "Paired"
	default:
		return "UNKNOWN"
	}
}

// Event is what a dispatched subcommand asks the state machine to do.
type Event uint8

const (
	EventNone Event = iota
	EventDeviceInfo
	EventCalibrationRead
	EventPlayerAssigned
	EventPairingComplete
)

func (e Event) String() string {
	switch e {
	case EventNone:
		return "None"
	case EventDeviceInfo:
		return "DeviceInfo"
	case EventCalibrationRead:
		return "CalibrationRead"
	case EventPlayerAssigned:
		return "PlayerAssigned"
	case EventPairingComplete:
		return "PairingComplete"
	default:
		return "UNKNOWN"
	}
}

var transitions = map[Event]struct {
	from []PairingState
	to   PairingState
}{
	EventDeviceInfo:      {[]PairingState{AwaitingHandshake, ExchangingDeviceInfo}, ExchangingDeviceInfo},
	EventCalibrationRead: {[]PairingState{ExchangingDeviceInfo, ReadingCalibration}, ReadingCalibration},
	EventPlayerAssigned: {[]PairingState{
		AwaitingHandshake, ExchangingDeviceInfo, ReadingCalibration, AwaitingPlayerAssignment,
	}, AwaitingPlayerAssignment},
	EventPairingComplete: {[]PairingState{AwaitingPlayerAssignment}, Paired},
}

// PairingStateMachine holds the session's progress through the handshake.
// It is not synchronised; the owning Protocol serialises access.
type PairingStateMachine struct {
	state PairingState
}

func NewPairingStateMachine() *PairingStateMachine {
	return &PairingStateMachine{state: AwaitingHandshake}
}

func (m *PairingStateMachine) CurrentState() PairingState {
	return m.state
}

func (m *PairingStateMachine) IsPaired() bool {
	return m.state == Paired
}

// RecordTransition applies ev or leaves the state untouched and returns
// ErrInvalidTransition. The bool is true only for the call that enters Paired.
func (m *PairingStateMachine) RecordTransition(ev Event) (bool, error) {
	if ev == EventNone {
		return false, nil
	}
	t, ok := transitions[ev]
	if !ok {
		return false, fmt.Errorf("%w: unknown event %d", ErrInvalidTransition, ev)
	}
	for _, from := range t.from {
		if from == m.state {
			m.state = t.to
			return t.to == Paired, nil
		}
	}
	return false, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, m.state)
}
