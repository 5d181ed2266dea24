package joycontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairingTransitions(t *testing.T) {
	tests := []struct {
		name    string
		events  []Event
		want    PairingState
		invalid int
	}{
		{"fresh", nil, AwaitingHandshake, 0},
		{"device info", []Event{EventDeviceInfo}, ExchangingDeviceInfo, 0},
		{"device info resent", []Event{EventDeviceInfo, EventDeviceInfo}, ExchangingDeviceInfo, 0},
		{"calibration", []Event{EventDeviceInfo, EventCalibrationRead}, ReadingCalibration, 0},
		{"calibration before device info", []Event{EventCalibrationRead}, AwaitingHandshake, 1},
		{"device info after calibration", []Event{EventDeviceInfo, EventCalibrationRead, EventDeviceInfo}, ReadingCalibration, 1},
		{"player straight away", []Event{EventPlayerAssigned}, AwaitingPlayerAssignment, 0},
		{"full handshake", []Event{EventDeviceInfo, EventCalibrationRead, EventPlayerAssigned, EventPairingComplete}, Paired, 0},
		{"complete too early", []Event{EventDeviceInfo, EventPairingComplete}, ExchangingDeviceInfo, 1},
		{"none is ignored", []Event{EventNone, EventDeviceInfo, EventNone}, ExchangingDeviceInfo, 0},
		{"nothing leaves paired", []Event{
			EventPlayerAssigned, EventPairingComplete,
			EventDeviceInfo, EventCalibrationRead, EventPlayerAssigned, EventPairingComplete,
		}, Paired, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPairingStateMachine()
			invalid := 0
			for _, ev := range tt.events {
				if _, err := m.RecordTransition(ev); nil != err {
					assert.ErrorIs(t, err, ErrInvalidTransition)
					invalid++
				}
			}
			assert.Equal(t, tt.want, m.CurrentState())
			assert.Equal(t, tt.want == Paired, m.IsPaired())
			assert.Equal(t, tt.invalid, invalid)
		})
	}
}

func TestPairingCompleteSignalledOnce(t *testing.T) {
	m := NewPairingStateMachine()

	entered, err := m.RecordTransition(EventPlayerAssigned)
	require.NoError(t, err)
	assert.False(t, entered)

	entered, err = m.RecordTransition(EventPairingComplete)
	require.NoError(t, err)
	assert.True(t, entered)

	entered, err = m.RecordTransition(EventPairingComplete)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.False(t, entered)
	assert.Equal(t, Paired, m.CurrentState())
}

func TestRecordTransitionUnknownEvent(t *testing.T) {
	m := NewPairingStateMachine()
	_, err := m.RecordTransition(Event(42))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, AwaitingHandshake, m.CurrentState())
}

func TestPairingStateString(t *testing.T) {
	assert.Equal(t, "ReadingCalibration", ReadingCalibration.String())
	assert.Equal(t, "Paired", Paired.String())
	assert.Equal(t, "UNKNOWN", PairingState(9).String())
	assert.Equal(t, "PlayerAssigned", EventPlayerAssigned.String())
}
