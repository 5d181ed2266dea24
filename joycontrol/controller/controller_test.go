package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dio.wtf/joypair/joycontrol/flash"
)

func TestButtonAction(t *testing.T) {
	c := NewController()

	c.Press("UP")
	assert.Equal(t, [3]byte{0x00, 0x00, 0x02}, c.InputState().Buttons)
	c.Press("UP", "A", "Home")
	assert.Equal(t, [3]byte{0x08, 0x10, 0x02}, c.InputState().Buttons)
	c.Release("UP")
	assert.Equal(t, [3]byte{0x08, 0x10, 0x00}, c.InputState().Buttons)
	c.Release("A", "Home", "unknown")
	assert.Equal(t, [3]byte{0x00, 0x00, 0x00}, c.InputState().Buttons)
}

func TestNeutralState(t *testing.T) {
	c := NewController()

	assert.Equal(t, Neutral(), c.InputState())
	assert.Equal(t, flash.LeftStickCenter, c.InputState().LeftStick)
}

func TestSetStick(t *testing.T) {
	c := NewController()

	c.SetStick(RightStick, 0x800, 0x800)
	s := c.InputState()
	assert.Equal(t, [3]byte{0x00, 0x08, 0x80}, s.RightStick)
	assert.Equal(t, flash.LeftStickCenter, s.LeftStick)
}

func TestMcuStateData(t *testing.T) {
	m := NewMicroControllerUnit()

	data := m.StateData()
	assert.Len(t, data, McuReportLength)
	assert.Equal(t, []byte{0x01, 0x00, 0xFF, 0x00, 0x08, 0x00, 0x1B, 0x01}, data[:8])
	assert.Equal(t, byte(0xC8), data[McuReportLength-1])
}

func TestMcuModeNeedsPower(t *testing.T) {
	m := NewMicroControllerUnit()

	m.SetState(McuNfc)
	assert.Equal(t, byte(McuStandby), m.StateData()[7])

	m.TogglePowerState(true)
	m.SetState(McuNfc)
	assert.Equal(t, McuResume, m.PowerState())
	assert.Equal(t, byte(McuNfc), m.StateData()[7])

	m.TogglePowerState(false)
	assert.Equal(t, byte(McuStandby), m.StateData()[7])
}
