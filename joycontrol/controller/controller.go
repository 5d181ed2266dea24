package controller

import (
	"sync"

	"dio.wtf/joypair/joycontrol/flash"
	R "dio.wtf/joypair/joycontrol/report"
)

// https://github.com/dekuNukem/Nintendo_Switch_Reverse_Engineering/blob/master/bluetooth_hid_notes.md

// InputState is a snapshot of what the periodic reports carry.
type InputState struct {
	Buttons    [3]byte
	LeftStick  [3]byte
	RightStick [3]byte
}

// Neutral is no buttons held and both sticks resting at the factory center.
func Neutral() InputState {
	return InputState{
		LeftStick:  flash.LeftStickCenter,
		RightStick: flash.RightStickCenter,
	}
}

type Stick int

const (
	LeftStick Stick = iota
	RightStick
)

// Controller holds the emulated button and stick state. It is safe to press
// buttons from one goroutine while reports are built on another.
type Controller struct {
	mu sync.Mutex

	bs    *ButtonState
	left  [3]byte
	right [3]byte
	mcu   *MicroControllerUnit
}

func NewController() *Controller {
	n := Neutral()
	return &Controller{
		bs: &ButtonState{
			data: [3]byte{},
		},
		left:  n.LeftStick,
		right: n.RightStick,
		mcu:   NewMicroControllerUnit(),
	}
}

func (c *Controller) Press(buttons ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bs.press(buttons...)
}

func (c *Controller) Release(buttons ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bs.release(buttons...)
}

// SetStick moves a stick to raw 12 bit coordinates, 0x800 being the middle.
func (c *Controller) SetStick(s Stick, x, y uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == LeftStick {
		c.left = R.PackStick(x, y)
	} else {
		c.right = R.PackStick(x, y)
	}
}

func (c *Controller) Mcu() *MicroControllerUnit {
	return c.mcu
}

// InputState implements the protocol's input source.
func (c *Controller) InputState() InputState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return InputState{
		Buttons:    c.bs.data,
		LeftStick:  c.left,
		RightStick: c.right,
	}
}

// | Byte       | x01 | x02 | x04    | x08    | x10 | x20    | x40 | x80         |
// |:----------:|:---:|:---:|:------:|:------:|:---:|:------:|:---:|:-----------:|
// | 3 (Right)  | Y   | X   | B      | A      | SR  | SL     | R   | ZR          |
// | 4 (Shared) | -   | +   | R Stick| L Stick| Home| Capture| --  |Charging Grip|
// | 5 (Left)   | Down| Up  | Right  | Left   | SR  | SL     | L   | ZL          |
var buttonMap = map[string]struct {
	index int
	bit   int
}{
	"Y": {0, 0},
	"X": {0, 1},
	"B": {0, 2},
	"A": {0, 3},
	// "SR": {0, 4},
	// "SL": {0, 5},
	"R":            {0, 6},
	"ZR":           {0, 7},
	"-":            {1, 0},
	"+":            {1, 1},
	"RStick":       {1, 2},
	"LStick":       {1, 3},
	"Home":         {1, 4},
	"Capture":      {1, 5},
	"ChargingGrip": {1, 7},
	"DOWN":         {2, 0},
	"UP":           {2, 1},
	"RIGHT":        {2, 2},
	"LEFT":         {2, 3},
	// "SR":    {2, 4},
	// "SL":    {2, 5},
	"L":  {2, 6},
	"ZL": {2, 7},
}

type ButtonState struct {
	data [3]byte
}

func (b *ButtonState) press(buttons ...string) {
	for i := range buttons {
		button := buttons[i]
		if info, ok := buttonMap[button]; ok {
			b.data[info.index] |= 1 << info.bit
		}
	}
}

func (b *ButtonState) release(buttons ...string) {
	for i := range buttons {
		button := buttons[i]
		if info, ok := buttonMap[button]; ok {
			b.data[info.index] &^= 1 << info.bit
		}
	}
}
