package flash

const (
	SerialNumber            uint32 = 0x6000
	SixAxisCalibration      uint32 = 0x6020
	StickCalibration        uint32 = 0x603D
	Colors                  uint32 = 0x6050
	SensorParameters        uint32 = 0x6080
	StickParameters         uint32 = 0x6098
	UserCalibrationStart    uint32 = 0x8010
	UserCalibrationEnd      uint32 = 0x8040
	FactoryCalibrationStart uint32 = SixAxisCalibration
	FactoryCalibrationEnd   uint32 = 0x60B0
)

// Palette holds the RGB colours the console paints the controller icon with.
type Palette struct {
	Body    [3]byte
	Buttons [3]byte
}

// DefaultPalette is the grey body with black buttons of the stock controller.
var DefaultPalette = Palette{
	Body:    [3]byte{0x82, 0x82, 0x82},
	Buttons: [3]byte{0x0F, 0x0F, 0x0F},
}

var (
	sixAxisCalibration = []byte{
		0xD3, 0xFF, 0xD5, 0xFF, 0x55, 0x01, // Accelerometer origin
		0x00, 0x40, 0x00, 0x40, 0x00, 0x40, // Accelerometer sensitivity
		0x19, 0x00, 0xDD, 0xFF, 0xDC, 0xFF, // Gyro origin
		0x3B, 0x34, 0x3B, 0x34, 0x3B, 0x34, // Gyro sensitivity
	}

	leftStickCalibration = []byte{
		0xBA, 0xF5, 0x62, // Max above center
		0x6F, 0xC8, 0x77, // Center
		0xED, 0x95, 0x5B, // Min below center
	}
	rightStickCalibration = []byte{
		0x16, 0xD8, 0x7D, // Center
		0xF2, 0xB5, 0x5F, // Min below center
		0x86, 0x65, 0x5E, // Max above center
	}

	sensorParameters = []byte{0x50, 0xFD, 0x00, 0x00, 0xC6, 0x0F}

	stickParameters = []byte{
		0x0F, 0x30, 0x61, 0x96, 0x30, 0xF3,
		0xD4, 0x14, 0x54, 0x41, 0x15, 0x54,
		0xC7, 0x79, 0x9C, 0x33, 0x36, 0x63,
	}
)

// LeftStickCenter and RightStickCenter are the neutral stick positions
// matching the factory calibration.
var (
	LeftStickCenter  = [3]byte{0x6F, 0xC8, 0x77}
	RightStickCenter = [3]byte{0x16, 0xD8, 0x7D}
)

// ProController returns the flash contents of a genuine Pro Controller.
func ProController() *Store {
	return ProControllerWith(DefaultPalette)
}

func ProControllerWith(p Palette) *Store {
	stick := make([]byte, 0, 32)
	stick = append(stick, leftStickCalibration...)
	stick = append(stick, rightStickCalibration...)
	stick = append(stick, 0xFF)
	stick = append(stick, p.Body[:]...)
	stick = append(stick, p.Buttons[:]...)
	stick = append(stick, fill(7, 0xFF)...) // Grip colours, unused on the Pro Controller

	params := make([]byte, 0, 42)
	params = append(params, sensorParameters...)
	params = append(params, stickParameters...) // Left stick
	params = append(params, stickParameters...) // Right stick

	store, err := New(
		Region{SerialNumber, fill(16, 0xFF)},
		Region{SixAxisCalibration, sixAxisCalibration},
		Region{StickCalibration, stick},
		Region{SensorParameters, params},
		Region{UserCalibrationStart, fill(int(UserCalibrationEnd-UserCalibrationStart), 0xFF)},
	)
	if nil != err {
		panic(err)
	}
	return store
}

func fill(n int, b byte) []byte {
	s := make([]byte, n)
	for i := range s {
		s[i] = b
	}
	return s
}
