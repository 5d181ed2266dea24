package controller

import "sync"

type McuMode uint8

const (
	McuStandby McuMode = 0x01
	McuNfc     McuMode = 0x04
	McuBusy    McuMode = 0x06
)

type McuPowerState uint8

const (
	McuSuspend McuPowerState = 0x00
	McuResume  McuPowerState = 0x01
)

func (p McuPowerState) String() string {
	if p == McuResume {
		return "resumed"
	}
	return "suspended"
}

// McuReportLength is the size of the NFC/IR MCU status block, CRC included.
const McuReportLength = 34

// MicroControllerUnit models the NFC/IR co-processor just far enough to
// answer the configuration subcommands.
type MicroControllerUnit struct {
	mu         sync.Mutex
	mode       McuMode
	powerState McuPowerState
}

func NewMicroControllerUnit() *MicroControllerUnit {
	return &MicroControllerUnit{
		mode:       McuStandby,
		powerState: McuSuspend,
	}
}

// SetState only takes effect while the MCU is resumed.
func (m *MicroControllerUnit) SetState(state McuMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.powerState == McuResume {
		m.mode = state
	}
}

func (m *MicroControllerUnit) TogglePowerState(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on {
		m.powerState = McuResume
	} else {
		m.powerState = McuSuspend
		m.mode = McuStandby
	}
}

func (m *MicroControllerUnit) PowerState() McuPowerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powerState
}

// StateData is the status block returned by SetNfcMcuConfig.
func (m *MicroControllerUnit) StateData() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := make([]byte, McuReportLength)
	data[0] = 0x01                // mcu input report id
	data[1] = 0x00                // Unknown
	data[2] = 0xFF                // Unknown
	data[3], data[4] = 0x00, 0x08 // Major Firmware
	data[5], data[6] = 0x00, 0x1B // Minor Firmware
	data[7] = byte(m.mode)        // MCU State
	data[McuReportLength-1] = crc8(data[:McuReportLength-1])
	return data
}

func crc8(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
