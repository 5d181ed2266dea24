package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultAddress is used when neither the command line nor the device config
// name one and the adapter address can't be read.
const DefaultAddress = "98:B6:E9:12:34:57"

var ErrInvalidTransport = errors.New("invalid transport")

type TransportKind int

const (
	// HCI names the adapter directly, e.g. hci0.
	HCI TransportKind = iota
	// USBDevice picks the adapter by USB vendor and product id.
	USBDevice
	// USBIndex picks the n-th USB attached adapter.
	USBIndex
)

type TransportSpec struct {
	Kind      TransportKind
	Adapter   string
	VendorID  uint16
	ProductID uint16
	Index     int
}

// ParseTransport accepts usb:<vid>:<pid> (hex), usb:<index> or hciN.
func ParseTransport(s string) (TransportSpec, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "hci") {
		if _, err := strconv.Atoi(s[3:]); nil != err {
			return TransportSpec{}, fmt.Errorf("%w: %q", ErrInvalidTransport, s)
		}
		return TransportSpec{Kind: HCI, Adapter: s}, nil
	}

	rest, ok := strings.CutPrefix(s, "usb:")
	if !ok || rest == "" {
		return TransportSpec{}, fmt.Errorf("%w: %q, want usb:<vid>:<pid> or hciN", ErrInvalidTransport, s)
	}

	parts := strings.Split(rest, ":")
	switch len(parts) {
	case 1:
		n, err := strconv.Atoi(parts[0])
		if nil != err || n < 0 {
			return TransportSpec{}, fmt.Errorf("%w: usb index %q", ErrInvalidTransport, parts[0])
		}
		return TransportSpec{Kind: USBIndex, Index: n}, nil
	case 2:
		vid, err := strconv.ParseUint(parts[0], 16, 16)
		if nil != err {
			return TransportSpec{}, fmt.Errorf("%w: vendor id %q", ErrInvalidTransport, parts[0])
		}
		pid, err := strconv.ParseUint(parts[1], 16, 16)
		if nil != err {
			return TransportSpec{}, fmt.Errorf("%w: product id %q", ErrInvalidTransport, parts[1])
		}
		return TransportSpec{Kind: USBDevice, VendorID: uint16(vid), ProductID: uint16(pid)}, nil
	default:
		return TransportSpec{}, fmt.Errorf("%w: %q", ErrInvalidTransport, s)
	}
}

func (t TransportSpec) String() string {
	switch t.Kind {
	case USBDevice:
		return fmt.Sprintf("usb:%04x:%04x", t.VendorID, t.ProductID)
	case USBIndex:
		return fmt.Sprintf("usb:%d", t.Index)
	default:
		return t.Adapter
	}
}

// ParseAddress wants a colon separated 6 byte Bluetooth address.
func ParseAddress(s string) (net.HardwareAddr, error) {
	addr, err := net.ParseMAC(s)
	if nil != err {
		return nil, err
	}
	if len(addr) != 6 {
		return nil, fmt.Errorf("address %q: want 6 bytes, got %d", s, len(addr))
	}
	return addr, nil
}

// ResolveAddress picks the first non-empty of the given addresses, then
// DefaultAddress.
func ResolveAddress(candidates ...string) (net.HardwareAddr, error) {
	for _, c := range candidates {
		if c != "" {
			return ParseAddress(c)
		}
	}
	return ParseAddress(DefaultAddress)
}
