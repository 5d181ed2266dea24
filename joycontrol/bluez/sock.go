package bluez

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

const (
	PSMControl   uint16 = 17
	PSMInterrupt uint16 = 19
)

var errInvalidMAC = errors.New("bluetooth: bad MAC address")

// listenL2CAP opens a SEQPACKET socket bound to addr and psm.
func listenL2CAP(addr string, psm uint16) (fd int, err error) {
	sa, err := ParseBluetoothSockaddr(addr, psm)
	if nil != err {
		return -1, err
	}

	fd, err = unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_SEQPACKET, unix.BTPROTO_L2CAP)
	if nil != err {
		return -1, fmt.Errorf("unix.Socket %w", err)
	}
	defer func() {
		if nil != err {
			unix.Close(fd)
			fd = -1
		}
	}()

	if err = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); nil != err {
		return fd, fmt.Errorf("unix.SetsockoptInt %w", err)
	}
	if err = unix.Bind(fd, sa); nil != err {
		return fd, fmt.Errorf("unix.Bind psm %d: %w", psm, err)
	}
	if err = unix.Listen(fd, 1); nil != err {
		return fd, fmt.Errorf("unix.Listen %w", err)
	}
	return fd, nil
}

// ParseBluetoothSockaddr builds an L2CAP address. The kernel wants the
// bytes reversed, which x/sys/unix takes care of.
func ParseBluetoothSockaddr(addr string, psm uint16) (*unix.SockaddrL2, error) {
	hwAddr, err := net.ParseMAC(addr)
	if nil != err || len(hwAddr) != 6 {
		return nil, errInvalidMAC
	}
	var d [6]byte
	copy(d[:], hwAddr)
	return &unix.SockaddrL2{
		PSM:      psm,
		Addr:     d,
		AddrType: unix.BDADDR_BREDR,
	}, nil
}

// waitReadable polls fd for up to timeoutMs. It reports false on timeout.
func waitReadable(fd int, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMs)
	if nil != err {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, err
	}
	// POLLHUP counts as readable so the next read reports the hangup.
	return n > 0, nil
}

func accept(fd int) (int, string, error) {
	nfd, sa, err := unix.Accept(fd)
	if nil != err {
		return -1, "", err
	}
	remote := ""
	if l2, ok := sa.(*unix.SockaddrL2); ok {
		// Accepted addresses come back in kernel byte order.
		var b [6]byte
		for i := range b {
			b[i] = l2.Addr[len(b)-1-i]
		}
		remote = net.HardwareAddr(b[:]).String()
	}
	return nfd, remote, nil
}
