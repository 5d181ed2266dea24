package bluez

import (
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/sys/unix"

	"dio.wtf/joypair/joycontrol/log"
	R "dio.wtf/joypair/joycontrol/report"
)

const (
	pollTimeoutMs = 100
	// maxReportSize fits the largest output report the console sends.
	maxReportSize = 512
)

// ReportGetter answers GET_REPORT requests on the control channel.
type ReportGetter interface {
	GetReport(id R.InputReportId) []byte
}

// Listen waits for a console to open both HID channels and returns the
// connection. Discovery is on while waiting and off once connected.
func (a *Adapter) Listen(ctx context.Context, class string, reports ReportGetter) (*Conn, error) {
	addr, err := a.Address()
	if nil != err {
		return nil, err
	}
	a.log.DebugF("MAC: %s", addr)

	ctrlSock, err := listenL2CAP(addr, PSMControl)
	if nil != err {
		return nil, err
	}
	defer unix.Close(ctrlSock)
	itrSock, err := listenL2CAP(addr, PSMInterrupt)
	if nil != err {
		return nil, err
	}
	defer unix.Close(itrSock)

	if err := a.Advertise(true, class); nil != err {
		return nil, err
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.watchReconnects(watchCtx, class)

	ctrl, remote, err := acceptContext(ctx, ctrlSock)
	if nil != err {
		return nil, err
	}
	a.log.DebugF("Accept control %d from %s", ctrl, remote)
	itr, _, err := acceptContext(ctx, itrSock)
	if nil != err {
		unix.Close(ctrl)
		return nil, err
	}
	a.log.DebugF("Accept interrupt %d from %s", itr, remote)
	stopWatch()

	// stop advertising
	if err := a.Advertise(false, class); nil != err {
		a.log.WarnF("stop advertising: %v", err)
	}

	return newConn(ctrl, itr, remote, reports, a.log), nil
}

func acceptContext(ctx context.Context, fd int) (int, string, error) {
	for {
		if err := ctx.Err(); nil != err {
			return -1, "", err
		}
		ok, err := waitReadable(fd, pollTimeoutMs)
		if nil != err {
			return -1, "", err
		}
		if ok {
			return accept(fd)
		}
	}
}

// Conn is one console session over the control and interrupt channels.
type Conn struct {
	ctrl    int
	itr     int
	remote  string
	reports ReportGetter
	log     log.Logger

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newConn(ctrl, itr int, remote string, reports ReportGetter, l log.Logger) *Conn {
	c := &Conn{
		ctrl:    ctrl,
		itr:     itr,
		remote:  remote,
		reports: reports,
		log:     l.With("console", remote),
		done:    make(chan struct{}),
	}
	c.wg.Add(1)
	go c.serveControl()
	return c
}

func (c *Conn) Remote() string {
	return c.remote
}

// ReadReport returns the next interrupt channel report, io.EOF once the
// console has gone away.
func (c *Conn) ReadReport(ctx context.Context) ([]byte, error) {
	buf := make([]byte, maxReportSize)
	for {
		select {
		case <-c.done:
			return nil, io.EOF
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		data, err := c.read(c.itr, buf)
		if nil != err || data != nil {
			return data, err
		}
	}
}

func (c *Conn) SendReport(data []byte) error {
	select {
	case <-c.done:
		return io.ErrClosedPipe
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := unix.Write(c.itr, data)
	return err
}

// Close ends the session and releases both sockets.
func (c *Conn) Close() error {
	c.shutdown()
	c.wg.Wait()
	return errors.Join(unix.Close(c.itr), unix.Close(c.ctrl))
}

func (c *Conn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

// read returns nil, nil when nothing arrived within the poll timeout.
func (c *Conn) read(fd int, buf []byte) ([]byte, error) {
	ok, err := waitReadable(fd, pollTimeoutMs)
	if nil != err || !ok {
		return nil, err
	}
	n, err := unix.Read(fd, buf)
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return nil, nil
	case errors.Is(err, unix.ECONNRESET), errors.Is(err, unix.ENOTCONN):
		c.shutdown()
		return nil, io.EOF
	case nil != err:
		return nil, err
	case n == 0:
		c.shutdown()
		return nil, io.EOF
	}
	return append([]byte(nil), buf[:n]...), nil
}

func (c *Conn) serveControl() {
	defer c.wg.Done()
	buf := make([]byte, maxReportSize)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		msg, err := c.read(c.ctrl, buf)
		if nil != err {
			if !errors.Is(err, io.EOF) {
				c.log.WarnF("control channel: %v", err)
			}
			return
		}
		if msg == nil {
			continue
		}

		reply, unplug := handleControl(msg, c.reports)
		if unplug {
			c.log.Warn("Virtual cable unplug received")
			c.shutdown()
			return
		}
		if reply == nil {
			continue
		}
		c.writeMu.Lock()
		_, err = unix.Write(c.ctrl, reply)
		c.writeMu.Unlock()
		if nil != err {
			c.log.WarnF("control reply: %v", err)
		}
	}
}
