package bluez

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"golang.org/x/exp/slices"
)

const watchInterval = 500 * time.Millisecond

// watchReconnects keeps the adapter discoverable while waiting and removes
// Switches that connect then disconnect twice. That pattern means a stale
// pairing, which only goes away once the console is removed.
func (a *Adapter) watchReconnects(ctx context.Context, class string) {
	connected := make(map[string]struct{})
	drops := make(map[string]int)

	t := time.NewTicker(watchInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		if discoverable, err := a.GetDiscoverable(); nil == err && !discoverable {
			a.log.Debug("Resetup device")
			if err := a.Advertise(true, class); nil != err {
				a.log.DebugF("advertise: %v", err)
			}
		}

		consoles, err := a.Consoles(true)
		if nil != err {
			a.log.DebugF("list consoles: %v", err)
			continue
		}
		paths := make([]string, 0, len(consoles))
		for _, c := range consoles {
			paths = append(paths, string(c.Path))
		}

		for _, path := range trackDrops(connected, drops, paths) {
			a.log.DebugF("A Nintendo Switch disconnected. Resetting Connection...Removing %s", path)
			if err := a.RemoveDevice(dbus.ObjectPath(path)); nil != err {
				a.log.DebugF("Remove device failed: %v", err)
			}
		}
	}
}

// trackDrops updates the connected set from the currently connected paths
// and returns the devices that have now dropped twice.
func trackDrops(connected map[string]struct{}, drops map[string]int, paths []string) (reset []string) {
	for _, path := range paths {
		connected[path] = struct{}{}
	}

	for k := range connected {
		if !slices.Contains(paths, k) {
			drops[k]++
			delete(connected, k)
		}
	}

	for k, v := range drops {
		if v >= 2 {
			reset = append(reset, k)
			drops[k] = 0
		}
	}
	slices.Sort(reset)
	return
}
